package usecase

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"go.ngs.io/tides/internal/adapter/store"
	"go.ngs.io/tides/internal/domain"
)

// ErrInvalidRequest wraps every request validation failure.
var ErrInvalidRequest = errors.New("invalid request")

// nodalRefresh is how often f and u are recomputed along a series.
const nodalRefresh = 24 * time.Hour

// Nodal correction schemes accepted in a request.
const (
	NodalPolynomial = "polynomial"
	NodalOTPS       = "otps"
	NodalGroup      = "group"
)

// Source names reported in responses.
const (
	SourceCSV    = "csv"
	SourceSQLite = "sqlite"
	SourceFES    = "fes"
)

// PredictionRequest encapsulates a tide prediction request
type PredictionRequest struct {
	// Location parameters (mutually exclusive with StationID)
	Lat *float64
	Lon *float64

	// Station ID (mutually exclusive with Lat/Lon)
	StationID *string

	// Time range
	Start time.Time
	End   time.Time

	// Interval for predictions (e.g., 10 minutes)
	Interval time.Duration

	// Optional parameters
	Datum  string // "MSL" by default, others resolved through a DatumTable
	Source string // station store name or "fes"; empty selects by location kind
	Nodal  string // "polynomial" (default), "otps" or "group"
}

// PredictionResponse contains the tide prediction results
type PredictionResponse struct {
	Source       string            `json:"source"`
	Datum        string            `json:"datum"`
	Timezone     string            `json:"timezone"`
	Constituents []string          `json:"constituents"`
	Predictions  []PredictionPoint `json:"predictions"`
	Extrema      ExtremaResponse   `json:"extrema"`
	Meta         map[string]string `json:"meta"`
}

// PredictionPoint represents a single tide height prediction
type PredictionPoint struct {
	Time    string  `json:"time"`
	HeightM float64 `json:"height_m"`
}

// ExtremaResponse contains high and low tides
type ExtremaResponse struct {
	Highs []PredictionPoint `json:"highs"`
	Lows  []PredictionPoint `json:"lows"`
}

// Option configures a PredictionUseCase.
type Option func(*PredictionUseCase)

// WithStationSource names the station loader in responses ("csv" by default).
func WithStationSource(name string) Option {
	return func(uc *PredictionUseCase) { uc.stationSource = name }
}

// WithDatumTable resolves non-MSL datums against the given offsets.
func WithDatumTable(table *DatumTable) Option {
	return func(uc *PredictionUseCase) { uc.datums = table }
}

// PredictionUseCase orchestrates tide prediction
type PredictionUseCase struct {
	stations      store.ConstituentLoader
	atlas         store.ConstituentLoader
	stationSource string
	datums        *DatumTable
}

// NewPredictionUseCase creates a new prediction use case. Either loader may be
// nil, in which case requests needing it are rejected.
func NewPredictionUseCase(stations, atlas store.ConstituentLoader, opts ...Option) *PredictionUseCase {
	uc := &PredictionUseCase{
		stations:      stations,
		atlas:         atlas,
		stationSource: SourceCSV,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Validate checks if the request is valid
func (r *PredictionRequest) Validate() error {
	hasLatLon := r.Lat != nil && r.Lon != nil
	hasStationID := r.StationID != nil && *r.StationID != ""

	if !hasLatLon && !hasStationID {
		return fmt.Errorf("either lat/lon or station_id must be provided")
	}

	if hasLatLon && hasStationID {
		return fmt.Errorf("lat/lon and station_id are mutually exclusive")
	}

	if hasLatLon {
		if math.IsNaN(*r.Lat) || *r.Lat < -90 || *r.Lat > 90 {
			return fmt.Errorf("latitude must be between -90 and 90")
		}
		if math.IsNaN(*r.Lon) || *r.Lon < -180 || *r.Lon > 180 {
			return fmt.Errorf("longitude must be between -180 and 180")
		}
	}

	if !r.Start.Before(r.End) {
		return fmt.Errorf("start time must be before end time")
	}

	if r.Interval < time.Minute {
		return fmt.Errorf("interval must be at least 1 minute")
	}
	if r.Interval > 6*time.Hour {
		return fmt.Errorf("interval must be at most 6 hours")
	}

	duration := r.End.Sub(r.Start)
	if duration > 365*24*time.Hour {
		return fmt.Errorf("time range must be at most 365 days")
	}

	numPoints := int(duration / r.Interval)
	if numPoints > 10000 {
		return fmt.Errorf("too many prediction points (%d) - reduce time range or increase interval", numPoints)
	}

	switch strings.ToLower(r.Nodal) {
	case "", NodalPolynomial, NodalOTPS, NodalGroup:
	default:
		return fmt.Errorf("unknown nodal scheme %q", r.Nodal)
	}

	return nil
}

func nodalScheme(name string) (string, domain.NodalCorrection) {
	switch strings.ToLower(name) {
	case NodalGroup:
		return NodalGroup, domain.GroupScheme{}
	case NodalOTPS:
		return NodalOTPS, domain.NewOTPSPolynomialScheme()
	default:
		return NodalPolynomial, domain.NewPolynomialScheme()
	}
}

// Execute performs the tide prediction
func (uc *PredictionUseCase) Execute(req PredictionRequest) (*PredictionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	source, params, err := uc.load(req)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(params))
	amplitudes := make([]float64, 0, len(params))
	phases := make([]float64, 0, len(params))
	var dropped []string
	for _, p := range params {
		if _, err := domain.LookupConstituent(p.Name); err != nil {
			dropped = append(dropped, p.Name)
			continue
		}
		names = append(names, p.Name)
		amplitudes = append(amplitudes, p.AmplitudeM)
		phases = append(phases, p.PhaseDeg)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no usable constituents from %s", domain.ErrUnsupportedConstituent, source)
	}

	datum, offset, err := uc.datumOffset(req)
	if err != nil {
		return nil, err
	}

	schemeName, scheme := nodalScheme(req.Nodal)
	tides, err := domain.NewTides(names, domain.WithNodalCorrection(scheme))
	if err != nil {
		return nil, err
	}
	if err := tides.SetInitialTime(req.Start); err != nil {
		return nil, err
	}
	slog.Debug("nodal corrections", "scheme", schemeName, "epoch", req.Start, "refresh", nodalRefresh,
		"constituents", len(names))

	series, err := domain.GenerateSeries(tides, amplitudes, phases, req.Start, req.End, req.Interval, nodalRefresh)
	if err != nil {
		return nil, err
	}
	extrema := domain.RefineExtrema(series, domain.FindExtrema(series))

	response := &PredictionResponse{
		Source:       source,
		Datum:        datum,
		Timezone:     "+00:00",
		Constituents: names,
		Predictions:  toPoints(series, offset),
		Extrema: ExtremaResponse{
			Highs: toPoints(extrema.Highs, offset),
			Lows:  toPoints(extrema.Lows, offset),
		},
		Meta: map[string]string{
			"model": "harmonic",
			"nodal": schemeName,
		},
	}
	if len(dropped) > 0 {
		response.Meta["dropped"] = strings.Join(dropped, ",")
	}
	if source == SourceFES {
		response.Meta["attribution"] = "FES2014 tidal atlas"
	} else {
		response.Meta["attribution"] = "station harmonic constants (" + source + ")"
	}

	return response, nil
}

func (uc *PredictionUseCase) load(req PredictionRequest) (string, []domain.ConstituentParam, error) {
	if req.StationID != nil && *req.StationID != "" {
		if req.Source == SourceFES {
			return "", nil, fmt.Errorf("%w: FES source does not support station_id - use lat/lon instead", ErrInvalidRequest)
		}
		if uc.stations == nil {
			return "", nil, fmt.Errorf("%w: no station store configured", ErrInvalidRequest)
		}
		params, err := uc.stations.LoadForStation(*req.StationID)
		if err != nil {
			return "", nil, fmt.Errorf("failed to load constituents for station %s: %w", *req.StationID, err)
		}
		return uc.stationSource, params, nil
	}

	if req.Source != "" && req.Source != SourceFES {
		return "", nil, fmt.Errorf("%w: %s source does not support lat/lon - use station_id instead", ErrInvalidRequest, req.Source)
	}
	if uc.atlas == nil {
		return "", nil, fmt.Errorf("%w: no tidal atlas configured for lat/lon queries", ErrInvalidRequest)
	}
	params, err := uc.atlas.LoadForLocation(*req.Lat, *req.Lon)
	if err != nil {
		return "", nil, fmt.Errorf("failed to load constituents for location (%.4f, %.4f): %w", *req.Lat, *req.Lon, err)
	}
	return SourceFES, params, nil
}

func (uc *PredictionUseCase) datumOffset(req PredictionRequest) (string, float64, error) {
	datum := strings.ToUpper(req.Datum)
	if datum == "" || datum == DatumMSL {
		return DatumMSL, 0, nil
	}
	if uc.datums != nil {
		if off, ok := uc.datums.Lookup(datum, req.StationID, req.Lat, req.Lon); ok {
			return datum, off, nil
		}
	}
	return "", 0, fmt.Errorf("%w: datum %s is not available here", ErrInvalidRequest, datum)
}

func toPoints(levels []domain.TideLevel, offset float64) []PredictionPoint {
	points := make([]PredictionPoint, len(levels))
	for i, l := range levels {
		points[i] = PredictionPoint{
			Time:    l.Time.UTC().Format(time.RFC3339),
			HeightM: roundToDecimal(l.HeightM+offset, 3),
		}
	}
	return points
}

// ConstituentInfo describes one catalog entry.
type ConstituentInfo struct {
	Name          string  `json:"name"`
	Species       int     `json:"species"`
	Omega         float64 `json:"omega_rad_s"`
	SpeedDegPerHr float64 `json:"speed_deg_per_hr"`
	Doodson       [6]int  `json:"doodson"`
	PhaseOrigin   float64 `json:"phase_origin_deg"`
	Family        string  `json:"nodal_family,omitempty"`
}

// GetAllConstituents returns all available constituents
func (uc *PredictionUseCase) GetAllConstituents() []ConstituentInfo {
	catalog := domain.Catalog()
	out := make([]ConstituentInfo, len(catalog))
	for i, c := range catalog {
		out[i] = ConstituentInfo{
			Name:          c.Name,
			Species:       c.Species(),
			Omega:         c.Omega,
			SpeedDegPerHr: c.SpeedDegPerHr(),
			Doodson:       c.Lunar,
			PhaseOrigin:   c.PhaseOrigin,
			Family:        c.Family,
		}
	}
	return out
}

// ComponentInfo is one primary inside a decomposed name.
type ComponentInfo struct {
	Name         string `json:"name"`
	Multiplicity int    `json:"multiplicity"`
}

// DecompositionInfo is the decomposition of a compound constituent name.
type DecompositionInfo struct {
	Name       string          `json:"name"`
	Species    int             `json:"species"`
	LongPeriod bool            `json:"long_period"`
	Components []ComponentInfo `json:"components"`
}

// Decompose splits a compound constituent name into its primaries.
func (uc *PredictionUseCase) Decompose(name string) (*DecompositionInfo, error) {
	d, err := domain.DecomposeConstituent(name)
	if err != nil {
		return nil, err
	}
	info := &DecompositionInfo{
		Name:       strings.ToUpper(name),
		Species:    d.Diurnal,
		LongPeriod: d.LongPeriod,
		Components: make([]ComponentInfo, len(d.Components)),
	}
	for i, c := range d.Components {
		info.Components[i] = ComponentInfo{Name: c.Primary(), Multiplicity: c.Multiplicity}
	}
	if d.LongPeriod {
		// Long-period names are not split.
		info.Components = []ComponentInfo{{Name: info.Name, Multiplicity: 1}}
	}
	return info, nil
}

func roundToDecimal(val float64, precision int) float64 {
	m := math.Pow(10, float64(precision))
	return math.Round(val*m) / m
}
