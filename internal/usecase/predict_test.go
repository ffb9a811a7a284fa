package usecase

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"go.ngs.io/tides/internal/adapter/store"
	"go.ngs.io/tides/internal/adapter/store/csv"
	"go.ngs.io/tides/internal/domain"
)

type fakeAtlas struct {
	params []domain.ConstituentParam
	err    error
	calls  int
}

func (f *fakeAtlas) LoadForStation(string) ([]domain.ConstituentParam, error) {
	return nil, errors.New("not supported")
}

func (f *fakeAtlas) LoadForLocation(_, _ float64) ([]domain.ConstituentParam, error) {
	f.calls++
	return f.params, f.err
}

func ptr[T any](v T) *T { return &v }

var (
	start = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end   = start.Add(48 * time.Hour)
)

func newStations(t *testing.T) *csv.ConstituentStore {
	t.Helper()
	s := csv.NewConstituentStore(t.TempDir())
	err := s.SaveStation("tokyo", []domain.ConstituentParam{
		{Name: "M2", AmplitudeM: 1.0, PhaseDeg: 0},
		{Name: "ZZ9", AmplitudeM: 0.3, PhaseDeg: 10},
	})
	if err != nil {
		t.Fatalf("SaveStation() error = %v", err)
	}
	return s
}

func TestPredictionRequest_Validate(t *testing.T) {
	base := func() PredictionRequest {
		return PredictionRequest{StationID: ptr("tokyo"), Start: start, End: end, Interval: 10 * time.Minute}
	}
	tests := []struct {
		name   string
		modify func(*PredictionRequest)
		want   string
	}{
		{"valid", func(*PredictionRequest) {}, ""},
		{"no location", func(r *PredictionRequest) { r.StationID = nil }, "either lat/lon"},
		{"both", func(r *PredictionRequest) { r.Lat, r.Lon = ptr(1.0), ptr(2.0) }, "mutually exclusive"},
		{"latitude", func(r *PredictionRequest) { r.StationID, r.Lat, r.Lon = nil, ptr(91.0), ptr(0.0) }, "latitude"},
		{"longitude", func(r *PredictionRequest) { r.StationID, r.Lat, r.Lon = nil, ptr(0.0), ptr(-181.0) }, "longitude"},
		{"nan", func(r *PredictionRequest) { r.StationID, r.Lat, r.Lon = nil, ptr(math.NaN()), ptr(0.0) }, "latitude"},
		{"reversed", func(r *PredictionRequest) { r.End = r.Start }, "before end"},
		{"short interval", func(r *PredictionRequest) { r.Interval = time.Second }, "at least 1 minute"},
		{"long interval", func(r *PredictionRequest) { r.Interval = 7 * time.Hour }, "at most 6 hours"},
		{"long range", func(r *PredictionRequest) { r.End = r.Start.Add(400 * 24 * time.Hour); r.Interval = 6 * time.Hour }, "365 days"},
		{"too many points", func(r *PredictionRequest) { r.End = r.Start.Add(30 * 24 * time.Hour); r.Interval = time.Minute }, "too many"},
		{"nodal", func(r *PredictionRequest) { r.Nodal = "lunar" }, "nodal scheme"},
		{"nodal case", func(r *PredictionRequest) { r.Nodal = "GROUP" }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base()
			tt.modify(&req)
			err := req.Validate()
			if tt.want == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Validate() error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestExecute_Station(t *testing.T) {
	for _, nodal := range []string{"", NodalGroup, NodalOTPS} {
		t.Run("nodal="+nodal, func(t *testing.T) {
			uc := NewPredictionUseCase(newStations(t), nil)
			resp, err := uc.Execute(PredictionRequest{
				StationID: ptr("tokyo"), Start: start, End: end, Interval: 10 * time.Minute, Nodal: nodal,
			})
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if resp.Source != SourceCSV || resp.Datum != DatumMSL || resp.Timezone != "+00:00" {
				t.Errorf("header = %q %q %q", resp.Source, resp.Datum, resp.Timezone)
			}
			if diff := cmp.Diff([]string{"M2"}, resp.Constituents); diff != "" {
				t.Errorf("Constituents mismatch (-want +got):\n%s", diff)
			}
			if resp.Meta["dropped"] != "ZZ9" {
				t.Errorf("Meta[dropped] = %q, want ZZ9", resp.Meta["dropped"])
			}
			wantNodal := nodal
			if wantNodal == "" {
				wantNodal = NodalPolynomial
			}
			if resp.Meta["nodal"] != wantNodal {
				t.Errorf("Meta[nodal] = %q, want %q", resp.Meta["nodal"], wantNodal)
			}
			if len(resp.Predictions) != 289 {
				t.Fatalf("len(Predictions) = %d, want 289", len(resp.Predictions))
			}
			if resp.Predictions[0].Time != "2024-03-01T00:00:00Z" {
				t.Errorf("first time = %s", resp.Predictions[0].Time)
			}
			for _, p := range resp.Predictions {
				if math.Abs(p.HeightM) > 1.1 {
					t.Fatalf("height %v at %s exceeds amplitude", p.HeightM, p.Time)
				}
			}
			// M2 has a period of about 12.42 hours.
			if n := len(resp.Extrema.Highs); n < 3 || n > 4 {
				t.Errorf("len(Highs) = %d", n)
			}
			if n := len(resp.Extrema.Lows); n < 3 || n > 4 {
				t.Errorf("len(Lows) = %d", n)
			}
			for _, h := range resp.Extrema.Highs {
				if h.HeightM < 0.9 {
					t.Errorf("high %v at %s", h.HeightM, h.Time)
				}
			}
			for _, l := range resp.Extrema.Lows {
				if l.HeightM > -0.9 {
					t.Errorf("low %v at %s", l.HeightM, l.Time)
				}
			}
		})
	}
}

func TestExecute_Location(t *testing.T) {
	atlas := &fakeAtlas{params: []domain.ConstituentParam{{Name: "K1", AmplitudeM: 0.4, PhaseDeg: 90}}}
	uc := NewPredictionUseCase(nil, atlas)
	resp, err := uc.Execute(PredictionRequest{
		Lat: ptr(35.0), Lon: ptr(139.0), Start: start, End: start.Add(24 * time.Hour), Interval: time.Hour,
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if resp.Source != SourceFES || atlas.calls != 1 {
		t.Errorf("Source = %q, calls = %d", resp.Source, atlas.calls)
	}
	if len(resp.Predictions) != 25 {
		t.Errorf("len(Predictions) = %d, want 25", len(resp.Predictions))
	}
	if _, ok := resp.Meta["dropped"]; ok {
		t.Errorf("unexpected dropped entry %q", resp.Meta["dropped"])
	}

	atlas.err = errors.New("boom")
	if _, err := uc.Execute(PredictionRequest{
		Lat: ptr(35.0), Lon: ptr(139.0), Start: start, End: end, Interval: time.Hour,
	}); err == nil || !strings.Contains(err.Error(), "boom") {
		t.Errorf("Execute() error = %v, want atlas error", err)
	}
}

func TestExecute_Errors(t *testing.T) {
	stations := newStations(t)
	tests := []struct {
		name string
		uc   *PredictionUseCase
		req  PredictionRequest
		want error
	}{
		{
			name: "invalid",
			uc:   NewPredictionUseCase(stations, nil),
			req:  PredictionRequest{StationID: ptr("tokyo"), Start: end, End: start, Interval: time.Hour},
			want: ErrInvalidRequest,
		},
		{
			name: "unknown station",
			uc:   NewPredictionUseCase(stations, nil),
			req:  PredictionRequest{StationID: ptr("nagoya"), Start: start, End: end, Interval: time.Hour},
			want: store.ErrNotFound,
		},
		{
			name: "fes station",
			uc:   NewPredictionUseCase(stations, &fakeAtlas{}),
			req:  PredictionRequest{StationID: ptr("tokyo"), Start: start, End: end, Interval: time.Hour, Source: SourceFES},
			want: ErrInvalidRequest,
		},
		{
			name: "csv location",
			uc:   NewPredictionUseCase(stations, &fakeAtlas{}),
			req:  PredictionRequest{Lat: ptr(0.0), Lon: ptr(0.0), Start: start, End: end, Interval: time.Hour, Source: SourceCSV},
			want: ErrInvalidRequest,
		},
		{
			name: "no atlas",
			uc:   NewPredictionUseCase(stations, nil),
			req:  PredictionRequest{Lat: ptr(0.0), Lon: ptr(0.0), Start: start, End: end, Interval: time.Hour},
			want: ErrInvalidRequest,
		},
		{
			name: "no stations",
			uc:   NewPredictionUseCase(nil, &fakeAtlas{}),
			req:  PredictionRequest{StationID: ptr("tokyo"), Start: start, End: end, Interval: time.Hour},
			want: ErrInvalidRequest,
		},
		{
			name: "nothing usable",
			uc:   NewPredictionUseCase(nil, &fakeAtlas{params: []domain.ConstituentParam{{Name: "ZZ9", AmplitudeM: 1}}}),
			req:  PredictionRequest{Lat: ptr(0.0), Lon: ptr(0.0), Start: start, End: end, Interval: time.Hour},
			want: domain.ErrUnsupportedConstituent,
		},
		{
			name: "unknown datum",
			uc:   NewPredictionUseCase(stations, nil),
			req:  PredictionRequest{StationID: ptr("tokyo"), Start: start, End: end, Interval: time.Hour, Datum: "LAT"},
			want: ErrInvalidRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.uc.Execute(tt.req)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Execute() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestExecute_Datum(t *testing.T) {
	table := NewDatumTable([]DatumOffset{
		{Datum: "lat", Station: "tokyo", OffsetM: 1.2},
		{Datum: "LAT", Lat: 35.0, Lon: 139.0, OffsetM: 0.5},
	})
	uc := NewPredictionUseCase(newStations(t), &fakeAtlas{params: []domain.ConstituentParam{{Name: "M2", AmplitudeM: 0.4}}},
		WithDatumTable(table))

	resp, err := uc.Execute(PredictionRequest{
		StationID: ptr("tokyo"), Start: start, End: end, Interval: 10 * time.Minute, Datum: "lat",
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if resp.Datum != "LAT" {
		t.Errorf("Datum = %q, want LAT", resp.Datum)
	}
	for _, p := range resp.Predictions {
		if p.HeightM < 0.1 {
			t.Fatalf("height %v at %s below datum offset", p.HeightM, p.Time)
		}
	}

	resp, err = uc.Execute(PredictionRequest{
		Lat: ptr(35.1), Lon: ptr(139.1), Start: start, End: end, Interval: time.Hour, Datum: "LAT",
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	for _, p := range resp.Predictions {
		if p.HeightM < 0.05 {
			t.Fatalf("height %v at %s below datum offset", p.HeightM, p.Time)
		}
	}

	// Beyond the default radius nothing matches.
	if _, err := uc.Execute(PredictionRequest{
		Lat: ptr(40.0), Lon: ptr(139.0), Start: start, End: end, Interval: time.Hour, Datum: "LAT",
	}); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("Execute() error = %v, want ErrInvalidRequest", err)
	}
}

func TestGetAllConstituents(t *testing.T) {
	uc := NewPredictionUseCase(nil, nil)
	all := uc.GetAllConstituents()
	if len(all) != len(domain.ConstituentNames()) {
		t.Fatalf("len = %d, want %d", len(all), len(domain.ConstituentNames()))
	}
	for _, c := range all {
		if c.Name != "M2" {
			continue
		}
		if c.Species != 2 || math.Abs(c.SpeedDegPerHr-28.9841042) > 1e-5 {
			t.Errorf("M2 = %+v", c)
		}
		return
	}
	t.Error("M2 missing from catalog")
}

func TestDecompose(t *testing.T) {
	uc := NewPredictionUseCase(nil, nil)
	got, err := uc.Decompose("2ms6")
	if err != nil {
		t.Fatalf("Decompose() error = %v", err)
	}
	want := &DecompositionInfo{
		Name:    "2MS6",
		Species: 6,
		Components: []ComponentInfo{
			{Name: "M2", Multiplicity: 2},
			{Name: "S2", Multiplicity: 1},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Decompose() mismatch (-want +got):\n%s", diff)
	}
	got, err = uc.Decompose("mf")
	if err != nil {
		t.Fatalf("Decompose(mf) error = %v", err)
	}
	want = &DecompositionInfo{Name: "MF", LongPeriod: true, Components: []ComponentInfo{{Name: "MF", Multiplicity: 1}}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Decompose(mf) mismatch (-want +got):\n%s", diff)
	}
	if _, err := uc.Decompose(""); !errors.Is(err, domain.ErrUnsupportedConstituent) {
		t.Errorf("Decompose(\"\") error = %v", err)
	}
}

func TestReadDatumTable(t *testing.T) {
	table, err := ReadDatumTable(strings.NewReader(`[{"datum":"cdl","station":"kobe","offset_m":0.9}]`))
	if err != nil {
		t.Fatalf("ReadDatumTable() error = %v", err)
	}
	if off, ok := table.Lookup("CDL", ptr("kobe"), nil, nil); !ok || off != 0.9 {
		t.Errorf("Lookup() = %v, %v", off, ok)
	}
	if _, ok := table.Lookup("CDL", ptr("osaka"), nil, nil); ok {
		t.Error("Lookup() matched another station")
	}
	if _, err := ReadDatumTable(strings.NewReader(`{`)); err == nil {
		t.Error("ReadDatumTable() accepted malformed JSON")
	}
}
