// Package fes reads FES2014-style atlases, one NetCDF file per constituent,
// described by a FES handler configuration.
package fes

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.ngs.io/tides/internal/adapter/store"
	"go.ngs.io/tides/internal/adapter/store/ncfile"
	"go.ngs.io/tides/internal/domain"
	"go.ngs.io/tides/internal/tidefield"
)

const (
	// TypeTide is the section type of constituent files.
	TypeTide = "TIDE"

	// window is the half-width in degrees of the grid loaded around a query.
	window = 1.0
	// cmToM converts FES amplitudes to metres.
	cmToM = 0.01
)

// Opener opens a dataset by path.
type Opener func(path string) (store.DataSource, error)

// Option configures a Store.
type Option func(*Store)

// WithOpener replaces the NetCDF opener, e.g. with in-memory datasets.
func WithOpener(open Opener) Option {
	return func(s *Store) { s.open = open }
}

// Store interpolates FES constituents at arbitrary locations.
type Store struct {
	cfg  *Config
	open Opener

	mu      sync.RWMutex
	cache   map[[2]float64][]domain.ConstituentParam
	sources map[string]store.DataSource
}

var _ store.ConstituentLoader = (*Store)(nil)

// NewStore creates a store over the TIDE sections of cfg.
func NewStore(cfg *Config, opts ...Option) *Store {
	s := &Store{
		cfg: cfg,
		open: func(path string) (store.DataSource, error) {
			return ncfile.Open(path)
		},
		cache:   make(map[[2]float64][]domain.ConstituentParam),
		sources: make(map[string]store.DataSource),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Open parses the configuration file at path and creates a store over it.
func Open(path, dataPath string, opts ...Option) (*Store, error) {
	//nolint:gosec // G304: configuration path comes from the operator.
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open FES configuration: %w", err)
	}
	defer func() { _ = f.Close() }()
	cfg, err := ParseConfig(f, dataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return NewStore(cfg, opts...), nil
}

// Discover builds a configuration from the <constituent>.nc files found
// anywhere under dataDir, in catalog order.
func Discover(dataDir string) (*Config, error) {
	if _, err := os.Stat(dataDir); err != nil {
		return nil, fmt.Errorf("FES data directory: %w", err)
	}

	found := make(map[string]string)
	err := filepath.WalkDir(dataDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".nc") {
			return nil
		}
		name := strings.ToUpper(strings.TrimSuffix(d.Name(), ".nc"))
		if _, err := domain.LookupConstituent(name); err == nil {
			if _, dup := found[name]; !dup {
				found[name] = path
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk FES directory: %w", err)
	}

	cfg := newConfig()
	for _, name := range domain.ConstituentNames() {
		path, ok := found[name]
		if !ok {
			continue
		}
		cfg.set(TypeTide, name, FieldFile, path)
		cfg.set(TypeTide, name, FieldLatitude, "lat")
		cfg.set(TypeTide, name, FieldLongitude, "lon")
		cfg.set(TypeTide, name, FieldAmplitude, "amplitude")
		cfg.set(TypeTide, name, FieldPhase, "phase")
	}
	if len(cfg.sections) == 0 {
		return nil, fmt.Errorf("no FES NetCDF files found in %s", dataDir)
	}
	return cfg, nil
}

// Constituents returns the configured constituents known to the catalog, in
// configuration order.
func (s *Store) Constituents() []string {
	var names []string
	for _, name := range s.cfg.Names(TypeTide) {
		if _, err := domain.LookupConstituent(name); err == nil {
			names = append(names, name)
		}
	}
	return names
}

// LoadForStation is not supported by the FES store.
func (s *Store) LoadForStation(_ string) ([]domain.ConstituentParam, error) {
	return nil, errors.New("FES store does not support station_id queries - use lat/lon parameters")
}

// LoadForLocation interpolates amplitude (m) and phase (degrees) of every
// configured constituent at (lat, lon). Land points take the mean of the
// nearest sea cells.
func (s *Store) LoadForLocation(lat, lon float64) ([]domain.ConstituentParam, error) {
	lon = normalizeLon360(lon)
	key := [2]float64{math.Round(lat*1e4) / 1e4, math.Round(lon*1e4) / 1e4}

	s.mu.RLock()
	params, ok := s.cache[key]
	s.mu.RUnlock()
	if ok {
		return append([]domain.ConstituentParam(nil), params...), nil
	}

	params, err := s.interpolate(lat, lon)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[key] = params
	s.mu.Unlock()
	return append([]domain.ConstituentParam(nil), params...), nil
}

func (s *Store) interpolate(lat, lon float64) ([]domain.ConstituentParam, error) {
	names := s.Constituents()
	if len(names) == 0 {
		return nil, errors.New("no FES constituents configured")
	}
	upper := make([]string, len(names))
	for k, n := range names {
		upper[k] = strings.ToUpper(n)
	}
	tides, err := domain.NewTides(upper)
	if err != nil {
		return nil, err
	}

	sections := make([]Section, len(names))
	amps := make([]tidefield.Ref, len(names))
	phases := make([]tidefield.Ref, len(names))
	for k, name := range names {
		sec, _ := s.cfg.Section(TypeTide, name)
		src, err := s.source(sec.Get(FieldFile, ""))
		if err != nil {
			return nil, fmt.Errorf("constituent %s: %w", name, err)
		}
		sections[k] = sec
		amps[k] = tidefield.Ref{Source: src, Name: sec.Get(FieldAmplitude, "amplitude")}
		phases[k] = tidefield.Ref{Source: src, Name: sec.Get(FieldPhase, "phase")}
	}

	first := sections[0]
	src := amps[0].Source
	dims, coords, err := gridAxes(src, first.Get(FieldLatitude, "lat"), first.Get(FieldLongitude, "lon"))
	if err != nil {
		return nil, err
	}
	field, err := tidefield.New(tides, src, dims, coords)
	if err != nil {
		return nil, err
	}
	if err := field.SetRanges([2][2]float64{{lat - window, lat + window}, {lon - window, lon + window}}); err != nil {
		return nil, fmt.Errorf("location (%.4f, %.4f): %w", lat, lon, err)
	}
	if fill, ok := src.FillValue(amps[0].Name); ok {
		if err := field.SetMaskFromFillValue(amps[0].Name, fill); err != nil {
			return nil, err
		}
	}
	if err := field.LoadAmplitudesAndPhases(amps, phases, tidefield.WithAmplitudeScale(cmToM)); err != nil {
		return nil, err
	}

	re, im, err := field.Coefficients([2]float64{lat, lon}, true)
	if err != nil {
		return nil, fmt.Errorf("failed to interpolate at (%.4f, %.4f): %w", lat, lon, err)
	}
	slog.Info("loaded FES window", "lat", lat, "lon", lon, "constituents", len(names))

	params := make([]domain.ConstituentParam, len(names))
	for k := range names {
		phase := domain.Rad2Deg(math.Atan2(-im[k], re[k]))
		if phase < 0 {
			phase += 360
		}
		params[k] = domain.ConstituentParam{
			Name:       upper[k],
			AmplitudeM: math.Hypot(re[k], im[k]),
			PhaseDeg:   phase,
		}
	}
	return params, nil
}

// gridAxes names the grid dimensions after the dimensions of the 1D
// coordinate variables.
func gridAxes(src store.DataSource, latName, lonName string) (dims, coords [2]string, err error) {
	coords = [2]string{latName, lonName}
	for a, name := range coords {
		v, err := src.Var(name)
		if err != nil {
			return dims, coords, err
		}
		if len(v.Dims) != 1 {
			return dims, coords, fmt.Errorf("coordinate %q has dimensions %v", name, v.Dims)
		}
		dims[a] = v.Dims[0]
	}
	return dims, coords, nil
}

func (s *Store) source(path string) (store.DataSource, error) {
	if path == "" {
		return nil, errors.New("no FILE configured")
	}
	s.mu.RLock()
	src, ok := s.sources[path]
	s.mu.RUnlock()
	if ok {
		return src, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if src, ok := s.sources[path]; ok {
		return src, nil
	}
	src, err := s.open(path)
	if err != nil {
		return nil, err
	}
	s.sources[path] = src
	return src, nil
}

// Close closes every opened dataset.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var errs []error
	for path, src := range s.sources {
		if err := src.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
		}
		delete(s.sources, path)
	}
	return errors.Join(errs...)
}

// normalizeLon360 wraps a longitude onto the 0-360 axis of FES grids.
func normalizeLon360(lon float64) float64 {
	lon = math.Mod(lon, 360.0)
	if lon < 0 {
		lon += 360.0
	}
	return lon
}
