package tidefield

import (
	"fmt"
	"strings"

	"go.ngs.io/tides/internal/adapter/interp"
	"go.ngs.io/tides/internal/adapter/store"
	"go.ngs.io/tides/internal/domain"
)

// AtlasOption configures the vendor atlas constructors.
type AtlasOption func(*atlasConfig)

type atlasConfig struct {
	ranges *[2][2]float64
	load   []LoadOption
}

// WithRanges restricts the atlas to a coordinate window, in the atlas's
// own axis order.
func WithRanges(ranges [2][2]float64) AtlasOption {
	return func(c *atlasConfig) { c.ranges = &ranges }
}

// WithLoadOptions passes options to coefficient loading.
func WithLoadOptions(opts ...LoadOption) AtlasOption {
	return func(c *atlasConfig) { c.load = append(c.load, opts...) }
}

func newAtlas(tides *domain.Tides, src store.DataSource, dims, coords [2]string, opts []AtlasOption) (*Field, atlasConfig, error) {
	var cfg atlasConfig
	for _, o := range opts {
		o(&cfg)
	}
	f, err := New(tides, src, dims, coords)
	if err != nil {
		return nil, cfg, err
	}
	if cfg.ranges != nil {
		if err := f.SetRanges(*cfg.ranges); err != nil {
			return nil, cfg, err
		}
	}
	return f, cfg, nil
}

func hasVar(src store.DataSource, name string) bool {
	_, err := src.Var(name)
	return err == nil
}

// NewAMCG opens an AMCG atlas: (latitude, longitude) axes, an optional
// "mask" variable, and "<c>amp"/"<c>phase" variables per constituent.
func NewAMCG(tides *domain.Tides, src store.DataSource, opts ...AtlasOption) (*Field, error) {
	f, cfg, err := newAtlas(tides, src, [2]string{"latitude", "longitude"}, [2]string{"latitude", "longitude"}, opts)
	if err != nil {
		return nil, err
	}
	if hasVar(src, "mask") {
		if err := f.SetMask("mask"); err != nil {
			return nil, err
		}
	}

	names := tides.Constituents()
	amps := make([]Ref, len(names))
	phases := make([]Ref, len(names))
	for k, name := range names {
		c := strings.ToLower(name)
		amps[k] = Ref{Name: c + "amp"}
		phases[k] = Ref{Name: c + "phase"}
	}
	if err := f.LoadAmplitudesAndPhases(amps, phases, cfg.load...); err != nil {
		return nil, err
	}
	return f, nil
}

// NewOTPS opens an OTPS atlas split into a grid file, with (nx, ny) axes,
// (lon_z, lat_z) coordinates and an optional "mz" mask, and a data file
// with hRe/hIm stacked along the constituents listed in "con".
func NewOTPS(tides *domain.Tides, gridSrc, dataSrc store.DataSource, opts ...AtlasOption) (*Field, error) {
	f, cfg, err := newAtlas(tides, gridSrc, [2]string{"nx", "ny"}, [2]string{"lon_z", "lat_z"}, opts)
	if err != nil {
		return nil, err
	}
	if hasVar(gridSrc, "mz") {
		if err := f.SetMask("mz"); err != nil {
			return nil, err
		}
	}
	f.grid = interp.NewGridFrom(dataSrc, f.grid)

	comps, err := constituentIndices(dataSrc, "con", tides.Constituents())
	if err != nil {
		return nil, err
	}
	if err := f.LoadComplexComponentsBlock(Ref{Name: "hRe"}, Ref{Name: "hIm"}, comps, cfg.load...); err != nil {
		return nil, err
	}
	return f, nil
}

// NewFES2004 opens a FES2004-style single file: (Y, X) axes with (lat, lon)
// coordinates, land marked by the fill value of Ha, and Ha/Hg stacked along
// the constituents listed in "spectrum".
func NewFES2004(tides *domain.Tides, src store.DataSource, opts ...AtlasOption) (*Field, error) {
	f, cfg, err := newAtlas(tides, src, [2]string{"Y", "X"}, [2]string{"lat", "lon"}, opts)
	if err != nil {
		return nil, err
	}
	fill, ok := src.FillValue("Ha")
	if !ok {
		return nil, fmt.Errorf("variable %q has no fill value", "Ha")
	}
	if err := f.SetMaskFromFillValue("Ha", fill); err != nil {
		return nil, err
	}

	comps, err := constituentIndices(src, "spectrum", tides.Constituents())
	if err != nil {
		return nil, err
	}
	if err := f.LoadAmplitudesAndPhasesBlock(Ref{Name: "Ha"}, Ref{Name: "Hg"}, comps, cfg.load...); err != nil {
		return nil, err
	}
	return f, nil
}

// constituentIndices maps names to their index in a character variable,
// ignoring case.
func constituentIndices(src store.DataSource, listVar string, names []string) ([]int, error) {
	list, err := src.ReadStrings(listVar)
	if err != nil {
		return nil, err
	}
	index := make(map[string]int, len(list))
	for k, c := range list {
		index[strings.ToLower(c)] = k
	}
	comps := make([]int, len(names))
	for k, name := range names {
		i, ok := index[strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("%w: %s not listed in %q", domain.ErrUnsupportedConstituent, name, listVar)
		}
		comps[k] = i
	}
	return comps, nil
}
