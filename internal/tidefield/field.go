// Package tidefield evaluates the tide of a gridded harmonic atlas at any
// time and point.
package tidefield

import (
	"errors"
	"fmt"
	"math"

	"go.ngs.io/tides/internal/adapter/interp"
	"go.ngs.io/tides/internal/adapter/store"
	"go.ngs.io/tides/internal/domain"
)

var (
	// ErrCoefficientsNotLoaded is returned when synthesizing before any amplitudes are loaded.
	ErrCoefficientsNotLoaded = errors.New("tidal coefficients not loaded")
	// ErrTimeNotSet is returned when evaluating before SetTime.
	ErrTimeNotSet = errors.New("time not set")
)

// Ref names a variable. A nil Source means the field's own grid source.
type Ref struct {
	Source store.DataSource
	Name   string
}

// LoadOption configures coefficient loading.
type LoadOption func(*loadConfig)

type loadConfig struct {
	amplitudeScale float64
}

// WithAmplitudeScale multiplies amplitudes, or both complex components, by k.
func WithAmplitudeScale(k float64) LoadOption {
	return func(c *loadConfig) { c.amplitudeScale = k }
}

func newLoadConfig(opts []LoadOption) loadConfig {
	c := loadConfig{amplitudeScale: 1}
	for _, o := range opts {
		o(&c)
	}
	return c
}

// Field holds the complex harmonic coefficients of every constituent of a
// Tides value over one grid window.
type Field struct {
	tides *domain.Tides
	grid  *interp.Grid

	re, im   [][]float64
	coeffs   *interp.Interpolator
	snapshot *interp.Interpolator
}

// New opens a field on the grid of src.
func New(tides *domain.Tides, src store.DataSource, dims, coords [2]string) (*Field, error) {
	grid, err := interp.NewGrid(src, dims, coords)
	if err != nil {
		return nil, err
	}
	return &Field{tides: tides, grid: grid}, nil
}

// Grid returns the underlying grid.
func (f *Field) Grid() *interp.Grid { return f.grid }

// Tides returns the synthesizer the field evaluates with.
func (f *Field) Tides() *domain.Tides { return f.tides }

// SetRanges restricts the grid window. It must precede coefficient loading.
func (f *Field) SetRanges(ranges [2][2]float64) error {
	if f.re != nil {
		return fmt.Errorf("%w: coefficients already loaded", interp.ErrRangeConfiguration)
	}
	return f.grid.SetRanges(ranges)
}

// SetMask loads a 1 (sea) / 0 (land) mask variable and drops any loaded coefficients.
func (f *Field) SetMask(name string) error {
	f.coeffs, f.snapshot = nil, nil
	return f.grid.SetMask(name)
}

// SetMaskFromFillValue derives the mask from cells of name equal to fill.
func (f *Field) SetMaskFromFillValue(name string, fill float64) error {
	f.coeffs, f.snapshot = nil, nil
	return f.grid.SetMaskFromFillValue(name, fill)
}

// LoadAmplitudesAndPhases loads one 2D amplitude and one 2D phase (degrees)
// variable per constituent.
func (f *Field) LoadAmplitudesAndPhases(amps, phases []Ref, opts ...LoadOption) error {
	a, err := f.collect(amps)
	if err != nil {
		return err
	}
	p, err := f.collect(phases)
	if err != nil {
		return err
	}
	return f.setAmplitudesAndPhases(a, p, newLoadConfig(opts))
}

// LoadAmplitudesAndPhasesBlock loads amplitudes and phases (degrees) from 3D
// variables, taking plane comps[i] for constituent i.
func (f *Field) LoadAmplitudesAndPhasesBlock(amp, phase Ref, comps []int, opts ...LoadOption) error {
	a, err := f.collectBlock(amp, comps)
	if err != nil {
		return err
	}
	p, err := f.collectBlock(phase, comps)
	if err != nil {
		return err
	}
	return f.setAmplitudesAndPhases(a, p, newLoadConfig(opts))
}

// LoadComplexComponents loads one 2D real and one 2D imaginary variable per
// constituent.
func (f *Field) LoadComplexComponents(re, im []Ref, opts ...LoadOption) error {
	r, err := f.collect(re)
	if err != nil {
		return err
	}
	i, err := f.collect(im)
	if err != nil {
		return err
	}
	return f.setComplex(r, i, newLoadConfig(opts))
}

// LoadComplexComponentsBlock loads real and imaginary parts from 3D variables.
func (f *Field) LoadComplexComponentsBlock(re, im Ref, comps []int, opts ...LoadOption) error {
	r, err := f.collectBlock(re, comps)
	if err != nil {
		return err
	}
	i, err := f.collectBlock(im, comps)
	if err != nil {
		return err
	}
	return f.setComplex(r, i, newLoadConfig(opts))
}

func (f *Field) checkCount(n int) error {
	if want := len(f.tides.Constituents()); n != want {
		return fmt.Errorf("%w: %d coefficient planes for %d constituents", domain.ErrDimensionMismatch, n, want)
	}
	return nil
}

// gridFor returns a grid reading from src that shares this field's geometry.
func (f *Field) gridFor(src store.DataSource, cache map[store.DataSource]*interp.Grid) *interp.Grid {
	if src == nil || src == f.grid.Source() {
		return f.grid
	}
	if g, ok := cache[src]; ok {
		return g
	}
	g := interp.NewGridFrom(src, f.grid)
	cache[src] = g
	return g
}

func (f *Field) collect(refs []Ref) ([][]float64, error) {
	if err := f.checkCount(len(refs)); err != nil {
		return nil, err
	}
	grids := make(map[store.DataSource]*interp.Grid)
	out := make([][]float64, len(refs))
	for k, ref := range refs {
		planes, err := f.gridFor(ref.Source, grids).LoadPlanes(ref.Name, nil)
		if err != nil {
			return nil, err
		}
		if len(planes) != 1 {
			return nil, fmt.Errorf("%w: variable %q holds %d planes", domain.ErrDimensionMismatch, ref.Name, len(planes))
		}
		out[k] = planes[0]
	}
	return out, nil
}

func (f *Field) collectBlock(ref Ref, comps []int) ([][]float64, error) {
	if err := f.checkCount(len(comps)); err != nil {
		return nil, err
	}
	return f.gridFor(ref.Source, map[store.DataSource]*interp.Grid{}).LoadPlanes(ref.Name, comps)
}

func (f *Field) setAmplitudesAndPhases(amps, phases [][]float64, cfg loadConfig) error {
	re := make([][]float64, len(amps))
	im := make([][]float64, len(amps))
	for k := range amps {
		re[k] = make([]float64, len(amps[k]))
		im[k] = make([]float64, len(amps[k]))
		for c, a := range amps[k] {
			s, co := math.Sincos(domain.Deg2Rad(phases[k][c]))
			re[k][c] = a * co
			im[k][c] = -a * s
		}
	}
	return f.setComplex(re, im, cfg)
}

func (f *Field) setComplex(re, im [][]float64, cfg loadConfig) error {
	if cfg.amplitudeScale != 1 {
		for k := range re {
			for c := range re[k] {
				re[k][c] *= cfg.amplitudeScale
				im[k][c] *= cfg.amplitudeScale
			}
		}
	}
	f.re, f.im = re, im
	f.coeffs, f.snapshot = nil, nil
	return nil
}

func (f *Field) newInterpolator(planes [][]float64) (*interp.Interpolator, error) {
	field, err := interp.NewField(f.grid.Shape(), planes...)
	if err != nil {
		return nil, err
	}
	return interp.NewInterpolator(f.grid.Origin(), f.grid.Delta(), field, f.grid.Mask())
}

// SetTime synthesizes the tide over the whole window at sec seconds after
// the Tides epoch, using its current nodal corrections.
func (f *Field) SetTime(sec float64) error {
	if f.re == nil {
		return ErrCoefficientsNotLoaded
	}
	shape := f.grid.Shape()
	out := make([]float64, shape[0]*shape[1])
	if err := f.tides.FieldFromComplexComponents(f.re, f.im, sec, out); err != nil {
		return err
	}
	in, err := f.newInterpolator([][]float64{out})
	if err != nil {
		return err
	}
	f.snapshot = in
	return nil
}

// Value interpolates the tide synthesized by the last SetTime.
func (f *Field) Value(x [2]float64, allowExtrapolation bool) (float64, error) {
	if f.snapshot == nil {
		return 0, ErrTimeNotSet
	}
	return f.snapshot.Value(x, allowExtrapolation)
}

// Coefficients interpolates the complex coefficients of every constituent at x.
func (f *Field) Coefficients(x [2]float64, allowExtrapolation bool) (re, im []float64, err error) {
	if f.re == nil {
		return nil, nil, ErrCoefficientsNotLoaded
	}
	if f.coeffs == nil {
		planes := append(append([][]float64(nil), f.re...), f.im...)
		if f.coeffs, err = f.newInterpolator(planes); err != nil {
			return nil, nil, err
		}
	}
	v, err := f.coeffs.Values(x, allowExtrapolation)
	if err != nil {
		return nil, nil, err
	}
	n := len(f.re)
	return v[:n], v[n:], nil
}
