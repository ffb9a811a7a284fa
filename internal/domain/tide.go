package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Tides reconstructs tidal signals for a fixed, ordered set of constituents.
// Times passed to the synthesis methods are seconds since the epoch bound by SetInitialTime.
// A Tides value is not safe for concurrent use.
type Tides struct {
	constituents []Constituent
	names        []string
	omega        []float64
	phi          []float64
	f            []float64
	u            []float64
	epoch        time.Time
	epochSet     bool
	nodal        NodalCorrection
}

// TidesOption configures a Tides value.
type TidesOption func(*Tides)

// WithNodalCorrection selects the nodal correction scheme. The default is PolynomialScheme.
func WithNodalCorrection(nc NodalCorrection) TidesOption {
	return func(t *Tides) {
		if nc != nil {
			t.nodal = nc
		}
	}
}

// NewTides builds a synthesizer for names. An empty list selects the full catalog.
func NewTides(names []string, opts ...TidesOption) (*Tides, error) {
	if len(names) == 0 {
		names = ConstituentNames()
	}
	t := &Tides{
		constituents: make([]Constituent, 0, len(names)),
		names:        make([]string, 0, len(names)),
		omega:        make([]float64, 0, len(names)),
		nodal:        NewPolynomialScheme(),
	}
	var unknown []string
	for _, name := range names {
		c, err := LookupConstituent(name)
		if err != nil {
			unknown = append(unknown, name)
			continue
		}
		t.constituents = append(t.constituents, c)
		t.names = append(t.names, c.Name)
		t.omega = append(t.omega, c.Omega)
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedConstituent, strings.Join(unknown, ", "))
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// SetInitialTime binds the epoch, computes the Greenwich arguments and the nodal
// corrections at the epoch. The epoch should lie in the same era as the synthesis times,
// since the ephemeris polynomials are evaluated there.
func (t *Tides) SetInitialTime(t0 time.Time) error {
	t0 = t0.UTC()
	e := AstronomicalArgument(t0)
	phi := make([]float64, len(t.constituents))
	for i, c := range t.constituents {
		phi[i] = c.argument(e)
	}
	f, u, err := NodalFactors(t.nodal, t.names, e)
	if err != nil {
		return err
	}
	t.epoch, t.epochSet = t0, true
	t.phi, t.f, t.u = phi, f, u
	return nil
}

// ComputeNodalCorrections recomputes f and u at sec seconds after the epoch.
// The Greenwich arguments are left unchanged.
func (t *Tides) ComputeNodalCorrections(sec float64) error {
	if !t.epochSet {
		return ErrEpochNotSet
	}
	whole := math.Floor(sec)
	at := time.Unix(t.epoch.Unix()+int64(whole), int64(t.epoch.Nanosecond())+int64((sec-whole)*1e9)).UTC()
	f, u, err := NodalFactors(t.nodal, t.names, AstronomicalArgument(at))
	if err != nil {
		return err
	}
	t.f, t.u = f, u
	return nil
}

func (t *Tides) checkReady(lens ...int) error {
	if !t.epochSet {
		return ErrEpochNotSet
	}
	for _, n := range lens {
		if n != len(t.constituents) {
			return fmt.Errorf("%w: got %d values for %d constituents", ErrDimensionMismatch, n, len(t.constituents))
		}
	}
	return nil
}

// FromAmplitudePhase returns Σ f·a·cos(ωt − p + φ + u) for phases p in radians.
func (t *Tides) FromAmplitudePhase(amplitudes, phases []float64, sec float64) (float64, error) {
	if err := t.checkReady(len(amplitudes), len(phases)); err != nil {
		return 0, err
	}
	eta := 0.0
	for i := range t.constituents {
		eta += t.f[i] * amplitudes[i] * math.Cos(t.omega[i]*sec-phases[i]+t.phi[i]+t.u[i])
	}
	return eta, nil
}

// FromComplexComponents returns Σ f·(cos(ωt + φ + u)·re − sin(ωt + φ + u)·im).
func (t *Tides) FromComplexComponents(re, im []float64, sec float64) (float64, error) {
	if err := t.checkReady(len(re), len(im)); err != nil {
		return 0, err
	}
	eta := 0.0
	for i := range t.constituents {
		arg := t.omega[i]*sec + t.phi[i] + t.u[i]
		eta += t.f[i] * (math.Cos(arg)*re[i] - math.Sin(arg)*im[i])
	}
	return eta, nil
}

func (t *Tides) checkPlanes(a, b [][]float64, out []float64) error {
	if err := t.checkReady(len(a), len(b)); err != nil {
		return err
	}
	for i := range a {
		if len(a[i]) != len(out) || len(b[i]) != len(out) {
			return fmt.Errorf("%w: plane %d has %d/%d points, want %d",
				ErrDimensionMismatch, i, len(a[i]), len(b[i]), len(out))
		}
	}
	return nil
}

// FieldFromAmplitudePhase evaluates FromAmplitudePhase at every point, with one plane per
// constituent, and writes the result into out.
func (t *Tides) FieldFromAmplitudePhase(amplitudes, phases [][]float64, sec float64, out []float64) error {
	if err := t.checkPlanes(amplitudes, phases, out); err != nil {
		return err
	}
	for k := range out {
		out[k] = 0
	}
	for i := range t.constituents {
		base := t.omega[i]*sec + t.phi[i] + t.u[i]
		fi := t.f[i]
		a, p := amplitudes[i], phases[i]
		for k := range out {
			out[k] += fi * a[k] * math.Cos(base-p[k])
		}
	}
	return nil
}

// FieldFromComplexComponents evaluates FromComplexComponents at every point, with one
// plane per constituent, and writes the result into out.
func (t *Tides) FieldFromComplexComponents(re, im [][]float64, sec float64, out []float64) error {
	if err := t.checkPlanes(re, im, out); err != nil {
		return err
	}
	for k := range out {
		out[k] = 0
	}
	for i := range t.constituents {
		arg := t.omega[i]*sec + t.phi[i] + t.u[i]
		c, s := t.f[i]*math.Cos(arg), t.f[i]*math.Sin(arg)
		r, m := re[i], im[i]
		for k := range out {
			out[k] += c*r[k] - s*m[k]
		}
	}
	return nil
}

// Constituents returns the constituent names in order.
func (t *Tides) Constituents() []string { return append([]string(nil), t.names...) }

// Omega returns the angular speeds in rad/s.
func (t *Tides) Omega() []float64 { return append([]float64(nil), t.omega...) }

// Phi returns the Greenwich arguments at the epoch in radians.
func (t *Tides) Phi() []float64 { return append([]float64(nil), t.phi...) }

// F returns the nodal amplitude factors.
func (t *Tides) F() []float64 { return append([]float64(nil), t.f...) }

// U returns the nodal phase corrections in radians.
func (t *Tides) U() []float64 { return append([]float64(nil), t.u...) }

// Epoch returns the bound epoch and whether one has been set.
func (t *Tides) Epoch() (time.Time, bool) { return t.epoch, t.epochSet }
