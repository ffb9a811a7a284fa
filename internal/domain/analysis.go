package domain

import (
	"fmt"
	"log/slog"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// HarmonicAnalysis fits amplitudes and phases (radians) of t's constituents to the signal x
// sampled at times (seconds since t's epoch). Without Z0 among the constituents a mean
// level is fitted as well and discarded.
//
// The fit is the minimum-norm least squares solution, so constituents with coinciding
// speeds share their energy instead of failing the solve.
func HarmonicAnalysis(t *Tides, x, times []float64) (amplitudes, phases []float64, err error) {
	if len(x) != len(times) {
		return nil, nil, fmt.Errorf("%w: %d samples at %d times", ErrDimensionMismatch, len(x), len(times))
	}
	if err := t.checkReady(); err != nil {
		return nil, nil, err
	}

	m := len(t.omega)
	z0 := -1
	for i, name := range t.names {
		if name == "Z0" {
			z0 = i
			break
		}
	}

	// Column layout: [ones] cos(ω_1 t)..cos(ω_M t) sin(ω_j t) for j != Z0.
	offset := 1
	if z0 >= 0 {
		offset = 0
	}
	sinCols := make([]int, 0, m)
	for i := range t.omega {
		if i != z0 {
			sinCols = append(sinCols, i)
		}
	}
	cols := offset + m + len(sinCols)

	design := mat.NewDense(len(times), cols, nil)
	for r, ts := range times {
		if offset == 1 {
			design.Set(r, 0, 1)
		}
		for i, w := range t.omega {
			design.Set(r, offset+i, math.Cos(w*ts))
		}
		for k, i := range sinCols {
			design.Set(r, offset+m+k, math.Sin(t.omega[i]*ts))
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(design, mat.SVDThin); !ok {
		return nil, nil, fmt.Errorf("harmonic analysis: SVD factorization failed")
	}
	rank := svd.Rank(float64(max(len(times), cols)) * 2.220446049250313e-16)
	if rank < cols {
		slog.Debug("rank deficient harmonic fit", "rank", rank, "columns", cols)
	}
	var sol mat.VecDense
	svd.SolveVecTo(&sol, mat.NewVecDense(len(x), append([]float64(nil), x...)), rank)

	amplitudes = make([]float64, m)
	phases = make([]float64, m)
	sinOf := make([]float64, m)
	for k, i := range sinCols {
		sinOf[i] = sol.AtVec(offset + m + k)
	}
	for i := range t.omega {
		a := complex(sol.AtVec(offset+i), -sinOf[i])
		amplitudes[i] = cmplx.Abs(a) / t.f[i]
		g := math.Mod(t.phi[i]+t.u[i]-cmplx.Phase(a), 2*math.Pi)
		if g < 0 {
			g += 2 * math.Pi
		}
		phases[i] = g
	}
	return amplitudes, phases, nil
}

// ErrorAnalysis returns, per constituent, the RMS difference over a tidal period between
// two harmonic descriptions (Cummins and Oey, 1997). Phases are in radians.
func ErrorAnalysis(modAmp, modPhase, obsAmp, obsPhase []float64) ([]float64, error) {
	n := len(modAmp)
	if len(modPhase) != n || len(obsAmp) != n || len(obsPhase) != n {
		return nil, fmt.Errorf("%w: error analysis inputs", ErrDimensionMismatch)
	}
	d := make([]float64, n)
	for i := range d {
		v := 0.5*(modAmp[i]*modAmp[i]+obsAmp[i]*obsAmp[i]) - obsAmp[i]*modAmp[i]*math.Cos(obsPhase[i]-modPhase[i])
		d[i] = math.Sqrt(math.Max(v, 0))
	}
	return d, nil
}
