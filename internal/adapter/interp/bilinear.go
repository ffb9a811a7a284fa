// Package interp implements masked bilinear interpolation on regular grids.
package interp

import (
	"fmt"
	"log/slog"
	"math"
)

// Field holds one or more planes of a regular grid in row-major order.
// Planes[k][i*Shape[1]+j] is the value of plane k at cell (i, j).
type Field struct {
	Shape  [2]int
	Planes [][]float64
}

// NewField validates the plane lengths against shape.
func NewField(shape [2]int, planes ...[]float64) (*Field, error) {
	if len(planes) == 0 {
		return nil, fmt.Errorf("%w: field without planes", ErrDimensionMismatch)
	}
	for k, p := range planes {
		if len(p) != shape[0]*shape[1] {
			return nil, fmt.Errorf("%w: plane %d has %d values for shape %v", ErrDimensionMismatch, k, len(p), shape)
		}
	}
	return &Field{Shape: shape, Planes: planes}, nil
}

// NumPlanes returns the number of planes.
func (f *Field) NumPlanes() int { return len(f.Planes) }

// Interpolator evaluates a Field at arbitrary points. An optional mask
// holds 1 for sea and 0 for land cells; masked cells get zero weight.
type Interpolator struct {
	origin [2]float64
	delta  [2]float64
	field  *Field
	mask   []float64

	// extrapolation holds the sea cells found around each query point that
	// needed the ring search.
	extrapolation map[[2]float64][][2]int
}

// NewInterpolator builds an Interpolator. The mask may be nil.
func NewInterpolator(origin, delta [2]float64, field *Field, mask []float64) (*Interpolator, error) {
	if field == nil {
		return nil, ErrFieldNotSet
	}
	if _, err := NewField(field.Shape, field.Planes...); err != nil {
		return nil, err
	}
	if mask != nil && len(mask) != field.Shape[0]*field.Shape[1] {
		return nil, fmt.Errorf("%w: mask has %d values for shape %v", ErrDimensionMismatch, len(mask), field.Shape)
	}
	if delta[0] == 0 || delta[1] == 0 {
		return nil, fmt.Errorf("%w: zero grid spacing %v", ErrDimensionMismatch, delta)
	}
	return &Interpolator{
		origin:        origin,
		delta:         delta,
		field:         field,
		mask:          mask,
		extrapolation: make(map[[2]float64][][2]int),
	}, nil
}

// Value interpolates the first plane at x.
func (in *Interpolator) Value(x [2]float64, allowExtrapolation bool) (float64, error) {
	v, err := in.values(x, allowExtrapolation, 1)
	if err != nil {
		return 0, err
	}
	return v[0], nil
}

// Values interpolates every plane at x.
func (in *Interpolator) Values(x [2]float64, allowExtrapolation bool) ([]float64, error) {
	return in.values(x, allowExtrapolation, len(in.field.Planes))
}

func (in *Interpolator) values(x [2]float64, allowExtrapolation bool, planes int) ([]float64, error) {
	xhat := (x[0] - in.origin[0]) / in.delta[0]
	yhat := (x[1] - in.origin[1]) / in.delta[1]
	if math.IsNaN(xhat) || math.IsNaN(yhat) {
		return nil, &CoordinateError{X: x, Err: ErrCoordinateOutOfRange}
	}
	fi, fj := math.Floor(xhat), math.Floor(yhat)
	n0, n1 := in.field.Shape[0], in.field.Shape[1]
	if fi < 0 || fj < 0 || fi+1 >= float64(n0) || fj+1 >= float64(n1) {
		return nil, &CoordinateError{X: x, I: [2]int{int(fi), int(fj)}, Err: ErrCoordinateOutOfRange}
	}
	i, j := int(fi), int(fj)
	alpha, beta := xhat-fi, yhat-fj

	w := [4]float64{
		(1 - alpha) * (1 - beta),
		alpha * (1 - beta),
		(1 - alpha) * beta,
		alpha * beta,
	}
	cells := [4]int{i*n1 + j, (i+1)*n1 + j, i*n1 + j + 1, (i+1)*n1 + j + 1}

	sum := 1.0
	if in.mask != nil {
		sum = 0
		for c := range cells {
			w[c] *= in.mask[cells[c]]
			sum += w[c]
		}
	}

	out := make([]float64, planes)
	if sum > 0 {
		for k := range out {
			p := in.field.Planes[k]
			var v float64
			for c := range cells {
				v += w[c] * p[cells[c]]
			}
			out[k] = v / sum
		}
		return out, nil
	}

	if !allowExtrapolation {
		return nil, &CoordinateError{X: x, I: [2]int{i, j}, Err: ErrLandMask}
	}
	points, err := in.extrapolationPoints(x, i, j)
	if err != nil {
		return nil, err
	}
	for k := range out {
		p := in.field.Planes[k]
		var v float64
		for _, ab := range points {
			v += p[ab[0]*n1+ab[1]]
		}
		out[k] = v / float64(len(points))
	}
	return out, nil
}

// ring lists the neighbours of cell (i, j) searched for extrapolation: the
// eight adjacent cells of the 2x2 stencil, then its four diagonals.
//
//nolint:gochecknoglobals // Read-only table.
var ring = [12][2]int{
	{-1, 1}, {-1, 0}, {0, -1}, {1, -1}, {2, 0}, {2, 1}, {1, 2}, {0, 2},
	{-1, -1}, {2, -1}, {2, 2}, {-1, 2},
}

func (in *Interpolator) extrapolationPoints(x [2]float64, i, j int) ([][2]int, error) {
	if points, ok := in.extrapolation[x]; ok {
		return points, nil
	}

	n0, n1 := in.field.Shape[0], in.field.Shape[1]
	var points [][2]int
	for _, d := range ring {
		a, b := i+d[0], j+d[1]
		if a < 0 || b < 0 || a >= n0 || b >= n1 {
			continue
		}
		if in.mask[a*n1+b] == 1 {
			points = append(points, [2]int{a, b})
		}
	}
	if len(points) == 0 {
		return nil, &CoordinateError{X: x, I: [2]int{i, j}, Err: ErrLandMask}
	}

	slog.Debug("extrapolating from sea cells", "x", x[0], "y", x[1], "cells", len(points))
	in.extrapolation[x] = points
	return points, nil
}
