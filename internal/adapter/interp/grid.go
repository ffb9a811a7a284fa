package interp

import (
	"fmt"
	"math"

	"go.ngs.io/tides/internal/adapter/store"
)

// Grid interpolates variables of a DataSource on a regular logical 2D grid.
// The grid axes are named by two dimensions, each paired with an
// equidistant coordinate variable. Masks and fields are held in logical
// axis order whatever their storage order.
type Grid struct {
	src    store.DataSource
	dims   [2]string
	origin [2]float64
	delta  [2]float64
	shape  [2]int
	window *[2][2]int

	mask   []float64
	field  *Field
	interp *Interpolator
}

// NewGrid reads the grid geometry from the coordinate variables. 1D
// coordinates use their first and last values, 2D coordinates their
// [0, 0] and [-1, -1] elements.
func NewGrid(src store.DataSource, dims, coords [2]string) (*Grid, error) {
	g := &Grid{src: src, dims: dims}
	for a := range dims {
		n, err := src.Dim(dims[a])
		if err != nil {
			return nil, err
		}
		if n < 2 {
			return nil, fmt.Errorf("%w: dimension %q has %d points", ErrDimensionMismatch, dims[a], n)
		}
		first, last, err := coordinateEnds(src, coords[a])
		if err != nil {
			return nil, err
		}
		g.shape[a] = n
		g.origin[a] = first
		g.delta[a] = (last - first) / float64(n-1)
	}
	return g, nil
}

func coordinateEnds(src store.DataSource, name string) (float64, float64, error) {
	v, err := src.Var(name)
	if err != nil {
		return 0, 0, err
	}
	var firstAt, lastAt []int
	switch len(v.Shape) {
	case 1:
		firstAt, lastAt = []int{0}, []int{v.Shape[0] - 1}
	case 2:
		firstAt, lastAt = []int{0, 0}, []int{v.Shape[0] - 1, v.Shape[1] - 1}
	default:
		return 0, 0, fmt.Errorf("%w: coordinate %q has %d dimensions", ErrDimensionMismatch, name, len(v.Shape))
	}
	one := make([]int, len(v.Shape))
	for k := range one {
		one[k] = 1
	}
	first, err := src.Read(name, firstAt, one)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read coordinate %q: %w", name, err)
	}
	last, err := src.Read(name, lastAt, one)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read coordinate %q: %w", name, err)
	}
	return first[0], last[0], nil
}

// NewGridFrom reads from src using the geometry, window, and mask of other.
// The field is not copied.
func NewGridFrom(src store.DataSource, other *Grid) *Grid {
	g := &Grid{
		src:    src,
		dims:   other.dims,
		origin: other.origin,
		delta:  other.delta,
		shape:  other.shape,
		mask:   other.mask,
	}
	if other.window != nil {
		w := *other.window
		g.window = &w
	}
	return g
}

// Source returns the dataset the grid reads from.
func (g *Grid) Source() store.DataSource { return g.src }

// Origin returns the coordinates of the first loaded cell.
func (g *Grid) Origin() [2]float64 { return g.origin }

// Delta returns the grid spacing.
func (g *Grid) Delta() [2]float64 { return g.delta }

// Shape returns the number of loaded cells per axis.
func (g *Grid) Shape() [2]int { return g.shape }

// Mask returns the loaded mask, or nil.
func (g *Grid) Mask() []float64 { return g.mask }

// Field returns the loaded field, or nil.
func (g *Grid) Field() *Field { return g.field }

// SetRanges restricts the grid to the cells covering ranges, with a margin
// of one cell below and two above. It may be called once.
func (g *Grid) SetRanges(ranges [2][2]float64) error {
	if g.window != nil {
		return fmt.Errorf("%w: ranges already set", ErrRangeConfiguration)
	}

	var window [2][2]int
	for a := range ranges {
		lo := int((ranges[a][0]-g.origin[a])/g.delta[a]) - 1
		hi := int((ranges[a][1]-g.origin[a])/g.delta[a]) + 3
		window[a] = [2]int{max(lo, 0), min(hi, g.shape[a])}
		if window[a][0] >= window[a][1] {
			return fmt.Errorf("%w: range %v outside grid on axis %q", ErrRangeConfiguration, ranges[a], g.dims[a])
		}
	}

	full := g.shape
	g.window = &window
	for a := range window {
		g.origin[a] += float64(window[a][0]) * g.delta[a]
		g.shape[a] = window[a][1] - window[a][0]
	}

	if g.mask != nil {
		g.mask = subWindow(g.mask, full, window)
	}
	if g.field != nil {
		planes := make([][]float64, len(g.field.Planes))
		for k, p := range g.field.Planes {
			planes[k] = subWindow(p, full, window)
		}
		g.field = &Field{Shape: g.shape, Planes: planes}
	}
	return g.rebuild()
}

func subWindow(plane []float64, shape [2]int, window [2][2]int) []float64 {
	n1 := window[1][1] - window[1][0]
	out := make([]float64, 0, (window[0][1]-window[0][0])*n1)
	for i := window[0][0]; i < window[0][1]; i++ {
		row := i * shape[1]
		out = append(out, plane[row+window[1][0]:row+window[1][1]]...)
	}
	return out
}

// SetMask loads a mask variable holding 1 for sea and 0 for land cells. Its
// dimensions must be the grid dimensions in either order.
func (g *Grid) SetMask(name string) error {
	planes, err := g.load(name, nil, true)
	if err != nil {
		return err
	}
	g.mask = planes[0]
	return g.rebuild()
}

// SetMaskFromFillValue marks as land every cell where the variable equals
// fill. A 3D variable contributes its first plane.
func (g *Grid) SetMaskFromFillValue(name string, fill float64) error {
	v, err := g.src.Var(name)
	if err != nil {
		return err
	}
	var comps []int
	if len(v.Dims) == 3 {
		comps = []int{0}
	}
	planes, err := g.load(name, comps, false)
	if err != nil {
		return err
	}
	mask := planes[0]
	tol := 1e-8 + 1e-5*math.Abs(fill)
	for k, x := range mask {
		if math.Abs(x-fill) <= tol {
			mask[k] = 0
		} else {
			mask[k] = 1
		}
	}
	g.mask = mask
	return g.rebuild()
}

// SetField loads every plane of a 2D or 3D variable as the interpolated field.
func (g *Grid) SetField(name string) error {
	return g.SetFieldComponents(name, nil)
}

// SetFieldComponents loads the given planes of a 3D variable. A nil comps
// loads all of them.
func (g *Grid) SetFieldComponents(name string, comps []int) error {
	planes, err := g.LoadPlanes(name, comps)
	if err != nil {
		return err
	}
	g.field = &Field{Shape: g.shape, Planes: planes}
	return g.rebuild()
}

// LoadPlanes reads planes of a variable in logical order, restricted to the
// window, without changing the grid.
func (g *Grid) LoadPlanes(name string, comps []int) ([][]float64, error) {
	return g.load(name, comps, false)
}

func (g *Grid) rebuild() error {
	if g.field == nil {
		return nil
	}
	in, err := NewInterpolator(g.origin, g.delta, g.field, g.mask)
	if err != nil {
		return err
	}
	g.interp = in
	return nil
}

// Value interpolates the first plane of the field at x.
func (g *Grid) Value(x [2]float64, allowExtrapolation bool) (float64, error) {
	if g.interp == nil {
		return 0, ErrFieldNotSet
	}
	return g.interp.Value(x, allowExtrapolation)
}

// Values interpolates every plane of the field at x.
func (g *Grid) Values(x [2]float64, allowExtrapolation bool) ([]float64, error) {
	if g.interp == nil {
		return nil, ErrFieldNotSet
	}
	return g.interp.Values(x, allowExtrapolation)
}

// load reads planes of name, transposing them when the variable stores the
// grid dimensions in reverse order.
func (g *Grid) load(name string, comps []int, exact2D bool) ([][]float64, error) {
	v, err := g.src.Var(name)
	if err != nil {
		return nil, err
	}
	rank := len(v.Dims)
	if rank < 2 || rank > 3 || (exact2D && rank != 2) {
		return nil, fmt.Errorf("%w: variable %q has dimensions %v", ErrDimensionMismatch, name, v.Dims)
	}

	var reversed bool
	switch d := v.Dims[rank-2:]; {
	case d[0] == g.dims[0] && d[1] == g.dims[1]:
	case d[0] == g.dims[1] && d[1] == g.dims[0]:
		reversed = true
	default:
		return nil, fmt.Errorf("%w: variable %q has dimensions %v, grid has %v", ErrDimensionMismatch, name, v.Dims, g.dims)
	}

	window := [2][2]int{{0, g.shape[0]}, {0, g.shape[1]}}
	if g.window != nil {
		window = *g.window
	}
	start := []int{window[0][0], window[1][0]}
	count := []int{g.shape[0], g.shape[1]}
	if reversed {
		start[0], start[1] = start[1], start[0]
		count[0], count[1] = count[1], count[0]
	}

	if rank == 2 {
		if len(comps) > 1 || (len(comps) == 1 && comps[0] != 0) {
			return nil, fmt.Errorf("%w: components %v of 2D variable %q", ErrDimensionMismatch, comps, name)
		}
		plane, err := g.src.Read(name, start, count)
		if err != nil {
			return nil, fmt.Errorf("failed to read %q: %w", name, err)
		}
		if reversed {
			plane = transpose(plane, count[0], count[1])
		}
		return [][]float64{plane}, nil
	}

	if comps == nil {
		comps = make([]int, v.Shape[0])
		for k := range comps {
			comps[k] = k
		}
	}
	planes := make([][]float64, len(comps))
	for k, c := range comps {
		plane, err := g.src.Read(name, []int{c, start[0], start[1]}, []int{1, count[0], count[1]})
		if err != nil {
			return nil, fmt.Errorf("failed to read component %d of %q: %w", c, name, err)
		}
		if reversed {
			plane = transpose(plane, count[0], count[1])
		}
		planes[k] = plane
	}
	return planes, nil
}

// transpose turns a rows x cols row-major plane into cols x rows.
func transpose(plane []float64, rows, cols int) []float64 {
	out := make([]float64, len(plane))
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			out[c*rows+r] = plane[r*cols+c]
		}
	}
	return out
}
