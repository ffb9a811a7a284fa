package interp

import (
	"errors"
	"math"
	"testing"

	"go.ngs.io/tides/internal/adapter/store"
)

// z is linear, so bilinear interpolation reproduces it exactly.
func z(lat, lon float64) float64 { return 10*lat + lon }

// newFixture builds a 10x10 (lat, lon) grid at unit spacing whose first two
// latitude rows are land.
func newFixture(t *testing.T, withGrid bool) *store.MemDataset {
	t.Helper()
	ds := store.NewMemDataset().AddDim("lat", 10).AddDim("lon", 10)
	axis := make([]float64, 10)
	zval := make([]float64, 100)
	mask := make([]float64, 100)
	for i := 0; i < 10; i++ {
		axis[i] = float64(i)
		for j := 0; j < 10; j++ {
			zval[i*10+j] = z(float64(i), float64(j))
			if i >= 2 {
				mask[i*10+j] = 1
			}
		}
	}
	must(t, ds.AddVar("z", []string{"lat", "lon"}, zval))
	if withGrid {
		must(t, ds.AddVar("latitude", []string{"lat"}, axis))
		must(t, ds.AddVar("longitude", []string{"lon"}, axis))
		must(t, ds.AddVar("mask", []string{"lat", "lon"}, mask))
	}
	return ds
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}

func checkGrid(t *testing.T, g *Grid, steps []string) {
	t.Helper()
	has := func(step string) bool {
		for _, s := range steps {
			if s == step {
				return true
			}
		}
		return false
	}
	near := func(x [2]float64, want float64) {
		t.Helper()
		got, err := g.Value(x, false)
		if err != nil {
			t.Errorf("%v: Value(%v) error = %v", steps, x, err)
			return
		}
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("%v: Value(%v) = %v, want %v", steps, x, got, want)
		}
	}
	fails := func(x [2]float64, target error) {
		t.Helper()
		if _, err := g.Value(x, false); !errors.Is(err, target) {
			t.Errorf("%v: Value(%v) error = %v, want %v", steps, x, err, target)
		}
	}

	near([2]float64{4.33, 5.2}, z(4.33, 5.2))
	fails([2]float64{-4.95, 8.3}, ErrCoordinateOutOfRange)

	if has("mask") || has("fill") {
		near([2]float64{1.2, 8.3}, z(2, 8.3))
		fails([2]float64{0.95, 8.3}, ErrLandMask)
	}
	if has("ranges") {
		near([2]float64{2.9, 7}, z(2.9, 7))
		fails([2]float64{3.2, 0.9}, ErrCoordinateOutOfRange)
		fails([2]float64{5.9, 9}, ErrCoordinateOutOfRange)
	}
}

func apply(t *testing.T, g *Grid, steps []string) {
	t.Helper()
	for _, s := range steps {
		var err error
		switch s {
		case "field":
			err = g.SetField("z")
		case "mask":
			err = g.SetMask("mask")
		case "fill":
			err = g.SetMaskFromFillValue("mask", 0)
		case "ranges":
			err = g.SetRanges([2][2]float64{{0, 4}, {2, 8}})
		}
		if err != nil {
			t.Fatalf("%v: step %s error = %v", steps, s, err)
		}
	}
}

// permutations returns every ordering of every subset of items that contains "field".
func permutations(items []string) [][]string {
	var out [][]string
	var walk func(prefix []string, rest []string)
	walk = func(prefix []string, rest []string) {
		for _, p := range prefix {
			if p == "field" {
				out = append(out, append([]string(nil), prefix...))
				break
			}
		}
		for k := range rest {
			next := append(append([]string(nil), rest[:k]...), rest[k+1:]...)
			walk(append(prefix, rest[k]), next)
		}
	}
	walk(nil, items)
	return out
}

func TestGrid_AllLoadingOrders(t *testing.T) {
	grid := newFixture(t, true)
	valuesOnly := newFixture(t, false)

	for _, maskStep := range []string{"mask", "fill"} {
		perms := permutations([]string{"field", maskStep, "ranges"})
		if len(perms) != 11 {
			t.Fatalf("got %d orderings, want 11", len(perms))
		}
		for _, steps := range perms {
			g, err := NewGrid(grid, [2]string{"lat", "lon"}, [2]string{"latitude", "longitude"})
			if err != nil {
				t.Fatalf("NewGrid() error = %v", err)
			}
			apply(t, g, steps)
			checkGrid(t, g, steps)

			// Same values from a second source sharing the first one's geometry.
			g2 := NewGridFrom(valuesOnly, g)
			must(t, g2.SetField("z"))
			checkGrid(t, g2, steps)
		}
	}
}

func TestGrid_Extrapolation(t *testing.T) {
	g, err := NewGrid(newFixture(t, true), [2]string{"lat", "lon"}, [2]string{"latitude", "longitude"})
	if err != nil {
		t.Fatalf("NewGrid() error = %v", err)
	}
	must(t, g.SetMask("mask"))
	must(t, g.SetField("z"))

	// Cell (0, 8): the ring reaches sea at (2, 8), (2, 9) and the diagonal (2, 7).
	got, err := g.Value([2]float64{0.95, 8.3}, true)
	if err != nil {
		t.Fatalf("Value() error = %v", err)
	}
	if want := (z(2, 8) + z(2, 9) + z(2, 7)) / 3; math.Abs(got-want) > 1e-12 {
		t.Errorf("Value() = %v, want %v", got, want)
	}
}

func TestGrid_ReversedStorage(t *testing.T) {
	ds := store.NewMemDataset().AddDim("lat", 3).AddDim("lon", 4)
	must(t, ds.AddVar("latitude", []string{"lat"}, []float64{10, 11, 12}))
	must(t, ds.AddVar("longitude", []string{"lon"}, []float64{0, 2, 4, 6}))
	stored := make([]float64, 12)
	for j := 0; j < 4; j++ {
		for i := 0; i < 3; i++ {
			stored[j*3+i] = z(10+float64(i), 2*float64(j))
		}
	}
	must(t, ds.AddVar("zt", []string{"lon", "lat"}, stored))
	must(t, ds.AddVar("bad", []string{"lat"}, []float64{1, 2, 3}))

	g, err := NewGrid(ds, [2]string{"lat", "lon"}, [2]string{"latitude", "longitude"})
	if err != nil {
		t.Fatalf("NewGrid() error = %v", err)
	}
	if g.Delta() != [2]float64{1, 2} || g.Origin() != [2]float64{10, 0} {
		t.Fatalf("geometry = %v, %v", g.Origin(), g.Delta())
	}
	must(t, g.SetField("zt"))
	got, err := g.Value([2]float64{11.5, 3}, false)
	if err != nil {
		t.Fatalf("Value() error = %v", err)
	}
	if want := z(11.5, 3); math.Abs(got-want) > 1e-9 {
		t.Errorf("Value() = %v, want %v", got, want)
	}

	if err := g.SetMask("bad"); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("SetMask(bad) error = %v, want ErrDimensionMismatch", err)
	}
	if err := g.SetField("bad"); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("SetField(bad) error = %v, want ErrDimensionMismatch", err)
	}
}

func TestGrid_Components(t *testing.T) {
	ds := store.NewMemDataset().AddDim("k", 3).AddDim("x", 2).AddDim("y", 2)
	must(t, ds.AddVar("x", []string{"x"}, []float64{0, 1}))
	must(t, ds.AddVar("y", []string{"y"}, []float64{0, 1}))
	must(t, ds.AddVar("stack", []string{"k", "x", "y"}, []float64{
		1, 1, 1, 1,
		2, 2, 2, 2,
		3, 3, 3, -9,
	}))

	g, err := NewGrid(ds, [2]string{"x", "y"}, [2]string{"x", "y"})
	if err != nil {
		t.Fatalf("NewGrid() error = %v", err)
	}
	must(t, g.SetFieldComponents("stack", []int{2, 0}))
	got, err := g.Values([2]float64{0, 0}, false)
	if err != nil {
		t.Fatalf("Values() error = %v", err)
	}
	if len(got) != 2 || got[0] != 3 || got[1] != 1 {
		t.Errorf("Values() = %v, want [3 1]", got)
	}

	// The fill mask comes from the first plane only, which has no fill.
	must(t, g.SetMaskFromFillValue("stack", -9))
	for _, m := range g.Mask() {
		if m != 1 {
			t.Fatalf("Mask() = %v, want all sea", g.Mask())
		}
	}
}

func TestGrid_Errors(t *testing.T) {
	g, err := NewGrid(newFixture(t, true), [2]string{"lat", "lon"}, [2]string{"latitude", "longitude"})
	if err != nil {
		t.Fatalf("NewGrid() error = %v", err)
	}
	if _, err := g.Value([2]float64{1, 1}, false); !errors.Is(err, ErrFieldNotSet) {
		t.Errorf("Value() before SetField error = %v, want ErrFieldNotSet", err)
	}
	if err := g.SetRanges([2][2]float64{{20, 30}, {0, 5}}); !errors.Is(err, ErrRangeConfiguration) {
		t.Errorf("SetRanges(outside) error = %v, want ErrRangeConfiguration", err)
	}
	must(t, g.SetRanges([2][2]float64{{0, 4}, {2, 8}}))
	if err := g.SetRanges([2][2]float64{{0, 4}, {2, 8}}); !errors.Is(err, ErrRangeConfiguration) {
		t.Errorf("second SetRanges() error = %v, want ErrRangeConfiguration", err)
	}
	if g.Shape() != [2]int{7, 9} || g.Origin() != [2]float64{0, 1} {
		t.Errorf("window geometry = %v, %v, want [7 9], [0 1]", g.Shape(), g.Origin())
	}
	if _, err := NewGrid(newFixture(t, false), [2]string{"lat", "lon"}, [2]string{"latitude", "longitude"}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("NewGrid() without coordinates error = %v, want ErrNotFound", err)
	}
}
