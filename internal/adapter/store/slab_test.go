package store

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSlab(t *testing.T) {
	// 2x3x4 array holding its own flat index.
	shape := []int{2, 3, 4}
	data := make([]float64, 24)
	for i := range data {
		data[i] = float64(i)
	}

	tests := []struct {
		name         string
		start, count []int
		want         []float64
	}{
		{"single", []int{1, 2, 3}, []int{1, 1, 1}, []float64{23}},
		{"row", []int{0, 1, 0}, []int{1, 1, 4}, []float64{4, 5, 6, 7}},
		{"block", []int{1, 0, 1}, []int{1, 2, 2}, []float64{13, 14, 17, 18}},
		{"column", []int{0, 0, 2}, []int{2, 3, 1}, []float64{2, 6, 10, 14, 18, 22}},
		{"empty", []int{0, 0, 0}, []int{0, 3, 4}, []float64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Slab(data, shape, tt.start, tt.count)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Slab() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCheckSlab(t *testing.T) {
	start, count, err := CheckSlab([]int{3, 4}, nil, nil)
	if err != nil {
		t.Fatalf("CheckSlab(nil) error = %v", err)
	}
	if diff := cmp.Diff([]int{0, 0}, start); diff != "" {
		t.Errorf("start mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{3, 4}, count); diff != "" {
		t.Errorf("count mismatch (-want +got):\n%s", diff)
	}

	bad := [][2][]int{
		{{0}, {1}},
		{{2, 0}, {2, 1}},
		{{-1, 0}, {1, 1}},
		{{0, 3}, {1, 2}},
	}
	for _, b := range bad {
		if _, _, err := CheckSlab([]int{3, 4}, b[0], b[1]); !errors.Is(err, ErrInvalidSlab) {
			t.Errorf("CheckSlab(%v, %v) error = %v, want ErrInvalidSlab", b[0], b[1], err)
		}
	}
}

func TestMemDataset(t *testing.T) {
	ds := NewMemDataset().AddDim("lat", 2).AddDim("lon", 3).AddDim("con", 2)
	if err := ds.AddVar("amp", []string{"lat", "lon"}, []float64{1, 2, 3, 4, 5, 6}); err != nil {
		t.Fatalf("AddVar() error = %v", err)
	}
	if err := ds.AddVar("bad", []string{"lat"}, []float64{1}); err == nil {
		t.Error("AddVar() with wrong length succeeded")
	}
	if err := ds.AddVar("bad", []string{"depth"}, nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("AddVar() unknown dim error = %v, want ErrNotFound", err)
	}
	if err := ds.SetFillValue("amp", -9999); err != nil {
		t.Fatalf("SetFillValue() error = %v", err)
	}
	if err := ds.AddStrings("names", "con", []string{"M2", "S2"}); err != nil {
		t.Fatalf("AddStrings() error = %v", err)
	}

	v, err := ds.Var("amp")
	if err != nil {
		t.Fatalf("Var() error = %v", err)
	}
	if diff := cmp.Diff(Variable{Name: "amp", Dims: []string{"lat", "lon"}, Shape: []int{2, 3}}, v); diff != "" {
		t.Errorf("Var() mismatch (-want +got):\n%s", diff)
	}
	if v.Size() != 6 {
		t.Errorf("Size() = %d, want 6", v.Size())
	}

	got, err := ds.Read("amp", []int{0, 1}, []int{2, 2})
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if diff := cmp.Diff([]float64{2, 3, 5, 6}, got); diff != "" {
		t.Errorf("Read() mismatch (-want +got):\n%s", diff)
	}

	if fill, ok := ds.FillValue("amp"); !ok || fill != -9999 {
		t.Errorf("FillValue() = %v, %v", fill, ok)
	}
	if _, ok := ds.FillValue("names"); ok {
		t.Error("FillValue(names) reported a fill value")
	}

	names, err := ds.ReadStrings("names")
	if err != nil {
		t.Fatalf("ReadStrings() error = %v", err)
	}
	if diff := cmp.Diff([]string{"M2", "S2"}, names); diff != "" {
		t.Errorf("ReadStrings() mismatch (-want +got):\n%s", diff)
	}
	if _, err := ds.Read("names", nil, nil); err == nil {
		t.Error("Read() of a string array succeeded")
	}
	if _, err := ds.Dim("depth"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Dim(depth) error = %v, want ErrNotFound", err)
	}
}
