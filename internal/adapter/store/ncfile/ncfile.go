// Package ncfile exposes NetCDF files as store.DataSource values.
package ncfile

import (
	"fmt"
	"strings"
	"sync"

	"github.com/fhs/go-netcdf/netcdf"

	"go.ngs.io/tides/internal/adapter/store"
)

// File is an open NetCDF file. The NetCDF C library is not thread-safe, so
// every call holds the file mutex.
type File struct {
	mu   sync.Mutex
	path string
	nc   netcdf.Dataset
}

var _ store.DataSource = (*File)(nil)

// Open opens a NetCDF file read-only.
func Open(path string) (*File, error) {
	nc, err := netcdf.OpenFile(path, netcdf.NOWRITE)
	if err != nil {
		return nil, fmt.Errorf("failed to open NetCDF file %s: %w", path, err)
	}
	return &File{path: path, nc: nc}, nil
}

// Path returns the file the dataset was opened from.
func (f *File) Path() string { return f.path }

func (f *File) Dim(name string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, err := f.nc.Dim(name)
	if err != nil {
		return 0, fmt.Errorf("dimension %q in %s: %w", name, f.path, store.ErrNotFound)
	}
	n, err := d.Len()
	if err != nil {
		return 0, fmt.Errorf("failed to get length of dimension %q: %w", name, err)
	}
	return int(n), nil //nolint:gosec // G115: dimension lengths fit in int
}

func (f *File) Var(name string) (store.Variable, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, info, err := f.describe(name)
	return info, err
}

func (f *File) describe(name string) (netcdf.Var, store.Variable, error) {
	v, err := f.nc.Var(name)
	if err != nil {
		return netcdf.Var{}, store.Variable{}, fmt.Errorf("variable %q in %s: %w", name, f.path, store.ErrNotFound)
	}
	dims, err := v.Dims()
	if err != nil {
		return netcdf.Var{}, store.Variable{}, fmt.Errorf("failed to get dimensions of %q: %w", name, err)
	}
	info := store.Variable{Name: name, Dims: make([]string, len(dims)), Shape: make([]int, len(dims))}
	for k, d := range dims {
		dimName, err := d.Name()
		if err != nil {
			return netcdf.Var{}, store.Variable{}, err
		}
		n, err := d.Len()
		if err != nil {
			return netcdf.Var{}, store.Variable{}, err
		}
		info.Dims[k] = dimName
		info.Shape[k] = int(n) //nolint:gosec // G115: dimension lengths fit in int
	}
	return v, info, nil
}

// Read reads a hyperslab converted to float64, with scale_factor and
// add_offset applied. Fill values are returned as stored.
func (f *File) Read(name string, start, count []int) ([]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	v, info, err := f.describe(name)
	if err != nil {
		return nil, err
	}
	start, count, err = store.CheckSlab(info.Shape, start, count)
	if err != nil {
		return nil, fmt.Errorf("variable %q: %w", name, err)
	}

	total := 1
	ustart := make([]uint64, len(start))
	ucount := make([]uint64, len(count))
	for k := range start {
		ustart[k] = uint64(start[k]) //nolint:gosec // G115: validated non-negative
		ucount[k] = uint64(count[k]) //nolint:gosec // G115: validated non-negative
		total *= count[k]
	}
	if total == 0 {
		return []float64{}, nil
	}

	data, err := readSlice(v, ustart, ucount, total)
	if err != nil {
		return nil, fmt.Errorf("variable %q: %w", name, err)
	}

	fill, hasFill := fillValue(v)
	scale, offset := packing(v)
	if scale != 1 || offset != 0 {
		for i, x := range data {
			if hasFill && x == fill {
				continue
			}
			data[i] = x*scale + offset
		}
	}
	return data, nil
}

func (f *File) FillValue(name string) (float64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, err := f.nc.Var(name)
	if err != nil {
		return 0, false
	}
	return fillValue(v)
}

// ReadStrings reads a CHAR variable of shape (n, width) as n trimmed strings.
func (f *File) ReadStrings(name string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	v, info, err := f.describe(name)
	if err != nil {
		return nil, err
	}
	varType, err := v.Type()
	if err != nil {
		return nil, fmt.Errorf("failed to get variable type: %w", err)
	}
	if varType != netcdf.CHAR || len(info.Shape) != 2 {
		return nil, fmt.Errorf("variable %q is not a 2D character array", name)
	}

	n, width := info.Shape[0], info.Shape[1]
	raw := make([]byte, n*width)
	if err := v.ReadBytes(raw); err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", name, err)
	}
	out := make([]string, n)
	for i := range out {
		out[i] = strings.TrimSpace(strings.TrimRight(string(raw[i*width:(i+1)*width]), "\x00"))
	}
	return out, nil
}

func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nc.Close()
}

// readSlice reads a hyperslab of any numeric type as float64.
func readSlice(v netcdf.Var, start, count []uint64, total int) ([]float64, error) {
	varType, err := v.Type()
	if err != nil {
		return nil, fmt.Errorf("failed to get variable type: %w", err)
	}

	out := make([]float64, total)
	switch varType {
	case netcdf.DOUBLE:
		if err := v.ReadFloat64Slice(out, start, count); err != nil {
			return nil, fmt.Errorf("failed to read float64 subset: %w", err)
		}
	case netcdf.FLOAT:
		buf := make([]float32, total)
		if err := v.ReadFloat32Slice(buf, start, count); err != nil {
			return nil, fmt.Errorf("failed to read float32 subset: %w", err)
		}
		for i, x := range buf {
			out[i] = float64(x)
		}
	case netcdf.INT:
		buf := make([]int32, total)
		if err := v.ReadInt32Slice(buf, start, count); err != nil {
			return nil, fmt.Errorf("failed to read int32 subset: %w", err)
		}
		for i, x := range buf {
			out[i] = float64(x)
		}
	case netcdf.SHORT:
		buf := make([]int16, total)
		if err := v.ReadInt16Slice(buf, start, count); err != nil {
			return nil, fmt.Errorf("failed to read int16 subset: %w", err)
		}
		for i, x := range buf {
			out[i] = float64(x)
		}
	case netcdf.BYTE:
		buf := make([]int8, total)
		if err := v.ReadInt8Slice(buf, start, count); err != nil {
			return nil, fmt.Errorf("failed to read int8 subset: %w", err)
		}
		for i, x := range buf {
			out[i] = float64(x)
		}
	default:
		return nil, fmt.Errorf("unsupported data type: %v", varType)
	}
	return out, nil
}

// fillValue reads _FillValue or missing_value as float64.
func fillValue(v netcdf.Var) (float64, bool) {
	for _, name := range []string{"_FillValue", "missing_value"} {
		if x, ok := scalarAttr(v, name); ok {
			return x, true
		}
	}
	return 0, false
}

// packing returns the CF scale_factor and add_offset, defaulting to 1 and 0.
func packing(v netcdf.Var) (scale, offset float64) {
	scale = 1
	if x, ok := scalarAttr(v, "scale_factor"); ok && x != 0 {
		scale = x
	}
	if x, ok := scalarAttr(v, "add_offset"); ok {
		offset = x
	}
	return scale, offset
}

func scalarAttr(v netcdf.Var, name string) (float64, bool) {
	a := v.Attr(name)
	n, err := a.Len()
	if err != nil || n == 0 {
		return 0, false
	}
	f64 := make([]float64, n)
	if err := a.ReadFloat64s(f64); err == nil {
		return f64[0], true
	}
	f32 := make([]float32, n)
	if err := a.ReadFloat32s(f32); err == nil {
		return float64(f32[0]), true
	}
	i32 := make([]int32, n)
	if err := a.ReadInt32s(i32); err == nil {
		return float64(i32[0]), true
	}
	i16 := make([]int16, n)
	if err := a.ReadInt16s(i16); err == nil {
		return float64(i16[0]), true
	}
	return 0, false
}
