package store

import (
	"fmt"
	"sync"
)

type memVar struct {
	dims    []string
	data    []float64
	strings []string
	fill    float64
	hasFill bool
}

// MemDataset is an in-memory DataSource, used for tests and for synthetic grids.
type MemDataset struct {
	mu   sync.RWMutex
	dims map[string]int
	vars map[string]*memVar
}

// NewMemDataset returns an empty dataset.
func NewMemDataset() *MemDataset {
	return &MemDataset{dims: make(map[string]int), vars: make(map[string]*memVar)}
}

// AddDim declares a dimension.
func (m *MemDataset) AddDim(name string, n int) *MemDataset {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dims[name] = n
	return m
}

// AddVar stores a numeric variable in row-major order over dims.
func (m *MemDataset) AddVar(name string, dims []string, data []float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 1
	for _, d := range dims {
		l, ok := m.dims[d]
		if !ok {
			return fmt.Errorf("dimension %q: %w", d, ErrNotFound)
		}
		n *= l
	}
	if len(data) != n {
		return fmt.Errorf("variable %q: %d values for %d elements", name, len(data), n)
	}
	m.vars[name] = &memVar{dims: append([]string(nil), dims...), data: append([]float64(nil), data...)}
	return nil
}

// AddStrings stores one string per entry of dim.
func (m *MemDataset) AddStrings(name, dim string, values []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.dims[dim]; !ok || l != len(values) {
		return fmt.Errorf("strings %q: dimension %q does not hold %d entries", name, dim, len(values))
	}
	m.vars[name] = &memVar{dims: []string{dim}, strings: append([]string(nil), values...)}
	return nil
}

// SetFillValue attaches a fill value to a variable.
func (m *MemDataset) SetFillValue(name string, fill float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vars[name]
	if !ok {
		return fmt.Errorf("variable %q: %w", name, ErrNotFound)
	}
	v.fill, v.hasFill = fill, true
	return nil
}

// Dim implements DataSource.
func (m *MemDataset) Dim(name string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.dims[name]
	if !ok {
		return 0, fmt.Errorf("dimension %q: %w", name, ErrNotFound)
	}
	return n, nil
}

// Var implements DataSource.
func (m *MemDataset) Var(name string) (Variable, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.vars[name]
	if !ok {
		return Variable{}, fmt.Errorf("variable %q: %w", name, ErrNotFound)
	}
	shape := make([]int, len(v.dims))
	for k, d := range v.dims {
		shape[k] = m.dims[d]
	}
	return Variable{Name: name, Dims: append([]string(nil), v.dims...), Shape: shape}, nil
}

// Read implements DataSource.
func (m *MemDataset) Read(name string, start, count []int) ([]float64, error) {
	info, err := m.Var(name)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v := m.vars[name]
	if v.data == nil {
		return nil, fmt.Errorf("variable %q is not numeric", name)
	}
	start, count, err = CheckSlab(info.Shape, start, count)
	if err != nil {
		return nil, fmt.Errorf("variable %q: %w", name, err)
	}
	return Slab(v.data, info.Shape, start, count), nil
}

// FillValue implements DataSource.
func (m *MemDataset) FillValue(name string) (float64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.vars[name]
	if !ok || !v.hasFill {
		return 0, false
	}
	return v.fill, true
}

// ReadStrings implements DataSource.
func (m *MemDataset) ReadStrings(name string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.vars[name]
	if !ok {
		return nil, fmt.Errorf("variable %q: %w", name, ErrNotFound)
	}
	if v.strings == nil {
		return nil, fmt.Errorf("variable %q is not a string array", name)
	}
	return append([]string(nil), v.strings...), nil
}

// Close implements DataSource.
func (m *MemDataset) Close() error { return nil }
