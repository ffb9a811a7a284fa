package store

import "fmt"

// ErrInvalidSlab is returned for hyperslabs that do not fit a variable's shape.
var ErrInvalidSlab = fmt.Errorf("invalid hyperslab")

// CheckSlab validates start/count against shape and fills in defaults for a nil start.
func CheckSlab(shape, start, count []int) ([]int, []int, error) {
	if start == nil {
		start = make([]int, len(shape))
		count = append([]int(nil), shape...)
	}
	if len(start) != len(shape) || len(count) != len(shape) {
		return nil, nil, fmt.Errorf("%w: rank %d for %d-D variable", ErrInvalidSlab, len(start), len(shape))
	}
	for k := range shape {
		if start[k] < 0 || count[k] < 0 || start[k]+count[k] > shape[k] {
			return nil, nil, fmt.Errorf("%w: axis %d [%d, %d) outside [0, %d)",
				ErrInvalidSlab, k, start[k], start[k]+count[k], shape[k])
		}
	}
	return start, count, nil
}

// Slab copies the hyperslab [start, start+count) of a row-major array of the given shape.
func Slab(data []float64, shape, start, count []int) []float64 {
	total := 1
	for _, c := range count {
		total *= c
	}
	out := make([]float64, 0, total)
	if total == 0 {
		return out
	}
	if len(shape) == 0 {
		return append(out, data[0])
	}

	strides := make([]int, len(shape))
	stride := 1
	for k := len(shape) - 1; k >= 0; k-- {
		strides[k] = stride
		stride *= shape[k]
	}

	last := len(shape) - 1
	idx := make([]int, len(shape))
	for {
		offset := 0
		for k := range idx {
			offset += (start[k] + idx[k]) * strides[k]
		}
		out = append(out, data[offset:offset+count[last]]...)

		k := last - 1
		for ; k >= 0; k-- {
			idx[k]++
			if idx[k] < count[k] {
				break
			}
			idx[k] = 0
		}
		if k < 0 {
			return out
		}
	}
}
