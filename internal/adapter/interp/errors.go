package interp

import (
	"errors"
	"fmt"
)

var (
	// ErrCoordinateOutOfRange is returned for query points outside the loaded grid.
	ErrCoordinateOutOfRange = errors.New("coordinate out of range")
	// ErrLandMask is returned for query points whose surrounding cells are all land.
	ErrLandMask = errors.New("inside land mask")
	// ErrDimensionMismatch is returned when a variable's dimensions do not match the grid.
	ErrDimensionMismatch = errors.New("dimensions do not match the grid")
	// ErrRangeConfiguration is returned for empty or repeated range restrictions.
	ErrRangeConfiguration = errors.New("invalid range configuration")
	// ErrFieldNotSet is returned when interpolating before a field is loaded.
	ErrFieldNotSet = errors.New("field not set")
)

// CoordinateError reports the query point that failed.
type CoordinateError struct {
	X   [2]float64
	I   [2]int
	Err error
}

func (e *CoordinateError) Error() string {
	return fmt.Sprintf("at x=(%g, %g) indexed at (%d, %d): %v", e.X[0], e.X[1], e.I[0], e.I[1], e.Err)
}

func (e *CoordinateError) Unwrap() error { return e.Err }
