// Package store defines the data access contracts shared by the atlas and station backends.
package store

import (
	"errors"

	"go.ngs.io/tides/internal/domain"
)

// ErrNotFound is returned for unknown stations, variables, or dimensions.
var ErrNotFound = errors.New("not found")

// ConstituentLoader is the interface for loading tidal constituent parameters.
type ConstituentLoader interface {
	// LoadForStation loads parameters for a named station (e.g., "tokyo").
	LoadForStation(stationID string) ([]domain.ConstituentParam, error)

	// LoadForLocation loads parameters for a lat/lon location (using interpolation for atlases).
	LoadForLocation(lat, lon float64) ([]domain.ConstituentParam, error)
}

// Variable describes a stored array. Dims and Shape are in storage order.
type Variable struct {
	Name  string
	Dims  []string
	Shape []int
}

// Size returns the number of stored elements.
func (v Variable) Size() int {
	n := 1
	for _, s := range v.Shape {
		n *= s
	}
	return n
}

// DataSource gives read access to named dimensions and arrays of a gridded dataset.
type DataSource interface {
	// Dim returns the length of a dimension.
	Dim(name string) (int, error)
	// Var describes a variable.
	Var(name string) (Variable, error)
	// Read returns the hyperslab [start, start+count) in row-major storage order.
	// A nil start reads the whole variable.
	Read(name string, start, count []int) ([]float64, error)
	// FillValue returns the _FillValue or missing_value attribute of a variable.
	FillValue(name string) (float64, bool)
	// ReadStrings reads a 2D character array as one string per row.
	ReadStrings(name string) ([]string, error)
	Close() error
}
