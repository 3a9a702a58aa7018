// Package points defines the read-only point sets consumed by the spatial grid.
//
// The grid itself only needs an ordered, indexable sequence of n-dimensional
// vectors. Dense is the native row-major layout; other sets (half precision,
// Gonum matrices) are materialized into a Dense once when a grid is built.
package points

import (
	"errors"
	"fmt"
)

// ErrShape is returned when coordinate data does not form a rectangular
// n×dims table.
var ErrShape = errors.New("points: malformed coordinate table")

// Set is an ordered, fixed-length sequence of n-dimensional points. The
// position in the sequence is the point index used everywhere else.
type Set interface {
	// Len returns the number of points.
	Len() int

	// Dims returns the dimension of every point.
	Dims() int

	// Point returns the coordinates of point i. dst may be used as storage
	// for the result; implementations may instead return a view of their own
	// storage, which callers must not modify.
	Point(i int, dst []float64) []float64
}

// Dense stores points row-major in a single float64 slice.
type Dense struct {
	data []float64
	dims int
}

// NewDense wraps data (len(data) == n*dims) without copying it.
func NewDense(data []float64, dims int) (*Dense, error) {
	if dims <= 0 {
		return nil, fmt.Errorf("%w: dims must be positive, got %d", ErrShape, dims)
	}
	if len(data)%dims != 0 {
		return nil, fmt.Errorf("%w: %d values do not divide into rows of %d", ErrShape, len(data), dims)
	}
	return &Dense{data: data, dims: dims}, nil
}

// FromRows copies a slice of rows into a Dense set. All rows must have the
// same, non-zero length.
func FromRows(rows [][]float64) (*Dense, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrShape)
	}
	dims := len(rows[0])
	if dims == 0 {
		return nil, fmt.Errorf("%w: rows are empty", ErrShape)
	}
	data := make([]float64, 0, len(rows)*dims)
	for i, r := range rows {
		if len(r) != dims {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrShape, i, len(r), dims)
		}
		data = append(data, r...)
	}
	return &Dense{data: data, dims: dims}, nil
}

// Len returns the number of points.
func (d *Dense) Len() int { return len(d.data) / d.dims }

// Dims returns the point dimension.
func (d *Dense) Dims() int { return d.dims }

// Point returns a view of row i; dst is ignored.
func (d *Dense) Point(i int, _ []float64) []float64 { return d.Row(i) }

// Row returns a view of the coordinates of point i.
func (d *Dense) Row(i int) []float64 {
	return d.data[i*d.dims : (i+1)*d.dims : (i+1)*d.dims]
}

// Data returns the underlying row-major storage.
func (d *Dense) Data() []float64 { return d.data }

// AsDense returns s itself when it already is a *Dense, otherwise a Dense copy.
func AsDense(s Set) *Dense {
	if d, ok := s.(*Dense); ok {
		return d
	}
	n, dims := s.Len(), s.Dims()
	data := make([]float64, n*dims)
	for i := 0; i < n; i++ {
		copy(data[i*dims:(i+1)*dims], s.Point(i, data[i*dims:(i+1)*dims]))
	}
	return &Dense{data: data, dims: dims}
}

// Clone returns a deep copy of d.
func (d *Dense) Clone() *Dense {
	data := make([]float64, len(d.data))
	copy(data, d.data)
	return &Dense{data: data, dims: d.dims}
}
