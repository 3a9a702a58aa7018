// Package cell maps continuous coordinates onto the integer cells of a
// virtual voxel grid and derives scalar hash keys from those cells.
//
// Coordinates are first shifted into grid-local space,
//
//	local = (v - extents.Min) / lengthscale
//
// which is non-negative for every point inside extents, and then truncated
// toward zero to obtain the cell. Cells are turned into keys either by a
// lexicographic rank (dot product with the strides of the grid shape, a
// perfect hash over the bounded domain) or by a caller-supplied HashFunc.
package cell

import (
	"errors"
	"fmt"
	"math"

	"github.com/sanonone/kektorgrid/pkg/core/box"
)

// ErrInvalid is returned for grid parameters that cannot describe a grid.
var ErrInvalid = errors.New("cell: invalid grid parameters")

// maxCellsPerAxis keeps local coordinates well inside the int64 range.
const maxCellsPerAxis = 1 << 62

// Mapper converts positions into cells and cells into keys.
type Mapper struct {
	lengthscale float64
	extents     box.Box
	shape       []int64
	strides     []int64 // nil when prod(shape) overflows int64
}

// NewMapper returns a mapper for points inside extents using cells of edge
// lengthscale.
func NewMapper(extents box.Box, lengthscale float64) (*Mapper, error) {
	if !(lengthscale > 0) || math.IsInf(lengthscale, 0) {
		return nil, fmt.Errorf("%w: lengthscale must be positive and finite, got %g", ErrInvalid, lengthscale)
	}
	if extents.Dims() == 0 {
		return nil, fmt.Errorf("%w: zero-dimensional extents", ErrInvalid)
	}
	if err := extents.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	dims := extents.Dims()
	m := &Mapper{
		lengthscale: lengthscale,
		extents:     box.Box{Min: append([]float64(nil), extents.Min...), Max: append([]float64(nil), extents.Max...)},
		shape:       make([]int64, dims),
	}
	for d := 0; d < dims; d++ {
		if math.IsInf(extents.Min[d], 0) || math.IsInf(extents.Max[d], 0) {
			return nil, fmt.Errorf("%w: extents are not finite on axis %d", ErrInvalid, d)
		}
		span := (extents.Max[d] - extents.Min[d]) / lengthscale
		if !(span < maxCellsPerAxis) {
			return nil, fmt.Errorf("%w: %g cells on axis %d", ErrInvalid, span, d)
		}
		m.shape[d] = int64(span) + 1
	}

	strides := make([]int64, dims)
	strides[0] = 1
	overflow := false
	for d := 1; d < dims && !overflow; d++ {
		if strides[d-1] > math.MaxInt64/m.shape[d-1] {
			overflow = true
			break
		}
		strides[d] = strides[d-1] * m.shape[d-1]
	}
	if !overflow && strides[dims-1] > math.MaxInt64/m.shape[dims-1] {
		overflow = true
	}
	if !overflow {
		m.strides = strides
	}
	return m, nil
}

// Dims returns the dimension of the grid.
func (m *Mapper) Dims() int { return len(m.shape) }

// Lengthscale returns the cell edge length.
func (m *Mapper) Lengthscale() float64 { return m.lengthscale }

// Extents returns the box the mapper was built for.
func (m *Mapper) Extents() box.Box { return m.extents }

// Shape returns the number of cells along each axis.
func (m *Mapper) Shape() []int64 { return m.shape }

// LexStrides returns the strides ranking cells lexicographically
// (strides[0] = 1, strides[i] = strides[i-1]*shape[i-1]). It fails when the
// total number of cells does not fit an int64.
func (m *Mapper) LexStrides() ([]int64, error) {
	if m.strides == nil {
		return nil, fmt.Errorf("%w: grid of shape %v has more cells than an int64 can rank", ErrInvalid, m.shape)
	}
	return m.strides, nil
}

// ToLocal maps a global coordinate into grid-local coordinates.
func (m *Mapper) ToLocal(v, dst []float64) []float64 {
	dst = grow(dst, len(v))
	for d, x := range v {
		dst[d] = (x - m.extents.Min[d]) / m.lengthscale
	}
	return dst
}

// CellOf truncates grid-local coordinates toward zero.
func CellOf(local []float64, dst []int64) []int64 {
	if cap(dst) < len(local) {
		dst = make([]int64, len(local))
	}
	dst = dst[:len(local)]
	for d, x := range local {
		dst[d] = int64(x)
	}
	return dst
}

// Cell returns the cell of global coordinate v.
func (m *Mapper) Cell(v []float64, dst []int64) []int64 {
	if cap(dst) < len(v) {
		dst = make([]int64, len(v))
	}
	dst = dst[:len(v)]
	for d, x := range v {
		dst[d] = int64((x - m.extents.Min[d]) / m.lengthscale)
	}
	return dst
}

// InDomain reports whether c lies in [0, shape).
func (m *Mapper) InDomain(c []int64) bool {
	for d, x := range c {
		if x < 0 || x >= m.shape[d] {
			return false
		}
	}
	return true
}

func grow(s []float64, n int) []float64 {
	if cap(s) < n {
		return make([]float64, n)
	}
	return s[:n]
}
