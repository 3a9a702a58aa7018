// Package box implements n-dimensional axis-aligned bounding boxes.
package box

import (
	"errors"
	"fmt"
	"math"

	"github.com/sanonone/kektorgrid/pkg/core/points"
)

// ErrMalformed is returned for boxes whose corners differ in dimension or
// whose minimum exceeds the maximum on some axis.
var ErrMalformed = errors.New("box: malformed box")

// Box is a closed axis-aligned box [Min, Max].
type Box struct {
	Min, Max []float64
}

// New returns the box spanned by min and max. The corners are copied.
func New(min, max []float64) (Box, error) {
	b := Box{Min: append([]float64(nil), min...), Max: append([]float64(nil), max...)}
	if err := b.Validate(); err != nil {
		return Box{}, err
	}
	return b, nil
}

// Around returns the box of half-width r centred at c.
func Around(c []float64, r float64) Box {
	b := Box{Min: make([]float64, len(c)), Max: make([]float64, len(c))}
	for i, v := range c {
		b.Min[i], b.Max[i] = v-r, v+r
	}
	return b
}

// Of returns the exact bounding box of s. The box of an empty set has
// Min = +Inf and Max = -Inf on every axis.
func Of(s points.Set) Box {
	dims := s.Dims()
	b := Box{Min: make([]float64, dims), Max: make([]float64, dims)}
	for d := 0; d < dims; d++ {
		b.Min[d], b.Max[d] = math.Inf(+1), math.Inf(-1)
	}
	buf := make([]float64, dims)
	for i, n := 0, s.Len(); i < n; i++ {
		p := s.Point(i, buf)
		for d, v := range p {
			b.Min[d] = math.Min(b.Min[d], v)
			b.Max[d] = math.Max(b.Max[d], v)
		}
	}
	return b
}

// Dims returns the dimension of the box.
func (b Box) Dims() int { return len(b.Min) }

// Validate checks that both corners have the same dimension and that
// Min <= Max componentwise.
func (b Box) Validate() error {
	if len(b.Min) != len(b.Max) {
		return fmt.Errorf("%w: corners have %d and %d dimensions", ErrMalformed, len(b.Min), len(b.Max))
	}
	for d := range b.Min {
		if !(b.Min[d] <= b.Max[d]) {
			return fmt.Errorf("%w: min %g > max %g on axis %d", ErrMalformed, b.Min[d], b.Max[d], d)
		}
	}
	return nil
}

// Contains reports whether p lies inside the closed box.
func (b Box) Contains(p []float64) bool {
	for d, v := range p {
		if v < b.Min[d] || v > b.Max[d] {
			return false
		}
	}
	return true
}

// Disjoint reports whether b and o share no point.
func (b Box) Disjoint(o Box) bool {
	for d := range b.Min {
		if b.Min[d] > o.Max[d] || b.Max[d] < o.Min[d] {
			return true
		}
	}
	return false
}

// Intersect returns the overlap of b and o. ok is false when the overlap is
// empty.
func (b Box) Intersect(o Box) (Box, bool) {
	r := Box{Min: make([]float64, len(b.Min)), Max: make([]float64, len(b.Max))}
	for d := range b.Min {
		r.Min[d] = math.Max(b.Min[d], o.Min[d])
		r.Max[d] = math.Min(b.Max[d], o.Max[d])
		if r.Min[d] > r.Max[d] {
			return Box{}, false
		}
	}
	return r, true
}

// Size returns Max - Min per axis.
func (b Box) Size() []float64 {
	s := make([]float64, len(b.Min))
	for d := range s {
		s[d] = b.Max[d] - b.Min[d]
	}
	return s
}

func (b Box) String() string {
	return fmt.Sprintf("[%v, %v]", b.Min, b.Max)
}
