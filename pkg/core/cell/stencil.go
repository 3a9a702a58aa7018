package cell

import (
	"fmt"
	"slices"
)

// HalfStencil returns the key deltas of the 3^d-1 neighbour cells of a cell
// under the linear hash with the given (positive) strides, reduced to a half
// set: only positive deltas are kept and duplicates are dropped. Every
// unordered pair of neighbouring cells is then reached from exactly one side,
// the one with the smaller key.
func HalfStencil(strides []int64) []int64 {
	dims := len(strides)
	offset := make([]int64, dims)
	for d := range offset {
		offset[d] = -1
	}

	seen := make(map[int64]struct{})
	for {
		var delta int64
		for d, o := range offset {
			delta += o * strides[d]
		}
		if delta > 0 {
			seen[delta] = struct{}{}
		}

		d := 0
		for ; d < dims; d++ {
			if offset[d] < 1 {
				offset[d]++
				break
			}
			offset[d] = -1
		}
		if d == dims {
			break
		}
	}

	stencil := make([]int64, 0, len(seen))
	for delta := range seen {
		stencil = append(stencil, delta)
	}
	slices.Sort(stencil)
	return stencil
}

// ValidateStencil checks the half-stencil precondition: no zero delta, no
// repeated delta and never both o and -o.
func ValidateStencil(stencil []int64) error {
	seen := make(map[int64]struct{}, len(stencil))
	for _, o := range stencil {
		if o == 0 {
			return fmt.Errorf("%w: stencil contains a zero delta", ErrInvalid)
		}
		if _, dup := seen[o]; dup {
			return fmt.Errorf("%w: stencil repeats delta %d", ErrInvalid, o)
		}
		if _, mirror := seen[-o]; mirror {
			return fmt.Errorf("%w: stencil contains both %d and %d", ErrInvalid, o, -o)
		}
		seen[o] = struct{}{}
	}
	return nil
}
