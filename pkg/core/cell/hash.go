package cell

import "fmt"

// HashFunc maps an integer cell to a key. The only contract is that equal
// cells produce equal keys; distinct cells may collide.
type HashFunc func(cell []int64) int64

// Linear returns the hash dot(cell, strides). With the strides of a grid
// shape it is a perfect hash over that grid.
func Linear(strides []int64) HashFunc {
	s := append([]int64(nil), strides...)
	return func(cell []int64) int64 {
		var h int64
		for d, c := range cell {
			h += c * s[d]
		}
		return h
	}
}

// ShiftStrides returns the strides 1, 2^bits, 2^(2*bits), ... for a linear
// hash that packs each axis into its own bit field.
func ShiftStrides(dims int, bits uint) ([]int64, error) {
	if dims <= 0 || bits == 0 || uint(dims)*bits > 63 {
		return nil, fmt.Errorf("%w: cannot pack %d axes of %d bits into an int64", ErrInvalid, dims, bits)
	}
	s := make([]int64, dims)
	for d := range s {
		s[d] = int64(1) << (bits * uint(d))
	}
	return s, nil
}

// ShiftHash returns a linear hash over ShiftStrides(dims, bits) together with
// those strides. It needs no knowledge of the grid shape: cells with fewer
// than 2^bits cells per axis never collide, larger ones alias.
func ShiftHash(dims int, bits uint) (HashFunc, []int64, error) {
	s, err := ShiftStrides(dims, bits)
	if err != nil {
		return nil, nil, err
	}
	return Linear(s), s, nil
}
