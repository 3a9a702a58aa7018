package points

import (
	"fmt"

	"github.com/x448/float16"
)

// Half stores points as IEEE 754 half-precision values. It quarters the memory
// of a Dense set at the cost of ~3 significant digits, which is enough for
// coarse per-frame snapshots kept around between updates.
type Half struct {
	bits []uint16
	dims int
}

// NewHalf converts a Set to half precision.
func NewHalf(s Set) *Half {
	n, dims := s.Len(), s.Dims()
	h := &Half{bits: make([]uint16, n*dims), dims: dims}
	buf := make([]float64, dims)
	for i := 0; i < n; i++ {
		p := s.Point(i, buf)
		for d, v := range p {
			h.bits[i*dims+d] = float16.Fromfloat32(float32(v)).Bits()
		}
	}
	return h
}

// NewHalfBits wraps raw half-precision bit patterns (len(bits) == n*dims).
func NewHalfBits(bits []uint16, dims int) (*Half, error) {
	if dims <= 0 || len(bits)%dims != 0 {
		return nil, fmt.Errorf("%w: %d half values with dims %d", ErrShape, len(bits), dims)
	}
	return &Half{bits: bits, dims: dims}, nil
}

// Len returns the number of points.
func (h *Half) Len() int { return len(h.bits) / h.dims }

// Dims returns the point dimension.
func (h *Half) Dims() int { return h.dims }

// Point decodes point i into dst, growing it when needed.
func (h *Half) Point(i int, dst []float64) []float64 {
	if cap(dst) < h.dims {
		dst = make([]float64, h.dims)
	}
	dst = dst[:h.dims]
	row := h.bits[i*h.dims : (i+1)*h.dims]
	for d, b := range row {
		dst[d] = float64(float16.Frombits(b).Float32())
	}
	return dst
}

// Bits returns the raw half-precision storage.
func (h *Half) Bits() []uint16 { return h.bits }
