// Package distance provides the squared Euclidean kernels used to filter
// candidate point pairs.
//
// Short vectors (the 2-D and 3-D coordinates that make up most point clouds)
// always take the pure Go loop. Wide vectors are dispatched at init time to
// Gonum's BLAS implementation when the CPU reports AVX2.
package distance

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/klauspost/cpuid/v2"
	"gonum.org/v1/gonum/blas/gonum"
)

// ErrLengthMismatch is returned by the checked variants when the two vectors
// have a different number of components.
var ErrLengthMismatch = errors.New("distance: vectors must have the same length")

// Kernel computes the squared Euclidean distance between two vectors of equal
// length. Kernels do not check lengths.
type Kernel func(a, b []float64) float64

// WideThreshold is the dimension from which the wide kernel is used.
const WideThreshold = 16

var (
	wideKernel     Kernel = squaredEuclideanGo
	wideKernelName        = "pure-go"
)

func init() {
	if cpuid.CPU.Has(cpuid.AVX2) {
		wideKernel = squaredEuclideanGonum
		wideKernelName = "gonum-blas"
	}
	slog.Debug("[DISTANCE] kernel selected",
		"narrow", "pure-go",
		"wide", wideKernelName,
		"wide_threshold", WideThreshold,
		"cpu", cpuid.CPU.BrandName)
}

// diffWorkspace holds scratch slices for the BLAS kernel so that the
// difference vector does not allocate on every call.
var diffWorkspace = sync.Pool{
	New: func() any {
		s := make([]float64, 64)
		return &s
	},
}

// SquaredEuclidean returns |a-b|². a and b must have the same length.
func SquaredEuclidean(a, b []float64) float64 {
	if len(a) < WideThreshold {
		return squaredEuclideanGo(a, b)
	}
	return wideKernel(a, b)
}

// SquaredEuclideanChecked is SquaredEuclidean with a length check.
func SquaredEuclideanChecked(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrLengthMismatch
	}
	return SquaredEuclidean(a, b), nil
}

// KernelName reports which implementation serves vectors of the given
// dimension.
func KernelName(dims int) string {
	if dims < WideThreshold {
		return "pure-go"
	}
	return wideKernelName
}

func squaredEuclideanGo(a, b []float64) float64 {
	b = b[:len(a)]
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

var gonumEngine = gonum.Implementation{}

func squaredEuclideanGonum(a, b []float64) float64 {
	n := len(a)
	diffPtr := diffWorkspace.Get().(*[]float64)
	defer diffWorkspace.Put(diffPtr)

	if cap(*diffPtr) < n {
		*diffPtr = make([]float64, n)
	}
	diff := (*diffPtr)[:n]

	copy(diff, a)
	gonumEngine.Daxpy(n, -1, b, 1, diff, 1)
	return gonumEngine.Ddot(n, diff, 1, diff, 1)
}
