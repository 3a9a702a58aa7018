package distance

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"testing"
)

func floatsAreEqual(a, b float64) bool {
	const tolerance = 1e-9
	return math.Abs(a-b) < tolerance*math.Max(1, math.Abs(b))
}

func TestImplementations(t *testing.T) {
	t.Run("Narrow", func(t *testing.T) {
		got := SquaredEuclidean([]float64{1, 2}, []float64{3, 4})
		if !floatsAreEqual(got, 8) {
			t.Errorf("got %f, want %f", got, 8.0)
		}
	})

	t.Run("Zero", func(t *testing.T) {
		v := []float64{0.5, -1.25, 3}
		if got := SquaredEuclidean(v, v); got != 0 {
			t.Errorf("got %f, want 0", got)
		}
	})

	t.Run("WideMatchesReference", func(t *testing.T) {
		rng := rand.New(rand.NewSource(7))
		for _, dims := range []int{WideThreshold, 33, 128, 1000} {
			a, b := generateVectors(rng, dims)
			want := squaredEuclideanGo(a, b)
			if got := SquaredEuclidean(a, b); !floatsAreEqual(got, want) {
				t.Errorf("dims=%d: got %f, want %f", dims, got, want)
			}
			if got := squaredEuclideanGonum(a, b); !floatsAreEqual(got, want) {
				t.Errorf("dims=%d gonum: got %f, want %f", dims, got, want)
			}
		}
	})

	t.Run("Checked", func(t *testing.T) {
		if _, err := SquaredEuclideanChecked([]float64{1}, []float64{1, 2}); !errors.Is(err, ErrLengthMismatch) {
			t.Errorf("expected ErrLengthMismatch, got %v", err)
		}
		d, err := SquaredEuclideanChecked([]float64{0, 0, 0}, []float64{1, 1, 1})
		if err != nil || !floatsAreEqual(d, 3) {
			t.Errorf("got (%f, %v), want (3, nil)", d, err)
		}
	})
}

func TestKernelName(t *testing.T) {
	if KernelName(3) != "pure-go" {
		t.Errorf("narrow vectors must use the pure Go loop, got %s", KernelName(3))
	}
	if name := KernelName(WideThreshold); name != wideKernelName {
		t.Errorf("got %s, want %s", name, wideKernelName)
	}
}

func generateVectors(rng *rand.Rand, dims int) ([]float64, []float64) {
	a := make([]float64, dims)
	b := make([]float64, dims)
	for i := 0; i < dims; i++ {
		a[i] = rng.Float64()
		b[i] = rng.Float64()
	}
	return a, b
}

func BenchmarkSquaredEuclidean(b *testing.B) {
	rng := rand.New(rand.NewSource(42))
	for _, d := range []int{2, 3, 16, 64, 256} {
		b.Run(fmt.Sprintf("%dD", d), func(b *testing.B) {
			v1, v2 := generateVectors(rng, d)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				SquaredEuclidean(v1, v2)
			}
		})
	}
}
