package grid

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/sanonone/kektorgrid/pkg/core/box"
)

func BenchmarkBuild(b *testing.B) {
	rng := rand.New(rand.NewSource(42))
	for _, size := range []struct {
		n    int
		span float64
	}{{1_000, 5}, {100_000, 25}} {
		n := size.n
		set := randomSet(rng, n, 3, size.span)
		for _, backend := range []Backend{Bounded, Sparse} {
			b.Run(fmt.Sprintf("%s/%d", backend, n), func(b *testing.B) {
				cfg := Config{Lengthscale: 1, Backend: backend}
				b.ReportAllocs()
				for i := 0; i < b.N; i++ {
					if _, err := New(set, cfg); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}

func BenchmarkUpdate(b *testing.B) {
	rng := rand.New(rand.NewSource(42))
	set := randomSet(rng, 100_000, 3, 50)
	moved := jitter(rng, set, 0.01)
	g, err := New(set, Config{Lengthscale: 1, Backend: Bounded})
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := g.Update(moved); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkPairs(b *testing.B) {
	rng := rand.New(rand.NewSource(42))
	set := randomSet(rng, 100_000, 3, 50)
	g, err := New(set, Config{Lengthscale: 1, Backend: Bounded})
	if err != nil {
		b.Fatal(err)
	}

	b.Run("Sequential", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			g.ForEachPair(func(int32, int32, float64) {})
		}
	})
	b.Run("Parallel", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			if _, err := g.PairsParallel(context.Background()); err != nil {
				b.Fatal(err)
			}
		}
	})
}

func BenchmarkInBox(b *testing.B) {
	rng := rand.New(rand.NewSource(42))
	set := randomSet(rng, 100_000, 3, 50)
	g, err := New(set, Config{Lengthscale: 1, Backend: Bounded})
	if err != nil {
		b.Fatal(err)
	}
	q := box.Around([]float64{25, 25, 25}, 2)

	b.Run("Grid", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_ = g.ForEachInBox(q, func(int32) {})
		}
	})
	b.Run("Naive", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_ = g.ForEachInBoxNaive(q, func(int32) {})
		}
	})
}
