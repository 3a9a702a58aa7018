package grid

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanonone/kektorgrid/pkg/core/distance"
	"github.com/sanonone/kektorgrid/pkg/core/points"
)

// bruteWithin returns every point within radius of q, nearest first.
func bruteWithin(set *points.Dense, q []float64, radius float64) []Neighbor {
	var out []Neighbor
	for i := 0; i < set.Len(); i++ {
		if d2 := distance.SquaredEuclidean(q, set.Row(i)); d2 <= radius*radius {
			out = append(out, Neighbor{Index: int32(i), Distance2: d2})
		}
	}
	slices.SortFunc(out, func(a, b Neighbor) int {
		if farther(a, b) {
			return 1
		}
		if farther(b, a) {
			return -1
		}
		return 0
	})
	return out
}

func TestForEachWithin(t *testing.T) {
	g, err := New(scenario(t), Config{Lengthscale: 1, Backend: Bounded})
	require.NoError(t, err)

	var got []int32
	require.NoError(t, g.ForEachWithin([]float64{0, 0}, 0.5, func(i int32, d2 float64) {
		got = append(got, i)
		assert.LessOrEqual(t, d2, 0.25)
	}))
	assert.Equal(t, []int32{0, 1, 2}, sorted(got))

	// the radius is not bounded by the cell size
	got = nil
	require.NoError(t, g.ForEachWithin([]float64{5, 5}, 8, func(i int32, _ float64) { got = append(got, i) }))
	assert.Equal(t, []int32{0, 1, 2, 3}, sorted(got))

	assert.ErrorIs(t, g.ForEachWithin([]float64{0}, 1, func(int32, float64) {}), ErrDimensionMismatch)
	assert.ErrorIs(t, g.ForEachWithin([]float64{0, 0}, -1, func(int32, float64) {}), ErrInvalidConfiguration)
}

func TestNearestMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(31))
	set := randomSet(rng, 2000, 3, 10)

	for _, backend := range []Backend{Bounded, Sparse} {
		t.Run(string(backend), func(t *testing.T) {
			g, err := New(set, Config{Lengthscale: 1, Backend: backend})
			require.NoError(t, err)

			for q := 0; q < 50; q++ {
				query := []float64{rng.Float64() * 10, rng.Float64() * 10, rng.Float64() * 10}
				radius := rng.Float64() * 3
				want := bruteWithin(set, query, radius)

				got, err := g.Nearest(query, 10, radius)
				require.NoError(t, err)
				require.Len(t, got, min(10, len(want)))
				assert.Equal(t, want[:len(got)], got)
			}
		})
	}
}

func TestNearestErrors(t *testing.T) {
	g, err := New(scenario(t), Config{Lengthscale: 1, Backend: Bounded})
	require.NoError(t, err)

	_, err = g.Nearest([]float64{0, 0}, 0, 1)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
	_, err = g.Nearest([]float64{0, 0, 0}, 1, 1)
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	got, err := g.Nearest([]float64{100, 100}, 3, 1)
	require.NoError(t, err)
	assert.Empty(t, got)
}
