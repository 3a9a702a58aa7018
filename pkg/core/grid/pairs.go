package grid

import (
	"context"

	"github.com/sanonone/kektorgrid/pkg/core/distance"
	"github.com/sanonone/kektorgrid/pkg/metrics"
)

// Pair is an unordered pair of point indices.
type Pair [2]int32

// PairFunc receives an accepted pair and its squared distance.
type PairFunc func(i, j int32, d2 float64)

// ForEachPair calls fn once for every unordered pair of points whose
// Euclidean distance does not exceed Scale.
//
// Occupied keys are walked in ascending order. Points sharing a key are
// paired in permutation order, each with the ones before it; points of
// neighbouring keys are reached through the half-stencil, so every pair of
// neighbouring cells is visited from exactly one side. Cell adjacency is only
// a prefilter: the squared distance decides.
func (g *Grid) ForEachPair(fn PairFunc) {
	n := g.pairsInKeys(g.index.Keys(), fn)
	metrics.PairsEmitted.WithLabelValues(string(g.cfg.Backend)).Add(float64(n))
}

// Pairs returns every pair within Scale as a dense two-column table, in the
// order ForEachPair reports them.
func (g *Grid) Pairs() []Pair {
	var pairs []Pair
	g.ForEachPair(func(i, j int32, _ float64) {
		pairs = append(pairs, Pair{i, j})
	})
	return pairs
}

// PairsParallel is Pairs with the occupied keys split across Workers
// goroutines. The result is identical to Pairs, order included. It returns
// ctx.Err() when ctx is cancelled before the traversal completes.
func (g *Grid) PairsParallel(ctx context.Context) ([]Pair, error) {
	keys := g.index.Keys()
	parts := chunks(len(keys), resolveWorkers(g.cfg.Workers))
	slots := make([][]Pair, len(parts))

	err := forEachChunk(ctx, len(keys), g.cfg.Workers, func(c, lo, hi int) error {
		var out []Pair
		g.pairsInKeys(keys[lo:hi], func(i, j int32, _ float64) {
			out = append(out, Pair{i, j})
		})
		slots[c] = out
		return nil
	})
	if err != nil {
		return nil, err
	}

	total := 0
	for _, s := range slots {
		total += len(s)
	}
	pairs := make([]Pair, 0, total)
	for _, s := range slots {
		pairs = append(pairs, s...)
	}
	metrics.PairsEmitted.WithLabelValues(string(g.cfg.Backend)).Add(float64(total))
	return pairs, nil
}

// pairsInKeys enumerates the pairs owned by the given keys and returns how
// many were accepted.
func (g *Grid) pairsInKeys(keys []int64, fn PairFunc) int {
	r2 := g.scale * g.scale
	perm := g.index.Permutation()
	accepted := 0

	visit := func(i, j int32) {
		d2 := distance.SquaredEuclidean(g.position.Row(int(i)), g.position.Row(int(j)))
		if d2 > r2 {
			return
		}
		fn(i, j, d2)
		accepted++
	}

	for _, k := range keys {
		lo, hi := g.index.Span(k)
		bi := perm[lo:hi]

		for a, pi := range bi {
			for _, pj := range bi[:a] {
				visit(pi, pj)
			}
		}

		for _, o := range g.stencil {
			nlo, nhi := g.index.Span(k + o)
			// neighbour side first; it is usually empty
			for _, pj := range perm[nlo:nhi] {
				for _, pi := range bi {
					visit(pi, pj)
				}
			}
		}
	}
	return accepted
}
