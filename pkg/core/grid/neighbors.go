package grid

import (
	"fmt"
	"math"

	"github.com/sanonone/kektorgrid/pkg/core/box"
	"github.com/sanonone/kektorgrid/pkg/core/distance"
)

// NeighborFunc receives a point and its squared distance to the query.
type NeighborFunc func(i int32, d2 float64)

func (g *Grid) checkQuery(q []float64, radius float64) error {
	if len(q) != g.dims {
		return fmt.Errorf("%w: query has %d dimensions, grid has %d", ErrDimensionMismatch, len(q), g.dims)
	}
	if !(radius >= 0) || math.IsInf(radius, 0) {
		return fmt.Errorf("%w: radius must be non-negative and finite, got %g", ErrInvalidConfiguration, radius)
	}
	return nil
}

// ForEachWithin calls fn for every point at Euclidean distance at most radius
// from q. The radius is independent of Scale and of the cell size.
func (g *Grid) ForEachWithin(q []float64, radius float64, fn NeighborFunc) error {
	if err := g.checkQuery(q, radius); err != nil {
		return err
	}
	r2 := radius * radius
	return g.ForEachInBox(box.Around(q, radius), func(i int32) {
		if d2 := distance.SquaredEuclidean(q, g.position.Row(int(i))); d2 <= r2 {
			fn(i, d2)
		}
	})
}

// Nearest returns up to k points within radius of q, nearest first. Ties
// are broken by index.
func (g *Grid) Nearest(q []float64, k int, radius float64) ([]Neighbor, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", ErrInvalidConfiguration, k)
	}
	h := newMaxHeap(min(k, g.n))
	err := g.ForEachWithin(q, radius, func(i int32, d2 float64) {
		h.offer(Neighbor{Index: i, Distance2: d2}, k)
	})
	if err != nil {
		return nil, err
	}
	return h.drain(), nil
}
