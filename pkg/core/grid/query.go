package grid

import (
	"fmt"
	"math"
	"slices"

	"github.com/sanonone/kektorgrid/pkg/core/box"
	"github.com/sanonone/kektorgrid/pkg/core/bucket"
	"github.com/sanonone/kektorgrid/pkg/core/cell"
	"github.com/sanonone/kektorgrid/pkg/metrics"
)

// PointFunc receives the index of a point.
type PointFunc func(i int32)

func (g *Grid) checkBox(b box.Box) error {
	if len(b.Min) != g.dims || len(b.Max) != g.dims {
		return fmt.Errorf("%w: box has %d/%d dimensions, grid has %d", ErrDimensionMismatch, len(b.Min), len(b.Max), g.dims)
	}
	for d := 0; d < g.dims; d++ {
		if math.IsNaN(b.Min[d]) || math.IsNaN(b.Max[d]) {
			return fmt.Errorf("%w: NaN corner on axis %d", box.ErrMalformed, d)
		}
	}
	return nil
}

// ForEachInBox calls fn for every point inside the closed box b.
//
// Only the cells overlapping b clipped to the grid extents are visited, or
// the occupied buckets when those are fewer. Every candidate is tested
// against the unclipped box since a cell may overlap b without all its
// points lying inside. A box with Min > Max on some axis, or disjoint from
// the extents, yields nothing.
func (g *Grid) ForEachInBox(b box.Box, fn PointFunc) error {
	if err := g.checkBox(b); err != nil {
		return err
	}
	metrics.RangeQueries.WithLabelValues(string(g.cfg.Backend), "grid").Inc()

	lb, ub, ok := g.cellRange(b)
	if !ok {
		return nil
	}

	emit := func(bi int) {
		for _, p := range g.index.IndicesInBucket(bi) {
			if b.Contains(g.position.Row(int(p))) {
				fn(p)
			}
		}
	}

	if !cellsAtMost(lb, ub, int64(g.index.Len())) {
		// more cells than occupied buckets: scan the buckets instead
		for bi := 0; bi < g.index.Len(); bi++ {
			c := g.CellOfPoint(g.index.IndicesInBucket(bi)[0])
			if inCellRange(c, lb, ub) {
				emit(bi)
			}
		}
		return nil
	}

	c := slices.Clone(lb)
	for {
		if bi := g.index.BucketOfCell(g.hash(c), c); bi != bucket.NotPresent {
			emit(bi)
		}

		d := 0
		for ; d < g.dims; d++ {
			c[d]++
			if c[d] < ub[d] {
				break
			}
			c[d] = lb[d]
		}
		if d == g.dims {
			return nil
		}
	}
}

// cellsAtMost reports whether the cell box [lb, ub) holds no more than
// limit cells.
func cellsAtMost(lb, ub []int64, limit int64) bool {
	count := int64(1)
	for d := range lb {
		n := ub[d] - lb[d]
		if count > limit/n {
			return false
		}
		count *= n
	}
	return count <= limit
}

func inCellRange(c, lb, ub []int64) bool {
	for d, x := range c {
		if x < lb[d] || x >= ub[d] {
			return false
		}
	}
	return true
}

// cellRange returns the half-open integer cell box [lb, ub) covering b
// clipped to [0, shape). ok is false when the clipped box is empty.
func (g *Grid) cellRange(b box.Box) (lb, ub []int64, ok bool) {
	lmin := g.mapper.ToLocal(b.Min, nil)
	lmax := g.mapper.ToLocal(b.Max, nil)
	shape := g.mapper.Shape()

	lb = make([]int64, g.dims)
	ub = make([]int64, g.dims)
	for d := 0; d < g.dims; d++ {
		lo := math.Max(lmin[d], 0)
		hi := math.Min(lmax[d], float64(shape[d]))
		if lo > hi {
			return nil, nil, false
		}
		lb[d] = int64(lo)
		ub[d] = min(int64(hi)+1, shape[d])
		if lb[d] >= ub[d] {
			return nil, nil, false
		}
	}
	return lb, ub, true
}

// ForEachInBoxNaive is the linear-scan reference for ForEachInBox. It is
// meant for cross-checking and reports the same set of points.
func (g *Grid) ForEachInBoxNaive(b box.Box, fn PointFunc) error {
	if err := g.checkBox(b); err != nil {
		return err
	}
	metrics.RangeQueries.WithLabelValues(string(g.cfg.Backend), "naive").Inc()

	if b.Disjoint(g.mapper.Extents()) {
		return nil
	}
	for i := 0; i < g.n; i++ {
		if b.Contains(g.position.Row(i)) {
			fn(int32(i))
		}
	}
	return nil
}

// InBox returns the points inside b in cell order.
func (g *Grid) InBox(b box.Box) ([]int32, error) {
	var out []int32
	err := g.ForEachInBox(b, func(i int32) { out = append(out, i) })
	return out, err
}

// InBoxNaive returns the points inside b in index order.
func (g *Grid) InBoxNaive(b box.Box) ([]int32, error) {
	var out []int32
	err := g.ForEachInBoxNaive(b, func(i int32) { out = append(out, i) })
	return out, err
}

// ForEachInCell calls fn for every point in cell c. Cells without points,
// including those outside the grid, yield nothing.
func (g *Grid) ForEachInCell(c []int64, fn PointFunc) error {
	if len(c) != g.dims {
		return fmt.Errorf("%w: cell has %d dimensions, grid has %d", ErrDimensionMismatch, len(c), g.dims)
	}
	if g.cfg.Backend == Bounded && !g.mapper.InDomain(c) {
		return nil
	}
	for _, p := range g.index.IndicesInBucket(g.index.BucketOfCell(g.hash(c), c)) {
		fn(p)
	}
	return nil
}

// ForEachCell calls fn for every occupied cell with its member points, in
// bucket order. Both slices are read-only views.
func (g *Grid) ForEachCell(fn func(c []int64, members []int32)) {
	for b := 0; b < g.index.Len(); b++ {
		members := g.index.IndicesInBucket(b)
		fn(g.CellOfPoint(members[0]), members)
	}
}

// CellOf returns the cell containing the global coordinate v. The cell may
// lie outside the grid shape when v lies outside the extents.
func (g *Grid) CellOf(v []float64) []int64 {
	local := g.mapper.ToLocal(v, nil)
	for d := range local {
		local[d] = math.Floor(local[d])
	}
	return cell.CellOf(local, nil)
}
