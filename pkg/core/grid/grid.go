// Package grid provides O(1) spatial lookups for n-dimensional point clouds.
//
// A Grid is an immutable snapshot: it hashes every point into a virtual voxel
// of edge Lengthscale, groups the points by cell and answers pair and box
// queries from that grouping. Moving points are handled by building a new
// grid per frame with Update, which reuses the previous ordering as a sort
// hint.
//
// Basic usage:
//
//	set, _ := points.FromRows(rows)
//	g, err := grid.New(set, grid.Config{Lengthscale: 0.1, Backend: grid.Bounded})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	g.ForEachPair(func(i, j int32, d2 float64) {
//	    // i and j are within 0.1 of each other
//	})
package grid

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/sanonone/kektorgrid/pkg/core/box"
	"github.com/sanonone/kektorgrid/pkg/core/bucket"
	"github.com/sanonone/kektorgrid/pkg/core/cell"
	"github.com/sanonone/kektorgrid/pkg/core/points"
	"github.com/sanonone/kektorgrid/pkg/metrics"
)

// Grid is a spatial hash over a fixed point set.
type Grid struct {
	id     uuid.UUID
	parent uuid.UUID

	cfg   Config  // as supplied; Stencil nil when derived
	scale float64 // effective interaction radius

	position *points.Dense
	n        int
	dims     int

	mapper  *cell.Mapper
	hash    cell.HashFunc
	strides []int64 // strides of the linear hash; nil for a custom hash
	stencil []int64

	cells []int64 // n*dims, row-major
	keys  []int64 // one per point
	index bucket.Index
}

// New builds a grid over set.
func New(set points.Set, cfg Config) (*Grid, error) {
	return build(set, cfg, nil, uuid.Nil)
}

// NewWithHint builds a grid over set, seeding the grouping sort with hint.
// The hint is an optimization only: one with the wrong length or that is not
// a permutation is ignored, and the result is the same either way.
func NewWithHint(set points.Set, cfg Config, hint []int32) (*Grid, error) {
	return build(set, cfg, hint, uuid.Nil)
}

// Resume builds a grid over set that continues the lineage of the grid with
// id parent, typically one restored from a snapshot.
func Resume(set points.Set, cfg Config, hint []int32, parent uuid.UUID) (*Grid, error) {
	return build(set, cfg, hint, parent)
}

// Update returns a new grid over position using the configuration of g and
// the permutation of g as sort hint. g is left untouched. The point count may
// differ from g's, in which case the hint is ignored.
//
// Dense sets are referenced, not copied: position must not be the set of g
// modified in place.
func (g *Grid) Update(position points.Set) (*Grid, error) {
	return build(position, g.cfg, g.index.Permutation(), g.id)
}

func build(set points.Set, cfg Config, hint []int32, parent uuid.UUID) (*Grid, error) {
	start := time.Now()
	g, err := construct(set, cfg, hint, parent)
	if err != nil {
		reason := "invalid"
		if errors.Is(err, ErrDegenerateConfiguration) {
			reason = "degenerate"
		}
		metrics.GridRejected.WithLabelValues(reason).Inc()
		return nil, err
	}

	elapsed := time.Since(start)
	backend := string(cfg.Backend)
	metrics.GridBuildDuration.WithLabelValues(backend, strconv.FormatBool(g.index.HintUsed())).Observe(elapsed.Seconds())
	metrics.GridBuckets.WithLabelValues(backend).Set(float64(g.index.Len()))
	metrics.GridPoints.WithLabelValues(backend).Set(float64(g.n))

	if hint != nil && !g.index.HintUsed() {
		slog.Warn("[GRID] permutation hint ignored", "id", g.id, "points", g.n, "hint_len", len(hint))
	}
	slog.Debug("[GRID] built",
		"id", g.id,
		"parent", g.parent,
		"backend", backend,
		"points", g.n,
		"dims", g.dims,
		"buckets", g.index.Len(),
		"stencil", len(g.stencil),
		"hinted", g.index.HintUsed(),
		"elapsed", elapsed)
	return g, nil
}

func construct(set points.Set, cfg Config, hint []int32, parent uuid.UUID) (*Grid, error) {
	scale, err := cfg.validate()
	if err != nil {
		return nil, err
	}
	if set == nil || set.Len() == 0 {
		return nil, invalidf("empty point set")
	}
	if n := set.Len(); n > math.MaxInt32 {
		return nil, invalidf("%d points exceed the int32 index range", n)
	}

	cfg.Stencil = slices.Clone(cfg.Stencil)
	pos := points.AsDense(set)
	mapper, err := cell.NewMapper(box.Of(pos), cfg.Lengthscale)
	if err != nil {
		return nil, invalidf("%v", err)
	}

	g := &Grid{
		id:       uuid.New(),
		parent:   parent,
		cfg:      cfg,
		scale:    scale,
		position: pos,
		n:        pos.Len(),
		dims:     pos.Dims(),
		mapper:   mapper,
	}

	if err := g.selectHash(); err != nil {
		return nil, err
	}
	if err := g.hashPoints(); err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case Bounded:
		g.index, err = bucket.NewSorted(g.keys, hint)
	case Sparse:
		g.index, err = bucket.NewSparse(g.keys, g.cells, g.dims, hint)
	}
	if err != nil {
		if errors.Is(err, bucket.ErrDegenerate) {
			return nil, fmt.Errorf("%w: %d points in %d cells; lengthscale %g probably needs to go way up",
				ErrDegenerateConfiguration, g.n, g.n, cfg.Lengthscale)
		}
		return nil, err
	}
	return g, nil
}

// selectHash picks the cell hash and stencil for the configured backend.
func (g *Grid) selectHash() error {
	switch g.cfg.Backend {
	case Bounded:
		strides, err := g.mapper.LexStrides()
		if err != nil {
			return invalidf("%v", err)
		}
		g.strides = strides
		g.hash = cell.Linear(strides)
	case Sparse:
		if g.cfg.Hash != nil {
			g.hash = g.cfg.Hash
			break
		}
		bits := g.cfg.HashBits
		if bits == 0 {
			bits = uint(63 / g.dims)
		}
		hash, strides, err := cell.ShiftHash(g.dims, bits)
		if err != nil {
			return invalidf("%v", err)
		}
		g.hash, g.strides = hash, strides
	}

	if g.cfg.Stencil != nil {
		g.stencil = g.cfg.Stencil
	} else {
		g.stencil = cell.HalfStencil(g.strides)
	}
	return nil
}

// hashPoints computes the cell and key of every point.
func (g *Grid) hashPoints() error {
	g.cells = make([]int64, g.n*g.dims)
	g.keys = make([]int64, g.n)
	return forEachChunk(context.Background(), g.n, g.cfg.Workers, func(_, lo, hi int) error {
		for i := lo; i < hi; i++ {
			c := g.mapper.Cell(g.position.Row(i), g.cells[i*g.dims:(i+1)*g.dims])
			g.keys[i] = g.hash(c)
		}
		return nil
	})
}

// ID returns the unique id of this snapshot.
func (g *Grid) ID() uuid.UUID { return g.id }

// Parent returns the id of the grid this one was updated from, or uuid.Nil.
func (g *Grid) Parent() uuid.UUID { return g.parent }

// Config returns the configuration the grid was built with.
func (g *Grid) Config() Config { return g.cfg }

// Scale returns the effective interaction radius.
func (g *Grid) Scale() float64 { return g.scale }

// Len returns the number of points.
func (g *Grid) Len() int { return g.n }

// Dims returns the point dimension.
func (g *Grid) Dims() int { return g.dims }

// Positions returns the points of the grid. Read-only.
func (g *Grid) Positions() *points.Dense { return g.position }

// Extents returns the exact bounding box of the points.
func (g *Grid) Extents() box.Box { return g.mapper.Extents() }

// Shape returns the number of cells along each axis.
func (g *Grid) Shape() []int64 { return g.mapper.Shape() }

// Strides returns the strides of the linear cell hash, or nil when the grid
// uses a custom hash.
func (g *Grid) Strides() []int64 { return g.strides }

// Stencil returns the half-stencil used by pair enumeration.
func (g *Grid) Stencil() []int64 { return g.stencil }

// Hashes returns the cell key of every point. Read-only.
func (g *Grid) Hashes() []int64 { return g.keys }

// Cells returns the cell of every point, row-major. Read-only.
func (g *Grid) Cells() []int64 { return g.cells }

// CellOfPoint returns the cell of point i. Read-only.
func (g *Grid) CellOfPoint(i int32) []int64 {
	return g.cells[int(i)*g.dims : (int(i)+1)*g.dims]
}

// Permutation returns the point order grouping equal cells. Read-only.
func (g *Grid) Permutation() []int32 { return g.index.Permutation() }

// Pivots returns the bucket boundaries into the permutation. Read-only.
func (g *Grid) Pivots() []int32 { return g.index.Pivots() }

// Index returns the bucket index.
func (g *Grid) Index() bucket.Index { return g.index }

// Key returns the key of the given cell.
func (g *Grid) Key(c []int64) int64 { return g.hash(c) }

// Stats summarizes the bucket occupancy of a grid.
type Stats struct {
	Points     int
	Buckets    int
	Keys       int
	MaxBucket  int
	MeanBucket float64
	Aliased    int
	HintUsed   bool
}

// Stats returns occupancy statistics for debugging and tuning the
// lengthscale.
func (g *Grid) Stats() Stats {
	s := Stats{
		Points:   g.n,
		Buckets:  g.index.Len(),
		Keys:     len(g.index.Keys()),
		HintUsed: g.index.HintUsed(),
	}
	pivots := g.index.Pivots()
	for b := 1; b < len(pivots); b++ {
		s.MaxBucket = max(s.MaxBucket, int(pivots[b]-pivots[b-1]))
	}
	if s.Buckets > 0 {
		s.MeanBucket = float64(s.Points) / float64(s.Buckets)
	}
	if sp, ok := g.index.(*bucket.Sparse); ok {
		s.Aliased = sp.Aliased()
	}
	return s
}
