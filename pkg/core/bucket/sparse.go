package bucket

import (
	"slices"

	"github.com/tidwall/btree"
)

// keyRun is a directory entry: the consecutive buckets sharing one key.
type keyRun struct {
	Key   int64
	First int32
	Count int32
}

func keyRunLess(a, b keyRun) bool { return a.Key < b.Key }

// Sparse is the bucket index of the unbounded backend. Keys come from an
// arbitrary hash and may alias distinct cells; the cells are stored and
// compared on lookup so that every bucket still holds exactly one cell.
type Sparse struct {
	*layout
	cells     []int64
	dims      int
	directory *btree.BTreeG[keyRun]
}

// NewSparse groups the points by keys, splitting aliased keys by cell. cells
// holds the cell of every point, row-major with dims values per point.
func NewSparse(keys []int64, cells []int64, dims int, hint []int32) (*Sparse, error) {
	l, err := build(keys, cells, dims, hint, true)
	if err != nil {
		return nil, err
	}
	s := &Sparse{
		layout:    l,
		cells:     cells,
		dims:      dims,
		directory: btree.NewBTreeG[keyRun](keyRunLess),
	}
	for b := 0; b < len(l.bucketKeys); {
		run := keyRun{Key: l.bucketKeys[b], First: int32(b)}
		for b < len(l.bucketKeys) && l.bucketKeys[b] == run.Key {
			run.Count++
			b++
		}
		s.directory.Set(run)
	}
	return s, nil
}

func (s *Sparse) run(key int64) (keyRun, bool) {
	return s.directory.Get(keyRun{Key: key})
}

// BucketOf returns the first bucket with key, or NotPresent.
func (s *Sparse) BucketOf(key int64) int {
	r, ok := s.run(key)
	if !ok {
		return NotPresent
	}
	return int(r.First)
}

// BucketOfCell returns the bucket holding cell among those with key.
func (s *Sparse) BucketOfCell(key int64, cell []int64) int {
	r, ok := s.run(key)
	if !ok {
		return NotPresent
	}
	for b := r.First; b < r.First+r.Count; b++ {
		if slices.Equal(s.CellOfBucket(int(b)), cell) {
			return int(b)
		}
	}
	return NotPresent
}

// CellOfBucket returns the cell shared by the members of bucket b.
func (s *Sparse) CellOfBucket(b int) []int64 {
	p := int(s.perm[s.pivots[b]])
	return s.cells[p*s.dims : (p+1)*s.dims]
}

// Span returns the permutation range of all buckets with key.
func (s *Sparse) Span(key int64) (lo, hi int) {
	r, ok := s.run(key)
	if !ok {
		return 0, 0
	}
	return int(s.pivots[r.First]), int(s.pivots[r.First+r.Count])
}

// Aliased returns the number of keys shared by more than one cell.
func (s *Sparse) Aliased() int {
	n := 0
	s.directory.Scan(func(r keyRun) bool {
		if r.Count > 1 {
			n++
		}
		return true
	})
	return n
}
