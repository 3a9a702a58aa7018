// Package bucket groups point indices by cell key.
//
// Both backends share one CSR-style layout: a permutation of [0, n) in which
// points with the same key are contiguous, and a pivot table of bucket
// boundaries into that permutation (pivots[0] = 0, pivots[len-1] = n). They
// differ in how a key is resolved to its buckets: Sorted assumes a perfect
// hash and keeps a Go map, Sparse tolerates aliased keys, keeps one bucket per
// distinct cell and resolves keys through an ordered B-tree directory.
package bucket

import (
	"cmp"
	"errors"
	"slices"
)

// NotPresent is the bucket id returned for keys or cells without points.
const NotPresent = -1

// ErrDegenerate is returned when every point ends up in a bucket of its own,
// which means the cell size is far too small for the data.
var ErrDegenerate = errors.New("bucket: every point is in its own cell")

// Index is a grouping of point indices by key.
type Index interface {
	// Len returns the number of buckets.
	Len() int

	// Keys returns every occupied key once, in ascending order.
	Keys() []int64

	// BucketOf returns the first bucket holding key, or NotPresent.
	BucketOf(key int64) int

	// BucketOfCell returns the bucket of the given cell whose key is key,
	// or NotPresent.
	BucketOfCell(key int64, cell []int64) int

	// Span returns the range [lo, hi) of the permutation holding all points
	// with key. lo == hi when the key is not present.
	Span(key int64) (lo, hi int)

	// IndicesInBucket returns the point indices of bucket b. The result is a
	// view of the permutation and must not be modified. Out-of-range ids,
	// NotPresent included, yield an empty slice.
	IndicesInBucket(b int) []int32

	// Key returns the key of bucket b.
	Key(b int) int64

	// Permutation returns the point order grouping equal keys.
	Permutation() []int32

	// Pivots returns the bucket boundaries into the permutation.
	Pivots() []int32

	// HintUsed reports whether the construction hint seeded the sort.
	HintUsed() bool
}

type layout struct {
	perm       []int32
	pivots     []int32
	bucketKeys []int64
	distinct   []int64
	hintUsed   bool
}

// build sorts the points by (key, cell, index) starting from hint and cuts the
// result into buckets. With byCell set, buckets are split on cell changes as
// well, so aliased keys keep one bucket per distinct cell.
func build(keys []int64, cells []int64, dims int, hint []int32, byCell bool) (*layout, error) {
	n := len(keys)
	l := &layout{}
	l.perm, l.hintUsed = seed(hint, n)

	cellOf := func(i int32) []int64 {
		return cells[int(i)*dims : (int(i)+1)*dims]
	}

	// The comparison is total, so the result does not depend on the seed
	// order; a nearly sorted seed only makes the sort cheaper.
	slices.SortFunc(l.perm, func(a, b int32) int {
		if c := cmp.Compare(keys[a], keys[b]); c != 0 {
			return c
		}
		if byCell {
			if c := slices.Compare(cellOf(a), cellOf(b)); c != 0 {
				return c
			}
		}
		return cmp.Compare(a, b)
	})

	l.pivots = make([]int32, 0, n/2+2)
	for i, p := range l.perm {
		if i > 0 {
			q := l.perm[i-1]
			if keys[p] == keys[q] && (!byCell || slices.Equal(cellOf(p), cellOf(q))) {
				continue
			}
		}
		l.pivots = append(l.pivots, int32(i))
		l.bucketKeys = append(l.bucketKeys, keys[p])
		if len(l.distinct) == 0 || l.distinct[len(l.distinct)-1] != keys[p] {
			l.distinct = append(l.distinct, keys[p])
		}
	}
	if n > 1 && len(l.bucketKeys) == n {
		return nil, ErrDegenerate
	}
	l.pivots = append(l.pivots, int32(n))
	return l, nil
}

// seed returns the initial order for the sort: a copy of hint when it is a
// permutation of [0, n), the identity otherwise.
func seed(hint []int32, n int) ([]int32, bool) {
	perm := make([]int32, n)
	if len(hint) == n && n > 0 {
		seen := newBitSet(n)
		valid := true
		for _, h := range hint {
			if h < 0 || int(h) >= n || seen.testAndSet(h) {
				valid = false
				break
			}
		}
		if valid {
			copy(perm, hint)
			return perm, true
		}
	}
	for i := range perm {
		perm[i] = int32(i)
	}
	return perm, false
}

func (l *layout) Len() int { return len(l.bucketKeys) }

func (l *layout) Keys() []int64 { return l.distinct }

func (l *layout) Key(b int) int64 { return l.bucketKeys[b] }

func (l *layout) Permutation() []int32 { return l.perm }

func (l *layout) Pivots() []int32 { return l.pivots }

func (l *layout) HintUsed() bool { return l.hintUsed }

func (l *layout) IndicesInBucket(b int) []int32 {
	if b < 0 || b >= len(l.bucketKeys) {
		return nil
	}
	return l.perm[l.pivots[b]:l.pivots[b+1]]
}
