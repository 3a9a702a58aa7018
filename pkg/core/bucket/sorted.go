package bucket

// Sorted is the bucket index of the bounded backend. Keys must come from a
// perfect hash (the lexicographic rank of the cell), so every key is exactly
// one bucket and one cell.
type Sorted struct {
	*layout
	bucketFromKey map[int64]int32
}

// NewSorted groups the points by keys. hint, when it is a permutation of the
// points, seeds the sort (typically the permutation of the previous frame).
func NewSorted(keys []int64, hint []int32) (*Sorted, error) {
	l, err := build(keys, nil, 0, hint, false)
	if err != nil {
		return nil, err
	}
	s := &Sorted{
		layout:        l,
		bucketFromKey: make(map[int64]int32, len(l.bucketKeys)),
	}
	for b, k := range l.bucketKeys {
		s.bucketFromKey[k] = int32(b)
	}
	return s, nil
}

// BucketOf returns the bucket of key, or NotPresent.
func (s *Sorted) BucketOf(key int64) int {
	b, ok := s.bucketFromKey[key]
	if !ok {
		return NotPresent
	}
	return int(b)
}

// BucketOfCell returns the bucket of key. The cell is not consulted since
// keys are perfect.
func (s *Sorted) BucketOfCell(key int64, _ []int64) int {
	return s.BucketOf(key)
}

// Span returns the permutation range of key.
func (s *Sorted) Span(key int64) (lo, hi int) {
	b, ok := s.bucketFromKey[key]
	if !ok {
		return 0, 0
	}
	return int(s.pivots[b]), int(s.pivots[b+1])
}
