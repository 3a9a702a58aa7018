package bucket

// bitSet is a fixed-capacity set of point indices.
type bitSet struct {
	words []uint64
}

func newBitSet(n int) *bitSet {
	return &bitSet{words: make([]uint64, (n>>6)+1)}
}

// testAndSet marks i and reports whether it was already marked.
func (bs *bitSet) testAndSet(i int32) bool {
	w, mask := i>>6, uint64(1)<<(uint32(i)&63)
	had := bs.words[w]&mask != 0
	bs.words[w] |= mask
	return had
}
