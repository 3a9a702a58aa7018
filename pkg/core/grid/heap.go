package grid

import "container/heap"

// Neighbor is a point found by a proximity query.
type Neighbor struct {
	Index     int32
	Distance2 float64 // squared Euclidean distance to the query
}

func farther(a, b Neighbor) bool {
	if a.Distance2 != b.Distance2 {
		return a.Distance2 > b.Distance2
	}
	return a.Index > b.Index
}

// maxHeap keeps the k best neighbours found so far with the worst on top, so
// that it is the one replaced when a closer point shows up.
type maxHeap []Neighbor

func (h maxHeap) Len() int           { return len(h) }
func (h maxHeap) Less(i, j int) bool { return farther(h[i], h[j]) }
func (h maxHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *maxHeap) Push(x any) { *h = append(*h, x.(Neighbor)) }

func (h *maxHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

func newMaxHeap(capacity int) *maxHeap {
	h := make(maxHeap, 0, capacity)
	heap.Init(&h)
	return &h
}

// offer adds nb when the heap holds fewer than k entries or nb beats the
// current worst.
func (h *maxHeap) offer(nb Neighbor, k int) {
	if h.Len() < k {
		heap.Push(h, nb)
		return
	}
	if farther((*h)[0], nb) {
		(*h)[0] = nb
		heap.Fix(h, 0)
	}
}

// drain empties the heap and returns its content nearest first.
func (h *maxHeap) drain() []Neighbor {
	out := make([]Neighbor, h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(h).(Neighbor)
	}
	return out
}
