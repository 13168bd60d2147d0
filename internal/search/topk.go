package search

import "container/heap"

// TopK retains the best K items seen so far according to an injected
// ordering, doing O(log K) work per candidate instead of sorting the whole
// input. better(a, b) reports whether a ranks ahead of b in the final output
// and must be a strict total order for the result to be deterministic.
type TopK[T any] struct {
	k int
	h *boundedHeap[T]
}

// NewTopK creates a selector for the k best items. k <= 0 keeps nothing.
func NewTopK[T any](k int, better func(a, b T) bool) *TopK[T] {
	return &TopK[T]{k: k, h: &boundedHeap[T]{better: better}}
}

// Offer submits a candidate. Once the selector is full, a candidate only
// displaces the current worst retained item when it ranks strictly ahead
// of it.
func (t *TopK[T]) Offer(v T) {
	if t.k <= 0 {
		return
	}
	if t.h.Len() < t.k {
		heap.Push(t.h, v)
		return
	}
	if t.h.better(v, t.h.items[0]) {
		t.h.items[0] = v
		heap.Fix(t.h, 0)
	}
}

// Results drains the selector, best first.
func (t *TopK[T]) Results() []T {
	out := make([]T, t.h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(t.h).(T)
	}
	return out
}

// boundedHeap is a min-heap keyed by the injected ordering: the worst
// retained item sits at the root, ready for displacement.
type boundedHeap[T any] struct {
	items  []T
	better func(a, b T) bool
}

func (h *boundedHeap[T]) Len() int           { return len(h.items) }
func (h *boundedHeap[T]) Less(i, j int) bool { return h.better(h.items[j], h.items[i]) }
func (h *boundedHeap[T]) Swap(i, j int)      { h.items[i], h.items[j] = h.items[j], h.items[i] }

func (h *boundedHeap[T]) Push(x any) {
	h.items = append(h.items, x.(T))
}

func (h *boundedHeap[T]) Pop() any {
	last := len(h.items) - 1
	v := h.items[last]
	h.items = h.items[:last]
	return v
}
