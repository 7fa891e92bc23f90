// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package seqpq

import "container/heap"

// Ordered constrains the element type of a BinaryHeap: it must know how to
// compare itself to another value of the same type, negative meaning "less
// than", zero meaning "equal", positive meaning "greater than" - the same
// Cmp convention the addrummond/heap package used by AltHeap expects of its
// Orderable items.
type Ordered[T any] interface {
	Cmp(other T) int
}

// BinaryHeap is the default sequential PQ, a generic wrapper around the
// standard library's container/heap. Unlike a general-purpose heap that
// must also support removing an arbitrary element (which needs a
// position-tracking Item interface), a bag slot only ever needs insert,
// peek-min, and delete-min, so this wrapper drops position tracking
// entirely in favor of a bare comparator.
//
// The zero value is an empty heap ready to use.
type BinaryHeap[T Ordered[T]] struct {
	items ordSlice[T]
}

var _ Queue[cmpInt] = (*BinaryHeap[cmpInt])(nil)

func (h *BinaryHeap[T]) Insert(t T) {
	heap.Push(&h.items, t)
}

func (h *BinaryHeap[T]) DeleteMin() (T, bool) {
	if len(h.items) == 0 {
		var zero T
		return zero, false
	}
	return heap.Pop(&h.items).(T), true
}

func (h *BinaryHeap[T]) PeekMin() (T, bool) {
	if len(h.items) == 0 {
		var zero T
		return zero, false
	}
	return h.items[0], true
}

// MergeSteal absorbs other's contents. container/heap exposes no O(log n)
// meld, so when other is also a *BinaryHeap this appends other's backing
// slice onto the receiver's and re-heapifies the result in O(n); any other
// Queue[T] is drained via repeated DeleteMin and re-Insert. Either way this
// is an explicit, documented cost of treating the sequential PQ as a
// pluggable parameter rather than hand-rolling a mergeable heap (skew heap,
// pairing heap) here.
func (h *BinaryHeap[T]) MergeSteal(other Queue[T]) {
	o, ok := other.(*BinaryHeap[T])
	if !ok {
		// A foreign Queue[T] implementation: fall back to the generic,
		// still-correct drain loop.
		for {
			v, ok := other.DeleteMin()
			if !ok {
				return
			}
			h.Insert(v)
		}
	}
	for _, v := range o.items {
		h.items = append(h.items, v)
	}
	o.items = nil
	heap.Init(&h.items)
}

func (h *BinaryHeap[T]) Empty() bool {
	return len(h.items) == 0
}

// ordSlice satisfies container/heap.Interface for any Ordered[T].
type ordSlice[T Ordered[T]] []T

func (s ordSlice[T]) Len() int           { return len(s) }
func (s ordSlice[T]) Less(i, j int) bool { return s[i].Cmp(s[j]) < 0 }
func (s ordSlice[T]) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }

func (s *ordSlice[T]) Push(x any) {
	*s = append(*s, x.(T))
}

func (s *ordSlice[T]) Pop() any {
	old := *s
	n := len(old)
	v := old[n-1]
	var zero T
	old[n-1] = zero // avoid retaining a reference via the backing array
	*s = old[:n-1]
	return v
}

// cmpInt exists only to let the static assertion above type-check; it is
// not otherwise referenced.
type cmpInt int

func (c cmpInt) Cmp(other cmpInt) int { return int(c) - int(other) }
