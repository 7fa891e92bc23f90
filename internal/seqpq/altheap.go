// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package seqpq

import (
	addrheap "github.com/addrummond/heap"
	"github.com/gammazero/deque"
)

// AltOrdered is the comparator interface github.com/addrummond/heap expects
// of items stored in an Orderable heap.
type AltOrdered[T any] interface {
	Cmp(other T) int
}

// AltHeap is a second sequential PQ implementation, demonstrating that the
// slot's sequential PQ really is an interchangeable parameter. It is backed
// by github.com/addrummond/heap for the heap itself and
// github.com/gammazero/deque as a reusable scratch buffer for MergeSteal,
// rather than a plain slice, so repeated merges don't repeatedly reallocate.
//
// The zero value is an empty heap ready to use.
type AltHeap[T AltOrdered[T]] struct {
	h      addrheap.Heap[T, addrheap.Min]
	buffer deque.Deque[T]
}

var _ Queue[altCmpInt] = (*AltHeap[altCmpInt])(nil)

func (h *AltHeap[T]) Insert(t T) {
	addrheap.PushOrderable(&h.h, t)
}

func (h *AltHeap[T]) DeleteMin() (T, bool) {
	return addrheap.PopOrderable(&h.h)
}

func (h *AltHeap[T]) PeekMin() (T, bool) {
	return addrheap.Peek(&h.h)
}

// MergeSteal drains other into the deque buffer and bulk-pushes it back
// into the receiver. addrummond/heap, like container/heap, exposes no
// O(log n) meld primitive, so this pays a full drain-and-reinsert cost
// (BinaryHeap.MergeSteal instead appends and re-heapifies); the deque buffer
// only saves the reallocations
// a plain slice would otherwise incur across repeated merges of the same
// AltHeap.
func (h *AltHeap[T]) MergeSteal(other Queue[T]) {
	o, ok := other.(*AltHeap[T])
	if !ok {
		for {
			v, ok := other.DeleteMin()
			if !ok {
				return
			}
			h.Insert(v)
		}
	}
	h.buffer.Clear()
	for {
		v, ok := addrheap.PopOrderable(&o.h)
		if !ok {
			break
		}
		h.buffer.PushBack(v)
	}
	for h.buffer.Len() > 0 {
		h.Insert(h.buffer.PopFront())
	}
}

func (h *AltHeap[T]) Empty() bool {
	return addrheap.Len(&h.h) == 0
}

type altCmpInt int

func (c altCmpInt) Cmp(other altCmpInt) int { return int(c) - int(other) }
