// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package mergearray

import (
	"context"

	"github.com/kirsybuu/mergearray/internal/chain"
	"github.com/kirsybuu/mergearray/internal/nodealloc"
	"github.com/kirsybuu/mergearray/internal/seqpq"
	"github.com/kirsybuu/mergearray/internal/slot"
)

// Queue is the sequential PQ contract each slot wraps, re-exported so
// callers outside this module (notably obsmq) can name the constraint
// without reaching into internal/seqpq themselves.
type Queue[T any] = seqpq.Queue[T]

// Versioned refines Queue with the mutation counter Empty requires.
type Versioned[T any] = seqpq.Versioned[T]

// PriorityQueue is a relaxed, concurrent, mergeable priority queue over T,
// backed by a width-sized bag of sequential priority queues of type S. The
// zero value is not ready to use; construct with New.
type PriorityQueue[T any, S seqpq.Queue[T]] struct {
	node *chain.Node[T, S]
}

// New constructs a queue with the given id (which must be unique among
// simultaneously live queues - see MergeIDClash) and width slots, each
// holding a fresh S built by newElem. Slot nodes are obtained from alloc;
// nodealloc.Pool is a ready-made sync.Pool-backed choice.
func New[T any, S seqpq.Queue[T]](id uint64, width int, newElem func() S, alloc nodealloc.Allocator[slot.Node[T, S]]) *PriorityQueue[T, S] {
	return &PriorityQueue[T, S]{node: chain.New[T, S](id, width, newElem, alloc)}
}

// Insert adds t to the queue. Lock-free under bounded contention
// (no more than width active callers), obstruction-free beyond that.
func (pq *PriorityQueue[T, S]) Insert(t T) {
	pq.applyUntil(func(e S) bool {
		e.Insert(t)
		return true
	})
}

// TryRemoveAny removes and returns an element of approximately low rank,
// not necessarily the strict minimum. Deadlock-free: a slot held by
// another goroutine is skipped, never waited on. Gives up and returns
// (zero, false) once empty slots have been found more than maxRetries
// times in total, counted across every slot visited.
func (pq *PriorityQueue[T, S]) TryRemoveAny(maxRetries int) (T, bool) {
	var out T
	var found bool
	retries := 0
	pq.applyUntil(func(e S) bool {
		if v, ok := e.DeleteMin(); ok {
			out, found = v, true
			return true
		}
		retries++
		return retries > maxRetries
	})
	return out, found
}

// RemoveAny removes and returns an element of approximately low rank,
// blocking (looping, and only ever try-locking slots, so it never waits on
// one slot's lock while holding another's) until one is available or ctx is
// done.
func (pq *PriorityQueue[T, S]) RemoveAny(ctx context.Context) (T, error) {
	var out T
	err := pq.applyUntilCtx(ctx, func(e S) bool {
		v, ok := e.DeleteMin()
		if ok {
			out = v
		}
		return ok
	})
	return out, err
}

// SwapEmptyWith blocks until some slot is empty, then exchanges that slot's
// (empty) contents for src's, leaving src empty and the slot holding what
// src used to hold. Returns when ctx is done with no empty slot found.
func (pq *PriorityQueue[T, S]) SwapEmptyWith(ctx context.Context, src S) error {
	return pq.applyUntilCtx(ctx, func(e S) bool {
		if !e.Empty() {
			return false
		}
		e.MergeSteal(src)
		return true
	})
}

// Merge atomically fuses pq and other into a single queue. See MergeResult
// for the possible outcomes.
func (pq *PriorityQueue[T, S]) Merge(other *PriorityQueue[T, S]) MergeResult {
	return pq.node.MergeInto(other.node)
}

// applyUntil resolves the queue's current bag, linearizing any merges
// along the way, and runs dg against a try-locked slot's sequential PQ
// repeatedly until dg reports done. If the bag itself is merged away while
// dg is still running, it re-resolves and continues from the new bag.
func (pq *PriorityQueue[T, S]) applyUntil(dg func(S) bool) {
	for {
		node := pq.node.DescendMerging()
		b := node.FindClosestBag()
		mergedAway := func() bool { return node.FindClosestBag() != b }
		if res := b.TryApplyUntil(mergedAway, dg); res == slot.Finished {
			return
		}
	}
}

// applyUntilCtx is applyUntil with a context-bounded wait: dg is given one
// more chance to succeed on every slot visit, but once ctx is done and dg
// still hasn't succeeded, the loop unwinds and returns ctx.Err().
func (pq *PriorityQueue[T, S]) applyUntilCtx(ctx context.Context, dg func(S) bool) error {
	succeeded := false
	guarded := func(e S) bool {
		if dg(e) {
			succeeded = true
			return true
		}
		return ctx.Err() != nil
	}
	for {
		node := pq.node.DescendMerging()
		b := node.FindClosestBag()
		mergedAway := func() bool { return node.FindClosestBag() != b }
		if res := b.TryApplyUntil(mergedAway, guarded); res == slot.Finished {
			if succeeded {
				return nil
			}
			return ctx.Err()
		}
	}
}
