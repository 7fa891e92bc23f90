// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package slot implements one entry in a bag: a sequential priority queue
// guarded by a try-lock, plus the bookkeeping that lets the node act as a
// union-find element within cross-bag merges - an owner back-pointer, and
// an intrusive lock-free list of other slot nodes waiting to be merged into
// this one.
package slot

import (
	"sync"
	"sync/atomic"

	"github.com/kirsybuu/mergearray/internal/assert"
	"github.com/kirsybuu/mergearray/internal/mergeref"
	"github.com/kirsybuu/mergearray/internal/nodealloc"
	"github.com/kirsybuu/mergearray/internal/seqpq"
)

// Linearizer lets a Node call back into the handle chain that owns it to
// linearize a cross-bag merge before draining a pending node's contents.
// Defined here (rather than importing the handle-chain package directly)
// to keep slot at the bottom of the internal dependency order: the chain
// package depends on bag, which depends on slot, so slot cannot import
// either without creating a cycle.
type Linearizer interface {
	// EnsureMerged blocks (briefly, never indefinitely) until any merge
	// this handle node is a source of has been fully linearized, i.e. until
	// its bag pointer has either stayed live or been published as nil with
	// its contents now owned by some other bag's slots.
	EnsureMerged()
}

// ApplyResult is the outcome of TryEvaluateAndApply.
type ApplyResult int

const (
	// Finished means the caller's callback ran and reported success; the
	// public operation is done.
	Finished ApplyResult = iota
	// NextElem means the caller should retry with a different slot in the
	// same bag (the callback declined, or a bailout occurred).
	NextElem
	// NextBag means this slot's owning handle has been merged away; the
	// caller should re-resolve its destination bag and retry there.
	NextBag
)

// Node is one slot in a bag. The zero value is not ready to use; construct
// with New.
type Node[T any, S seqpq.Queue[T]] struct {
	mu   sync.Mutex
	elem S

	// owner transitions at most once, from nil to the slot node that has
	// claimed this node as a source in its pending-merge list. Monotonic:
	// once non-nil, never changes.
	owner atomic.Pointer[Node[T, S]]

	// mergeHead is the head of this slot's own pending-merge list: other
	// slot nodes that want their contents merged into elem. NIL means the
	// list is empty but appendable; Drained means this slot node has
	// itself been merged elsewhere and will never own a list again.
	mergeHead mergeref.Atomic[Node[T, S]]

	// next is this node's link within some other slot's pending-merge
	// list. NIL means not linked (yet); Dummy means the link is
	// permanently dead and appenders must restart from that list's head.
	next mergeref.Atomic[Node[T, S]]

	// skip is an optional hint pointing further down this node's own
	// pending-merge list than mergeHead, to shorten future tail searches.
	// Purely optimizational: safe to be stale, safe to be nil.
	skip atomic.Pointer[Node[T, S]]

	// handle is the handle node that created this slot node. Immutable
	// after construction.
	handle Linearizer
}

// New constructs a slot node wrapping elem, created on behalf of handle.
// Nodes come from alloc rather than a bare composite literal, per the
// allocator contract: merged-away slot nodes are never individually freed
// (see package nodealloc), only ever reclaimed in bulk by the allocator's
// own policy, so construction is the one allocator operation this package
// actually needs.
func New[T any, S seqpq.Queue[T]](handle Linearizer, elem S, alloc nodealloc.Allocator[Node[T, S]]) *Node[T, S] {
	n := alloc.New()
	n.elem = elem
	n.handle = handle
	n.mergeHead.Init(mergeref.NilRef[Node[T, S]]())
	n.next.Init(mergeref.NilRef[Node[T, S]]())
	return n
}

// TryLock attempts to acquire the slot's coarse lock without blocking.
func (n *Node[T, S]) TryLock() bool { return n.mu.TryLock() }

// Lock blocks until the slot's coarse lock is acquired. The merge and apply
// paths in this module never call it - they only try-lock, including when
// recursively evaluating a source node's own merges.
func (n *Node[T, S]) Lock() { n.mu.Lock() }

// Unlock releases the slot's coarse lock.
func (n *Node[T, S]) Unlock() { n.mu.Unlock() }

// Elem returns the sequential PQ guarded by this slot's lock. Callers must
// hold the lock. S is itself a reference type (typically a pointer
// implementing seqpq.Queue[T]), so the returned value shares state with
// the slot rather than copying it.
func (n *Node[T, S]) Elem() S { return n.elem }

// Handle returns the handle node this slot node was created by.
func (n *Node[T, S]) Handle() Linearizer { return n.handle }

// Owner returns the slot node that has claimed this node, or nil if
// unclaimed.
func (n *Node[T, S]) Owner() *Node[T, S] { return n.owner.Load() }

// ClaimOwner attempts the one-shot CAS that claims n for by. Returns true
// if this call performed the claim, false if n was already owned (by this
// or another caller).
func (n *Node[T, S]) ClaimOwner(by *Node[T, S]) bool {
	return n.owner.CompareAndSwap(nil, by)
}

// Next returns the current value of the next link.
func (n *Node[T, S]) Next() mergeref.Ref[Node[T, S]] { return n.next.Load() }

// CompareAndSwapNext atomically updates the next link.
func (n *Node[T, S]) CompareAndSwapNext(old, new mergeref.Ref[Node[T, S]]) bool {
	return n.next.CompareAndSwap(old, new)
}

// MergeHead returns the current head of this node's own pending-merge
// list.
func (n *Node[T, S]) MergeHead() mergeref.Ref[Node[T, S]] { return n.mergeHead.Load() }

// CompareAndSwapMergeHead atomically updates the pending-merge list head.
func (n *Node[T, S]) CompareAndSwapMergeHead(old, new mergeref.Ref[Node[T, S]]) bool {
	return n.mergeHead.CompareAndSwap(old, new)
}

// Skip returns the current tail-skip hint, or nil if none.
func (n *Node[T, S]) Skip() *Node[T, S] { return n.skip.Load() }

// CompressSkip updates the tail-skip hint. Best-effort: a failed CAS is
// ignored since the hint is purely optimizational.
func (n *Node[T, S]) CompressSkip(old, new *Node[T, S]) {
	n.skip.CompareAndSwap(old, new)
}

// EvaluateMerges drains this node's pending-merge list into elem, one
// source at a time. Must be called with n's lock already held. Returns
// true if the whole list was drained, false if it bailed out because a
// source node's own lock could not be try-acquired - in which case the
// caller must release n's lock and retry (on a different slot) rather than
// wait, to keep remove-any deadlock-free.
func (n *Node[T, S]) EvaluateMerges() bool {
	for {
		cur := n.mergeHead.Load()
		if cur.IsNil() {
			return true
		}
		src := cur.Node

		// A node reachable from our own mergeHead list should never have
		// already been drained: ownership is claimed exactly once, and the
		// owner is the only one who ever appends it to a list. Firing this
		// indicates a bug in the append protocol (see design notes on
		// reinsertion-after-drain), not a case to handle gracefully.
		assert.Invariant(!src.mergeHead.Load().IsDrained(), "pending-merge source reinserted after drain")

		// Linearize whatever cross-bag merge src.handle is a source of
		// before touching its contents.
		src.handle.EnsureMerged()

		if !src.TryLock() {
			// Bailout: don't wait for a slot another goroutine holds.
			return false
		}
		ok := src.EvaluateMerges()
		if !ok {
			src.Unlock()
			return false
		}
		n.elem.MergeSteal(src.elem)
		src.Unlock()

		// Mark src drained: its mergeHead transitions to Drained exactly
		// once and never changes again.
		src.mergeHead.Store(mergeref.DrainedRef[Node[T, S]]())

		// Unlink src from our own list.
		n.unlinkDrainedHead(cur, src)
	}
}

// unlinkDrainedHead removes src (known to be the current list head, or to
// have been) from n's pending-merge list after src has been fully drained.
func (n *Node[T, S]) unlinkDrainedHead(cur mergeref.Ref[Node[T, S]], src *Node[T, S]) {
	for {
		next := src.Next()
		switch {
		case next.Tag == mergeref.Normal:
			if n.mergeHead.CompareAndSwap(cur, next) {
				return
			}
		case next.IsDummy():
			// src's own next is already retired (Dummy); there is
			// nothing left to unlink it to but NIL.
			if n.mergeHead.CompareAndSwap(cur, mergeref.NilRef[Node[T, S]]()) {
				return
			}
		default: // NIL: src was the tail. Retire its next link, then clear the head.
			if src.CompareAndSwapNext(next, mergeref.DummyRef[Node[T, S]]()) {
				n.mergeHead.CompareAndSwap(cur, mergeref.NilRef[Node[T, S]]())
				return
			}
		}
		// Lost a race (the head or src's next moved); re-read and retry.
		cur = n.mergeHead.Load()
		if cur.Node != src {
			return
		}
	}
}

// TryEvaluateAndApply try-locks n, drains its pending merges, and - if that
// succeeds - invokes dg against the locked sequential PQ. dg reports
// whether the operation is complete.
func (n *Node[T, S]) TryEvaluateAndApply(mergedAway func() bool, dg func(S) bool) ApplyResult {
	if !n.TryLock() {
		return NextElem
	}
	defer n.Unlock()

	if mergedAway() {
		return NextBag
	}

	if !n.EvaluateMerges() {
		return NextElem
	}

	if dg(n.elem) {
		return Finished
	}
	return NextElem
}
