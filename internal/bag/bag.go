// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package bag implements a fixed-width array of slot nodes and the
// per-element merge protocol that moves one bag's contents into another
// bag's slots, index by index, without ever taking more than one slot's
// lock at a time.
package bag

import (
	"math/rand/v2"

	"github.com/kirsybuu/mergearray/internal/mergeref"
	"github.com/kirsybuu/mergearray/internal/nodealloc"
	"github.com/kirsybuu/mergearray/internal/seqpq"
	"github.com/kirsybuu/mergearray/internal/slot"
)

// Handle lets MergePerElementInto resolve a destination bag without bag
// importing the handle-chain package directly, for the same reason slot
// defines Linearizer locally: chain depends on bag, so bag cannot depend on
// chain.
type Handle[T any, S seqpq.Queue[T]] interface {
	// FindClosestBag returns the current representative bag for this
	// handle, following and compressing any chain of handles this one has
	// since been merged into.
	FindClosestBag() *Bag[T, S]
}

// Bag is a fixed-width array of slot nodes. The zero value is not ready to
// use; construct with New.
type Bag[T any, S seqpq.Queue[T]] struct {
	nodes []*slot.Node[T, S]
}

// New constructs a bag of width slots, each wrapping a freshly constructed
// sequential PQ from newElem and owned (for EnsureMerged callbacks) by
// handle. Slot nodes are obtained from alloc.
func New[T any, S seqpq.Queue[T]](width int, handle slot.Linearizer, newElem func() S, alloc nodealloc.Allocator[slot.Node[T, S]]) *Bag[T, S] {
	alloc.Enter(width)
	defer alloc.Exit()
	b := &Bag[T, S]{nodes: make([]*slot.Node[T, S], width)}
	for i := range b.nodes {
		b.nodes[i] = slot.New[T, S](handle, newElem(), alloc)
	}
	return b
}

// Width returns the number of slots in the bag.
func (b *Bag[T, S]) Width() int { return len(b.nodes) }

// Node returns the slot node at index i.
func (b *Bag[T, S]) Node(i int) *slot.Node[T, S] { return b.nodes[i] }

// randomOrder returns a freshly shuffled permutation of [0, Width()), used
// to visit slots in a uniformly random cyclic order rather than always
// starting from index 0 - spreading contention evenly across callers
// instead of piling everyone onto the same low-index slots first.
func (b *Bag[T, S]) randomOrder() []int {
	order := make([]int, len(b.nodes))
	for i := range order {
		order[i] = i
	}
	rand.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	return order
}

// TryApplyUntil visits this bag's slots in a random cyclic order, calling
// each one's TryEvaluateAndApply(mergedAway, dg) in turn, and keeps cycling
// through the same random order until dg reports done (Finished) or a slot
// reports that this whole bag has been merged away (NextBag). dg is
// responsible for bounding how long this runs (e.g. a retry counter for
// try_remove_any, or nothing at all for a blocking remove_any).
func (b *Bag[T, S]) TryApplyUntil(mergedAway func() bool, dg func(S) bool) slot.ApplyResult {
	order := b.randomOrder()
	for i := 0; ; i = (i + 1) % len(order) {
		switch res := b.nodes[order[i]].TryEvaluateAndApply(mergedAway, dg); res {
		case slot.Finished, slot.NextBag:
			return res
		}
	}
}

// TryApplyEachUntil visits every slot exactly once, in a random cyclic
// order, stopping early if a slot reports the bag has been merged away
// (NextBag) or if dg declines a slot (NextElem) - the caller is expected to
// retry the whole pass from scratch in that case, since "each slot visited
// at most once" only promises one consistent sweep, not retries within it.
// Returns Finished only if every slot's dg call returned true.
func (b *Bag[T, S]) TryApplyEachUntil(mergedAway func() bool, dg func(idx int, elem S) bool) slot.ApplyResult {
	for _, idx := range b.randomOrder() {
		res := b.nodes[idx].TryEvaluateAndApply(mergedAway, func(e S) bool { return dg(idx, e) })
		if res != slot.Finished {
			return res
		}
	}
	return slot.Finished
}

// MergePerElementInto moves every element of self into dest, slot by slot,
// by linking each of self's slot nodes into the pending-merge list of the
// correspondingly indexed slot node of dest's current bag (re-resolved via
// destHandle.FindClosestBag on every retry, since dest may itself be merged
// further while this call is in flight). Visits self's slots in a random
// cyclic order, same rationale as TryApplyUntil.
func (b *Bag[T, S]) MergePerElementInto(destHandle Handle[T, S]) {
	for _, idx := range b.randomOrder() {
		b.linkOneInto(destHandle, idx, b.nodes[idx])
	}
}

// linkOneInto appends src to the pending-merge list of the slot at idx in
// destHandle's current bag, claiming ownership of src on dest's behalf. If
// a racing claim wins src first, this call undoes its own link attempt and
// is done: src is already spoken for, one way or another.
func (b *Bag[T, S]) linkOneInto(destHandle Handle[T, S], idx int, src *slot.Node[T, S]) {
	for {
		if src.Owner() != nil {
			// Already claimed by an earlier or racing call: src is spoken
			// for, and linking it again would only corrupt a list.
			return
		}
		destBag := destHandle.FindClosestBag()
		dest := destBag.Node(idx)

		head := dest.MergeHead()
		if head.IsDrained() {
			// dest has itself been merged elsewhere since we resolved
			// destBag; re-resolve and try again.
			continue
		}
		if head.Tag == mergeref.Normal && head.Node == src {
			// Already linked here by this call (after an earlier undo
			// raced and lost) or by a concurrent duplicate attempt.
			return
		}

		if head.IsNil() {
			if !dest.CompareAndSwapMergeHead(head, mergeref.NodeRef(src)) {
				continue
			}
			if claimFor(src, dest) {
				return
			}
			dest.CompareAndSwapMergeHead(mergeref.NodeRef(src), head)
			return
		}

		tail := tailOf(dest, head)
		next := tail.Next()
		if !next.IsNil() {
			// Lost a race: someone already appended past what we thought
			// was the tail, or retired it. Restart the walk.
			continue
		}
		if !tail.CompareAndSwapNext(next, mergeref.NodeRef(src)) {
			continue
		}
		if claimFor(src, dest) {
			return
		}
		tail.CompareAndSwapNext(mergeref.NodeRef(src), next)
		return
	}
}

// claimFor attempts to give dest ownership of src. Returns true if dest
// ends up the (possibly pre-existing) owner, false if some other slot
// already claimed src first - in which case the caller's link attempt must
// be undone, since owner is monotonic and never reassigned.
func claimFor[T any, S seqpq.Queue[T]](src, dest *slot.Node[T, S]) bool {
	if src.ClaimOwner(dest) {
		return true
	}
	return src.Owner() == dest
}

// tailOf walks from head to the current tail of a slot's pending-merge
// list, using the skip hint as a shortcut when present and path-compressing
// it afterwards. Safe to call with a stale skip hint: a stale hint just
// costs a few extra hops, never correctness.
func tailOf[T any, S seqpq.Queue[T]](owner *slot.Node[T, S], head mergeref.Ref[slot.Node[T, S]]) *slot.Node[T, S] {
	cur := head.Node
	oldSkip := owner.Skip()
	if oldSkip != nil {
		cur = oldSkip
	}
	prev := cur
	for {
		next := cur.Next()
		if next.Tag != mergeref.Normal {
			if next.IsDummy() && oldSkip != nil {
				// The hint led into an already drained stretch of the
				// list: drop it and walk from the head instead.
				owner.CompressSkip(oldSkip, nil)
				return tailOf(owner, head)
			}
			if cur != oldSkip && cur != prev {
				owner.CompressSkip(oldSkip, prev)
			}
			return cur
		}
		prev = cur
		cur = next.Node
	}
}
