// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package chain implements the union-find-like handle chain: nodes of
// strictly decreasing id, acyclic by construction, each either holding a
// live bag or pointing onward to the node its contents were merged into.
package chain

import (
	"sync/atomic"

	"github.com/kirsybuu/mergearray/internal/bag"
	"github.com/kirsybuu/mergearray/internal/nodealloc"
	"github.com/kirsybuu/mergearray/internal/seqpq"
	"github.com/kirsybuu/mergearray/internal/slot"
)

// Node is one handle node. The zero value is not ready to use; construct
// with New.
type Node[T any, S seqpq.Queue[T]] struct {
	id uint64

	// bag transitions monotonically from a live bag to nil exactly once,
	// at the linearization point of this node's merge into next.
	bag atomic.Pointer[bag.Bag[T, S]]

	// next transitions from nil to a node with strictly smaller id at most
	// once; after that, path compression in FindClosestBag may only advance
	// it further down the chain, to a node of still smaller id. nil means
	// this node is (for now) a root: its bag, if any, is authoritative.
	next atomic.Pointer[Node[T, S]]
}

var _ bag.Handle[int, seqpq.Queue[int]] = (*Node[int, seqpq.Queue[int]])(nil)

// New constructs a root handle node owning a freshly allocated bag of width
// slots, each wrapping a sequential PQ built by newElem. Slot nodes are
// obtained from alloc; the handle node itself is a plain allocation, since
// handle nodes are created once per queue or per merge link rather than
// once per element and so never exercise an allocator's recycling path the
// way slot nodes do.
func New[T any, S seqpq.Queue[T]](id uint64, width int, newElem func() S, alloc nodealloc.Allocator[slot.Node[T, S]]) *Node[T, S] {
	n := &Node[T, S]{id: id}
	n.bag.Store(bag.New[T, S](width, n, newElem, alloc))
	return n
}

// ID returns the node's immutable id.
func (n *Node[T, S]) ID() uint64 { return n.id }

// Width reports the slot count of the bag this node's chain currently
// resolves to.
func (n *Node[T, S]) Width() int { return n.FindClosestBag().Width() }

// FindClosestBag walks the chain until it finds a node whose bag is still
// live, then path-compresses every intermediate node visited along the way
// directly to that node - safe under concurrent merges because next only
// ever advances toward strictly smaller ids, so a compressed reference is
// always still correct, never stale in a way that matters.
func (n *Node[T, S]) FindClosestBag() *bag.Bag[T, S] {
	cur := n
	var visited []*Node[T, S]
	for {
		if b := cur.bag.Load(); b != nil {
			for _, v := range visited {
				if v == cur {
					continue
				}
				v.next.CompareAndSwap(v.next.Load(), cur)
			}
			return b
		}
		visited = append(visited, cur)
		cur = cur.next.Load()
	}
}

// DescendMerging walks the chain the same way FindClosestBag does, but
// additionally drives every intermediate node's merge to completion
// (ensureMergedInto) before advancing past it, so that by the time it
// returns, every node between n and the root has bag == nil and its
// contents are reachable from the root's bag. EnsureMerged wraps it to
// satisfy slot.Linearizer.
func (n *Node[T, S]) DescendMerging() *Node[T, S] {
	cur := n
	for {
		next := cur.next.Load()
		if next == nil {
			return cur
		}
		cur.ensureMergedInto(next)
		cur = next
	}
}

// EnsureMerged linearizes any merge n is a source of, all the way to the
// current root. Satisfies slot.Linearizer; called from slot.Node's
// EvaluateMerges before a pending source's contents are touched.
func (n *Node[T, S]) EnsureMerged() {
	n.DescendMerging()
}

// ensureMergedInto moves n's bag, slot by slot, into next's current bag,
// then publishes n's own bag as nil - the linearization point of n's
// merge. Idempotent and safe to call redundantly: a racing caller that
// loses the final CAS has still done harmless, already-claimed inserts
// (see bag.claimFor).
func (n *Node[T, S]) ensureMergedInto(next *Node[T, S]) {
	b := n.bag.Load()
	if b == nil {
		return
	}
	b.MergePerElementInto(next)
	n.bag.CompareAndSwap(b, nil)
}

type unionOutcome int

const (
	unionAlreadyMerged unionOutcome = iota
	unionIDClash
	unionMerged
)

// tryUnion refreshes a and b to their current leaves and links the
// higher-id leaf onto the lower-id one. Returns which node lost (must still
// drain its bag) and which won (the new root), or an outcome explaining why
// no link was made.
func tryUnion[T any, S seqpq.Queue[T]](a, b *Node[T, S]) (outcome unionOutcome, loser, winner *Node[T, S]) {
	for {
		aLeaf := a.DescendMerging()
		bLeaf := b.DescendMerging()
		if aLeaf == bLeaf {
			return unionAlreadyMerged, nil, nil
		}
		if aLeaf.id == bLeaf.id {
			return unionIDClash, nil, nil
		}

		lo, hi := aLeaf, bLeaf
		if lo.id > hi.id {
			lo, hi = hi, lo
		}
		if hi.next.CompareAndSwap(nil, lo) {
			return unionMerged, hi, lo
		}
		// hi.next was set by a racing merge between our descends and our
		// CAS attempt; re-descend from the top and try again.
	}
}

// MergeInto atomically fuses n and other into a single chain, as described
// in MergeResult's documentation.
func (n *Node[T, S]) MergeInto(other *Node[T, S]) MergeResult {
	if n.Width() != other.Width() {
		return Incompatible
	}
	outcome, loser, winner := tryUnion(n, other)
	switch outcome {
	case unionAlreadyMerged:
		return WereAlreadyEqual
	case unionIDClash:
		return IdClash
	}
	loser.ensureMergedInto(winner)
	return Success
}
