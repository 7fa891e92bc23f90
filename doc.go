// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package mergearray provides a relaxed, concurrent, mergeable priority
// queue. Three operations are central: Insert, TryRemoveAny/RemoveAny (which
// return an element of approximately low rank rather than the strict
// minimum), and Merge, which atomically fuses two independently constructed
// queues so that every later operation on either handle observes their
// union.
//
// # Design
//
// A queue is a width-sized array ("bag") of slots, each wrapping an
// independent sequential priority queue behind a try-lock. Insert and
// remove-any pick a uniformly random slot and operate on whichever one they
// can lock; Merge never takes two slot locks at once, instead publishing a
// lock-free intrusive "pending merge" list per slot that readers drain the
// next time they visit that slot. A second, smaller lock-free structure -
// the handle chain - lets two previously independent queues be identified
// with each other without blocking any in-progress operation on either one.
//
// This two-level design is what makes Merge lock-free: it never needs to
// stop the world, freeze a bag, or acquire every slot lock. It also means
// TryRemoveAny is only deadlock-free, not wait-free - a slot that's
// momentarily locked by another goroutine is skipped rather than waited on.
//
// # Sequential PQ and allocator parameters
//
// The queue is generic over the sequential priority queue used within each
// slot (package seqpq provides two ready-made choices), an ordinary Go type
// parameter. The node allocator used to construct slot nodes (package
// nodealloc provides a sync.Pool-backed default) is an interface value
// passed to New and used only while a bag is being built; handle nodes are
// plain allocations.
//
// # Context usage
//
// RemoveAny and SwapEmptyWith block until a slot satisfies their condition.
// Both accept a context.Context purely to bound that wait; cancellation does
// not affect any other handle, nor does it change what a subsequent
// operation observes.
package mergearray
