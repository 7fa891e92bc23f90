// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package seqpq defines the sequential (single-threaded) priority queue
// contract each bag slot wraps in a try-lock, and provides two ready-made
// implementations. The mergeable queue in the parent package treats this
// contract, and the choice of implementation, purely as a type parameter:
// none of its lock-free or try-lock logic depends on which one is in use.
package seqpq

// Queue is the sequential PQ contract. Implementations are not required to
// be safe for concurrent use; every method is always called with the
// owning slot's lock held.
type Queue[T any] interface {
	// Insert adds t.
	Insert(t T)

	// DeleteMin removes and returns the current minimum, or the zero value
	// and false if empty. Must return the strict minimum of the receiver's
	// contents at the time of the call.
	DeleteMin() (T, bool)

	// PeekMin returns the current minimum without removing it, or the zero
	// value and false if empty.
	PeekMin() (T, bool)

	// MergeSteal absorbs all of other's contents into the receiver,
	// leaving other empty. Implementations that cannot do this faster than
	// a full drain-and-reinsert are still correct, only slower - this is a
	// pluggable-parameter concern, not one this package's callers are
	// sensitive to.
	MergeSteal(other Queue[T])

	// Empty reports whether the receiver currently holds no elements.
	Empty() bool
}

// Versioned is the refinement of Queue that the public Empty() snapshot
// query requires: a monotonically increasing counter bumped by every
// successful mutation, so that two passes over every slot observing the
// same version and emptiness bracket a valid linearization point.
type Versioned[T any] interface {
	Queue[T]

	// Version returns the current mutation count. Never decreases.
	Version() uint64
}
