// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package mergeref implements the tagged atomic pointer used by a slot
// node's next and mergeHead fields. A bare *T cannot distinguish "points at
// nothing" from the two sentinel states the pending-merge list protocol
// needs (list end, and "this link is permanently dead, retry from the
// head"), so Ref carries an explicit tag alongside the pointer, compared
// and swapped as a unit.
//
// This mirrors the pointer_t/atomicPointer approach used for ABA-safe
// linked-list CAS in the Michael & Scott queue algorithm: a small
// value-typed struct (pointer + auxiliary state) published and
// compare-and-swapped through an atomic.Value rather than the raw pointer
// alone.
package mergeref

import "sync/atomic"

// Tag distinguishes the states a Ref may hold. next only ever uses Normal,
// NIL, and Dummy; mergeHead only ever uses Normal, NIL, and Drained - each
// field's invariants (see package slot) determine which subset is
// reachable and in what order.
type Tag uint8

const (
	// Normal means Node is a live pointer to the next (or head) element.
	Normal Tag = iota
	// NIL marks the end of a list: "no further element, but more may be
	// appended here."
	NIL
	// Dummy marks a link as permanently dead: a drained tail whose owner has
	// moved its attention elsewhere. Appenders that observe Dummy must
	// restart their walk from the list head. Used only by next.
	Dummy
	// Drained marks a mergeHead as permanently empty because this slot node
	// has itself been fully merged into another bag's slot and moved on;
	// distinct from NIL, which still admits new insertions. Used only by
	// mergeHead, as the terminal state once a node will never own a
	// pending-merge list again.
	Drained
)

// Ref is the value type stored in an Atomic[T]. Two Refs compare equal
// (for CompareAndSwap purposes) iff both their Tag and Node fields match;
// in particular NIL, Dummy, and Drained never compare equal to each other
// or to any Normal ref, regardless of Node, because Node is always nil in
// those states.
type Ref[T any] struct {
	Node *T
	Tag  Tag
}

// NilRef returns the canonical "list end" reference.
func NilRef[T any]() Ref[T] { return Ref[T]{Tag: NIL} }

// DummyRef returns the canonical "permanently dead" reference.
func DummyRef[T any]() Ref[T] { return Ref[T]{Tag: Dummy} }

// DrainedRef returns the canonical "drained, moved elsewhere" reference.
func DrainedRef[T any]() Ref[T] { return Ref[T]{Tag: Drained} }

// NodeRef wraps a live pointer as a Normal reference.
func NodeRef[T any](n *T) Ref[T] { return Ref[T]{Node: n, Tag: Normal} }

// IsNil reports whether r is the NIL sentinel.
func (r Ref[T]) IsNil() bool { return r.Tag == NIL }

// IsDummy reports whether r is the Dummy sentinel.
func (r Ref[T]) IsDummy() bool { return r.Tag == Dummy }

// IsDrained reports whether r is the Drained sentinel.
func (r Ref[T]) IsDrained() bool { return r.Tag == Drained }

// Atomic is an atomically loadable/storable/CAS-able Ref[T]. The zero value
// holds the NIL sentinel once Init has run; before that, Load panics - an
// explicit initial Store is required before any CompareAndSwap can have a
// well-defined "old" value to race against.
type Atomic[T any] struct {
	v atomic.Value
}

// Init publishes the given initial value. Must be called exactly once,
// before any concurrent Load/Store/CompareAndSwap, as part of constructing
// the owning node.
func (a *Atomic[T]) Init(initial Ref[T]) {
	a.v.Store(initial)
}

// Load returns the current value with acquire semantics.
func (a *Atomic[T]) Load() Ref[T] {
	return a.v.Load().(Ref[T])
}

// Store publishes a new value with release semantics.
func (a *Atomic[T]) Store(r Ref[T]) {
	a.v.Store(r)
}

// CompareAndSwap atomically replaces the current value with new if and
// only if it currently equals old.
func (a *Atomic[T]) CompareAndSwap(old, new Ref[T]) bool {
	return a.v.CompareAndSwap(old, new)
}
