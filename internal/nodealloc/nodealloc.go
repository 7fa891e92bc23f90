// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package nodealloc implements the node allocator contract slot nodes are
// constructed through (handle nodes are plain allocations): an explicit,
// constructor-threaded value
// (parameterization, not globals) with an Enter/Exit pair retained only as
// an optional scoping hint for implementations that want to bracket a
// bounded run of allocations (e.g. to warm a thread-local chunk) - the
// default Pool implementation below ignores it entirely and is safe to use
// with no bracketing at all.
package nodealloc

import "sync"

// Allocator constructs and recycles *T values. Implementations are
// permitted to defer reclamation of a value passed to Release
// indefinitely; nothing in this package or its callers depends on timely
// reuse.
type Allocator[T any] interface {
	// Enter arms the allocator for a bounded scope of upcoming New calls,
	// e.g. to select or warm a thread-local chunk. chunkSize is a hint, not
	// a hard cap. Implementations that don't need scoping may leave this a
	// no-op.
	Enter(chunkSize int)

	// Exit ends the scope opened by the most recent Enter on this
	// goroutine.
	Exit()

	// New returns a fresh or recycled *T with its zero value. Safe to call
	// without a surrounding Enter/Exit.
	New() *T

	// Release returns a *T that will never be dereferenced again by the
	// caller, making it eligible for recycling by a future New. Calling
	// Release is optional; forgetting it only costs an allocation on the
	// next New, never correctness - merged-away slot nodes, in particular,
	// are never explicitly released and may be retained indefinitely.
	Release(n *T)
}

// Pool is the default Allocator, a thin generic wrapper over sync.Pool: a
// per-P free list that avoids a garbage collector round trip for the
// overwhelmingly common case of "allocate one, free one shortly after" node
// churn.
//
// The zero value is ready to use.
type Pool[T any] struct {
	inner sync.Pool
}

var _ Allocator[int] = (*Pool[int])(nil)

// Enter is a no-op; Pool needs no scoping because sync.Pool already
// manages per-P locality internally.
func (p *Pool[T]) Enter(chunkSize int) {}

// Exit is a no-op, see Enter.
func (p *Pool[T]) Exit() {}

func (p *Pool[T]) New() *T {
	if n, ok := p.inner.Get().(*T); ok {
		var zero T
		*n = zero
		return n
	}
	return new(T)
}

func (p *Pool[T]) Release(n *T) {
	p.inner.Put(n)
}
