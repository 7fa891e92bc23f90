// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package mergearray

import (
	"github.com/kirsybuu/mergearray/internal/seqpq"
	"github.com/kirsybuu/mergearray/internal/slot"
)

// Empty reports whether pq is empty, as a deadlock-free, linearizable
// snapshot query. Only callable when S is versioned (seqpq.Versioned[T],
// e.g. *seqpq.VersionedQueue[T, S]) - the capability exists only for
// instantiations rich enough to support it, selected by the type system
// rather than a runtime switch.
//
// Implementation: two successive full sweeps of every slot. The first
// records each slot's emptiness and version; the second confirms every
// slot is still empty at the same version. If both sweeps agree, pq was
// empty at some instant between them.
func Empty[T any, S seqpq.Versioned[T]](pq *PriorityQueue[T, S]) bool {
	for {
		node := pq.node.DescendMerging()
		b := node.FindClosestBag()
		mergedAway := func() bool { return node.FindClosestBag() != b }

		versions := make([]uint64, b.Width())
		allEmpty := true
		res := b.TryApplyEachUntil(mergedAway, func(idx int, e S) bool {
			if !e.Empty() {
				allEmpty = false
				return false
			}
			versions[idx] = e.Version()
			return true
		})
		switch res {
		case slot.NextBag:
			continue
		case slot.Finished:
			// fall through to pass 2
		default:
			return false
		}
		if !allEmpty {
			return false
		}

		stillEmpty := true
		res = b.TryApplyEachUntil(mergedAway, func(idx int, e S) bool {
			if !e.Empty() || e.Version() != versions[idx] {
				stillEmpty = false
				return false
			}
			return true
		})
		switch res {
		case slot.NextBag:
			continue
		case slot.Finished:
			return stillEmpty
		default:
			return false
		}
	}
}
