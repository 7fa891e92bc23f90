// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package bag_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kirsybuu/mergearray/internal/bag"
	"github.com/kirsybuu/mergearray/internal/nodealloc"
	"github.com/kirsybuu/mergearray/internal/seqpq"
	"github.com/kirsybuu/mergearray/internal/slot"
)

type elemInt int

func (e elemInt) Cmp(other elemInt) int { return int(e) - int(other) }

type testHeap = seqpq.BinaryHeap[elemInt]
type testNode = slot.Node[elemInt, *testHeap]
type testBag = bag.Bag[elemInt, *testHeap]

type noopLinearizer struct{}

func (noopLinearizer) EnsureMerged() {}

type fixedHandle struct{ b *testBag }

func (h fixedHandle) FindClosestBag() *testBag { return h.b }

func newBag(t *testing.T, width int) *testBag {
	t.Helper()
	var alloc nodealloc.Pool[testNode]
	return bag.New[elemInt, *testHeap](width, noopLinearizer{}, func() *testHeap { return &testHeap{} }, &alloc)
}

func drainSlot(t *testing.T, n *testNode) []elemInt {
	t.Helper()
	var got []elemInt
	res := n.TryEvaluateAndApply(func() bool { return false }, func(e *testHeap) bool {
		for {
			v, ok := e.DeleteMin()
			if !ok {
				break
			}
			got = append(got, v)
		}
		return true
	})
	require.Equal(t, slot.Finished, res)
	return got
}

func TestBagMergePerElementMovesAllElements(t *testing.T) {
	src := newBag(t, 2)
	dest := newBag(t, 2)

	src.Node(0).Elem().Insert(1)
	src.Node(1).Elem().Insert(2)
	dest.Node(0).Elem().Insert(10)
	dest.Node(1).Elem().Insert(20)

	src.MergePerElementInto(fixedHandle{dest})

	require.ElementsMatch(t, []elemInt{10, 1}, drainSlot(t, dest.Node(0)))
	require.ElementsMatch(t, []elemInt{20, 2}, drainSlot(t, dest.Node(1)))

	// src's own slots are now owned by dest's and never touched again
	// directly; nothing left to observe there but an empty, still-usable
	// sequential PQ.
	require.True(t, src.Node(0).Elem().Empty())
	require.True(t, src.Node(1).Elem().Empty())
}

func TestBagTryApplyUntilStopsOnFirstSuccess(t *testing.T) {
	b := newBag(t, 4)
	b.Node(2).Elem().Insert(7)

	var visits int
	res := b.TryApplyUntil(func() bool { return false }, func(e *testHeap) bool {
		visits++
		_, ok := e.DeleteMin()
		return ok
	})
	require.Equal(t, slot.Finished, res)
	require.GreaterOrEqual(t, visits, 1)
}

func TestBagTryApplyEachUntilVisitsEveryIndexExactlyOnce(t *testing.T) {
	b := newBag(t, 5)
	seen := make(map[int]bool)
	res := b.TryApplyEachUntil(func() bool { return false }, func(idx int, e *testHeap) bool {
		seen[idx] = true
		return true
	})
	require.Equal(t, slot.Finished, res)
	require.Len(t, seen, 5)
}

// TestBagMergeRaceClaimsEachSourceExactlyOnce covers the race where the
// same source bag is merged into two different destinations concurrently:
// every source slot node must end up owned by exactly one of them, never
// both, never neither.
func TestBagMergeRaceClaimsEachSourceExactlyOnce(t *testing.T) {
	const width = 4
	destA := newBag(t, width)
	destB := newBag(t, width)
	src := newBag(t, width)
	for i := 0; i < width; i++ {
		src.Node(i).Elem().Insert(elemInt(i))
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); src.MergePerElementInto(fixedHandle{destA}) }()
	go func() { defer wg.Done(); src.MergePerElementInto(fixedHandle{destB}) }()
	wg.Wait()

	total := 0
	for i := 0; i < width; i++ {
		total += len(drainSlot(t, destA.Node(i)))
		total += len(drainSlot(t, destB.Node(i)))
	}
	require.Equal(t, width, total)
}
