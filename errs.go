// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package mergearray

import "github.com/kirsybuu/mergearray/internal/chain"

// MergeResult reports the outcome of PriorityQueue.Merge. There is no error
// return: every outcome, including the two that perform no mutation, is a
// normal, expected result a caller switches on rather than an exceptional
// one a caller recovers from.
type MergeResult = chain.MergeResult

const (
	// MergeSuccess means the two queues are now one; every subsequent
	// operation on either handle observes the union.
	MergeSuccess = chain.Success
	// MergeWereAlreadyEqual means the two handles already resolved to the
	// same queue before this call; no mutation occurred.
	MergeWereAlreadyEqual = chain.WereAlreadyEqual
	// MergeIDClash means both queues are still independent and share an
	// id. This is a user error: ids must be unique among simultaneously
	// live queues. No mutation occurred.
	MergeIDClash = chain.IdClash
	// MergeIncompatible means the two queues have different widths; no
	// mutation occurred.
	MergeIncompatible = chain.Incompatible
)
