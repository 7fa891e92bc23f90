// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package obsmq

import (
	"fmt"

	"github.com/kirsybuu/mergearray"
	"github.com/kirsybuu/mergearray/internal/cerr"
)

// errNotFound marks a TryRemoveAny call that gave up empty-handed as an
// instrument()-visible error, purely so it shows up in the .errors metric
// and the error log line; callers still get the plain (T, bool) result
// mergearray itself returns. A plain string constant, not a dynamic
// fmt.Errorf, since it carries no per-call detail to interpolate.
const errNotFound cerr.Error = "try_remove_any: no element found within retry budget"

// errMergeResult wraps a non-Success MergeResult the same way, for the same
// reason: WereAlreadyEqual, IDClash, and Incompatible are all ordinary,
// non-exceptional outcomes in mergearray's own API, but worth flagging in
// an operational dashboard.
type errMergeResult struct {
	result mergearray.MergeResult
}

func (e errMergeResult) Error() string {
	return fmt.Sprintf("merge: %s", e.result)
}
