// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package moveop

import "errors"

// ErrDuplicateTimestamp is returned by ApplyOp when the incoming op's
// timestamp exactly matches an entry already in the log. Lamport
// timestamps break ties on actor, so two distinct ops can never
// legitimately collide; seeing one here means a clock issued the same
// timestamp twice or an op was delivered twice, a caller fault rather
// than a condition the engine resolves. ApplyOp leaves the state as it
// was when it returns this error.
var ErrDuplicateTimestamp = errors.New("moveop: duplicate timestamp")
