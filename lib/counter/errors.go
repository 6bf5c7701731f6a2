// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package counter

import "errors"

// ErrInsufficientQuota is returned by BCounter.Decrement and
// BCounter.Transfer when the requested amount exceeds the counter's
// current quota. The counter's state is left unchanged.
var ErrInsufficientQuota = errors.New("counter: insufficient quota")
