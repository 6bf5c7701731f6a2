// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package counter implements three state-based counter CRDTs over a
// fixed set of replica identifiers: GCounter (grow-only), PNCounter
// (positive-negative, built from two GCounters), and BCounter (bounded,
// built from a PNCounter plus a per-(sender,receiver) transfer-quota
// matrix).
//
// All three are pure value types: Merge takes the per-slot maximum and
// is commutative, associative, and idempotent, so counters converge
// regardless of delivery order or duplication — the same
// state-based-CRDT guarantee the move-tree gets operation-based.
package counter
