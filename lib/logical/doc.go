// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package logical implements the Lamport timestamp and vector clock
// used to order and compare operations across replicas.
//
// Timestamp gives every operation a total order: a Lamport counter
// broken by actor identity. This is the only ordering the move-tree
// relies on for convergence (package moveop). VectorClock is an
// auxiliary, coarser-grained structure used for causal queries over
// accumulated per-replica progress — it plays no role in convergence
// itself.
//
// Neither type synchronizes its own access. Timestamp is an immutable
// value type; VectorClock is a map that Observe updates in place, so
// the usual Go rule applies (concurrent reads are fine, concurrent
// construction of independent values is fine, sharing a VectorClock
// across goroutines while one of them calls Observe is not).
package logical
