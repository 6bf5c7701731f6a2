// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package counter

import "github.com/dan-da/crdtree/lib/ids"

// GCounter is a grow-only counter: a non-decreasing integer per
// replica, with Value the sum across replicas and Merge taking the
// per-replica maximum. Like Replica, it performs no internal
// synchronization — callers owning a GCounter across goroutines must
// serialize access themselves.
type GCounter struct {
	self   ids.ReplicaID
	counts map[ids.ReplicaID]uint64
}

// NewGCounter returns a GCounter for self, pre-seeded with a zero slot
// for every id in allReplicas (and for self, if not already among
// them) so Value is well-defined before any Increment or Merge call.
func NewGCounter(self ids.ReplicaID, allReplicas []ids.ReplicaID) *GCounter {
	counts := make(map[ids.ReplicaID]uint64, len(allReplicas)+1)
	for _, r := range allReplicas {
		counts[r] = 0
	}
	counts[self] = 0
	return &GCounter{self: self, counts: counts}
}

// Increment bumps this replica's own slot by step. step is a uint64
// precisely because the algorithm's "step ≥ 0" precondition is
// unrepresentable otherwise — there is no negative increment.
func (c *GCounter) Increment(step uint64) {
	c.counts[c.self] += step
}

// Value returns the sum of every replica's slot.
func (c *GCounter) Value() uint64 {
	var total uint64
	for _, v := range c.counts {
		total += v
	}
	return total
}

// Merge absorbs other's state into c by taking, for every replica
// slot, the larger of the two counters' values. Merge is commutative,
// associative, and idempotent.
func (c *GCounter) Merge(other *GCounter) {
	for replica, v := range other.counts {
		if v > c.counts[replica] {
			c.counts[replica] = v
		}
	}
}

// Clone returns a deep copy of c.
func (c *GCounter) Clone() *GCounter {
	counts := make(map[ids.ReplicaID]uint64, len(c.counts))
	for r, v := range c.counts {
		counts[r] = v
	}
	return &GCounter{self: c.self, counts: counts}
}
