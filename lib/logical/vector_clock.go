// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package logical

import "github.com/dan-da/crdtree/lib/ids"

// VectorClock maps each replica to the highest counter seen from it.
// The partial order is componentwise ≥: a dominates b iff a's count
// for every replica is at least b's. Two clocks are concurrent when
// neither dominates the other.
//
// VectorClock is auxiliary to the move-tree's own convergence
// machinery: moveop and replica order operations purely by Timestamp.
// VectorClock exists for callers that want to ask causal
// questions about accumulated per-replica progress, such as "has this
// replica definitely seen everything replica X had produced as of its
// counter N."
type VectorClock map[ids.ReplicaID]uint64

// Clone returns an independent copy.
func (v VectorClock) Clone() VectorClock {
	clone := make(VectorClock, len(v))
	for replica, counter := range v {
		clone[replica] = counter
	}
	return clone
}

// Observe records that counter has been seen from replica, raising
// the stored value if counter is larger.
func (v VectorClock) Observe(replica ids.ReplicaID, counter uint64) {
	if counter > v[replica] {
		v[replica] = counter
	}
}

// Dominates reports whether v's count is at least other's count for
// every replica other tracks. A clock with no entries is dominated by
// everything and dominates only other empty clocks.
func (v VectorClock) Dominates(other VectorClock) bool {
	for replica, counter := range other {
		if v[replica] < counter {
			return false
		}
	}
	return true
}

// Concurrent reports whether neither v nor other dominates the other.
func (v VectorClock) Concurrent(other VectorClock) bool {
	return !v.Dominates(other) && !other.Dominates(v)
}

// Merge returns a new VectorClock whose count for each replica is the
// max of v's and other's counts.
func (v VectorClock) Merge(other VectorClock) VectorClock {
	merged := v.Clone()
	for replica, counter := range other {
		merged.Observe(replica, counter)
	}
	return merged
}
