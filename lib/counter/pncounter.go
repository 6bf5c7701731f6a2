// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package counter

import "github.com/dan-da/crdtree/lib/ids"

// PNCounter is a positive-negative counter: two GCounters, P and N,
// with Value the difference P.Value() - N.Value(). Decrement is
// implemented as an increment to N, never as a negative increment to
// P — this is what lets PNCounter stay a composition of two grow-only
// counters instead of needing its own merge logic.
type PNCounter struct {
	p *GCounter
	n *GCounter
}

// NewPNCounter returns a PNCounter for self over allReplicas, starting
// at value 0.
func NewPNCounter(self ids.ReplicaID, allReplicas []ids.ReplicaID) *PNCounter {
	return &PNCounter{
		p: NewGCounter(self, allReplicas),
		n: NewGCounter(self, allReplicas),
	}
}

// Increment bumps the counter's value up by step.
func (c *PNCounter) Increment(step uint64) {
	c.p.Increment(step)
}

// Decrement bumps the counter's value down by step.
func (c *PNCounter) Decrement(step uint64) {
	c.n.Increment(step)
}

// Value returns P.Value() - N.Value() as a signed integer, since the
// difference of two non-negative counters can itself be negative.
func (c *PNCounter) Value() int64 {
	return int64(c.p.Value()) - int64(c.n.Value())
}

// Merge absorbs other's state into c by merging both underlying
// GCounters independently.
func (c *PNCounter) Merge(other *PNCounter) {
	c.p.Merge(other.p)
	c.n.Merge(other.n)
}

// Clone returns a deep copy of c.
func (c *PNCounter) Clone() *PNCounter {
	return &PNCounter{p: c.p.Clone(), n: c.n.Clone()}
}
