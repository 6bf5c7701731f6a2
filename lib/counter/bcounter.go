// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package counter

import "github.com/dan-da/crdtree/lib/ids"

// transferKey identifies one ordered (sender, receiver) pair in a
// BCounter's transfer-quota matrix.
type transferKey struct {
	Sender   ids.ReplicaID
	Receiver ids.ReplicaID
}

// BCounter is a bounded counter: a PNCounter plus a per-ordered-pair
// ledger of quota transferred between replicas. Quota lets replicas
// move spending allowance between each other without coordination;
// Decrement and Transfer are rejected when the amount exceeds Quota.
//
// Every BCounter owns exactly one replica's perspective (self). Quota
// starts from the whole PNCounter value, not from self's own share of
// it, so quota received by transfer is counted on top of a value that
// already includes the sender's increments; Quota can therefore exceed
// Value, and spending all of it can take Value below zero.
type BCounter struct {
	self      ids.ReplicaID
	pn        *PNCounter
	transfers map[transferKey]uint64
}

// NewBCounter returns a BCounter for self over allReplicas, starting
// at value 0 with an empty transfer ledger.
func NewBCounter(self ids.ReplicaID, allReplicas []ids.ReplicaID) *BCounter {
	return &BCounter{
		self:      self,
		pn:        NewPNCounter(self, allReplicas),
		transfers: make(map[transferKey]uint64),
	}
}

// Increment bumps the counter's value up by step. Unlike Decrement and
// Transfer, Increment never needs to check quota — it can only enlarge
// it.
func (c *BCounter) Increment(step uint64) {
	c.pn.Increment(step)
}

// Value returns the counter's current signed value (the underlying
// PNCounter's value, independent of the transfer ledger).
func (c *BCounter) Value() int64 {
	return c.pn.Value()
}

// Quota returns how much self may currently Decrement or Transfer:
// the PNCounter's value, minus quota self has sent to other replicas,
// plus quota self has received from them.
func (c *BCounter) Quota() int64 {
	var sent, received uint64
	for key, amount := range c.transfers {
		switch {
		case key.Sender == c.self:
			sent += amount
		case key.Receiver == c.self:
			received += amount
		}
	}
	return c.pn.Value() - int64(sent) + int64(received)
}

// Decrement bumps the counter's value down by step, after rejecting
// the call with ErrInsufficientQuota if step exceeds Quota. On
// rejection, c is left unchanged.
func (c *BCounter) Decrement(step uint64) error {
	if int64(step) > c.Quota() {
		return ErrInsufficientQuota
	}
	c.pn.Decrement(step)
	return nil
}

// Transfer moves amount of quota from self to receiver, after
// rejecting the call with ErrInsufficientQuota if amount exceeds
// Quota. The sender is always self — the algorithm this is grounded
// on took an undeclared sender id as a parameter instead, which this
// implementation does not reproduce (see DESIGN.md).
func (c *BCounter) Transfer(receiver ids.ReplicaID, amount uint64) error {
	if int64(amount) > c.Quota() {
		return ErrInsufficientQuota
	}
	key := transferKey{Sender: c.self, Receiver: receiver}
	c.transfers[key] += amount
	return nil
}

// Merge absorbs other's state into c: the underlying PNCounter merges
// as usual, and every (sender, receiver) slot in the transfer matrix
// takes the larger of the two counters' recorded amounts.
func (c *BCounter) Merge(other *BCounter) {
	c.pn.Merge(other.pn)
	for key, amount := range other.transfers {
		if amount > c.transfers[key] {
			c.transfers[key] = amount
		}
	}
}
