// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package logical

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dan-da/crdtree/lib/ids"
)

// Timestamp is a Lamport counter tagged with the actor (replica) that
// produced it. Timestamps are totally ordered: compare counters first,
// break ties by actor. The tiebreak is deterministic but arbitrary —
// it exists only to make every timestamp in the system distinct
// whenever the actors differ, which is what lets the move-op log use
// timestamps as a total order instead of just a partial one.
type Timestamp struct {
	Counter uint64
	Actor   ids.ReplicaID
}

// Zero is the timestamp that precedes every timestamp a replica will
// ever produce (its first Inc() returns counter 1).
var Zero = Timestamp{}

// Inc returns a new timestamp for the same actor with the counter
// incremented by one.
func (t Timestamp) Inc() Timestamp {
	return Timestamp{Counter: t.Counter + 1, Actor: t.Actor}
}

// Merge returns a new timestamp for the same actor whose counter is
// the max of t's and other's counters. This is how a replica's clock
// absorbs a peer's progress: after merging, the replica's own next
// Inc() is guaranteed to exceed every timestamp it has seen.
func (t Timestamp) Merge(other Timestamp) Timestamp {
	counter := t.Counter
	if other.Counter > counter {
		counter = other.Counter
	}
	return Timestamp{Counter: counter, Actor: t.Actor}
}

// Less reports whether t sorts strictly before other.
func (t Timestamp) Less(other Timestamp) bool {
	if t.Counter != other.Counter {
		return t.Counter < other.Counter
	}
	return t.Actor.Less(other.Actor)
}

// Equal reports whether t and other are the same timestamp.
func (t Timestamp) Equal(other Timestamp) bool {
	return t.Counter == other.Counter && t.Actor == other.Actor
}

// Greater reports whether t sorts strictly after other.
func (t Timestamp) Greater(other Timestamp) bool {
	return other.Less(t)
}

// String renders the canonical "<counter>.<actor>" form.
func (t Timestamp) String() string {
	return fmt.Sprintf("%d.%s", t.Counter, t.Actor.String())
}

// MarshalText implements encoding.TextMarshaler.
func (t Timestamp) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Timestamp) UnmarshalText(data []byte) error {
	raw := string(data)
	dot := strings.IndexByte(raw, '.')
	if dot < 0 {
		return fmt.Errorf("invalid timestamp %q: missing '.' separator", raw)
	}

	counter, err := strconv.ParseUint(raw[:dot], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid timestamp %q: %w", raw, err)
	}

	actor, err := ids.ParseReplicaID(raw[dot+1:])
	if err != nil {
		return fmt.Errorf("invalid timestamp %q: %w", raw, err)
	}

	t.Counter = counter
	t.Actor = actor
	return nil
}
