// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package replica

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dan-da/crdtree/lib/ids"
	"github.com/dan-da/crdtree/lib/logical"
	"github.com/dan-da/crdtree/lib/moveop"
)

// Replica aggregates one participant's clock, move-tree state, and
// peer bookkeeping. The zero value is not usable; construct one with
// New.
type Replica struct {
	id    ids.ReplicaID
	clock logical.Timestamp
	state *moveop.State

	knownPeers map[ids.ReplicaID]struct{}
	latestSeen map[ids.ReplicaID]logical.Timestamp

	// Logger receives diagnostic messages. If nil, a no-op logger is
	// used.
	Logger *slog.Logger

	// MetadataDecoder converts a log entry's Metadata field, as handed
	// back by the generic CBOR decoder inside LoadSnapshot, into the
	// concrete type the caller's tree actually stores. Package replica
	// and package moveop both treat Metadata as opaque (any), so a
	// snapshot round trip through wire.EncodeSnapshot/DecodeSnapshot decodes a
	// struct like filesystem.Metadata into a bare map[string]any
	// instead of its original Go type. Callers that put a concrete
	// metadata type in the tree — package filesystem does, via New —
	// must set this so restored replicas keep working with that type's
	// own accessors instead of silently falling back to the zero
	// value. Left nil, LoadSnapshot keeps whatever the CBOR decoder
	// produced, which is correct only for metadata types that are
	// already CBOR scalars (the string metadata replica's own tests
	// use).
	MetadataDecoder func(any) (any, error)
}

// New returns a Replica identified by id, with an empty tree and log
// and no known peers. Use AddPeer to register peers before relying on
// CausallyStableThreshold.
func New(id ids.ReplicaID) *Replica {
	return &Replica{
		id:         id,
		clock:      logical.Timestamp{Actor: id},
		state:      moveop.NewState(),
		knownPeers: make(map[ids.ReplicaID]struct{}),
		latestSeen: make(map[ids.ReplicaID]logical.Timestamp),
	}
}

// ID returns this replica's identity.
func (r *Replica) ID() ids.ReplicaID {
	return r.id
}

// Clock returns the replica's current logical timestamp. It does not
// advance the clock; use Tick for that.
func (r *Replica) Clock() logical.Timestamp {
	return r.clock
}

// State exposes the replica's move-tree state directly. Callers must
// mutate it only through ApplyOps / ApplyLogOps, never by calling
// tree.Tree's methods on State.Tree directly — that would desync the
// log from the tree it is supposed to explain.
func (r *Replica) State() *moveop.State {
	return r.state
}

// Log returns the replica's operation log, newest entry first.
func (r *Replica) Log() []moveop.LogEntry {
	return r.state.Log
}

// AddPeer registers peer as a replica whose operations this replica
// expects to receive, for the purposes of CausallyStableThreshold.
func (r *Replica) AddPeer(peer ids.ReplicaID) {
	r.knownPeers[peer] = struct{}{}
}

// Tick advances and returns the replica's logical clock. Call this
// once per locally originated operation, before stamping it.
func (r *Replica) Tick() logical.Timestamp {
	r.clock = r.clock.Inc()
	return r.clock
}

// ApplyOps applies ops to the replica's state in order, merging the
// local clock with each operation's timestamp and updating
// latest_seen for known peers as it goes. If any op fails to apply
// (ErrDuplicateTimestamp), ApplyOps stops and returns that error; ops
// already applied before the failure remain applied, matching the
// per-operation atomicity the move-op engine already guarantees.
func (r *Replica) ApplyOps(ops []moveop.Op) error {
	for _, op := range ops {
		if err := moveop.ApplyOp(r.state, op); err != nil {
			return fmt.Errorf("replica %s: applying op at %s: %w", r.id, op.Timestamp, err)
		}

		r.clock = r.clock.Merge(op.Timestamp)
		if _, known := r.knownPeers[op.Timestamp.Actor]; known {
			r.observeLatest(op.Timestamp)
		}
	}
	return nil
}

// ApplyLogOps is the cross-replica ingest path: each entry is treated
// as the op_move it originally recorded, discarding its old_parent —
// the receiving engine recomputes that for itself, since the log's
// author's view of "what was there before" may be stale by the time
// it arrives here.
func (r *Replica) ApplyLogOps(entries []moveop.LogEntry) error {
	ops := make([]moveop.Op, len(entries))
	for i, entry := range entries {
		ops[i] = moveop.Op{
			Timestamp: entry.Timestamp,
			Parent:    entry.Parent,
			Metadata:  entry.Metadata,
			Child:     entry.Child,
		}
	}
	return r.ApplyOps(ops)
}

// TruncateLog discards every log entry whose timestamp is causally
// stable (strictly less than the threshold every known peer has
// acknowledged past). It returns true iff the threshold was defined
// and at least one entry was actually removed.
func (r *Replica) TruncateLog() bool {
	peers := make([]ids.ReplicaID, 0, len(r.knownPeers))
	for peer := range r.knownPeers {
		peers = append(peers, peer)
	}

	threshold, ok := moveop.CausallyStableThreshold(peers, r.latestSeen)
	if !ok {
		return false
	}

	retained, removed := moveop.Truncate(r.state.Log, threshold)
	r.state.Log = retained
	if removed > 0 && r.logger() != nil {
		r.logger().Debug("truncated log", "removed", removed, "threshold", threshold.String())
	}
	return removed > 0
}

func (r *Replica) observeLatest(ts logical.Timestamp) {
	existing, ok := r.latestSeen[ts.Actor]
	if !ok || existing.Less(ts) {
		r.latestSeen[ts.Actor] = ts
	}
}

func (r *Replica) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return defaultLogger
}

var defaultLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
	Level: slog.LevelError,
}))
