// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package replica

import (
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/dan-da/crdtree/lib/ids"
	"github.com/dan-da/crdtree/lib/logical"
	"github.com/dan-da/crdtree/lib/moveop"
	"github.com/dan-da/crdtree/lib/tree"
	"github.com/dan-da/crdtree/lib/wire"
)

// snapshotPayload is the wire representation of a replica's full
// state: the log, from which the tree can be rebuilt by replaying
// do_op in ascending-timestamp order, plus the peer bookkeeping needed
// to keep computing CausallyStableThreshold after restoring. Peer
// identities are carried as plain strings rather than ids.ReplicaID
// itself, keeping the map key type something every CBOR decoder
// handles unambiguously regardless of TextMarshaler support for map
// keys specifically.
type snapshotPayload struct {
	Log        []moveop.LogEntry            `cbor:"log"`
	KnownPeers []string                     `cbor:"known_peers"`
	LatestSeen map[string]logical.Timestamp `cbor:"latest_seen"`
}

// zstdEncoder and zstdDecoder are reused across calls to avoid
// repeated initialization overhead. zstd.Encoder and zstd.Decoder are
// safe for concurrent use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("replica: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("replica: zstd decoder initialization failed: " + err.Error())
	}
}

// Snapshot exports the replica's current log and peer bookkeeping as
// zstd-compressed CBOR. This is not on the hot path: it exists for
// tests that want to exercise restart/restore, and for any future
// transport that prefers to ship a whole backlog rather than replay
// individual operations. It does not change convergence semantics —
// LoadSnapshot reconstructs the tree purely by replaying the log
// through do_op, the same function ApplyOp itself calls.
func (r *Replica) Snapshot() ([]byte, error) {
	knownPeers := make([]string, 0, len(r.knownPeers))
	for peer := range r.knownPeers {
		knownPeers = append(knownPeers, peer.String())
	}
	latestSeen := make(map[string]logical.Timestamp, len(r.latestSeen))
	for peer, ts := range r.latestSeen {
		latestSeen[peer.String()] = ts
	}

	payload := snapshotPayload{
		Log:        r.state.Log,
		KnownPeers: knownPeers,
		LatestSeen: latestSeen,
	}

	encoded, err := wire.EncodeSnapshot(payload)
	if err != nil {
		return nil, fmt.Errorf("replica %s: encoding snapshot: %w", r.id, err)
	}

	return zstdEncoder.EncodeAll(encoded, nil), nil
}

// LoadSnapshot replaces the replica's log, tree, and peer bookkeeping
// with the state captured by Snapshot, and merges the replica's clock
// with the snapshot's newest timestamp so that the replica's next Tick
// is guaranteed to exceed every timestamp it has now absorbed.
func (r *Replica) LoadSnapshot(data []byte) error {
	decoded, err := zstdDecoder.DecodeAll(data, nil)
	if err != nil {
		return fmt.Errorf("replica %s: decompressing snapshot: %w", r.id, err)
	}

	var payload snapshotPayload
	if err := wire.DecodeSnapshot(decoded, &payload); err != nil {
		return fmt.Errorf("replica %s: decoding snapshot: %w", r.id, err)
	}

	decodedLog, err := r.decodeLogMetadata(payload.Log)
	if err != nil {
		return fmt.Errorf("replica %s: decoding snapshot metadata: %w", r.id, err)
	}
	payload.Log = decodedLog

	rebuilt := tree.New()
	for i := len(payload.Log) - 1; i >= 0; i-- {
		entry := payload.Log[i]
		moveop.DoOp(moveop.Op{
			Timestamp: entry.Timestamp,
			Parent:    entry.Parent,
			Metadata:  entry.Metadata,
			Child:     entry.Child,
		}, rebuilt)
	}

	knownPeers := make(map[ids.ReplicaID]struct{}, len(payload.KnownPeers))
	for _, raw := range payload.KnownPeers {
		peer, err := ids.ParseReplicaID(raw)
		if err != nil {
			return fmt.Errorf("replica %s: snapshot known_peers: %w", r.id, err)
		}
		knownPeers[peer] = struct{}{}
	}
	latestSeen := make(map[ids.ReplicaID]logical.Timestamp, len(payload.LatestSeen))
	for raw, ts := range payload.LatestSeen {
		peer, err := ids.ParseReplicaID(raw)
		if err != nil {
			return fmt.Errorf("replica %s: snapshot latest_seen: %w", r.id, err)
		}
		latestSeen[peer] = ts
	}

	r.state = &moveop.State{Tree: rebuilt, Log: payload.Log}
	r.knownPeers = knownPeers
	r.latestSeen = latestSeen

	if len(payload.Log) > 0 {
		r.clock = r.clock.Merge(payload.Log[0].Timestamp)
	}
	return nil
}

// decodeLogMetadata runs r.MetadataDecoder, if set, over every entry's
// Metadata and, where present, its OldParent.Metadata. Returns log
// unchanged if no decoder is configured.
func (r *Replica) decodeLogMetadata(log []moveop.LogEntry) ([]moveop.LogEntry, error) {
	if r.MetadataDecoder == nil {
		return log, nil
	}

	decoded := make([]moveop.LogEntry, len(log))
	for i, entry := range log {
		meta, err := r.MetadataDecoder(entry.Metadata)
		if err != nil {
			return nil, fmt.Errorf("entry %d metadata: %w", i, err)
		}
		entry.Metadata = meta

		if entry.OldParent != nil {
			oldMeta, err := r.MetadataDecoder(entry.OldParent.Metadata)
			if err != nil {
				return nil, fmt.Errorf("entry %d old_parent metadata: %w", i, err)
			}
			snapshot := *entry.OldParent
			snapshot.Metadata = oldMeta
			entry.OldParent = &snapshot
		}

		decoded[i] = entry
	}
	return decoded, nil
}
