// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ids

import (
	"hash/fnv"

	"github.com/google/uuid"
)

// Generator mints new NodeIDs on behalf of one replica. Each generated
// ID carries that replica's tag in its high bits (see NodeID.Ino) so
// that IDs minted concurrently by different replicas never collide,
// without any cross-replica consultation.
//
// A Generator has no other state and is safe for concurrent use (every
// method is a pure function of its receiver plus fresh randomness from
// package uuid, which is itself concurrency-safe).
type Generator struct {
	replica ReplicaID
	tag     [2]byte
}

// NewGenerator returns a Generator that tags every NodeID it mints
// with replica's identity.
func NewGenerator(replica ReplicaID) *Generator {
	return &Generator{replica: replica, tag: replicaTag(replica)}
}

// Replica returns the replica this generator mints IDs on behalf of.
func (g *Generator) Replica() ReplicaID {
	return g.replica
}

// New mints a fresh, globally unique NodeID.
func (g *Generator) New() NodeID {
	value := uuid.New()
	value[0] = g.tag[0]
	value[1] = g.tag[1]
	return NodeID{value: value}
}

// replicaTag derives a short, deterministic tag from a replica's
// identity using FNV-1a, a non-cryptographic hash well suited to
// spreading short strings over a small key space — collision
// resistance beyond "vanishingly unlikely for a handful of replicas"
// is not required here.
func replicaTag(replica ReplicaID) [2]byte {
	h := fnv.New32a()
	_, _ = h.Write([]byte(replica.String()))
	sum := h.Sum32()
	return [2]byte{byte(sum >> 8), byte(sum)}
}
