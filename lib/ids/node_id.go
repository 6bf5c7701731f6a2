// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ids

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
)

// NodeID globally and uniquely identifies a tree node. Every operation
// in the replicated move-tree names its child and parent by NodeID.
type NodeID struct {
	value uuid.UUID
}

// ParseNodeID parses the canonical string form of a NodeID (standard
// UUID text representation).
func ParseNodeID(raw string) (NodeID, error) {
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return NodeID{}, fmt.Errorf("parsing node id %q: %w", raw, err)
	}
	return NodeID{value: parsed}, nil
}

// String returns the canonical UUID text representation.
func (n NodeID) String() string {
	return n.value.String()
}

// IsZero reports whether n is the zero-value NodeID. The zero NodeID
// is never assigned to a real node; it is returned by filesystem
// lookups as the "negative lookup" sentinel, telling the caller the
// name does not exist rather than that looking it up failed.
func (n NodeID) IsZero() bool {
	return n.value == uuid.Nil
}

// Ino returns a uint64 suitable as a FUSE inode number. The high 16
// bits are the creator replica's tag (see Generator.New); the
// remaining 48 bits come from the ID's own entropy. This makes Ino
// unique across every replica without any coordination, at the cost of
// a theoretical (astronomically unlikely) collision between two
// replicas whose tags happen to match.
func (n NodeID) Ino() uint64 {
	return binary.BigEndian.Uint64(n.value[0:8])
}

// MarshalText implements encoding.TextMarshaler.
func (n NodeID) MarshalText() ([]byte, error) {
	return []byte(n.value.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (n *NodeID) UnmarshalText(data []byte) error {
	parsed, err := uuid.ParseBytes(data)
	if err != nil {
		return fmt.Errorf("unmarshal NodeID: %w", err)
	}
	n.value = parsed
	return nil
}

// wellKnownNamespace is the fixed UUID namespace every replica derives
// the three forest roots from. Using deterministic (v5) UUIDs here,
// instead of random ones, means every replica's root/fileinodes/trash
// nodes are identical without any replica having to coordinate with
// another at startup.
var wellKnownNamespace = uuid.MustParse("2f1a7e2e-df0a-4e8a-9b1e-5d7c9a6b0c10")

func wellKnown(name string) NodeID {
	return NodeID{value: uuid.NewSHA1(wellKnownNamespace, []byte(name))}
}

// RootID is the forest's user-visible root ("/"). Fixed across every
// replica.
var RootID = wellKnown("root")

// FileInodesID is the forest root under which file-inode metadata
// nodes live, addressed only by file references.
var FileInodesID = wellKnown("fileinodes")

// TrashID is the forest root that logically-deleted nodes are moved
// under, rather than actually removed from the tree: every move
// operation needs a parent to move its child to, and every undo needs
// somewhere stable to restore from.
var TrashID = wellKnown("trash")
