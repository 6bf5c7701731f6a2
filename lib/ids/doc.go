// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package ids provides strongly typed, validated identifiers for the
// replicated move-tree: NodeID for tree nodes and ReplicaID for actors.
//
// Ref types enforce that identifiers of different kinds are never mixed
// up at compile time, following the convention of bureau's lib/ref
// package (one small value type per identity kind, validated
// constructors, pre-computed canonical forms). Unlike lib/ref, these
// types have no notion of a Matrix user ID or room alias — NodeID wraps
// a UUID, and ReplicaID wraps a short opaque string.
//
// NodeID generation packs the creator replica's identity into the high
// 16 bits of the ID's first 8 bytes (see Generator.New), which doubles
// as the exposed inode number for FUSE-style consumers without any
// cross-replica consultation — two replicas can mint new NodeIDs
// concurrently and never collide.
package ids
