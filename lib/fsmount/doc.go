// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package fsmount adapts a *filesystem.Filesystem onto a real FUSE
// mount via github.com/hanwen/go-fuse/v2.
//
// Every kernel request is translated into a filesystem package call
// and back: Lookup/Readdir/Getattr read the move-tree directly,
// Mkdir/Mknod/Link/Unlink/Rename/Rmdir/Symlink each produce a batch of
// moveop.Op values that are already applied to the local replica by
// the time the FUSE call returns. This package does not itself
// broadcast those ops to peers — that is a transport concern outside
// this module's scope.
//
// go-fuse deduplicates inodes reachable from a Lookup by StableAttr.Ino,
// but does not know how to map one back to an ids.NodeID on its own.
// mountState.lookups is the local table that closes that gap and gives
// Forget something to decrement: a NodeID's identity is global across
// the whole replica, but the kernel's per-mount reference counting is
// local to this one FUSE session.
package fsmount
