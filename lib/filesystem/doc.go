// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package filesystem projects a small FUSE-style filesystem API onto a
// replicated move-tree: every named-path operation (Mkdir, Mknod,
// Link, Unlink, Rename, Rmdir, Symlink, Readdir, Read, Write) compiles
// down to one or more moveop.Op values applied to the underlying
// replica, never to a direct tree mutation.
//
// Three fixed top-level nodes exist in every replica from Init
// onward: a user-visible root, a fileinodes root holding file-inode
// metadata addressed only by reference, and a trash root that logical
// deletion moves nodes under. Hard links are multiple file-reference
// nodes under root sharing one file-inode id under fileinodes.
//
// Two replicas may concurrently create same-named children of the
// same directory; Reconcile resolves the resulting collisions after a
// batch of remote log entries has been merged in. The package does not
// call Reconcile automatically — whether to reconcile synchronously or
// batch it across several merges is left to the caller.
package filesystem
