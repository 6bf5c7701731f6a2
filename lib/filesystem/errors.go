// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package filesystem

import "errors"

var (
	// ErrAlreadyExists is returned by Mknod, Mkdir, Symlink, and Link
	// when parent already has a child with the requested name, and by
	// Rename when newparent already has a child named newname.
	ErrAlreadyExists = errors.New("filesystem: name already exists")

	// ErrNotEmpty is returned by Rmdir when the target directory still
	// has children.
	ErrNotEmpty = errors.New("filesystem: directory not empty")

	// ErrWrongKind is returned when an operation is applied to a node
	// of the wrong kind: Rmdir on a non-directory, Readlink on a
	// non-symlink, Unlink on a non-file-reference, and so on.
	ErrWrongKind = errors.New("filesystem: wrong node kind")

	// ErrNotFound is returned by internal ino-keyed lookups (Getattr,
	// Read, Write, Readdir, Rmdir, Unlink's target inode) when the
	// given node does not exist. Lookup itself never returns this —
	// a failed path lookup returns the zero NodeID instead, a
	// cacheable negative result rather than an error.
	ErrNotFound = errors.New("filesystem: node not found")
)
