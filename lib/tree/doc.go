// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package tree implements the forest's forward and inverse indices:
// a mapping from every child node to its parent and metadata, plus the
// inverse index from parent to children that makes Children an O(1)
// lookup rather than a full scan.
//
// Tree performs no cycle detection and no uniqueness enforcement beyond
// "each child has at most one parent" (which the map type gives for
// free) — that is package moveop's job. Tree is the dumb, correct
// index; moveop is the algorithm that decides when mutating it is safe.
//
// CAUTION! Like go-pluto's operation-based ORSet, this package performs
// no synchronization of its own. A Tree is owned exclusively by one
// replica; concurrent access from multiple goroutines must be
// synchronized by the caller.
package tree
