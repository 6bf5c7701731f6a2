// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package moveop

import (
	"github.com/dan-da/crdtree/lib/ids"
	"github.com/dan-da/crdtree/lib/logical"
	"github.com/dan-da/crdtree/lib/tree"
)

// Op is a request to move (or create) Child under Parent, attaching
// Metadata to it. Timestamp totally orders Op against every other Op
// this replica or any peer has ever issued or applied.
type Op struct {
	Timestamp logical.Timestamp
	Parent    ids.NodeID
	Metadata  any
	Child     ids.NodeID
}

// ParentSnapshot is what Child's parent/metadata pair looked like
// immediately before an Op was applied to it. A nil *ParentSnapshot
// means Child had no parent at all — it was a root, or did not exist.
type ParentSnapshot struct {
	Parent   ids.NodeID
	Metadata any
}

// LogEntry is one applied Op plus the state it overwrote, which is
// exactly what UndoOp needs to invert it. Parent, Metadata and Child
// always record the Op as requested, even when DoOp's cycle guard
// rejected it and left the tree untouched — the entry still documents
// that the attempt happened at Timestamp. Undoing it is then a no-op,
// and redoing it simply runs the cycle guard again against the tree as
// it is at that point; neither is a special case.
type LogEntry struct {
	Timestamp logical.Timestamp
	Parent    ids.NodeID
	Metadata  any
	Child     ids.NodeID
	OldParent *ParentSnapshot
}

// State is one replica's view of the move-tree: the materialized Tree
// plus the Log of operations that produced it, kept in strictly
// descending timestamp order (Log[0] is the op with the newest
// timestamp, whenever it arrived).
type State struct {
	Tree *tree.Tree
	Log  []LogEntry
}

// NewState returns an empty State ready to accept operations.
func NewState() *State {
	return &State{Tree: tree.New()}
}
