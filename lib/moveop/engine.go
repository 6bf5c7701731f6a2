// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package moveop

import (
	"github.com/dan-da/crdtree/lib/ids"
	"github.com/dan-da/crdtree/lib/logical"
	"github.com/dan-da/crdtree/lib/tree"
)

// IsAncestor reports whether ancestor appears among descendant's chain
// of parents. It walks parent pointers from descendant upward, so
// IsAncestor(t, x, x) is false unless x is its own parent (which DoOp's
// guard never allows to happen) — callers that need to reject a node
// moving onto itself check that separately.
func IsAncestor(t *tree.Tree, descendant, ancestor ids.NodeID) bool {
	current := descendant
	for {
		node, ok := t.Find(current)
		if !ok {
			return false
		}
		if node.Parent == ancestor {
			return true
		}
		current = node.Parent
	}
}

// DoOp applies op to t and returns the LogEntry recording what
// happened. The only way DoOp refuses to mutate t is the algorithm's
// single failure mode: op would make a node its own parent, or would
// move a node underneath one of its own descendants, either of which
// would introduce a cycle. In that case the returned entry still
// records the attempted op; t is simply left untouched.
func DoOp(op Op, t *tree.Tree) LogEntry {
	var oldParent *ParentSnapshot
	if existing, ok := t.Find(op.Child); ok {
		oldParent = &ParentSnapshot{Parent: existing.Parent, Metadata: existing.Metadata}
	}

	entry := LogEntry{
		Timestamp: op.Timestamp,
		Parent:    op.Parent,
		Metadata:  op.Metadata,
		Child:     op.Child,
		OldParent: oldParent,
	}

	if op.Child == op.Parent || IsAncestor(t, op.Parent, op.Child) {
		return entry
	}

	t.Add(op.Child, op.Parent, op.Metadata)
	return entry
}

// UndoOp reverts entry's effect on t: entry.Child is restored to
// whatever parent/metadata it had immediately beforehand, or removed
// entirely if it had none. Undoing an entry whose DoOp was rejected by
// the cycle guard is a no-op, since OldParent already equals t's
// current state for that child.
func UndoOp(entry LogEntry, t *tree.Tree) {
	t.Remove(entry.Child)
	if entry.OldParent != nil {
		t.Add(entry.Child, entry.OldParent.Parent, entry.OldParent.Metadata)
	}
}

// RedoOp reconstructs entry's Op (discarding its old OldParent, which
// described a tree state that may no longer exist) and reapplies it via
// DoOp. The returned LogEntry's OldParent is therefore derived fresh
// from t's current state, not carried over from entry.
func RedoOp(entry LogEntry, t *tree.Tree) LogEntry {
	op := Op{
		Timestamp: entry.Timestamp,
		Parent:    entry.Parent,
		Metadata:  entry.Metadata,
		Child:     entry.Child,
	}
	return DoOp(op, t)
}

// ApplyOp integrates op into state, preserving the invariant that
// state.Log stays sorted in strictly descending timestamp order.
//
// If op is newer than every logged op, this is just DoOp followed by a
// prepend. Otherwise every logged op newer than op must be undone,
// op applied in their place, and then each of them redone on top of it
// — restoring the order a total replay from scratch would have
// produced, without actually replaying from scratch. This is the
// algorithm's convergence property: however many replicas apply however
// many of these operations in whatever arrival order, any two replicas
// that have applied the same set of operations end up with the same
// tree and the same log.
//
// The recursive formulation in the literature undoes the head, recurses
// on the tail, then redoes the head on the way back up. That recurses
// once per out-of-order log entry, which for a long-lived log observing
// a slow peer could recurse arbitrarily deep; this implementation walks
// an explicit stack instead so the depth is bounded only by available
// memory, not by call-stack size.
func ApplyOp(state *State, op Op) error {
	var undone []LogEntry

	for len(state.Log) > 0 {
		head := state.Log[0]
		if op.Timestamp.Equal(head.Timestamp) {
			for i := len(undone) - 1; i >= 0; i-- {
				state.Log = prepend(state.Log, RedoOp(undone[i], state.Tree))
			}
			return ErrDuplicateTimestamp
		}
		if op.Timestamp.Greater(head.Timestamp) {
			break
		}
		UndoOp(head, state.Tree)
		undone = append(undone, head)
		state.Log = state.Log[1:]
	}

	entry := DoOp(op, state.Tree)
	state.Log = prepend(state.Log, entry)

	for i := len(undone) - 1; i >= 0; i-- {
		redone := RedoOp(undone[i], state.Tree)
		state.Log = prepend(state.Log, redone)
	}

	return nil
}

func prepend(log []LogEntry, entry LogEntry) []LogEntry {
	log = append(log, LogEntry{})
	copy(log[1:], log)
	log[0] = entry
	return log
}

// CausallyStableThreshold reports the newest timestamp that every peer
// in knownPeers is known to have seen, derived from latestSeen (the
// last timestamp received from each peer). It reports ok=false if
// latestSeen has no entry for some peer in knownPeers, since the
// threshold is then undefined — nothing can safely be claimed stable
// from a peer we have never heard from.
func CausallyStableThreshold(knownPeers []ids.ReplicaID, latestSeen map[ids.ReplicaID]logical.Timestamp) (logical.Timestamp, bool) {
	if len(knownPeers) == 0 {
		return logical.Zero, false
	}

	var threshold logical.Timestamp
	first := true
	for _, peer := range knownPeers {
		seen, ok := latestSeen[peer]
		if !ok {
			return logical.Zero, false
		}
		if first || seen.Less(threshold) {
			threshold = seen
			first = false
		}
	}
	return threshold, true
}

// Truncate drops every entry of log whose timestamp is strictly less
// than threshold, returning the retained entries (newest first, same
// order log was already in) and the count removed. Entries at or after
// threshold are never causally stable and must be kept: some peer may
// not have seen them yet, and undoing/redoing across a truncated
// boundary would silently diverge.
func Truncate(log []LogEntry, threshold logical.Timestamp) (retained []LogEntry, removed int) {
	// log is kept sorted newest-first, so the stale (< threshold)
	// entries are exactly a contiguous suffix at the old end.
	cutoff := len(log)
	for cutoff > 0 && log[cutoff-1].Timestamp.Less(threshold) {
		cutoff--
	}
	return log[:cutoff], len(log) - cutoff
}
