// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package filesystem

import (
	"fmt"

	"github.com/dan-da/crdtree/lib/ids"
	"github.com/dan-da/crdtree/lib/logical"
	"github.com/dan-da/crdtree/lib/moveop"
)

// ReconcilePolicy selects how Reconcile resolves a name collision
// between two or more children of the same directory.
type ReconcilePolicy int

const (
	// RenameAll rewrites every colliding child's name to
	// "<name>.conflict.<creator>", including the one that would
	// otherwise be considered the winner — leaving no child still
	// named name.
	RenameAll ReconcilePolicy = iota

	// LastWriterWins keeps whichever colliding child was created most
	// recently (by Lamport timestamp) under its original name, and
	// renames the rest the same way RenameAll would.
	LastWriterWins
)

// Reconcile scans every directory reachable from root for children
// sharing a name — the result of two replicas concurrently creating
// the same (parent, name) pair — and emits the conflict-resolution ops
// policy calls for. It is not invoked automatically by ApplyLogOps;
// callers decide when (or how often) to reconcile after merging remote
// operations.
//
// Reconcile itself is not idempotent in the sense of being a no-op on
// a second call against the same state: under RenameAll, re-running it
// against already-renamed children is harmless because they no longer
// share a name, but a third replica's entries merged in later may
// reopen a collision that a prior Reconcile call already resolved from
// this replica's point of view. Call it again after every merge round
// that might have introduced new, colliding siblings.
func (fs *Filesystem) Reconcile(policy ReconcilePolicy) ([]moveop.Op, error) {
	var ops []moveop.Op
	var err error

	fs.replica.State().Tree.Walk(ids.RootID, func(dir ids.NodeID) {
		if err != nil {
			return
		}

		groups := make(map[string][]ids.NodeID)
		for _, child := range fs.replica.State().Tree.Children(dir) {
			meta, metaErr := fs.metadataOf(child)
			if metaErr != nil {
				continue
			}
			name := meta.name()
			if name == "" {
				continue
			}
			groups[name] = append(groups[name], child)
		}

		for name, children := range groups {
			if len(children) < 2 {
				continue
			}
			var resolved []moveop.Op
			resolved, err = fs.resolveCollision(dir, name, children, policy)
			ops = append(ops, resolved...)
			if err != nil {
				return
			}
		}
	})

	return ops, err
}

// collider pairs a colliding child with the timestamp of the op that
// first created it, used both to order candidates for
// LastWriterWins and to name the creator in the ".conflict." suffix.
type collider struct {
	id ids.NodeID
	ts logical.Timestamp
}

func (fs *Filesystem) resolveCollision(parent ids.NodeID, name string, children []ids.NodeID, policy ReconcilePolicy) ([]moveop.Op, error) {
	candidates := make([]collider, 0, len(children))
	for _, child := range children {
		candidates = append(candidates, collider{id: child, ts: fs.creationTimestamp(child)})
	}

	// Insertion sort by timestamp descending (newest first): collision
	// sets are small, same reasoning as tree.Tree's child-ordering sort.
	for i := 1; i < len(candidates); i++ {
		for j := i; j > 0 && candidates[j-1].ts.Less(candidates[j].ts); j-- {
			candidates[j-1], candidates[j] = candidates[j], candidates[j-1]
		}
	}

	start := 0
	if policy == LastWriterWins {
		start = 1 // candidates[0] is the newest; it keeps name unchanged.
	}

	var ops []moveop.Op
	for _, c := range candidates[start:] {
		meta, err := fs.metadataOf(c.id)
		if err != nil {
			return ops, err
		}
		renamed := fmt.Sprintf("%s.conflict.%s", name, c.ts.Actor.String())
		op, err := fs.apply(parent, meta.withName(renamed), c.id)
		if err != nil {
			return ops, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// creationTimestamp returns the timestamp of the oldest log entry
// recorded for child — the op that created it. The replica's log is
// kept newest-first, so the last matching entry encountered while
// scanning front to back is the oldest one. If the creating entry has
// since been truncated away by causal-stability log compaction, this
// falls back to the zero timestamp, which sorts before every real
// timestamp and so never wins a LastWriterWins tie it has no evidence
// for.
func (fs *Filesystem) creationTimestamp(child ids.NodeID) logical.Timestamp {
	found := logical.Zero
	for _, entry := range fs.replica.Log() {
		if entry.Child == child {
			found = entry.Timestamp
		}
	}
	return found
}
