// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tree

import "github.com/dan-da/crdtree/lib/ids"

// Node is what the tree stores for one child: its parent and the
// metadata attached by whichever operation last touched it. Metadata
// is opaque to this package and to package moveop — the move-tree
// algorithm is correct regardless of what it carries. Package
// filesystem supplies a concrete, closed metadata type; other
// consumers of this engine are free to supply their own.
type Node struct {
	Parent   ids.NodeID
	Metadata any
}

// Tree is the forest's forward map (child → parent/metadata) plus an
// inverse index (parent → set of children) kept in lockstep. Nodes
// with no entry have no parent and are forest roots.
//
// The zero value is a valid, empty Tree.
type Tree struct {
	forward map[ids.NodeID]Node
	inverse map[ids.NodeID]map[ids.NodeID]struct{}
}

// New returns an empty Tree.
func New() *Tree {
	return &Tree{
		forward: make(map[ids.NodeID]Node),
		inverse: make(map[ids.NodeID]map[ids.NodeID]struct{}),
	}
}

// Find returns the node stored for id and whether it exists. A node
// with no parent (a root) is simply absent — Find reports ok=false for
// it, same as for a node that was never created.
func (t *Tree) Find(id ids.NodeID) (Node, bool) {
	node, ok := t.forward[id]
	return node, ok
}

// Children returns id's children, sorted by raw NodeID bytes for
// deterministic iteration order. Directory listings need a stable
// order across repeated calls; sorting once here means every caller of
// Children gets that for free instead of re-deriving it.
func (t *Tree) Children(id ids.NodeID) []ids.NodeID {
	set := t.inverse[id]
	if len(set) == 0 {
		return nil
	}

	children := make([]ids.NodeID, 0, len(set))
	for child := range set {
		children = append(children, child)
	}
	sortNodeIDs(children)
	return children
}

// Add installs (or replaces) the mapping for child, updating the
// inverse index atomically. If child already had a different parent,
// its old inverse-index entry is removed first.
func (t *Tree) Add(child, parent ids.NodeID, metadata any) {
	if t.forward == nil {
		t.forward = make(map[ids.NodeID]Node)
		t.inverse = make(map[ids.NodeID]map[ids.NodeID]struct{})
	}
	if existing, ok := t.forward[child]; ok {
		t.removeFromInverse(existing.Parent, child)
	}

	t.forward[child] = Node{Parent: parent, Metadata: metadata}
	t.addToInverse(parent, child)
	t.checkInvariants()
}

// Remove deletes child's mapping entirely, making it a root with no
// recorded metadata. A no-op if child has no mapping.
func (t *Tree) Remove(child ids.NodeID) {
	existing, ok := t.forward[child]
	if !ok {
		return
	}
	t.removeFromInverse(existing.Parent, child)
	delete(t.forward, child)
	t.checkInvariants()
}

// Walk visits root and then recursively every descendant, depth first,
// in Children order. visit is called once per visited node; Walk does
// not call visit on root's ancestors or siblings.
func (t *Tree) Walk(root ids.NodeID, visit func(id ids.NodeID)) {
	visit(root)
	for _, child := range t.Children(root) {
		t.Walk(child, visit)
	}
}

func (t *Tree) addToInverse(parent, child ids.NodeID) {
	set, ok := t.inverse[parent]
	if !ok {
		set = make(map[ids.NodeID]struct{})
		t.inverse[parent] = set
	}
	set[child] = struct{}{}
}

func (t *Tree) removeFromInverse(parent, child ids.NodeID) {
	set, ok := t.inverse[parent]
	if !ok {
		return
	}
	delete(set, child)
	if len(set) == 0 {
		delete(t.inverse, parent)
	}
}

// sortNodeIDs sorts ids in place by their canonical text form. Using
// the string form (rather than comparing raw UUID bytes directly)
// keeps this package free of any dependency on NodeID's internal
// representation.
func sortNodeIDs(nodes []ids.NodeID) {
	// Insertion sort: children lists are small in practice (a
	// directory with thousands of entries is the exception, not the
	// rule for this prototype), and insertion sort avoids pulling in
	// sort.Slice's reflection-based comparator for such short slices.
	for i := 1; i < len(nodes); i++ {
		for j := i; j > 0 && nodes[j-1].String() > nodes[j].String(); j-- {
			nodes[j-1], nodes[j] = nodes[j], nodes[j-1]
		}
	}
}
