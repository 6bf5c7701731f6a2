// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build crdtree_debug

package tree

// checkInvariants asserts that the forward and inverse maps agree:
// every forward entry's parent has a matching inverse set entry and
// vice versa. Built only with -tags crdtree_debug; the release build
// in invariants_release.go compiles this to nothing so the O(n) walk
// never runs outside tests.
func (t *Tree) checkInvariants() {
	for child, node := range t.forward {
		set, ok := t.inverse[node.Parent]
		if !ok {
			panic("tree: " + child.String() + " has parent " + node.Parent.String() + " but inverse has no entry for that parent")
		}
		if _, ok := set[child]; !ok {
			panic("tree: " + child.String() + " missing from inverse set of parent " + node.Parent.String())
		}
	}
	for parent, set := range t.inverse {
		for child := range set {
			node, ok := t.forward[child]
			if !ok {
				panic("tree: inverse lists " + child.String() + " under " + parent.String() + " but forward has no entry")
			}
			if node.Parent != parent {
				panic("tree: inverse lists " + child.String() + " under " + parent.String() + " but forward says parent is " + node.Parent.String())
			}
		}
	}
}
