// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tree

import (
	"testing"

	"github.com/dan-da/crdtree/lib/ids"
)

func newNode(t *testing.T) ids.NodeID {
	t.Helper()
	gen := ids.NewGenerator(mustReplica(t, "r1"))
	return gen.New()
}

func mustReplica(t *testing.T, raw string) ids.ReplicaID {
	t.Helper()
	id, err := ids.ParseReplicaID(raw)
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func TestTreeAddFindRemove(t *testing.T) {
	tr := New()
	root := newNode(t)
	child := newNode(t)

	if _, ok := tr.Find(child); ok {
		t.Fatal("Find on empty tree should report not-found")
	}

	tr.Add(child, root, "meta")
	node, ok := tr.Find(child)
	if !ok {
		t.Fatal("Find should report the added node")
	}
	if node.Parent != root || node.Metadata != "meta" {
		t.Fatalf("Find() = %+v, want parent=%v metadata=meta", node, root)
	}

	tr.Remove(child)
	if _, ok := tr.Find(child); ok {
		t.Fatal("Find should report not-found after Remove")
	}
}

func TestTreeChildrenReflectsInverseIndex(t *testing.T) {
	tr := New()
	root := newNode(t)
	a, b, c := newNode(t), newNode(t), newNode(t)

	tr.Add(a, root, nil)
	tr.Add(b, root, nil)
	tr.Add(c, root, nil)

	children := tr.Children(root)
	if len(children) != 3 {
		t.Fatalf("Children() returned %d entries, want 3", len(children))
	}

	// Deterministic order: two calls must agree, and must be sorted by
	// string form.
	again := tr.Children(root)
	for i := range children {
		if children[i] != again[i] {
			t.Fatalf("Children() is not deterministic across calls")
		}
	}
	for i := 1; i < len(children); i++ {
		if children[i-1].String() > children[i].String() {
			t.Fatal("Children() is not sorted")
		}
	}
}

func TestTreeAddMovesOutOfOldParentsInverseIndex(t *testing.T) {
	tr := New()
	root := newNode(t)
	other := newNode(t)
	child := newNode(t)

	tr.Add(child, root, nil)
	if got := len(tr.Children(root)); got != 1 {
		t.Fatalf("Children(root) = %d, want 1", got)
	}

	tr.Add(child, other, nil)
	if got := len(tr.Children(root)); got != 0 {
		t.Fatalf("Children(root) after move = %d, want 0", got)
	}
	if got := len(tr.Children(other)); got != 1 {
		t.Fatalf("Children(other) after move = %d, want 1", got)
	}
}

func TestTreeRemoveIsNoopForUnknownNode(t *testing.T) {
	tr := New()
	tr.Remove(newNode(t)) // must not panic
}

func TestTreeWalkVisitsDepthFirst(t *testing.T) {
	tr := New()
	root := newNode(t)
	child := newNode(t)
	grandchild := newNode(t)

	tr.Add(child, root, nil)
	tr.Add(grandchild, child, nil)

	var visited []ids.NodeID
	tr.Walk(root, func(id ids.NodeID) {
		visited = append(visited, id)
	})

	if len(visited) != 3 || visited[0] != root || visited[1] != child || visited[2] != grandchild {
		t.Fatalf("Walk visited %v, want [root child grandchild]", visited)
	}
}
