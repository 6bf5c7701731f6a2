// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"bytes"
	"testing"

	"github.com/dan-da/crdtree/lib/ids"
	"github.com/dan-da/crdtree/lib/logical"
	"github.com/dan-da/crdtree/lib/moveop"
)

func TestEncodeDecodeSnapshotReplicaIDRoundTrips(t *testing.T) {
	id, err := ids.ParseReplicaID("replica-7")
	if err != nil {
		t.Fatal(err)
	}

	data, err := EncodeSnapshot(id)
	if err != nil {
		t.Fatalf("EncodeSnapshot: %v", err)
	}

	var got ids.ReplicaID
	if err := DecodeSnapshot(data, &got); err != nil {
		t.Fatalf("DecodeSnapshot: %v", err)
	}
	if got != id {
		t.Fatalf("got %v, want %v", got, id)
	}
}

func TestEncodeSnapshotUsesTextMarshalerForIdentifiers(t *testing.T) {
	id, err := ids.ParseReplicaID("replica-7")
	if err != nil {
		t.Fatal(err)
	}

	data, err := EncodeSnapshot(id)
	if err != nil {
		t.Fatal(err)
	}

	diag, err := Diagnose(data)
	if err != nil {
		t.Fatal(err)
	}
	if diag != `"replica-7"` {
		t.Fatalf("diagnostic notation = %q, want a bare CBOR text string", diag)
	}
}

func TestEncodeSnapshotIsDeterministicAcrossCalls(t *testing.T) {
	type keyed struct {
		C int
		A int
		B int
	}
	v := keyed{C: 3, A: 1, B: 2}

	first, err := EncodeSnapshot(v)
	if err != nil {
		t.Fatal(err)
	}
	second, err := EncodeSnapshot(v)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, second) {
		t.Fatal("EncodeSnapshot should be deterministic for the same input")
	}
}

func TestLogEntryRoundTrips(t *testing.T) {
	actor, err := ids.ParseReplicaID("r1")
	if err != nil {
		t.Fatal(err)
	}
	gen := ids.NewGenerator(actor)
	parent, child := gen.New(), gen.New()

	entry := moveop.LogEntry{
		Timestamp: logical.Timestamp{Counter: 3, Actor: actor},
		Parent:    parent,
		Metadata:  "hello",
		Child:     child,
		OldParent: &moveop.ParentSnapshot{Parent: parent, Metadata: "prior"},
	}

	data, err := EncodeSnapshot(entry)
	if err != nil {
		t.Fatalf("EncodeSnapshot: %v", err)
	}

	var got moveop.LogEntry
	if err := DecodeSnapshot(data, &got); err != nil {
		t.Fatalf("DecodeSnapshot: %v", err)
	}

	if got.Timestamp != entry.Timestamp || got.Parent != entry.Parent || got.Child != entry.Child {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, entry)
	}
	if got.Metadata != "hello" {
		t.Fatalf("Metadata = %v, want hello", got.Metadata)
	}
	if got.OldParent == nil || got.OldParent.Parent != parent || got.OldParent.Metadata != "prior" {
		t.Fatalf("OldParent = %+v, want {%v prior}", got.OldParent, parent)
	}
}

func TestLogEntryWithNilOldParentRoundTrips(t *testing.T) {
	actor, err := ids.ParseReplicaID("r1")
	if err != nil {
		t.Fatal(err)
	}
	gen := ids.NewGenerator(actor)

	entry := moveop.LogEntry{
		Timestamp: logical.Timestamp{Counter: 1, Actor: actor},
		Parent:    gen.New(),
		Child:     gen.New(),
	}

	data, err := EncodeSnapshot(entry)
	if err != nil {
		t.Fatal(err)
	}
	var got moveop.LogEntry
	if err := DecodeSnapshot(data, &got); err != nil {
		t.Fatal(err)
	}
	if got.OldParent != nil {
		t.Fatalf("OldParent = %+v, want nil", got.OldParent)
	}
}

func TestRecodeRestoresConcreteTypeAfterGenericDecode(t *testing.T) {
	type inner struct {
		Name string `cbor:"name"`
		Size uint64 `cbor:"size"`
	}

	original := inner{Name: "a", Size: 7}
	data, err := EncodeSnapshot(original)
	if err != nil {
		t.Fatal(err)
	}

	var erased any
	if err := DecodeSnapshot(data, &erased); err != nil {
		t.Fatal(err)
	}
	if _, ok := erased.(inner); ok {
		t.Fatal("expected the generic decode to erase the concrete type")
	}

	var recovered inner
	if err := Recode(erased, &recovered); err != nil {
		t.Fatalf("Recode: %v", err)
	}
	if recovered != original {
		t.Fatalf("Recode = %+v, want %+v", recovered, original)
	}
}
