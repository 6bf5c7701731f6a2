// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package filesystem

import (
	"testing"
	"time"

	"github.com/dan-da/crdtree/lib/clock"
	"github.com/dan-da/crdtree/lib/ids"
	"github.com/dan-da/crdtree/lib/moveop"
	"github.com/dan-da/crdtree/lib/replica"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestFS(t *testing.T, actor string) *Filesystem {
	t.Helper()
	id, err := ids.ParseReplicaID(actor)
	if err != nil {
		t.Fatal(err)
	}
	r := replica.New(id)
	fs := New(r, clock.Fake(epoch))
	if _, err := fs.Init(); err != nil {
		t.Fatal(err)
	}
	return fs
}

func opsToEntries(ops []moveop.Op) []moveop.LogEntry {
	entries := make([]moveop.LogEntry, len(ops))
	for i, op := range ops {
		entries[i] = moveop.LogEntry{Timestamp: op.Timestamp, Parent: op.Parent, Metadata: op.Metadata, Child: op.Child}
	}
	return entries
}

// merge applies ops (produced by src) to dst, as if they had arrived
// over the wire.
func merge(t *testing.T, dst *Filesystem, ops []moveop.Op) {
	t.Helper()
	if err := dst.Replica().ApplyLogOps(opsToEntries(ops)); err != nil {
		t.Fatal(err)
	}
}

func mustLookup(t *testing.T, fs *Filesystem, path string) ids.NodeID {
	t.Helper()
	ino, ok := fs.Lookup(path)
	if !ok {
		t.Fatalf("lookup %q: not found", path)
	}
	return ino
}

// --- spec scenario 1: concurrent move of the same node ---

func TestConcurrentMoveOfSameNodeConverges(t *testing.T) {
	r1 := newTestFS(t, "r1")
	r2 := newTestFS(t, "r2")

	var setup []moveop.Op
	for _, name := range []string{"a", "b", "c"} {
		ops, err := r1.Mkdir(ids.RootID, name)
		if err != nil {
			t.Fatal(err)
		}
		setup = append(setup, ops...)
	}
	merge(t, r2, setup)

	a1 := mustLookup(t, r1, "a")
	b1 := mustLookup(t, r1, "b")
	c1 := mustLookup(t, r1, "c")

	moveToB, err := r1.Rename(ids.RootID, "a", b1, "a")
	if err != nil {
		t.Fatal(err)
	}
	moveToC, err := r2.Rename(ids.RootID, "a", c1, "a")
	if err != nil {
		t.Fatal(err)
	}

	merge(t, r2, moveToB)
	merge(t, r1, moveToC)

	n1, ok1 := r1.replica.State().Tree.Find(a1)
	n2, ok2 := r2.replica.State().Tree.Find(a1)
	if !ok1 || !ok2 {
		t.Fatal("node a missing on one of the replicas after merge")
	}
	if n1.Parent != n2.Parent {
		t.Fatalf("replicas diverged: r1 parent=%v, r2 parent=%v", n1.Parent, n2.Parent)
	}
	if n1.Parent != b1 && n1.Parent != c1 {
		t.Fatalf("converged parent %v is neither b nor c", n1.Parent)
	}
}

// --- spec scenario 2: concurrent would-be cycle ---

func TestConcurrentCycleAttemptConvergesWithoutACycle(t *testing.T) {
	r1 := newTestFS(t, "r1")
	r2 := newTestFS(t, "r2")

	aOps, err := r1.Mkdir(ids.RootID, "a")
	if err != nil {
		t.Fatal(err)
	}
	bOps, err := r1.Mkdir(ids.RootID, "b")
	if err != nil {
		t.Fatal(err)
	}
	a1 := mustLookup(t, r1, "a")
	cOps, err := r1.Mkdir(a1, "c")
	if err != nil {
		t.Fatal(err)
	}
	setup := append(append(aOps, bOps...), cOps...)
	merge(t, r2, setup)

	b1 := mustLookup(t, r1, "b")

	moveBUnderA, err := r1.Rename(ids.RootID, "b", a1, "b")
	if err != nil {
		t.Fatal(err)
	}
	moveAUnderB, err := r2.Rename(ids.RootID, "a", b1, "a")
	if err != nil {
		t.Fatal(err)
	}

	merge(t, r2, moveBUnderA)
	merge(t, r1, moveAUnderB)

	na1, _ := r1.replica.State().Tree.Find(a1)
	na2, _ := r2.replica.State().Tree.Find(a1)
	if na1.Parent != na2.Parent {
		t.Fatalf("diverged on a's parent: r1=%v r2=%v", na1.Parent, na2.Parent)
	}
	nb1, _ := r1.replica.State().Tree.Find(b1)
	nb2, _ := r2.replica.State().Tree.Find(b1)
	if nb1.Parent != nb2.Parent {
		t.Fatalf("diverged on b's parent: r1=%v r2=%v", nb1.Parent, nb2.Parent)
	}

	// Exactly one of the two moves may have won; a and b cannot both
	// have ended up as each other's parent.
	if na1.Parent == b1 && nb1.Parent == a1 {
		t.Fatal("both concurrent moves applied: a and b form a cycle")
	}
}

// --- spec scenario 3: non-conflicting concurrent moves ---

func TestNonConflictingConcurrentRenamesBothSucceed(t *testing.T) {
	r1 := newTestFS(t, "r1")
	r2 := newTestFS(t, "r2")

	aOps, err := r1.Mkdir(ids.RootID, "a")
	if err != nil {
		t.Fatal(err)
	}
	bOps, err := r1.Mkdir(ids.RootID, "b")
	if err != nil {
		t.Fatal(err)
	}
	merge(t, r2, append(aOps, bOps...))

	renameA, err := r1.Rename(ids.RootID, "a", ids.RootID, "c")
	if err != nil {
		t.Fatal(err)
	}
	renameB, err := r2.Rename(ids.RootID, "b", ids.RootID, "d")
	if err != nil {
		t.Fatal(err)
	}

	merge(t, r2, renameA)
	merge(t, r1, renameB)

	for _, fs := range []*Filesystem{r1, r2} {
		if _, ok := fs.Lookup("c"); !ok {
			t.Error("expected c to exist")
		}
		if _, ok := fs.Lookup("d"); !ok {
			t.Error("expected d to exist")
		}
		if _, ok := fs.Lookup("a"); ok {
			t.Error("a should no longer resolve under its old name")
		}
		if _, ok := fs.Lookup("b"); ok {
			t.Error("b should no longer resolve under its old name")
		}
	}
}

// --- spec scenario 5: hard link + unlink lifecycle ---

func TestHardLinkAndUnlinkLifecycle(t *testing.T) {
	fs := newTestFS(t, "r1")

	if _, err := fs.Mkdir(ids.RootID, "home"); err != nil {
		t.Fatal(err)
	}
	home := mustLookup(t, fs, "home")

	if _, err := fs.Mkdir(home, "bob"); err != nil {
		t.Fatal(err)
	}
	bob := mustLookup(t, fs, "home/bob")

	if _, err := fs.Mknod(bob, "homework.txt"); err != nil {
		t.Fatal(err)
	}
	homework := mustLookup(t, fs, "home/bob/homework.txt")

	homeworkRef, err := fs.metadataOf(homework)
	if err != nil {
		t.Fatal(err)
	}
	inode := homeworkRef.FileRef.InodeID

	if _, err := fs.Link(homework, bob, "homework-link.txt"); err != nil {
		t.Fatal(err)
	}

	inodeMeta, err := fs.metadataOf(inode)
	if err != nil {
		t.Fatal(err)
	}
	if inodeMeta.FileInode.LinkCount != 2 {
		t.Fatalf("link_count after link = %d, want 2", inodeMeta.FileInode.LinkCount)
	}

	if _, err := fs.Unlink(bob, "homework.txt"); err != nil {
		t.Fatal(err)
	}
	inodeMeta, err = fs.metadataOf(inode)
	if err != nil {
		t.Fatal(err)
	}
	if inodeMeta.FileInode.LinkCount != 1 {
		t.Fatalf("link_count after first unlink = %d, want 1", inodeMeta.FileInode.LinkCount)
	}
	node, _ := fs.replica.State().Tree.Find(inode)
	if node.Parent != ids.FileInodesID {
		t.Fatalf("inode parent after first unlink = %v, want fileinodes", node.Parent)
	}

	if _, err := fs.Unlink(bob, "homework-link.txt"); err != nil {
		t.Fatal(err)
	}
	node, _ = fs.replica.State().Tree.Find(inode)
	if node.Parent != ids.TrashID {
		t.Fatalf("inode parent after second unlink = %v, want trash", node.Parent)
	}
}

// --- spec scenario 6: name collision reconciliation ---

func TestNameCollisionReconciliationRenameAll(t *testing.T) {
	r1 := newTestFS(t, "r1")
	r2 := newTestFS(t, "r2")

	tmpOps, err := r1.Mkdir(ids.RootID, "tmp")
	if err != nil {
		t.Fatal(err)
	}
	merge(t, r2, tmpOps)
	tmp := mustLookup(t, r1, "tmp")

	r1File, err := r1.Mknod(tmp, "file1.txt")
	if err != nil {
		t.Fatal(err)
	}
	r2File, err := r2.Mknod(tmp, "file1.txt")
	if err != nil {
		t.Fatal(err)
	}

	merge(t, r2, r1File)
	merge(t, r1, r2File)

	resolved, err := r1.Reconcile(RenameAll)
	if err != nil {
		t.Fatal(err)
	}
	if len(resolved) == 0 {
		t.Fatal("expected Reconcile to emit conflict-resolution ops")
	}
	merge(t, r2, resolved)

	for _, fs := range []*Filesystem{r1, r2} {
		if _, ok := fs.Lookup("tmp/file1.txt"); ok {
			t.Error("file1.txt should no longer exist unrenamed under rename-all")
		}
		entries, err := fs.Readdir(tmp, 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 2 {
			t.Fatalf("tmp has %d children, want 2", len(entries))
		}
		for _, e := range entries {
			if e.Name != "file1.txt.conflict.r1" && e.Name != "file1.txt.conflict.r2" {
				t.Errorf("unexpected renamed entry %q", e.Name)
			}
		}
	}
}

func TestNameCollisionReconciliationLastWriterWins(t *testing.T) {
	r1 := newTestFS(t, "r1")
	r2 := newTestFS(t, "r2")

	tmpOps, err := r1.Mkdir(ids.RootID, "tmp")
	if err != nil {
		t.Fatal(err)
	}
	merge(t, r2, tmpOps)
	tmp := mustLookup(t, r1, "tmp")

	r1File, err := r1.Mknod(tmp, "file1.txt")
	if err != nil {
		t.Fatal(err)
	}
	r2File, err := r2.Mknod(tmp, "file1.txt")
	if err != nil {
		t.Fatal(err)
	}
	merge(t, r2, r1File)
	merge(t, r1, r2File)

	resolved, err := r1.Reconcile(LastWriterWins)
	if err != nil {
		t.Fatal(err)
	}
	merge(t, r2, resolved)

	for _, fs := range []*Filesystem{r1, r2} {
		entries, err := fs.Readdir(tmp, 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 2 {
			t.Fatalf("tmp has %d children, want 2", len(entries))
		}
		kept := 0
		for _, e := range entries {
			if e.Name == "file1.txt" {
				kept++
			}
		}
		if kept != 1 {
			t.Fatalf("expected exactly one survivor named file1.txt, got %d", kept)
		}
	}
}

// --- failure semantics ---

func TestMknodRejectsDuplicateName(t *testing.T) {
	fs := newTestFS(t, "r1")
	if _, err := fs.Mknod(ids.RootID, "a"); err != nil {
		t.Fatal(err)
	}
	if _, err := fs.Mknod(ids.RootID, "a"); err != ErrAlreadyExists {
		t.Fatalf("got %v, want ErrAlreadyExists", err)
	}
}

func TestMkdirRejectsDuplicateName(t *testing.T) {
	fs := newTestFS(t, "r1")
	if _, err := fs.Mkdir(ids.RootID, "a"); err != nil {
		t.Fatal(err)
	}
	if _, err := fs.Mkdir(ids.RootID, "a"); err != ErrAlreadyExists {
		t.Fatalf("got %v, want ErrAlreadyExists", err)
	}
}

func TestRmdirRejectsNonEmptyDirectory(t *testing.T) {
	fs := newTestFS(t, "r1")
	if _, err := fs.Mkdir(ids.RootID, "a"); err != nil {
		t.Fatal(err)
	}
	a := mustLookup(t, fs, "a")
	if _, err := fs.Mkdir(a, "b"); err != nil {
		t.Fatal(err)
	}
	if _, err := fs.Rmdir(ids.RootID, "a"); err != ErrNotEmpty {
		t.Fatalf("got %v, want ErrNotEmpty", err)
	}
}

func TestRmdirRejectsNonDirectory(t *testing.T) {
	fs := newTestFS(t, "r1")
	if _, err := fs.Mknod(ids.RootID, "a"); err != nil {
		t.Fatal(err)
	}
	if _, err := fs.Rmdir(ids.RootID, "a"); err != ErrWrongKind {
		t.Fatalf("got %v, want ErrWrongKind", err)
	}
}

func TestUnlinkRejectsNonFileRef(t *testing.T) {
	fs := newTestFS(t, "r1")
	if _, err := fs.Mkdir(ids.RootID, "a"); err != nil {
		t.Fatal(err)
	}
	if _, err := fs.Unlink(ids.RootID, "a"); err != ErrWrongKind {
		t.Fatalf("got %v, want ErrWrongKind", err)
	}
}

func TestLookupMissReturnsZeroSentinel(t *testing.T) {
	fs := newTestFS(t, "r1")
	ino, ok := fs.Lookup("does/not/exist")
	if ok {
		t.Fatal("expected lookup miss")
	}
	if !ino.IsZero() {
		t.Fatalf("expected zero sentinel, got %v", ino)
	}
}

func TestGetattrUnknownInoReturnsNotFound(t *testing.T) {
	fs := newTestFS(t, "r1")
	gen := fs.gen
	unknown := gen.New()
	if _, err := fs.Getattr(unknown); err != ErrNotFound {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestReaddirPastEndReturnsEmpty(t *testing.T) {
	fs := newTestFS(t, "r1")
	entries, err := fs.Readdir(ids.RootID, 1000)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("got %d entries, want 0", len(entries))
	}
}

// --- symlink, read/write ---

func TestSymlinkAndReadlink(t *testing.T) {
	fs := newTestFS(t, "r1")
	if _, err := fs.Symlink("/etc/hosts", ids.RootID, "link"); err != nil {
		t.Fatal(err)
	}
	target, err := fs.Readlink(mustLookup(t, fs, "link"))
	if err != nil {
		t.Fatal(err)
	}
	if target != "/etc/hosts" {
		t.Fatalf("got %q, want /etc/hosts", target)
	}
}

func TestWriteAppendsAndUpdatesContentHash(t *testing.T) {
	fs := newTestFS(t, "r1")
	if _, err := fs.Mknod(ids.RootID, "f"); err != nil {
		t.Fatal(err)
	}
	ino := mustLookup(t, fs, "f")

	if _, err := fs.Write(ino, []byte("hello ")); err != nil {
		t.Fatal(err)
	}
	if _, err := fs.Write(ino, []byte("world")); err != nil {
		t.Fatal(err)
	}

	content, err := fs.Read(ino)
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "hello world" {
		t.Fatalf("got %q, want %q", content, "hello world")
	}

	ref, err := fs.metadataOf(ino)
	if err != nil {
		t.Fatal(err)
	}
	inodeMeta, err := fs.metadataOf(ref.FileRef.InodeID)
	if err != nil {
		t.Fatal(err)
	}
	if inodeMeta.FileInode.ContentHash != contentHash([]byte("hello world")) {
		t.Fatal("content hash does not match final content")
	}
}

func TestRenameRejectsCollisionAtDestination(t *testing.T) {
	fs := newTestFS(t, "r1")
	if _, err := fs.Mkdir(ids.RootID, "a"); err != nil {
		t.Fatal(err)
	}
	if _, err := fs.Mkdir(ids.RootID, "b"); err != nil {
		t.Fatal(err)
	}
	if _, err := fs.Rename(ids.RootID, "a", ids.RootID, "b"); err != ErrAlreadyExists {
		t.Fatalf("got %v, want ErrAlreadyExists", err)
	}
}

// TestSnapshotRoundTripPreservesTypedMetadata guards against a
// metadata-agnostic replica decoding filesystem.Metadata back as a
// bare map instead of the tagged-union struct: the CBOR round trip a
// snapshot takes is exactly the path that would otherwise lose the
// type.
func TestSnapshotRoundTripPreservesTypedMetadata(t *testing.T) {
	fs := newTestFS(t, "r1")
	if _, err := fs.Mkdir(ids.RootID, "home"); err != nil {
		t.Fatal(err)
	}
	home := mustLookup(t, fs, "/home")
	if _, err := fs.Mknod(home, "notes.txt"); err != nil {
		t.Fatal(err)
	}
	notes := mustLookup(t, fs, "/home/notes.txt")
	if _, err := fs.Write(notes, []byte("hi")); err != nil {
		t.Fatal(err)
	}

	data, err := fs.Replica().Snapshot()
	if err != nil {
		t.Fatal(err)
	}

	restored := New(replica.New(fs.Replica().ID()), clock.Fake(epoch))
	if err := restored.Replica().LoadSnapshot(data); err != nil {
		t.Fatal(err)
	}

	restoredNotes, ok := restored.Lookup("/home/notes.txt")
	if !ok {
		t.Fatal("lookup /home/notes.txt: not found after restore")
	}
	if restoredNotes != notes {
		t.Fatalf("restored ino = %v, want %v", restoredNotes, notes)
	}

	content, err := restored.Read(restoredNotes)
	if err != nil {
		t.Fatalf("Read after restore: %v", err)
	}
	if string(content) != "hi" {
		t.Fatalf("content after restore = %q, want %q", content, "hi")
	}
}
