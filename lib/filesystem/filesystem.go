// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package filesystem

import (
	"fmt"
	"strings"

	"github.com/dan-da/crdtree/lib/clock"
	"github.com/dan-da/crdtree/lib/ids"
	"github.com/dan-da/crdtree/lib/moveop"
	"github.com/dan-da/crdtree/lib/replica"
)

// Filesystem projects FUSE-style named-path operations onto a
// replica's move-tree. It owns an ids.Generator (tagged with the same
// replica, per ids.NewGenerator's contract) for minting new node IDs,
// and a clock.Clock for ctime/mtime — entirely separate from the
// replica's Lamport clock, which orders operations, not wall time.
type Filesystem struct {
	replica *replica.Replica
	gen     *ids.Generator
	wall    clock.Clock
}

// New wraps r in a Filesystem. wall defaults to clock.Real() if nil.
//
// New also installs r's MetadataDecoder, so that r.LoadSnapshot
// restores Metadata and ParentSnapshot.Metadata as concrete Metadata
// values rather than leaving them as the generic map[string]any a
// metadata-agnostic CBOR decode produces.
func New(r *replica.Replica, wall clock.Clock) *Filesystem {
	if wall == nil {
		wall = clock.Real()
	}
	r.MetadataDecoder = decodeMetadata
	return &Filesystem{replica: r, gen: ids.NewGenerator(r.ID()), wall: wall}
}

// Replica returns the underlying replica, for callers that need to
// broadcast operations or inspect peer bookkeeping directly.
func (fs *Filesystem) Replica() *replica.Replica {
	return fs.replica
}

// Init creates the three fixed forest roots — root, fileinodes, and
// trash — if they do not already exist. Calling Init more than once,
// or calling it on a replica that already has these roots (e.g. from a
// restored snapshot, or because a peer's operations created them
// first), is a safe no-op: the roots are well-known, deterministic
// IDs, so every replica's Init converges on the exact same three
// nodes regardless of who actually applied the creating operation.
func (fs *Filesystem) Init() ([]moveop.Op, error) {
	var ops []moveop.Op
	for _, root := range [...]ids.NodeID{ids.RootID, ids.FileInodesID, ids.TrashID} {
		if _, ok := fs.replica.State().Tree.Find(root); ok {
			continue
		}
		ops = append(ops, moveop.Op{Timestamp: fs.replica.Tick(), Parent: zeroNode, Metadata: Metadata{}, Child: root})
	}
	if len(ops) == 0 {
		return nil, nil
	}
	if err := fs.replica.ApplyOps(ops); err != nil {
		return nil, fmt.Errorf("filesystem: init: %w", err)
	}
	return ops, nil
}

// zeroNode is the null parent every forest root is created under. It
// is never looked up as a real node; tree.Tree.Find simply reports
// not-found for it forever, which is exactly what a root's "parent" is
// supposed to mean.
var zeroNode ids.NodeID

// Lookup walks path (slash-separated, relative to root) one component
// at a time, matching each name against the current directory's
// children. It returns the zero NodeID, ok=false on a miss — a
// cacheable negative result, not an error.
func (fs *Filesystem) Lookup(path string) (ids.NodeID, bool) {
	current := ids.RootID
	for _, name := range splitPath(path) {
		next, _, found := fs.findChild(current, name)
		if !found {
			return ids.NodeID{}, false
		}
		current = next
	}
	return current, true
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// LookupChild returns the child of parent named name, if any — a
// single-component version of Lookup for callers (such as package
// fsmount) that already hold a parent ino and need only its immediate
// children, without re-walking from root each time.
func (fs *Filesystem) LookupChild(parent ids.NodeID, name string) (ids.NodeID, bool) {
	child, _, ok := fs.findChild(parent, name)
	return child, ok
}

// findChild returns the child of parent named name, if any.
func (fs *Filesystem) findChild(parent ids.NodeID, name string) (ids.NodeID, Metadata, bool) {
	for _, child := range fs.replica.State().Tree.Children(parent) {
		node, ok := fs.replica.State().Tree.Find(child)
		if !ok {
			continue
		}
		meta, ok := node.Metadata.(Metadata)
		if !ok {
			continue
		}
		if meta.name() == name {
			return child, meta, true
		}
	}
	return ids.NodeID{}, Metadata{}, false
}

// metadataOf returns the metadata stored for ino.
func (fs *Filesystem) metadataOf(ino ids.NodeID) (Metadata, error) {
	node, ok := fs.replica.State().Tree.Find(ino)
	if !ok {
		return Metadata{}, ErrNotFound
	}
	meta, _ := node.Metadata.(Metadata)
	return meta, nil
}

// apply stamps op with a fresh tick, applies it to the replica, and
// returns the applied op alongside any error, so callers can both
// react to failure and hand the op to a broadcaster on success.
func (fs *Filesystem) apply(parent ids.NodeID, meta Metadata, child ids.NodeID) (moveop.Op, error) {
	op := moveop.Op{Timestamp: fs.replica.Tick(), Parent: parent, Metadata: meta, Child: child}
	if err := fs.replica.ApplyOps([]moveop.Op{op}); err != nil {
		return op, fmt.Errorf("filesystem: %w", err)
	}
	return op, nil
}

// Mkdir creates a directory named name under parent.
func (fs *Filesystem) Mkdir(parent ids.NodeID, name string) ([]moveop.Op, error) {
	if _, _, exists := fs.findChild(parent, name); exists {
		return nil, ErrAlreadyExists
	}
	meta := newDirMeta(name, fs.wall.Now())
	op, err := fs.apply(parent, meta, fs.gen.New())
	if err != nil {
		return nil, err
	}
	return []moveop.Op{op}, nil
}

// Mknod creates a new, empty file named name under parent: one op
// creates the file inode under fileinodes with link_count 1, the
// other creates the file reference under parent.
func (fs *Filesystem) Mknod(parent ids.NodeID, name string) ([]moveop.Op, error) {
	if _, _, exists := fs.findChild(parent, name); exists {
		return nil, ErrAlreadyExists
	}

	inode := fs.gen.New()
	inodeOp, err := fs.apply(ids.FileInodesID, newFileInodeMeta(fs.wall.Now()), inode)
	if err != nil {
		return nil, err
	}

	refOp, err := fs.apply(parent, newFileRefMeta(name, inode), fs.gen.New())
	if err != nil {
		return nil, err
	}
	return []moveop.Op{inodeOp, refOp}, nil
}

// Link adds a new name under parent, a hard link to the file inode
// that targetIno currently points at, and increments that inode's
// link_count.
func (fs *Filesystem) Link(targetIno, parent ids.NodeID, name string) ([]moveop.Op, error) {
	if _, _, exists := fs.findChild(parent, name); exists {
		return nil, ErrAlreadyExists
	}

	targetRef, err := fs.metadataOf(targetIno)
	if err != nil {
		return nil, err
	}
	if targetRef.Kind != KindFileRef {
		return nil, ErrWrongKind
	}

	inodeMeta, err := fs.metadataOf(targetRef.FileRef.InodeID)
	if err != nil {
		return nil, err
	}
	if inodeMeta.Kind != KindFileInode {
		return nil, ErrWrongKind
	}

	bumped := *inodeMeta.FileInode
	bumped.LinkCount++
	bumpOp, err := fs.apply(ids.FileInodesID, Metadata{Kind: KindFileInode, FileInode: &bumped}, targetRef.FileRef.InodeID)
	if err != nil {
		return nil, err
	}

	refOp, err := fs.apply(parent, newFileRefMeta(name, targetRef.FileRef.InodeID), fs.gen.New())
	if err != nil {
		return nil, err
	}
	return []moveop.Op{bumpOp, refOp}, nil
}

// Unlink removes the file reference named name under parent: the
// reference itself always moves to trash; the inode it pointed at has
// its link_count decremented, and is moved to trash too once that
// count reaches zero.
func (fs *Filesystem) Unlink(parent ids.NodeID, name string) ([]moveop.Op, error) {
	child, meta, found := fs.findChild(parent, name)
	if !found {
		return nil, ErrNotFound
	}
	if meta.Kind != KindFileRef {
		return nil, ErrWrongKind
	}

	trashOp, err := fs.apply(ids.TrashID, meta, child)
	if err != nil {
		return nil, err
	}
	ops := []moveop.Op{trashOp}

	inodeMeta, err := fs.metadataOf(meta.FileRef.InodeID)
	if err != nil {
		return nil, err
	}
	if inodeMeta.Kind != KindFileInode {
		return nil, ErrWrongKind
	}

	dropped := *inodeMeta.FileInode
	dropped.LinkCount--
	if dropped.LinkCount > 0 {
		op, err := fs.apply(ids.FileInodesID, Metadata{Kind: KindFileInode, FileInode: &dropped}, meta.FileRef.InodeID)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	} else {
		op, err := fs.apply(ids.TrashID, Metadata{Kind: KindFileInode, FileInode: &dropped}, meta.FileRef.InodeID)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// Rename moves the child named name under parent to newname under
// newparent. It rewrites the child's own metadata (its Name field)
// rather than creating a new node, so any hard links or lookups by ino
// remain valid.
func (fs *Filesystem) Rename(parent ids.NodeID, name string, newparent ids.NodeID, newname string) ([]moveop.Op, error) {
	child, meta, found := fs.findChild(parent, name)
	if !found {
		return nil, ErrNotFound
	}
	if _, _, exists := fs.findChild(newparent, newname); exists {
		return nil, ErrAlreadyExists
	}

	op, err := fs.apply(newparent, meta.withName(newname), child)
	if err != nil {
		return nil, err
	}
	return []moveop.Op{op}, nil
}

// Rmdir removes the empty directory named name under parent.
func (fs *Filesystem) Rmdir(parent ids.NodeID, name string) ([]moveop.Op, error) {
	child, meta, found := fs.findChild(parent, name)
	if !found {
		return nil, ErrNotFound
	}
	if meta.Kind != KindDir {
		return nil, ErrWrongKind
	}
	if len(fs.replica.State().Tree.Children(child)) > 0 {
		return nil, ErrNotEmpty
	}

	op, err := fs.apply(ids.TrashID, meta, child)
	if err != nil {
		return nil, err
	}
	return []moveop.Op{op}, nil
}

// Symlink creates a symlink named name under parent pointing at
// target.
func (fs *Filesystem) Symlink(target string, parent ids.NodeID, name string) ([]moveop.Op, error) {
	if _, _, exists := fs.findChild(parent, name); exists {
		return nil, ErrAlreadyExists
	}
	op, err := fs.apply(parent, newSymlinkMeta(name, target, fs.wall.Now()), fs.gen.New())
	if err != nil {
		return nil, err
	}
	return []moveop.Op{op}, nil
}

// Readlink returns the target of the symlink at ino.
func (fs *Filesystem) Readlink(ino ids.NodeID) (string, error) {
	meta, err := fs.metadataOf(ino)
	if err != nil {
		return "", err
	}
	if meta.Kind != KindSymlink {
		return "", ErrWrongKind
	}
	return meta.Dir.SymlinkTarget, nil
}

// DirEntry is one (name, ino) pair returned by Readdir.
type DirEntry struct {
	Name string
	Ino  ids.NodeID
}

// Readdir returns dirIno's children starting at offset, in the tree's
// stable child order. A zero-length result means offset was past the
// end.
func (fs *Filesystem) Readdir(dirIno ids.NodeID, offset int) ([]DirEntry, error) {
	if _, err := fs.metadataOf(dirIno); err != nil {
		return nil, err
	}
	children := fs.replica.State().Tree.Children(dirIno)
	if offset >= len(children) {
		return nil, nil
	}

	entries := make([]DirEntry, 0, len(children)-offset)
	for _, child := range children[offset:] {
		meta, err := fs.metadataOf(child)
		if err != nil {
			continue
		}
		entries = append(entries, DirEntry{Name: meta.name(), Ino: child})
	}
	return entries, nil
}

// Getattr returns the metadata stored for ino. For a file reference,
// size and times live on the file inode it points at, which Getattr
// does not resolve.
func (fs *Filesystem) Getattr(ino ids.NodeID) (Metadata, error) {
	return fs.metadataOf(ino)
}

// Read returns the content currently stored for the file inode ino
// points at (ino must itself be a file reference, matching the other
// by-name operations' addressing).
func (fs *Filesystem) Read(ino ids.NodeID) ([]byte, error) {
	ref, err := fs.metadataOf(ino)
	if err != nil {
		return nil, err
	}
	if ref.Kind != KindFileRef {
		return nil, ErrWrongKind
	}
	inodeMeta, err := fs.metadataOf(ref.FileRef.InodeID)
	if err != nil {
		return nil, err
	}
	if inodeMeta.Kind != KindFileInode {
		return nil, ErrWrongKind
	}
	return inodeMeta.FileInode.Content, nil
}

// Write appends data to the file inode ino points at and returns the
// op that rewrote its metadata. This is a prototype: content lives
// inside the replicated tree rather than content-addressed storage, so
// every write grows the log entry's payload by the full new content
// length, not just the delta.
func (fs *Filesystem) Write(ino ids.NodeID, data []byte) ([]moveop.Op, error) {
	ref, err := fs.metadataOf(ino)
	if err != nil {
		return nil, err
	}
	if ref.Kind != KindFileRef {
		return nil, ErrWrongKind
	}
	inodeMeta, err := fs.metadataOf(ref.FileRef.InodeID)
	if err != nil {
		return nil, err
	}
	if inodeMeta.Kind != KindFileInode {
		return nil, ErrWrongKind
	}

	now := fs.wall.Now()
	content := append(append([]byte{}, inodeMeta.FileInode.Content...), data...)
	updated := FileInodeMeta{
		Size:        uint64(len(content)),
		Ctime:       inodeMeta.FileInode.Ctime,
		Mtime:       now,
		LinkCount:   inodeMeta.FileInode.LinkCount,
		Content:     content,
		ContentHash: contentHash(content),
	}

	op, err := fs.apply(ids.FileInodesID, Metadata{Kind: KindFileInode, FileInode: &updated}, ref.FileRef.InodeID)
	if err != nil {
		return nil, err
	}
	return []moveop.Op{op}, nil
}
