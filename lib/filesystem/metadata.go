// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package filesystem

import (
	"time"

	"github.com/dan-da/crdtree/lib/ids"
	"github.com/dan-da/crdtree/lib/wire"
)

// Kind discriminates Metadata's closed set of variants. The zero value,
// KindNone, carries no payload at all — it is the metadata of the three
// forest roots Init creates. Trash moves keep the node's existing
// metadata, since deletion does not rewrite what a node used to mean,
// only where it lives.
type Kind uint8

const (
	KindNone Kind = iota
	KindDir
	KindSymlink
	KindFileRef
	KindFileInode
)

// String renders a human-readable Kind name, for slog attributes and
// error messages.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindDir:
		return "dir"
	case KindSymlink:
		return "symlink"
	case KindFileRef:
		return "file_ref"
	case KindFileInode:
		return "file_inode"
	default:
		return "unknown"
	}
}

// Metadata is the closed tagged union carried by every tree node:
// directory/symlink inode, file reference, or file inode — exactly one
// of Dir, FileRef, FileInode is non-nil, selected by Kind, or none of
// them are (KindNone). This is a deliberate departure from the
// dynamically-typed record the algorithm's literature describes:
// enumerating the variants up front means a missing case is a compile
// error, not a runtime surprise.
type Metadata struct {
	Kind      Kind           `cbor:"kind"`
	Dir       *DirMeta       `cbor:"dir,omitempty"`
	FileRef   *FileRefMeta   `cbor:"file_ref,omitempty"`
	FileInode *FileInodeMeta `cbor:"file_inode,omitempty"`
}

// DirMeta is a directory or symlink inode: the two share every field
// except SymlinkTarget, which only a symlink populates. Lives directly
// under the root.
type DirMeta struct {
	Name          string    `cbor:"name"`
	Size          uint64    `cbor:"size"`
	Ctime         time.Time `cbor:"ctime"`
	Mtime         time.Time `cbor:"mtime"`
	SymlinkTarget string    `cbor:"symlink_target,omitempty"`
}

// FileRefMeta is a leaf under root pointing at a file inode living
// under fileinodes. Multiple FileRefMeta nodes sharing one InodeID
// realize a hard link.
type FileRefMeta struct {
	Name    string     `cbor:"name"`
	InodeID ids.NodeID `cbor:"inode_id"`
}

// FileInodeMeta is the actual file content and bookkeeping, living
// under fileinodes and addressed only by FileRefMeta.InodeID, never by
// a name of its own.
type FileInodeMeta struct {
	Size        uint64    `cbor:"size"`
	Ctime       time.Time `cbor:"ctime"`
	Mtime       time.Time `cbor:"mtime"`
	LinkCount   uint32    `cbor:"link_count"`
	Content     []byte    `cbor:"content"`
	ContentHash [32]byte  `cbor:"content_hash"`
}

// newDirMeta returns dir inode metadata for a freshly created
// directory.
func newDirMeta(name string, now time.Time) Metadata {
	return Metadata{Kind: KindDir, Dir: &DirMeta{Name: name, Ctime: now, Mtime: now}}
}

// newSymlinkMeta returns symlink inode metadata pointing at target.
func newSymlinkMeta(name, target string, now time.Time) Metadata {
	return Metadata{Kind: KindSymlink, Dir: &DirMeta{
		Name: name, Size: uint64(len(target)), Ctime: now, Mtime: now, SymlinkTarget: target,
	}}
}

// newFileRefMeta returns a file reference naming inode under parent.
func newFileRefMeta(name string, inode ids.NodeID) Metadata {
	return Metadata{Kind: KindFileRef, FileRef: &FileRefMeta{Name: name, InodeID: inode}}
}

// newFileInodeMeta returns a fresh, empty file inode with link_count 1.
func newFileInodeMeta(now time.Time) Metadata {
	return Metadata{Kind: KindFileInode, FileInode: &FileInodeMeta{
		Ctime: now, Mtime: now, LinkCount: 1, ContentHash: contentHash(nil),
	}}
}

// withName returns a copy of m with its Name field updated. Valid only
// for KindDir, KindSymlink, and KindFileRef — the three variants that
// carry a name at all. Used by Rename, which must attach the new name
// to the same node's metadata rather than create a new node.
func (m Metadata) withName(name string) Metadata {
	switch m.Kind {
	case KindDir, KindSymlink:
		dir := *m.Dir
		dir.Name = name
		m.Dir = &dir
	case KindFileRef:
		ref := *m.FileRef
		ref.Name = name
		m.FileRef = &ref
	}
	return m
}

// name returns the node's display name, or "" for variants that do not
// carry one (file inodes, which are addressed only by reference, and
// KindNone, which only the forest roots carry).
func (m Metadata) name() string {
	switch m.Kind {
	case KindDir, KindSymlink:
		if m.Dir != nil {
			return m.Dir.Name
		}
	case KindFileRef:
		if m.FileRef != nil {
			return m.FileRef.Name
		}
	}
	return ""
}

// decodeMetadata converts raw — whatever wire's metadata-agnostic CBOR
// decoder produced for a moveop log entry, typically a
// map[string]any — back into a concrete Metadata value. Installed as
// a replica.Replica's MetadataDecoder by New, so that
// replica.LoadSnapshot restores this package's tagged union correctly
// instead of leaving it as an untyped map. Re-encoding raw and
// decoding the result into Metadata works because cbor's struct
// decoder matches map keys against the same `cbor:"..."` tags used to
// produce them in the first place.
func decodeMetadata(raw any) (any, error) {
	if raw == nil {
		return Metadata{}, nil
	}
	if meta, ok := raw.(Metadata); ok {
		return meta, nil
	}

	var meta Metadata
	if err := wire.Recode(raw, &meta); err != nil {
		return nil, err
	}
	return meta, nil
}
