// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fsmount

import (
	"context"
	"errors"
	"syscall"
	"time"

	"github.com/dan-da/crdtree/lib/filesystem"
	"github.com/dan-da/crdtree/lib/ids"
	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// crdtreeNode is one FUSE inode, backed by a single move-tree node
// identified by id. Every method translates the kernel request into a
// filesystem package call and back.
type crdtreeNode struct {
	gofuse.Inode
	mount *mountState
	id    ids.NodeID
}

var (
	_ gofuse.InodeEmbedder = (*crdtreeNode)(nil)
	_ gofuse.NodeLookuper  = (*crdtreeNode)(nil)
	_ gofuse.NodeReaddirer = (*crdtreeNode)(nil)
	_ gofuse.NodeGetattrer = (*crdtreeNode)(nil)
	_ gofuse.NodeMkdirer   = (*crdtreeNode)(nil)
	_ gofuse.NodeMknoder   = (*crdtreeNode)(nil)
	_ gofuse.NodeUnlinker  = (*crdtreeNode)(nil)
	_ gofuse.NodeRmdirer   = (*crdtreeNode)(nil)
	_ gofuse.NodeRenamer   = (*crdtreeNode)(nil)
	_ gofuse.NodeSymlinker = (*crdtreeNode)(nil)
	_ gofuse.NodeReadlinker = (*crdtreeNode)(nil)
	_ gofuse.NodeLinker    = (*crdtreeNode)(nil)
	_ gofuse.NodeOpener    = (*crdtreeNode)(nil)
	_ gofuse.NodeReader    = (*crdtreeNode)(nil)
	_ gofuse.NodeWriter    = (*crdtreeNode)(nil)
	_ gofuse.NodeOnForgetter = (*crdtreeNode)(nil)
)

// child builds (or, via go-fuse's own Ino-keyed dedupe, reuses) the
// *gofuse.Inode for id and records it in the mount's lookup table.
func (n *crdtreeNode) child(ctx context.Context, id ids.NodeID, meta filesystem.Metadata, out *fuse.EntryOut) *gofuse.Inode {
	mode := fuseMode(meta)
	n.fillEntry(out, id, meta)
	n.mount.retain(id)
	return n.NewInode(ctx, &crdtreeNode{mount: n.mount, id: id}, gofuse.StableAttr{
		Mode: mode,
		Ino:  id.Ino(),
	})
}

func (n *crdtreeNode) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	child, ok := n.mount.fs.LookupChild(n.id, name)
	if !ok {
		return nil, syscall.ENOENT
	}
	meta, err := n.mount.fs.Getattr(child)
	if err != nil {
		return nil, syscall.ENOENT
	}
	return n.child(ctx, child, meta, out), 0
}

// fileSizeAndTimes resolves the size/ctime/mtime/nlink a KindFileRef
// node reports at the FUSE layer from the shared inode it points at,
// since FileRefMeta itself carries no content bookkeeping.
func (n *crdtreeNode) fileSizeAndTimes(ref *filesystem.FileRefMeta) (size uint64, ctime, mtime time.Time, nlink uint32) {
	inodeMeta, err := n.mount.fs.Getattr(ref.InodeID)
	if err != nil || inodeMeta.FileInode == nil {
		return 0, time.Time{}, time.Time{}, 1
	}
	return inodeMeta.FileInode.Size, inodeMeta.FileInode.Ctime, inodeMeta.FileInode.Mtime, inodeMeta.FileInode.LinkCount
}

func (n *crdtreeNode) Readdir(ctx context.Context) (gofuse.DirStream, syscall.Errno) {
	entries, err := n.mount.fs.Readdir(n.id, 0)
	if err != nil {
		return nil, toErrno(err)
	}

	out := make([]fuse.DirEntry, 0, len(entries))
	for _, e := range entries {
		meta, err := n.mount.fs.Getattr(e.Ino)
		if err != nil {
			continue
		}
		out = append(out, fuse.DirEntry{Name: e.Name, Ino: e.Ino.Ino(), Mode: fuseMode(meta)})
	}
	return &sliceDirStream{entries: out}, 0
}

func (n *crdtreeNode) Getattr(ctx context.Context, f gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	meta, err := n.mount.fs.Getattr(n.id)
	if err != nil {
		return toErrno(err)
	}
	n.fillAttr(&out.Attr, n.id, meta)
	return 0
}

func (n *crdtreeNode) Mkdir(ctx context.Context, name string, mode uint32, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	ops, err := n.mount.fs.Mkdir(n.id, name)
	if err != nil {
		return nil, toErrno(err)
	}
	childID := ops[len(ops)-1].Child
	meta, err := n.mount.fs.Getattr(childID)
	if err != nil {
		return nil, toErrno(err)
	}
	return n.child(ctx, childID, meta, out), 0
}

func (n *crdtreeNode) Mknod(ctx context.Context, name string, mode uint32, dev uint32, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	ops, err := n.mount.fs.Mknod(n.id, name)
	if err != nil {
		return nil, toErrno(err)
	}
	childID := ops[len(ops)-1].Child
	meta, err := n.mount.fs.Getattr(childID)
	if err != nil {
		return nil, toErrno(err)
	}
	return n.child(ctx, childID, meta, out), 0
}

func (n *crdtreeNode) Unlink(ctx context.Context, name string) syscall.Errno {
	_, err := n.mount.fs.Unlink(n.id, name)
	return toErrno(err)
}

func (n *crdtreeNode) Rmdir(ctx context.Context, name string) syscall.Errno {
	_, err := n.mount.fs.Rmdir(n.id, name)
	return toErrno(err)
}

func (n *crdtreeNode) Rename(ctx context.Context, name string, newParent gofuse.InodeEmbedder, newName string, flags uint32) syscall.Errno {
	target, ok := newParent.(*crdtreeNode)
	if !ok {
		return syscall.EXDEV
	}
	_, err := n.mount.fs.Rename(n.id, name, target.id, newName)
	return toErrno(err)
}

func (n *crdtreeNode) Symlink(ctx context.Context, target, name string, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	ops, err := n.mount.fs.Symlink(target, n.id, name)
	if err != nil {
		return nil, toErrno(err)
	}
	childID := ops[len(ops)-1].Child
	meta, err := n.mount.fs.Getattr(childID)
	if err != nil {
		return nil, toErrno(err)
	}
	return n.child(ctx, childID, meta, out), 0
}

func (n *crdtreeNode) Readlink(ctx context.Context) ([]byte, syscall.Errno) {
	target, err := n.mount.fs.Readlink(n.id)
	if err != nil {
		return nil, toErrno(err)
	}
	return []byte(target), 0
}

func (n *crdtreeNode) Link(ctx context.Context, target gofuse.InodeEmbedder, name string, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	targetNode, ok := target.(*crdtreeNode)
	if !ok {
		return nil, syscall.EXDEV
	}
	ops, err := n.mount.fs.Link(targetNode.id, n.id, name)
	if err != nil {
		return nil, toErrno(err)
	}
	childID := ops[len(ops)-1].Child
	meta, err := n.mount.fs.Getattr(childID)
	if err != nil {
		return nil, toErrno(err)
	}
	return n.child(ctx, childID, meta, out), 0
}

// Open never needs a distinct handle: Read and Write both operate on
// n.id directly. A handle only carries state for buffered writes,
// which the move-tree projection does not need — Write already
// commits synchronously.
func (n *crdtreeNode) Open(ctx context.Context, flags uint32) (gofuse.FileHandle, uint32, syscall.Errno) {
	return nil, fuse.FOPEN_DIRECT_IO, 0
}

func (n *crdtreeNode) Read(ctx context.Context, f gofuse.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	content, err := n.mount.fs.Read(n.id)
	if err != nil {
		return nil, toErrno(err)
	}
	if off >= int64(len(content)) {
		return fuse.ReadResultData(nil), 0
	}
	end := off + int64(len(dest))
	if end > int64(len(content)) {
		end = int64(len(content))
	}
	return fuse.ReadResultData(content[off:end]), 0
}

// Write appends data to the file; the move-tree projection's content
// model has no notion of writing at an arbitrary offset, so off is
// accepted but ignored.
func (n *crdtreeNode) Write(ctx context.Context, f gofuse.FileHandle, data []byte, off int64) (uint32, syscall.Errno) {
	if _, err := n.mount.fs.Write(n.id, data); err != nil {
		return 0, toErrno(err)
	}
	return uint32(len(data)), 0
}

// OnForget drops this node's share of the mount's lookup-count table.
// go-fuse calls this once its own internal reference count for the
// underlying *Inode reaches zero.
func (n *crdtreeNode) OnForget() {
	n.mount.release(n.id.Ino(), 1)
}

func toErrno(err error) syscall.Errno {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, filesystem.ErrAlreadyExists):
		return syscall.EEXIST
	case errors.Is(err, filesystem.ErrNotEmpty):
		return syscall.ENOTEMPTY
	case errors.Is(err, filesystem.ErrWrongKind):
		return syscall.EINVAL
	case errors.Is(err, filesystem.ErrNotFound):
		return syscall.ENOENT
	default:
		return syscall.EIO
	}
}

func fuseMode(meta filesystem.Metadata) uint32 {
	switch meta.Kind {
	case filesystem.KindDir:
		return syscall.S_IFDIR | 0o755
	case filesystem.KindSymlink:
		return syscall.S_IFLNK | 0o777
	case filesystem.KindFileRef, filesystem.KindFileInode:
		return syscall.S_IFREG | 0o644
	default:
		return syscall.S_IFDIR | 0o755
	}
}

func (n *crdtreeNode) fillEntry(out *fuse.EntryOut, id ids.NodeID, meta filesystem.Metadata) {
	out.Ino = id.Ino()
	out.Mode = fuseMode(meta)
	n.fillAttr(&out.Attr, id, meta)
}

func (n *crdtreeNode) fillAttr(attr *fuse.Attr, id ids.NodeID, meta filesystem.Metadata) {
	attr.Ino = id.Ino()
	attr.Mode = fuseMode(meta)
	attr.Nlink = 1

	var ctime, mtime time.Time
	switch meta.Kind {
	case filesystem.KindDir, filesystem.KindSymlink:
		if meta.Dir != nil {
			attr.Size = meta.Dir.Size
			ctime, mtime = meta.Dir.Ctime, meta.Dir.Mtime
		}
	case filesystem.KindFileInode:
		if meta.FileInode != nil {
			attr.Size = meta.FileInode.Size
			ctime, mtime = meta.FileInode.Ctime, meta.FileInode.Mtime
			attr.Nlink = meta.FileInode.LinkCount
		}
	case filesystem.KindFileRef:
		if meta.FileRef != nil {
			size, c, m, nlink := n.fileSizeAndTimes(meta.FileRef)
			attr.Size, ctime, mtime, attr.Nlink = size, c, m, nlink
		}
	}
	attr.SetTimes(&ctime, &mtime, nil)
}

// sliceDirStream implements gofuse.DirStream over a slice of entries
// computed up front, since Readdir already has the full child list in
// hand and gains nothing from streaming it lazily.
type sliceDirStream struct {
	entries []fuse.DirEntry
	index   int
}

func (s *sliceDirStream) HasNext() bool {
	return s.index < len(s.entries)
}

func (s *sliceDirStream) Next() (fuse.DirEntry, syscall.Errno) {
	if s.index >= len(s.entries) {
		return fuse.DirEntry{}, syscall.EINVAL
	}
	entry := s.entries[s.index]
	s.index++
	return entry, 0
}

func (s *sliceDirStream) Close() {}
