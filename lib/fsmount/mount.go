// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fsmount

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/dan-da/crdtree/lib/filesystem"
	"github.com/dan-da/crdtree/lib/ids"
	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// Options configures the FUSE mount.
type Options struct {
	// Mountpoint is the directory where the filesystem is mounted.
	Mountpoint string

	// FS is the filesystem projection to expose. Required.
	FS *filesystem.Filesystem

	// AllowOther permits other users (including root) to access the
	// mount. Requires user_allow_other in /etc/fuse.conf.
	AllowOther bool

	// Logger receives diagnostic messages. If nil, a no-op logger is
	// used.
	Logger *slog.Logger
}

// Mount mounts the filesystem projection at the configured mountpoint.
// The caller must call Unmount on the returned Server when done. The
// mountpoint directory is created if it does not exist.
func Mount(options Options) (*fuse.Server, error) {
	if options.Mountpoint == "" {
		return nil, fmt.Errorf("mountpoint is required")
	}
	if options.FS == nil {
		return nil, fmt.Errorf("filesystem is required")
	}
	if options.Logger == nil {
		options.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelError,
		}))
	}

	if err := os.MkdirAll(options.Mountpoint, 0o755); err != nil {
		return nil, fmt.Errorf("creating mountpoint %s: %w", options.Mountpoint, err)
	}

	state := &mountState{
		fs:      options.FS,
		logger:  options.Logger,
		lookups: make(map[uint64]*lookupEntry),
	}
	root := &crdtreeNode{mount: state, id: ids.RootID}

	entryTimeout := 1 * time.Second
	attrTimeout := 1 * time.Second
	negativeTimeout := 100 * time.Millisecond

	server, err := gofuse.Mount(options.Mountpoint, root, &gofuse.Options{
		EntryTimeout:    &entryTimeout,
		AttrTimeout:     &attrTimeout,
		NegativeTimeout: &negativeTimeout,
		MountOptions: fuse.MountOptions{
			FsName:     "crdtree",
			Name:       "crdtree",
			AllowOther: options.AllowOther,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("mounting FUSE filesystem at %s: %w", options.Mountpoint, err)
	}

	options.Logger.Info("crdtree FUSE filesystem mounted", "mountpoint", options.Mountpoint)
	return server, nil
}

// mountState is shared by every crdtreeNode in one mount.
type mountState struct {
	fs     *filesystem.Filesystem
	logger *slog.Logger

	mu      sync.Mutex
	lookups map[uint64]*lookupEntry
}

// lookupEntry tracks how many outstanding kernel dentries reference a
// given ids.NodeID, keyed by its FUSE inode number. The high-level
// go-fuse tree API already deduplicates *Inode objects by
// StableAttr.Ino and drives our NodeOnForgetter when the kernel's own
// reference drops to zero; this table exists so that bookkeeping
// remains anchored to the full ids.NodeID identity rather than only
// the 64-bit ino a real kernel client is limited to.
type lookupEntry struct {
	id    ids.NodeID
	count uint64
}

func (m *mountState) retain(id ids.NodeID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.lookups[id.Ino()]
	if !ok {
		entry = &lookupEntry{id: id}
		m.lookups[id.Ino()] = entry
	}
	entry.count++
}

func (m *mountState) release(ino uint64, n uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.lookups[ino]
	if !ok {
		return
	}
	if n >= entry.count {
		delete(m.lookups, ino)
		return
	}
	entry.count -= n
}
