// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// crdtree-mount constructs a single in-process replica, wraps it in a
// filesystem projection, and mounts it over FUSE for manual
// exploration. It does not talk to any peer: moveop.Op values applied
// through the mount never leave the process. Useful for poking at the
// move-tree CRDT with ordinary shell tools (mkdir, ln, mv) and
// watching how it behaves, not for running a real replicated
// deployment.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/dan-da/crdtree/lib/clock"
	"github.com/dan-da/crdtree/lib/config"
	"github.com/dan-da/crdtree/lib/filesystem"
	"github.com/dan-da/crdtree/lib/fsmount"
	"github.com/dan-da/crdtree/lib/ids"
	"github.com/dan-da/crdtree/lib/replica"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath string
		actorID    string
		mountpoint string
		allowOther bool
	)

	flagSet := pflag.NewFlagSet("crdtree-mount", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "bootstrap config file (defaults to $CRDTREE_CONFIG)")
	flagSet.StringVar(&actorID, "actor-id", "", "this replica's actor ID (overrides the config file)")
	flagSet.StringVar(&mountpoint, "mountpoint", "", "FUSE mount directory (overrides the config file)")
	flagSet.BoolVar(&allowOther, "allow-other", false, "allow other users to access the mount")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if actorID != "" {
		cfg.ActorID = actorID
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("validating --actor-id: %w", err)
		}
	}
	if mountpoint != "" {
		cfg.Mountpoint = mountpoint
	}
	if cfg.Mountpoint == "" {
		return fmt.Errorf("mountpoint is required (set --mountpoint or mountpoint: in the config file)")
	}

	r := replica.New(cfg.ReplicaID())
	fs := filesystem.New(r, clock.Real())
	if _, err := fs.Init(); err != nil {
		return fmt.Errorf("initializing filesystem: %w", err)
	}

	server, err := fsmount.Mount(fsmount.Options{
		Mountpoint: cfg.Mountpoint,
		FS:         fs,
		AllowOther: allowOther,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("mounting FUSE filesystem: %w", err)
	}
	defer func() {
		if err := server.Unmount(); err != nil {
			logger.Error("failed to unmount FUSE filesystem", "error", err)
		} else {
			logger.Info("FUSE filesystem unmounted", "mountpoint", cfg.Mountpoint)
		}
	}()

	logger.Info("crdtree-mount running",
		"actor_id", cfg.ActorID,
		"mountpoint", cfg.Mountpoint,
		"root_ino", ids.RootID.Ino(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	logger.Info("shutting down")

	return nil
}

// loadConfig loads from an explicit --config path if given, otherwise
// falls back to config.Load's CRDTREE_CONFIG environment lookup.
func loadConfig(path string) (*config.BootstrapConfig, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}
