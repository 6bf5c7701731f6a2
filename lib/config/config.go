// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dan-da/crdtree/lib/ids"
)

// BootstrapConfig is the configuration needed to construct a replica
// without hand-writing Go literals: its own actor ID and the set of
// peer actor IDs it should expect to hear from.
//
// KnownPeers determines when CausallyStableThreshold can return a
// defined value: truncation only ever proceeds once every known peer
// has reported at least one timestamp.
type BootstrapConfig struct {
	// ActorID is this replica's own identity.
	ActorID string `yaml:"actor_id"`

	// KnownPeers lists every other replica this one will eventually
	// receive log entries from.
	KnownPeers []string `yaml:"known_peers"`

	// Mountpoint is where the optional FUSE adapter (package fsmount)
	// should mount the filesystem projection. Empty if the config is
	// only used to construct a replica without mounting it.
	Mountpoint string `yaml:"mountpoint,omitempty"`
}

// Load loads configuration from the CRDTREE_CONFIG environment
// variable. There are no fallbacks: if the variable is unset, this
// fails.
func Load() (*BootstrapConfig, error) {
	path := os.Getenv("CRDTREE_CONFIG")
	if path == "" {
		return nil, fmt.Errorf("CRDTREE_CONFIG environment variable not set; " +
			"set it to the path of a bootstrap config file, or use --config")
	}
	return LoadFile(path)
}

// LoadFile loads configuration from a specific file path.
func LoadFile(path string) (*BootstrapConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg BootstrapConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config %s: %w", path, err)
	}

	return &cfg, nil
}

// Validate checks the configuration for obvious errors.
func (c *BootstrapConfig) Validate() error {
	if c.ActorID == "" {
		return fmt.Errorf("actor_id is required")
	}
	if _, err := ids.ParseReplicaID(c.ActorID); err != nil {
		return fmt.Errorf("actor_id: %w", err)
	}
	for _, peer := range c.KnownPeers {
		if _, err := ids.ParseReplicaID(peer); err != nil {
			return fmt.Errorf("known_peers: %w", err)
		}
		if peer == c.ActorID {
			return fmt.Errorf("known_peers must not include actor_id %q", c.ActorID)
		}
	}
	return nil
}

// ReplicaID returns the configured actor ID as a validated
// ids.ReplicaID. Validate must have already succeeded (Load and
// LoadFile both call it).
func (c *BootstrapConfig) ReplicaID() ids.ReplicaID {
	id, _ := ids.ParseReplicaID(c.ActorID)
	return id
}

// PeerIDs returns the configured known peers as validated
// ids.ReplicaID values.
func (c *BootstrapConfig) PeerIDs() []ids.ReplicaID {
	peers := make([]ids.ReplicaID, 0, len(c.KnownPeers))
	for _, raw := range c.KnownPeers {
		id, _ := ids.ParseReplicaID(raw)
		peers = append(peers, id)
	}
	return peers
}
