// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads replica bootstrap configuration.
//
// Configuration is loaded from a single file specified by:
//   - the CRDTREE_CONFIG environment variable, or
//   - an explicit path passed to LoadFile
//
// There is no fallback discovery. A replica's actor ID and known-peer
// set are the only things that must be known before construction; both
// come from this one file.
package config
