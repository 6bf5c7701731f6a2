// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package wire is the CBOR encoding used for replica log snapshots,
// including the filesystem's tagged-union metadata carried inside
// them. Bootstrap configuration is YAML (package config), not CBOR.
//
// Encoding uses CBOR Core Deterministic Encoding (RFC 8949 §4.2): map
// keys sorted, integers in their smallest form, no indefinite-length
// items. The same logical value always produces the same bytes, so two
// snapshots of equal state encode identically. File content hashes
// (package filesystem) are computed over the raw content, not over
// these encoded bytes.
package wire
