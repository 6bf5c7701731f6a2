// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package replica aggregates one participant's clock, move-tree state,
// and peer bookkeeping into a single owning unit. A Replica applies
// locally generated operations, ingests operations received from
// peers, and decides when its log has grown entries that are causally
// stable enough to discard.
//
// A Replica is single-threaded: every method mutates its receiver
// synchronously, and nothing here blocks on I/O. Transport — how
// operations actually reach a peer — is explicitly out of scope; a
// Replica only knows how to apply a batch of operations it is handed.
package replica
