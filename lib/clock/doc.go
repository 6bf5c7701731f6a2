// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable wall-clock abstraction for
// testability.
//
// This is strictly a source of ctime/mtime-style timestamps for the
// filesystem projection's metadata fields. It has no bearing on
// convergence: ordering between replicas is decided entirely by the
// Lamport timestamps in package logical, never by wall-clock time.
//
// Production code accepts a Clock interface parameter instead of calling
// time.Now directly. In production, Real() provides the standard library
// behavior. In tests, Fake() provides a deterministic clock that
// advances only when Advance is called.
//
// # Wiring Pattern
//
// Add a Clock field to structs that stamp ctime/mtime:
//
//	type Filesystem struct {
//	    clock clock.Clock
//	    // ...
//	}
//
// In production:
//
//	fs := &Filesystem{clock: clock.Real()}
//
// In tests:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	fs := &Filesystem{clock: c}
//	// assertions can now expect exact ctime/mtime values
package clock
