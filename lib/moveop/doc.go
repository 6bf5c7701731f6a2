// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package moveop implements the move-operation CRDT at the heart of
// the replicated move-tree: Kleppmann et al.'s "A highly-available move
// operation for replicated trees and distributed filesystems."
//
// DoOp applies one operation, guarding against the single failure mode
// the algorithm defines (an operation that would create a cycle or
// move a node onto itself is silently skipped, never erred). UndoOp and
// RedoOp invert and reapply a previously-applied operation. ApplyOp is
// the convergence core: given a log of previously applied operations in
// strictly-descending-timestamp order, it undoes every entry newer than
// the incoming operation, applies the incoming operation, then redoes
// the undone entries — all purely as a function of timestamp order, so
// that two replicas that saw the same set of operations in different
// arrival orders end up with identical trees and logs.
//
// Like package tree, this package performs no synchronization of its
// own; a State is owned exclusively by one replica.
package moveop
