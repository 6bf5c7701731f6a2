// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !crdtree_debug

package tree

// checkInvariants is a no-op outside crdtree_debug builds; see
// invariants_debug.go.
func (t *Tree) checkInvariants() {}
