// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package filesystem

import "github.com/zeebo/blake3"

// contentHash computes the unkeyed BLAKE3 digest of a file inode's
// content. Recomputed on every Write so FileInodeMeta.ContentHash
// always reflects what FileInodeMeta.Content currently holds — useful
// for a future transport layer that wants to deduplicate or verify
// content without comparing full buffers.
func contentHash(content []byte) [32]byte {
	hasher := blake3.New()
	hasher.Write(content)
	var digest [32]byte
	copy(digest[:], hasher.Sum(nil))
	return digest
}
