// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package content

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// Digest is a 32-byte BLAKE3 keyed digest of an entry's uncompressed
// content bytes. The registered cache records it at install time and
// verifies it on every resolved read, so silent corruption of the
// on-disk store surfaces as an error instead of bad bytes.
type Digest [32]byte

// entryDomainKey separates content-entry digests from any other
// BLAKE3 use. The bytes are the ASCII domain name zero-padded to the
// 32 bytes keyed mode requires; readable keys show up legibly in hex
// dumps without weakening anything.
var entryDomainKey = [32]byte{
	'd', 'e', 'p', 'o', 't', '.', 'c', 'o', 'n', 't', 'e', 'n', 't', '.',
	'e', 'n', 't', 'r', 'y', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// HashEntry computes the entry-domain digest of uncompressed content
// bytes. Digests are always over uncompressed bytes so they stay
// valid across compression setting changes.
func HashEntry(data []byte) Digest {
	hasher, err := blake3.NewKeyed(entryDomainKey[:])
	if err != nil {
		// NewKeyed fails only on wrong key length, which the fixed
		// array size rules out.
		panic("content: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(data)

	var digest Digest
	copy(digest[:], hasher.Sum(nil))
	return digest
}

// FormatDigest returns the 64-character hex form stored in the index.
func FormatDigest(digest Digest) string {
	return hex.EncodeToString(digest[:])
}

// ParseDigest parses the hex form back into a Digest.
func ParseDigest(hexString string) (Digest, error) {
	var digest Digest
	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		return digest, fmt.Errorf("content: parsing digest: %w", err)
	}
	if len(decoded) != 32 {
		return digest, fmt.Errorf("content: digest is %d bytes, want 32", len(decoded))
	}
	copy(digest[:], decoded)
	return digest, nil
}
