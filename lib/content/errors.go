// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package content

import (
	"errors"
	"fmt"

	"github.com/depot-foundation/depot/lib/container"
	"github.com/depot-foundation/depot/lib/title"
)

// Sentinel errors for content resolution. The save-data and patch
// layers reuse these rather than minting parallel taxonomies, so a
// caller can errors.Is its way through the whole resolution stack.
// IO failures are not wrapped into a sentinel of their own: the
// underlying *os.PathError chain carries more information than a
// flattened tag would.
var (
	// ErrNotFound: the provider chain has no entry for the requested
	// title id and record type, or its backing file vanished.
	ErrNotFound = errors.New("content: entry not found")

	// ErrParse: a container or control structure failed to parse.
	// Resolution degrades, it never panics on malformed input.
	ErrParse = errors.New("content: container parse failed")

	// ErrNotImplemented: the operation is specified but intentionally
	// unimplemented (save-data format info), or no plugin is
	// registered to serve it.
	ErrNotImplemented = errors.New("content: not implemented")
)

// extractError maps a parser-set extraction failure onto the
// taxonomy: a cleanly-parsed container that lacks the requested
// record is a miss, anything else is a parse failure.
func extractError(origin string, id title.ID, recordType title.ContentRecordType, err error) error {
	if errors.Is(err, container.ErrNoRecord) {
		return fmt.Errorf("content: %s: %s/%s: %w", origin, id, recordType, ErrNotFound)
	}
	return fmt.Errorf("content: %s: %s/%s: %w: %w", origin, id, recordType, ErrParse, err)
}
