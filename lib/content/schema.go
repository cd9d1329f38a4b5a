// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package content

// registeredSchema is the registered-cache index schema, applied to
// every pool connection. One row per installed content record; the
// rel_path column names the backing file relative to the cache
// directory. STRICT so a title id never silently lands as TEXT.
const registeredSchema = `
CREATE TABLE IF NOT EXISTS entries (
    title_id      INTEGER NOT NULL,
    record_type   INTEGER NOT NULL,
    title_type    INTEGER NOT NULL,
    version       INTEGER NOT NULL DEFAULT 0,
    rel_path      TEXT    NOT NULL,
    size          INTEGER NOT NULL,
    compression   INTEGER NOT NULL DEFAULT 0,
    digest        TEXT    NOT NULL,
    meta          BLOB,
    registered_at INTEGER NOT NULL,
    PRIMARY KEY (title_id, record_type)
) STRICT;

CREATE INDEX IF NOT EXISTS entries_by_type
    ON entries (title_type, record_type);
`

// entryMeta is the CBOR sidecar blob stored per index row: facts
// about the installation that do not participate in resolution but
// matter for inspection and eviction decisions.
type entryMeta struct {
	// Source is the name of the file the content was installed from.
	Source string `cbor:"source"`

	// StoredSize is the on-disk byte count after compression.
	StoredSize int64 `cbor:"stored_size"`
}
