// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool opens SQLite databases the way depot uses them:
// a small fixed pool of connections with WAL journaling and relaxed
// durability. The registered content cache keeps its index here; the
// files on disk stay the source of truth, and the index can always be
// rebuilt from them.
//
// [Pool.Take] lends a connection to the caller until [Pool.Put]
// returns it. Connections are not safe for concurrent use; the pool
// is.
//
// Every connection gets the same pragmas on first use:
//
//   - journal_mode=WAL: readers and the single writer never block
//     each other, so entry resolution stays responsive during an
//     install.
//   - synchronous=NORMAL: commits survive a process crash. An OS
//     crash can lose the tail of the WAL, which for an index means
//     re-running Refresh, not losing content.
//   - busy_timeout=5000: wait up to five seconds on another holder of
//     the write lock instead of failing with SQLITE_BUSY.
//   - temp_store=MEMORY: sort and temp structures in memory.
//
// The package deliberately stays thin over zombiezen.com/go/sqlite:
// callers write SQL against *sqlite.Conn with sqlitex.Execute and
// manage transactions with sqlitex.ImmediateTransaction. There is no
// query builder and no ORM layer.
package sqlitepool
