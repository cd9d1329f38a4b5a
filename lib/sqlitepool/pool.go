// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package sqlitepool

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// DefaultPoolSize is used when Config.PoolSize is zero. Index
// databases are small and read-mostly; a handful of connections
// covers concurrent resolution without holding dozens of file
// handles open.
const DefaultPoolSize = 4

// Config holds the parameters for opening a pool.
type Config struct {
	// Path is the database file, created if absent. The parent
	// directory must exist. ":memory:" opens an in-memory database;
	// use PoolSize 1 with it, since every in-memory connection is a
	// separate database.
	Path string

	// PoolSize is the number of connections. Zero or negative means
	// DefaultPoolSize.
	PoolSize int

	// Logger receives open/close messages. Nil means no logging.
	Logger *slog.Logger

	// OnConnect runs once per connection after the standard pragmas,
	// before the connection is handed out. Schema creation goes here:
	// running it per connection makes opening a fresh database and
	// reopening an existing one the same code path.
	OnConnect func(conn *sqlite.Conn) error
}

// Pool is a fixed-size SQLite connection pool. Depot keeps its index
// databases in WAL mode with relaxed durability: an index is derived
// from the content files on disk and can be rebuilt, so a crash costs
// at most a Refresh, not data.
//
// The pool is safe for concurrent use; individual connections are
// not. A taken connection belongs to one goroutine until Put.
type Pool struct {
	inner  *sqlitex.Pool
	logger *slog.Logger
	path   string
}

// Open opens the database and builds the pool. Connections are
// prepared lazily on first Take: standard pragmas first, then
// OnConnect.
func Open(cfg Config) (*Pool, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlitepool: Path is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	size := cfg.PoolSize
	if size <= 0 {
		size = DefaultPoolSize
	}

	inner, err := sqlitex.NewPool(cfg.Path, sqlitex.PoolOptions{
		PoolSize: size,
		PrepareConn: func(conn *sqlite.Conn) error {
			if err := applyPragmas(conn); err != nil {
				return err
			}
			if cfg.OnConnect != nil {
				if err := cfg.OnConnect(conn); err != nil {
					return fmt.Errorf("sqlitepool: OnConnect: %w", err)
				}
			}
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("sqlitepool: opening %s: %w", cfg.Path, err)
	}

	logger.Debug("index database opened", "path", cfg.Path, "pool_size", size)
	return &Pool{inner: inner, logger: logger, path: cfg.Path}, nil
}

// applyPragmas puts a fresh connection into the standard mode: WAL so
// resolution reads proceed while an install writes, synchronous=NORMAL
// because a rebuildable index does not need the last WAL sync to
// survive an OS crash, and a busy timeout to ride out another
// process's write lock.
func applyPragmas(conn *sqlite.Conn) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
			return fmt.Errorf("sqlitepool: %s: %w", pragma, err)
		}
	}
	return nil
}

// Take borrows a connection, blocking until one is free or ctx is
// done. Pair every Take with a Put:
//
//	conn, err := pool.Take(ctx)
//	if err != nil {
//		return err
//	}
//	defer pool.Put(conn)
func (p *Pool) Take(ctx context.Context) (*sqlite.Conn, error) {
	conn, err := p.inner.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("sqlitepool: take: %w", err)
	}
	return conn, nil
}

// Put returns a connection to the pool. Put(nil) is a no-op.
func (p *Pool) Put(conn *sqlite.Conn) {
	p.inner.Put(conn)
}

// Close waits for borrowed connections to come back and closes them
// all. Take fails after Close.
func (p *Pool) Close() error {
	if err := p.inner.Close(); err != nil {
		return fmt.Errorf("sqlitepool: closing %s: %w", p.path, err)
	}
	p.logger.Debug("index database closed", "path", p.path)
	return nil
}
