// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/depot-foundation/depot/lib/clock"
	"github.com/depot-foundation/depot/lib/codec"
	"github.com/depot-foundation/depot/lib/container"
	"github.com/depot-foundation/depot/lib/sqlitepool"
	"github.com/depot-foundation/depot/lib/title"
	"github.com/depot-foundation/depot/lib/vfs"
)

// RegisteredConfig holds the parameters for opening a registered
// cache. Dir is required; everything else has defaults.
type RegisteredConfig struct {
	// Dir is the cache directory. Content files live in per-title
	// subdirectories; the index database is Dir/index.db. Created if
	// absent.
	Dir string

	// PoolSize is the SQLite connection pool size. Zero means the
	// pool default.
	PoolSize int

	// Compression selects the at-rest compression for newly
	// installed entries. Existing entries keep whatever tag they
	// were installed with.
	Compression CompressionTag

	// Parsers is consulted by GetEntry for lazy container parsing.
	// Nil disables parsing.
	Parsers *container.ParserSet

	// Logger receives operational messages. Nil means no logging.
	Logger *slog.Logger

	// Clock supplies installation timestamps. Nil means real time.
	Clock clock.Clock
}

// RegisteredCache is the on-disk provider for installed content: one
// file per content record under per-title directories, indexed by a
// SQLite database. Entries carry a BLAKE3 digest recorded at install
// time and verified on read, and may be compressed at rest.
//
// Resolution methods run queries on a background context; the pool is
// local and reads are point lookups, so they do not take a caller
// context the way the administrative methods do.
type RegisteredCache struct {
	dir         string
	pool        *sqlitepool.Pool
	compression CompressionTag
	parsers     *container.ParserSet
	logger      *slog.Logger
	clock       clock.Clock
}

var _ Provider = (*RegisteredCache)(nil)

// OpenRegisteredCache opens (creating if needed) the cache directory
// and its index database.
func OpenRegisteredCache(cfg RegisteredConfig) (*RegisteredCache, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("content: registered cache: Dir is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("content: registered cache: creating %s: %w", cfg.Dir, err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	timeSource := cfg.Clock
	if timeSource == nil {
		timeSource = clock.Real()
	}

	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     filepath.Join(cfg.Dir, "index.db"),
		PoolSize: cfg.PoolSize,
		Logger:   logger,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, registeredSchema, nil)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("content: registered cache: %w", err)
	}

	return &RegisteredCache{
		dir:         cfg.Dir,
		pool:        pool,
		compression: cfg.Compression,
		parsers:     cfg.Parsers,
		logger:      logger,
		clock:       timeSource,
	}, nil
}

// Close closes the index database pool.
func (r *RegisteredCache) Close() error {
	return r.pool.Close()
}

// relPath returns the cache-relative backing path for an entry. The
// layout is one directory per title holding one file per record type.
func relPath(id title.ID, recordType title.ContentRecordType) string {
	return filepath.Join(id.String(), recordType.String()+".nca")
}

// Install copies a content record into the cache and indexes it.
// Installing over an existing (title, record type) pair replaces it.
// The bytes are digested uncompressed, then stored with the cache's
// compression setting; incompressible content is stored raw.
func (r *RegisteredCache) Install(ctx context.Context, file vfs.File, id title.ID, titleType title.Type, recordType title.ContentRecordType, version title.Version) error {
	data, err := vfs.ReadAll(file)
	if err != nil {
		return fmt.Errorf("content: install %s/%s: reading source: %w", id, recordType, err)
	}

	digest := HashEntry(data)
	stored, tag, err := compressEntry(data, r.compression)
	if err != nil {
		return fmt.Errorf("content: install %s/%s: %w", id, recordType, err)
	}

	entryRel := relPath(id, recordType)
	entryAbs := filepath.Join(r.dir, entryRel)
	if err := os.MkdirAll(filepath.Dir(entryAbs), 0o755); err != nil {
		return fmt.Errorf("content: install %s/%s: %w", id, recordType, err)
	}

	// Write-then-rename so a crash mid-install never leaves a
	// half-written file behind the index row.
	temp, err := os.CreateTemp(filepath.Dir(entryAbs), ".installing-*")
	if err != nil {
		return fmt.Errorf("content: install %s/%s: %w", id, recordType, err)
	}
	tempName := temp.Name()
	if _, err := temp.Write(stored); err != nil {
		temp.Close()
		os.Remove(tempName)
		return fmt.Errorf("content: install %s/%s: writing: %w", id, recordType, err)
	}
	if err := temp.Close(); err != nil {
		os.Remove(tempName)
		return fmt.Errorf("content: install %s/%s: closing: %w", id, recordType, err)
	}
	if err := os.Rename(tempName, entryAbs); err != nil {
		os.Remove(tempName)
		return fmt.Errorf("content: install %s/%s: %w", id, recordType, err)
	}

	meta, err := codec.Marshal(entryMeta{
		Source:     file.Name(),
		StoredSize: int64(len(stored)),
	})
	if err != nil {
		return fmt.Errorf("content: install %s/%s: encoding meta: %w", id, recordType, err)
	}

	conn, err := r.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("content: install %s/%s: %w", id, recordType, err)
	}
	defer r.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("content: install %s/%s: begin: %w", id, recordType, err)
	}
	defer endTransaction(&err)

	err = sqlitex.Execute(conn, `
		INSERT INTO entries
			(title_id, record_type, title_type, version, rel_path,
			 size, compression, digest, meta, registered_at)
		VALUES
			(:title_id, :record_type, :title_type, :version, :rel_path,
			 :size, :compression, :digest, :meta, :registered_at)
		ON CONFLICT (title_id, record_type) DO UPDATE SET
			title_type = excluded.title_type,
			version = excluded.version,
			rel_path = excluded.rel_path,
			size = excluded.size,
			compression = excluded.compression,
			digest = excluded.digest,
			meta = excluded.meta,
			registered_at = excluded.registered_at`,
		&sqlitex.ExecOptions{
			Named: map[string]any{
				":title_id":      int64(id),
				":record_type":   int64(recordType),
				":title_type":    int64(titleType),
				":version":       int64(version),
				":rel_path":      entryRel,
				":size":          int64(len(data)),
				":compression":   int64(tag),
				":digest":        FormatDigest(digest),
				":meta":          meta,
				":registered_at": r.clock.Now().Unix(),
			},
		})
	if err != nil {
		return fmt.Errorf("content: install %s/%s: indexing: %w", id, recordType, err)
	}

	r.logger.Info("content installed",
		"title_id", id.String(),
		"record_type", recordType.String(),
		"title_type", titleType.String(),
		"version", version.String(),
		"size", len(data),
		"stored_size", len(stored),
		"compression", tag.String(),
	)
	return nil
}

// Uninstall removes an entry's index row and backing file. A missing
// entry reports ErrNotFound.
func (r *RegisteredCache) Uninstall(ctx context.Context, id title.ID, recordType title.ContentRecordType) error {
	conn, err := r.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("content: uninstall %s/%s: %w", id, recordType, err)
	}
	defer r.pool.Put(conn)

	var entryRel string
	found := false
	err = sqlitex.Execute(conn,
		`SELECT rel_path FROM entries WHERE title_id = :title_id AND record_type = :record_type`,
		&sqlitex.ExecOptions{
			Named: map[string]any{
				":title_id":    int64(id),
				":record_type": int64(recordType),
			},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				entryRel = stmt.ColumnText(0)
				found = true
				return nil
			},
		})
	if err != nil {
		return fmt.Errorf("content: uninstall %s/%s: %w", id, recordType, err)
	}
	if !found {
		return fmt.Errorf("content: uninstall %s/%s: %w", id, recordType, ErrNotFound)
	}

	err = sqlitex.Execute(conn,
		`DELETE FROM entries WHERE title_id = :title_id AND record_type = :record_type`,
		&sqlitex.ExecOptions{
			Named: map[string]any{
				":title_id":    int64(id),
				":record_type": int64(recordType),
			},
		})
	if err != nil {
		return fmt.Errorf("content: uninstall %s/%s: %w", id, recordType, err)
	}

	if err := os.Remove(filepath.Join(r.dir, entryRel)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("content: uninstall %s/%s: removing file: %w", id, recordType, err)
	}

	r.logger.Info("content uninstalled",
		"title_id", id.String(),
		"record_type", recordType.String(),
	)
	return nil
}

// Refresh drops index rows whose backing file no longer exists,
// making the vanished-file degradation eager instead of lazy.
func (r *RegisteredCache) Refresh(ctx context.Context) error {
	conn, err := r.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("content: refresh: %w", err)
	}
	defer r.pool.Put(conn)

	type rowKey struct {
		id         int64
		recordType int64
		rel        string
	}
	var stale []rowKey
	err = sqlitex.Execute(conn, `SELECT title_id, record_type, rel_path FROM entries`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				key := rowKey{
					id:         stmt.ColumnInt64(0),
					recordType: stmt.ColumnInt64(1),
					rel:        stmt.ColumnText(2),
				}
				if _, statErr := os.Stat(filepath.Join(r.dir, key.rel)); statErr != nil {
					stale = append(stale, key)
				}
				return nil
			},
		})
	if err != nil {
		return fmt.Errorf("content: refresh: %w", err)
	}

	for _, key := range stale {
		err = sqlitex.Execute(conn,
			`DELETE FROM entries WHERE title_id = :title_id AND record_type = :record_type`,
			&sqlitex.ExecOptions{
				Named: map[string]any{
					":title_id":    key.id,
					":record_type": key.recordType,
				},
			})
		if err != nil {
			return fmt.Errorf("content: refresh: %w", err)
		}
	}

	if len(stale) > 0 {
		r.logger.Info("registered cache refreshed", "dropped", len(stale))
	}
	return nil
}

// EntryInfo describes one installed entry for inspection: the index
// row plus the decoded meta sidecar.
type EntryInfo struct {
	TitleID      title.ID
	RecordType   title.ContentRecordType
	TitleType    title.Type
	Version      title.Version
	Size         int64
	StoredSize   int64
	Compression  CompressionTag
	Digest       string
	Source       string
	RegisteredAt time.Time
}

// EntryInfo reports the index row and meta sidecar for one entry. A
// missing entry reports ErrNotFound.
func (r *RegisteredCache) EntryInfo(ctx context.Context, id title.ID, recordType title.ContentRecordType) (*EntryInfo, error) {
	conn, err := r.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("content: info %s/%s: %w", id, recordType, err)
	}
	defer r.pool.Put(conn)

	var info *EntryInfo
	var metaBlob []byte
	err = sqlitex.Execute(conn, `
		SELECT title_type, version, size, compression, digest, meta, registered_at
		FROM entries
		WHERE title_id = :title_id AND record_type = :record_type`,
		&sqlitex.ExecOptions{
			Named: map[string]any{
				":title_id":    int64(id),
				":record_type": int64(recordType),
			},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				info = &EntryInfo{
					TitleID:      id,
					RecordType:   recordType,
					TitleType:    title.Type(stmt.ColumnInt64(0)),
					Version:      title.Version(stmt.ColumnInt64(1)),
					Size:         stmt.ColumnInt64(2),
					Compression:  CompressionTag(stmt.ColumnInt64(3)),
					Digest:       stmt.ColumnText(4),
					RegisteredAt: time.Unix(stmt.ColumnInt64(6), 0),
				}
				metaBlob = make([]byte, stmt.ColumnLen(5))
				stmt.ColumnBytes(5, metaBlob)
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("content: info %s/%s: %w", id, recordType, err)
	}
	if info == nil {
		return nil, fmt.Errorf("content: info %s/%s: %w", id, recordType, ErrNotFound)
	}

	if len(metaBlob) > 0 {
		var meta entryMeta
		if err := codec.Unmarshal(metaBlob, &meta); err != nil {
			return nil, fmt.Errorf("content: info %s/%s: decoding meta: %w", id, recordType, err)
		}
		info.Source = meta.Source
		info.StoredSize = meta.StoredSize
	}
	return info, nil
}

// registeredRow is one index row, as read back for resolution.
type registeredRow struct {
	titleType   title.Type
	version     title.Version
	rel         string
	size        int64
	compression CompressionTag
	digest      string
}

func (r *RegisteredCache) row(id title.ID, recordType title.ContentRecordType) (*registeredRow, error) {
	conn, err := r.pool.Take(context.Background())
	if err != nil {
		return nil, err
	}
	defer r.pool.Put(conn)

	var row *registeredRow
	err = sqlitex.Execute(conn, `
		SELECT title_type, version, rel_path, size, compression, digest
		FROM entries
		WHERE title_id = :title_id AND record_type = :record_type`,
		&sqlitex.ExecOptions{
			Named: map[string]any{
				":title_id":    int64(id),
				":record_type": int64(recordType),
			},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				row = &registeredRow{
					titleType:   title.Type(stmt.ColumnInt64(0)),
					version:     title.Version(stmt.ColumnInt64(1)),
					rel:         stmt.ColumnText(2),
					size:        stmt.ColumnInt64(3),
					compression: CompressionTag(stmt.ColumnInt64(4)),
					digest:      stmt.ColumnText(5),
				}
				return nil
			},
		})
	if err != nil {
		return nil, err
	}
	return row, nil
}

// entryFile loads, decompresses, and digest-verifies an entry's
// bytes. The digest is checked on every resolution regardless of
// compression tag, so on-disk corruption surfaces as an error rather
// than bad bytes. Raw entries come back as a handle on the backing
// file (later reads stream from disk and observe deletion);
// compressed entries as an in-memory file.
func (r *RegisteredCache) entryFile(id title.ID, recordType title.ContentRecordType, row *registeredRow) (vfs.File, error) {
	path := filepath.Join(r.dir, row.rel)

	stored, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("content: registered: %s/%s: backing file vanished: %w", id, recordType, ErrNotFound)
		}
		return nil, fmt.Errorf("content: registered: %s/%s: %w", id, recordType, err)
	}

	data, err := decompressEntry(stored, row.compression, int(row.size))
	if err != nil {
		return nil, fmt.Errorf("content: registered: %s/%s: %w", id, recordType, err)
	}

	want, err := ParseDigest(row.digest)
	if err != nil {
		return nil, fmt.Errorf("content: registered: %s/%s: %w", id, recordType, err)
	}
	if HashEntry(data) != want {
		return nil, fmt.Errorf("content: registered: %s/%s: digest mismatch, cache is corrupt", id, recordType)
	}

	if row.compression == CompressionNone {
		file, err := vfs.OpenOSFile(path)
		if err != nil {
			return nil, fmt.Errorf("content: registered: %s/%s: %w", id, recordType, err)
		}
		return file, nil
	}
	return vfs.NewMemFile(filepath.Base(row.rel), data), nil
}

func (r *RegisteredCache) HasEntry(id title.ID, recordType title.ContentRecordType) bool {
	row, err := r.row(id, recordType)
	return err == nil && row != nil
}

func (r *RegisteredCache) GetEntry(id title.ID, recordType title.ContentRecordType) (vfs.File, error) {
	row, err := r.row(id, recordType)
	if err != nil {
		return nil, fmt.Errorf("content: registered: %s/%s: %w", id, recordType, err)
	}
	if row == nil {
		return nil, fmt.Errorf("content: registered: %s/%s: %w", id, recordType, ErrNotFound)
	}
	file, err := r.entryFile(id, recordType, row)
	if err != nil {
		return nil, err
	}
	if r.parsers == nil {
		return file, nil
	}
	resolved, err := r.parsers.Extract(file, id, recordType)
	if err != nil {
		return nil, extractError("registered", id, recordType, err)
	}
	return resolved, nil
}

func (r *RegisteredCache) GetEntryUnparsed(id title.ID, recordType title.ContentRecordType) (vfs.File, error) {
	row, err := r.row(id, recordType)
	if err != nil {
		return nil, fmt.Errorf("content: registered: %s/%s: %w", id, recordType, err)
	}
	if row == nil {
		return nil, fmt.Errorf("content: registered: %s/%s: %w", id, recordType, ErrNotFound)
	}
	return r.entryFile(id, recordType, row)
}

func (r *RegisteredCache) GetEntryVersion(id title.ID) (title.Version, bool) {
	conn, err := r.pool.Take(context.Background())
	if err != nil {
		return 0, false
	}
	defer r.pool.Put(conn)

	var version title.Version
	found := false
	err = sqlitex.Execute(conn,
		`SELECT MAX(version) FROM entries WHERE title_id = :title_id`,
		&sqlitex.ExecOptions{
			Named: map[string]any{":title_id": int64(id)},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				if stmt.ColumnType(0) != sqlite.TypeNull {
					version = title.Version(stmt.ColumnInt64(0))
					found = true
				}
				return nil
			},
		})
	if err != nil {
		return 0, false
	}
	return version, found
}

func (r *RegisteredCache) List(filter Filter) []Entry {
	conn, err := r.pool.Take(context.Background())
	if err != nil {
		return nil
	}
	defer r.pool.Put(conn)

	query := `SELECT title_id, record_type FROM entries`
	named := map[string]any{}
	var conditions []string
	if filter.TitleType != nil {
		conditions = append(conditions, "title_type = :title_type")
		named[":title_type"] = int64(*filter.TitleType)
	}
	if filter.RecordType != nil {
		conditions = append(conditions, "record_type = :record_type")
		named[":record_type"] = int64(*filter.RecordType)
	}
	for i, condition := range conditions {
		if i == 0 {
			query += " WHERE " + condition
		} else {
			query += " AND " + condition
		}
	}
	query += " ORDER BY title_id, record_type"

	var entries []Entry
	err = sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Named: named,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			entries = append(entries, Entry{
				TitleID: title.ID(stmt.ColumnInt64(0)),
				Type:    title.ContentRecordType(stmt.ColumnInt64(1)),
			})
			return nil
		},
	})
	if err != nil {
		r.logger.Error("registered cache list failed", "error", err)
		return nil
	}
	return entries
}
