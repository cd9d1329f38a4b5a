// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

// Package fuse exposes resolved content as a read-only FUSE
// filesystem: one directory per title id, one file per content
// record. Reads stream through the provider, so what the mount
// serves is exactly what resolution would hand a loader, including
// lazy container extraction and update shadowing.
package fuse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"syscall"
	"time"

	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/depot-foundation/depot/lib/content"
	"github.com/depot-foundation/depot/lib/title"
	"github.com/depot-foundation/depot/lib/vfs"
)

// Options configures the content mount.
type Options struct {
	// MountPoint is the directory where the filesystem is mounted.
	// Created if absent.
	MountPoint string

	// Provider resolves the content to serve, typically the union.
	// Resolution goes through the update overlay, so program content
	// of a patched title reflects its installed update.
	Provider content.Provider

	// AllowOther permits other users to read the mount. Requires
	// user_allow_other in /etc/fuse.conf.
	AllowOther bool

	// Logger receives diagnostic messages. Nil discards.
	Logger *slog.Logger
}

// Mount mounts the content filesystem and returns the serving FUSE
// server. The caller owns unmounting; Serve wraps this with context
// lifetime handling.
func Mount(options Options) (*fuse.Server, error) {
	if options.MountPoint == "" {
		return nil, fmt.Errorf("fuse: MountPoint is required")
	}
	if options.Provider == nil {
		return nil, fmt.Errorf("fuse: Provider is required")
	}
	if options.Logger == nil {
		options.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if err := os.MkdirAll(options.MountPoint, 0o755); err != nil {
		return nil, fmt.Errorf("fuse: creating mountpoint %s: %w", options.MountPoint, err)
	}

	root := &rootNode{
		provider: content.NewUpdateOverlay(options.Provider),
		logger:   options.Logger,
	}

	entryTimeout := 1 * time.Second
	attrTimeout := 1 * time.Second
	negativeTimeout := 100 * time.Millisecond

	server, err := gofuse.Mount(options.MountPoint, root, &gofuse.Options{
		EntryTimeout:    &entryTimeout,
		AttrTimeout:     &attrTimeout,
		NegativeTimeout: &negativeTimeout,
		MountOptions: fuse.MountOptions{
			FsName:     "depot-content",
			Name:       "depot",
			AllowOther: options.AllowOther,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("fuse: mounting at %s: %w", options.MountPoint, err)
	}

	options.Logger.Info("content filesystem mounted", "mountpoint", options.MountPoint)
	return server, nil
}

// Serve mounts the content filesystem and serves until ctx is
// cancelled or the mount is externally unmounted, then cleans up.
func Serve(ctx context.Context, options Options) error {
	server, err := Mount(options)
	if err != nil {
		return err
	}

	done := make(chan struct{})
	go func() {
		server.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		if err := server.Unmount(); err != nil {
			options.Logger.Warn("unmount failed", "mountpoint", options.MountPoint, "error", err)
		}
		<-done
		return ctx.Err()
	case <-done:
		return nil
	}
}

// rootNode lists one directory per resolvable title.
type rootNode struct {
	gofuse.Inode
	provider content.Provider
	logger   *slog.Logger
}

var _ gofuse.InodeEmbedder = (*rootNode)(nil)
var _ gofuse.NodeLookuper = (*rootNode)(nil)
var _ gofuse.NodeReaddirer = (*rootNode)(nil)

func (r *rootNode) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	if len(name) != 16 {
		return nil, syscall.ENOENT
	}
	id, err := title.ParseID(name)
	if err != nil {
		return nil, syscall.ENOENT
	}
	if len(titleRecords(r.provider, id)) == 0 {
		return nil, syscall.ENOENT
	}

	child := r.NewPersistentInode(ctx, &titleNode{
		provider: r.provider,
		logger:   r.logger,
		id:       id,
	}, gofuse.StableAttr{Mode: syscall.S_IFDIR})
	out.Mode = syscall.S_IFDIR | 0o555
	return child, 0
}

func (r *rootNode) Readdir(ctx context.Context) (gofuse.DirStream, syscall.Errno) {
	var entries []fuse.DirEntry
	seen := make(map[title.ID]bool)
	for _, entry := range r.provider.List(content.Filter{}) {
		if seen[entry.TitleID] {
			continue
		}
		seen[entry.TitleID] = true
		entries = append(entries, fuse.DirEntry{
			Name: entry.TitleID.String(),
			Mode: syscall.S_IFDIR,
		})
	}
	return gofuse.NewListDirStream(entries), 0
}

// titleNode lists one file per content record of its title, named
// <record type>.bin.
type titleNode struct {
	gofuse.Inode
	provider content.Provider
	logger   *slog.Logger
	id       title.ID
}

var _ gofuse.InodeEmbedder = (*titleNode)(nil)
var _ gofuse.NodeLookuper = (*titleNode)(nil)
var _ gofuse.NodeReaddirer = (*titleNode)(nil)

func (t *titleNode) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	base := strings.TrimSuffix(name, ".bin")
	if base == name {
		return nil, syscall.ENOENT
	}
	recordType, err := title.ParseContentRecordType(base)
	if err != nil {
		return nil, syscall.ENOENT
	}

	file, err := t.provider.GetEntry(t.id, recordType)
	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			return nil, syscall.ENOENT
		}
		t.logger.Error("content resolution failed",
			"title", t.id,
			"record_type", recordType,
			"error", err,
		)
		return nil, syscall.EIO
	}

	child := t.NewPersistentInode(ctx, &entryNode{
		logger:     t.logger,
		id:         t.id,
		recordType: recordType,
		file:       file,
	}, gofuse.StableAttr{Mode: syscall.S_IFREG})
	out.Mode = syscall.S_IFREG | 0o444
	out.Size = uint64(file.Size())
	return child, 0
}

func (t *titleNode) Readdir(ctx context.Context) (gofuse.DirStream, syscall.Errno) {
	var entries []fuse.DirEntry
	for _, record := range titleRecords(t.provider, t.id) {
		entries = append(entries, fuse.DirEntry{
			Name: record.Type.String() + ".bin",
			Mode: syscall.S_IFREG,
		})
	}
	return gofuse.NewListDirStream(entries), 0
}

// entryNode serves one resolved content record.
type entryNode struct {
	gofuse.Inode
	logger     *slog.Logger
	id         title.ID
	recordType title.ContentRecordType
	file       vfs.File
}

var _ gofuse.InodeEmbedder = (*entryNode)(nil)
var _ gofuse.NodeGetattrer = (*entryNode)(nil)
var _ gofuse.NodeOpener = (*entryNode)(nil)
var _ gofuse.NodeReader = (*entryNode)(nil)

func (e *entryNode) Getattr(ctx context.Context, f gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = syscall.S_IFREG | 0o444
	out.Size = uint64(e.file.Size())
	out.Blocks = (out.Size + 511) / 512
	return 0
}

func (e *entryNode) Open(ctx context.Context, flags uint32) (gofuse.FileHandle, uint32, syscall.Errno) {
	if flags&(syscall.O_WRONLY|syscall.O_RDWR) != 0 {
		return nil, 0, syscall.EROFS
	}
	// Resolved content is immutable while mounted; the kernel page
	// cache stays valid.
	return nil, fuse.FOPEN_KEEP_CACHE, 0
}

func (e *entryNode) Read(ctx context.Context, f gofuse.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	n, err := e.file.ReadAt(dest, off)
	if err != nil && !errors.Is(err, io.EOF) {
		e.logger.Error("content read failed",
			"title", e.id,
			"record_type", e.recordType,
			"offset", off,
			"error", err,
		)
		return nil, syscall.EIO
	}
	return fuse.ReadResultData(dest[:n]), 0
}

// titleRecords returns the provider entries belonging to one title.
func titleRecords(provider content.Provider, id title.ID) []content.Entry {
	var records []content.Entry
	for _, entry := range provider.List(content.Filter{}) {
		if entry.TitleID == id {
			records = append(records, entry)
		}
	}
	return records
}
