// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

// Package vfs provides the read-only virtual file abstraction the
// content-resolution layer hands around: offset-addressed file handles
// that may be backed by a host file, an in-memory buffer, or a
// sub-range of another handle (a record inside a container file).
//
// Handles are immutable and safe for concurrent reads. A handle may
// outlive the physical file it names; reads after the backing file
// vanished surface the backend error rather than stale data.
package vfs

import (
	"fmt"
	"io"
	"io/fs"
)

// File is a read-only, offset-addressed file handle.
type File interface {
	io.ReaderAt

	// Name returns the base name of the file (no directory).
	Name() string

	// Size returns the file size in bytes as known at handle
	// creation time.
	Size() int64
}

// Dir is a read-only directory handle, the backend returned by
// save-data resolution.
type Dir interface {
	// Path returns the host path of the directory.
	Path() string

	// Open opens a file directly inside the directory by name.
	Open(name string) (File, error)

	// ReadDir lists the directory entries in name order.
	ReadDir() ([]fs.DirEntry, error)
}

// ReadAll reads the complete contents of a file.
func ReadAll(file File) ([]byte, error) {
	size := file.Size()
	if size == 0 {
		return nil, nil
	}
	data := make([]byte, size)
	read, err := file.ReadAt(data, 0)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("vfs: reading %s: %w", file.Name(), err)
	}
	return data[:read], nil
}

// Reader returns a positioned reader over the whole file for callers
// that want io.Reader/io.Seeker semantics.
func Reader(file File) *io.SectionReader {
	return io.NewSectionReader(file, 0, file.Size())
}

// checkOffset validates a ReadAt offset. Negative offsets are a caller
// bug; offsets at or past the size signal end of file.
func checkOffset(offset, size int64) error {
	if offset < 0 {
		return fs.ErrInvalid
	}
	if offset >= size {
		return io.EOF
	}
	return nil
}
