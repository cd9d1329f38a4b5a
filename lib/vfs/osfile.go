// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

var errIsDirectory = errors.New("is a directory")

// OSFile is a File backed by a host filesystem path. The path is opened
// per read rather than held open, so a file deleted after the handle
// was created reports the deletion on the next read instead of serving
// bytes from a retained descriptor.
type OSFile struct {
	path string
	size int64
}

var _ File = (*OSFile)(nil)

// OpenOSFile creates a handle for the file at path. The file must exist
// and be a regular file; its size is captured here.
func OpenOSFile(path string) (*OSFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("vfs: stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("vfs: %s: %w", path, errIsDirectory)
	}
	return &OSFile{path: path, size: info.Size()}, nil
}

func (f *OSFile) Name() string {
	return filepath.Base(f.path)
}

// Path returns the full host path backing the handle.
func (f *OSFile) Path() string {
	return f.path
}

func (f *OSFile) Size() int64 {
	return f.size
}

func (f *OSFile) ReadAt(p []byte, off int64) (int, error) {
	if err := checkOffset(off, f.size); err != nil {
		return 0, err
	}
	handle, err := os.Open(f.path)
	if err != nil {
		return 0, err
	}
	defer handle.Close()
	return handle.ReadAt(p, off)
}

// OSDir is a Dir backed by a host directory.
type OSDir struct {
	path string
}

var _ Dir = (*OSDir)(nil)

// OpenOSDir creates a handle for the directory at path. The path must
// exist and be a directory.
func OpenOSDir(path string) (*OSDir, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("vfs: stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("vfs: %s: %w", path, fs.ErrInvalid)
	}
	return &OSDir{path: path}, nil
}

func (d *OSDir) Path() string {
	return d.path
}

func (d *OSDir) Open(name string) (File, error) {
	return OpenOSFile(filepath.Join(d.path, name))
}

func (d *OSDir) ReadDir() ([]fs.DirEntry, error) {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return nil, fmt.Errorf("vfs: reading directory %s: %w", d.path, err)
	}
	return entries, nil
}
