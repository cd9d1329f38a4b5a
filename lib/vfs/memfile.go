// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import "io"

// MemFile is a File backed by an in-memory byte slice. Used for icon
// payloads extracted from containers and throughout tests. The slice
// is not copied; callers must not mutate it after construction.
type MemFile struct {
	name string
	data []byte
}

var _ File = (*MemFile)(nil)

// NewMemFile creates an in-memory file with the given display name.
func NewMemFile(name string, data []byte) *MemFile {
	return &MemFile{name: name, data: data}
}

func (f *MemFile) Name() string {
	return f.name
}

func (f *MemFile) Size() int64 {
	return int64(len(f.data))
}

func (f *MemFile) ReadAt(p []byte, off int64) (int, error) {
	if err := checkOffset(off, f.Size()); err != nil {
		return 0, err
	}
	n := copy(p, f.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
