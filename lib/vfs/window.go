// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import "io"

// Window is a File exposing a sub-range of a parent File. Container
// format plugins return windows for the records packed inside a
// container: the window's offset zero maps to the record's first byte
// and reads never escape the declared range.
type Window struct {
	parent File
	name   string
	offset int64
	size   int64
}

var _ File = (*Window)(nil)

// NewWindow creates a sub-range view of parent starting at offset and
// spanning size bytes. A window reaching past the parent's end is
// clamped to the parent size so reads report EOF instead of straying.
func NewWindow(parent File, name string, offset, size int64) *Window {
	if offset < 0 {
		offset = 0
	}
	if max := parent.Size(); offset+size > max {
		size = max - offset
		if size < 0 {
			size = 0
		}
	}
	return &Window{parent: parent, name: name, offset: offset, size: size}
}

func (w *Window) Name() string {
	return w.name
}

func (w *Window) Size() int64 {
	return w.size
}

func (w *Window) ReadAt(p []byte, off int64) (int, error) {
	if err := checkOffset(off, w.size); err != nil {
		return 0, err
	}
	clamped := false
	if remaining := w.size - off; int64(len(p)) > remaining {
		p = p[:remaining]
		clamped = true
	}
	n, err := w.parent.ReadAt(p, w.offset+off)
	if clamped && err == nil {
		err = io.EOF
	}
	return n, err
}
