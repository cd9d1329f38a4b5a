// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestMemFileReadAt(t *testing.T) {
	file := NewMemFile("icon.bin", []byte("hello world"))

	if file.Name() != "icon.bin" {
		t.Errorf("Name() = %q, want %q", file.Name(), "icon.bin")
	}
	if file.Size() != 11 {
		t.Errorf("Size() = %d, want 11", file.Size())
	}

	buf := make([]byte, 5)
	n, err := file.ReadAt(buf, 6)
	if err != nil && err != io.EOF {
		t.Fatalf("ReadAt failed: %v", err)
	}
	if n != 5 || string(buf) != "world" {
		t.Errorf("ReadAt(6) = %q (%d bytes), want %q", buf[:n], n, "world")
	}

	// Read past the end.
	if _, err := file.ReadAt(buf, 11); err != io.EOF {
		t.Errorf("ReadAt at EOF returned %v, want io.EOF", err)
	}

	// Negative offset is a caller bug.
	if _, err := file.ReadAt(buf, -1); !errors.Is(err, fs.ErrInvalid) {
		t.Errorf("ReadAt(-1) returned %v, want fs.ErrInvalid", err)
	}
}

func TestMemFileEmpty(t *testing.T) {
	file := NewMemFile("empty", nil)
	if file.Size() != 0 {
		t.Errorf("Size() = %d, want 0", file.Size())
	}
	data, err := ReadAll(file)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("ReadAll returned %d bytes, want 0", len(data))
	}
}

func TestOSFileReadAndVanish(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "program.nca")
	if err := os.WriteFile(path, []byte("container bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	file, err := OpenOSFile(path)
	if err != nil {
		t.Fatalf("OpenOSFile failed: %v", err)
	}
	if file.Name() != "program.nca" {
		t.Errorf("Name() = %q, want %q", file.Name(), "program.nca")
	}

	data, err := ReadAll(file)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(data) != "container bytes" {
		t.Errorf("ReadAll = %q, want %q", data, "container bytes")
	}

	// Deleting the backing file must surface on the next read, not
	// serve retained bytes.
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 4)
	if _, err := file.ReadAt(buf, 0); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("ReadAt after delete returned %v, want fs.ErrNotExist", err)
	}
}

func TestOpenOSFileErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := OpenOSFile(filepath.Join(dir, "missing")); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("OpenOSFile(missing) returned %v, want fs.ErrNotExist", err)
	}
	if _, err := OpenOSFile(dir); err == nil {
		t.Error("OpenOSFile on a directory should fail")
	}
}

func TestWindow(t *testing.T) {
	parent := NewMemFile("archive", []byte("0123456789"))
	window := NewWindow(parent, "entry", 2, 5)

	if window.Size() != 5 {
		t.Errorf("Size() = %d, want 5", window.Size())
	}

	data, err := ReadAll(window)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(data) != "23456" {
		t.Errorf("ReadAll = %q, want %q", data, "23456")
	}

	// Offset within the window maps to parent offset.
	buf := make([]byte, 2)
	if _, err := window.ReadAt(buf, 3); err != nil && err != io.EOF {
		t.Fatalf("ReadAt failed: %v", err)
	}
	if string(buf) != "56" {
		t.Errorf("ReadAt(3) = %q, want %q", buf, "56")
	}

	// Reads never escape the window even with a large buffer.
	large := make([]byte, 64)
	n, err := window.ReadAt(large, 1)
	if err != io.EOF {
		t.Errorf("ReadAt with oversized buffer returned %v, want io.EOF", err)
	}
	if n != 4 || string(large[:n]) != "3456" {
		t.Errorf("ReadAt(1) = %q (%d bytes), want %q", large[:n], n, "3456")
	}
}

func TestWindowClampedToParent(t *testing.T) {
	parent := NewMemFile("archive", []byte("0123456789"))

	// Declared size reaches past the parent end; the window clamps.
	window := NewWindow(parent, "tail", 8, 100)
	if window.Size() != 2 {
		t.Errorf("Size() = %d, want 2", window.Size())
	}

	// Fully out of range collapses to empty.
	empty := NewWindow(parent, "beyond", 20, 5)
	if empty.Size() != 0 {
		t.Errorf("Size() = %d, want 0", empty.Size())
	}
	if _, err := empty.ReadAt(make([]byte, 1), 0); err != io.EOF {
		t.Errorf("ReadAt on empty window returned %v, want io.EOF", err)
	}
}

func TestOSDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "b.bin"), []byte("bb"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "a.bin"), []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}

	handle, err := OpenOSDir(dir)
	if err != nil {
		t.Fatalf("OpenOSDir failed: %v", err)
	}
	if handle.Path() != dir {
		t.Errorf("Path() = %q, want %q", handle.Path(), dir)
	}

	entries, err := handle.ReadDir()
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 2 || entries[0].Name() != "a.bin" || entries[1].Name() != "b.bin" {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		t.Errorf("ReadDir = %v, want [a.bin b.bin]", names)
	}

	file, err := handle.Open("b.bin")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if file.Size() != 2 {
		t.Errorf("Size() = %d, want 2", file.Size())
	}

	if _, err := OpenOSDir(filepath.Join(dir, "a.bin")); err == nil {
		t.Error("OpenOSDir on a file should fail")
	}
	if _, err := OpenOSDir(filepath.Join(dir, "gone")); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("OpenOSDir(missing) returned %v, want fs.ErrNotExist", err)
	}
}

func TestReader(t *testing.T) {
	file := NewMemFile("stream", []byte("sequential"))
	r := Reader(file)

	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("io.ReadAll failed: %v", err)
	}
	if string(data) != "sequential" {
		t.Errorf("io.ReadAll = %q, want %q", data, "sequential")
	}
}
