// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

// Package savedata derives and manages per-title, per-user save
// directories under a configured save root. Path derivation is a pure
// function of its inputs; nothing here reads ambient process state.
package savedata

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/depot-foundation/depot/lib/content"
	"github.com/depot-foundation/depot/lib/title"
	"github.com/depot-foundation/depot/lib/vfs"
)

// PathSpec identifies one save space: a title and a user index. Both
// are explicit parameters so the same factory serves any number of
// titles and profiles.
type PathSpec struct {
	TitleID   title.ID
	UserIndex uint32
}

// FormatInfo describes a formatted save space. Reserved: the console
// keeps journal and commit metadata here, which this layer does not
// model yet, so GetFormatInfo reports content.ErrNotImplemented.
type FormatInfo struct{}

// Factory derives save paths under a root and opens or creates the
// backing directories.
type Factory struct {
	root string
}

// NewFactory creates a factory rooted at the given directory. The
// root does not need to exist yet; Format creates what it needs.
func NewFactory(root string) *Factory {
	return &Factory{root: root}
}

// Path returns the save directory for a spec:
//
//	<root>/save/<title id as 16 upper hex>/<user index as 8 upper hex>/
//
// The result always uses forward slashes and ends with a separator,
// matching the layout consoles write to their data partition.
func (f *Factory) Path(spec PathSpec) string {
	root := strings.TrimSuffix(f.root, "/")
	return fmt.Sprintf("%s/save/%016X/%08X/", root, uint64(spec.TitleID), spec.UserIndex)
}

// Open returns the backend for an existing save space. A space that
// was never formatted reports content.ErrNotFound (which also
// satisfies errors.Is(err, fs.ErrNotExist)).
func (f *Factory) Open(spec PathSpec) (vfs.Dir, error) {
	dir := f.Path(spec)
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("savedata: %s user %08X: %w: %w", spec.TitleID, spec.UserIndex, content.ErrNotFound, err)
		}
		return nil, fmt.Errorf("savedata: opening %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("savedata: %s exists but is not a directory", dir)
	}
	return vfs.OpenOSDir(dir)
}

// Format creates the save space if needed and returns its backend.
// Formatting an existing space is a no-op: save data is never wiped
// by re-formatting, only by explicit deletion.
func (f *Factory) Format(spec PathSpec) (vfs.Dir, error) {
	dir := f.Path(spec)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("savedata: formatting %s: %w", dir, err)
	}
	return vfs.OpenOSDir(dir)
}

// GetFormatInfo reports the format metadata of a save space. The
// journal/commit metadata is not modeled, so this returns
// content.ErrNotImplemented; callers get a typed error instead of a
// placeholder value they might mistake for data.
func (f *Factory) GetFormatInfo(spec PathSpec) (FormatInfo, error) {
	return FormatInfo{}, fmt.Errorf("savedata: format info for %s: %w", spec.TitleID, content.ErrNotImplemented)
}

// Delete removes a save space and everything in it. Deleting a space
// that does not exist is not an error.
func (f *Factory) Delete(spec PathSpec) error {
	dir := f.Path(spec)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("savedata: deleting %s: %w", dir, err)
	}
	return nil
}

// ListUsers returns the user indexes that have a save space for the
// title, in ascending order.
func (f *Factory) ListUsers(id title.ID) ([]uint32, error) {
	titleDir := path.Dir(strings.TrimSuffix(f.Path(PathSpec{TitleID: id}), "/"))
	entries, err := os.ReadDir(titleDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("savedata: listing %s: %w", titleDir, err)
	}

	var users []uint32
	for _, entry := range entries {
		if !entry.IsDir() || len(entry.Name()) != 8 {
			continue
		}
		var user uint32
		if _, err := fmt.Sscanf(entry.Name(), "%08X", &user); err != nil {
			continue
		}
		users = append(users, user)
	}
	return users, nil
}
