// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

// Package loader defines the interface through which the scan asks a
// format plugin about an executable file: its program id, display
// title, icon, and any packed update it bundles. Implementations are
// registered per container format by the embedding application; this
// layer only routes files to them.
//
// Every accessor returns an explicit error. A loader never panics and
// never signals failure through sentinel values in the result.
package loader

import (
	"fmt"
	"sync"

	"github.com/depot-foundation/depot/lib/container"
	"github.com/depot-foundation/depot/lib/content"
	"github.com/depot-foundation/depot/lib/title"
	"github.com/depot-foundation/depot/lib/vfs"
)

// Loader answers metadata queries about one executable file.
type Loader interface {
	// FileType reports the container format the loader was built for.
	FileType() container.Format

	// ProgramID returns the title id of the contained program.
	ProgramID() (title.ID, error)

	// Title returns the display name, typically from the control
	// record when the format carries one.
	Title() (string, error)

	// Icon returns the raw icon image bytes, or content.ErrNotFound
	// when the format carries none.
	Icon() ([]byte, error)

	// UpdateRaw returns the packed update container bundled inside a
	// multi-content file, or content.ErrNotFound when there is none.
	UpdateRaw() (vfs.File, error)
}

// Factory constructs a Loader over a file already detected to be the
// factory's format. A factory failing means the file is malformed
// despite carrying the right magic.
type Factory func(file vfs.File) (Loader, error)

// Resolver routes files to registered loader factories by detected
// format. The zero value is usable and empty.
type Resolver struct {
	mu        sync.RWMutex
	factories map[container.Format]Factory
}

// NewResolver returns an empty resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Register installs the factory for a format, replacing any previous
// registration. Registering nil removes the entry.
func (r *Resolver) Register(format container.Format, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.factories == nil {
		r.factories = make(map[container.Format]Factory)
	}
	if factory == nil {
		delete(r.factories, format)
		return
	}
	r.factories[format] = factory
}

// Resolve detects the file's format and constructs a loader for it.
// Undetectable files and formats with no registered factory return a
// wrapped content.ErrNotImplemented; the scan treats both as "skip
// this file", not as a scan failure.
func (r *Resolver) Resolve(file vfs.File) (Loader, error) {
	format := container.Detect(file)
	if format == container.FormatUnknown {
		return nil, fmt.Errorf("loader: %s: undetectable format: %w", file.Name(), content.ErrNotImplemented)
	}

	r.mu.RLock()
	factory := r.factories[format]
	r.mu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("loader: %s: no loader registered for %s: %w", file.Name(), format, content.ErrNotImplemented)
	}

	loaded, err := factory(file)
	if err != nil {
		return nil, fmt.Errorf("loader: %s: %w", file.Name(), err)
	}
	return loaded, nil
}
