// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

// Package patch reports the patch layers that apply to a title: the
// installed update plus any mod directories dropped under the load
// dir. It does not apply anything; it answers "what would be layered"
// for listings and for loaders that do the layering themselves.
package patch

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/depot-foundation/depot/lib/content"
	"github.com/depot-foundation/depot/lib/title"
	"github.com/depot-foundation/depot/lib/vfs"
)

// ControlParser parses a control content file into its metadata and
// icon. Implementations live with the format plugins; the manager
// routes through whatever was injected and never inspects bytes
// itself.
type ControlParser interface {
	ParseControl(file vfs.File) (*title.ControlMeta, vfs.File, error)
}

// Version is one patch layer: the layer's display name and, where
// known, its version string.
type Version struct {
	Name    string
	Version string
}

// Config wires a Manager.
type Config struct {
	// Provider resolves installed content for the title. Nil disables
	// update detection and ControlData.
	Provider content.Provider

	// Control parses control content. Nil makes ParseControlNCA and
	// ControlData report a wrapped content.ErrParse.
	Control ControlParser

	// LoadDir is the root of the mod layout, one directory per title:
	// <LoadDir>/<title id hex>/<mod name>/{romfs,exefs}/. Empty or
	// absent contributes no mod layers.
	LoadDir string

	// Logger receives debug events. Nil discards.
	Logger *slog.Logger
}

// Manager reports patch layers for one base title. Managers are cheap
// to construct; callers make one per title as needed rather than
// pooling them.
type Manager struct {
	id       title.ID
	provider content.Provider
	control  ControlParser
	loadDir  string
	logger   *slog.Logger
}

// NewManager creates a manager bound to the base title id. Update
// queries derive the update id internally; callers always pass the
// base id.
func NewManager(id title.ID, cfg Config) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Manager{
		id:       id,
		provider: cfg.Provider,
		control:  cfg.Control,
		loadDir:  cfg.LoadDir,
		logger:   logger,
	}
}

// PatchVersionNames returns the ordered patch layers for the title.
// The update layer comes first when one exists: an installed update
// reports its meta version, an update packed alongside the base
// (updateRaw non-nil) reports "PACKED". Mod directories follow in
// name order with empty version strings.
func (m *Manager) PatchVersionNames(updateRaw vfs.File) []Version {
	var out []Version

	updateID := title.UpdateID(m.id)
	switch {
	case m.provider != nil && m.provider.HasEntry(updateID, title.ContentProgram):
		var label string
		if v, ok := m.provider.GetEntryVersion(updateID); ok {
			label = v.String()
		}
		out = append(out, Version{Name: "Update", Version: label})
	case updateRaw != nil:
		out = append(out, Version{Name: "Update", Version: "PACKED"})
	}

	return append(out, m.modLayers()...)
}

// HasUpdate reports whether an update is installed for the title.
func (m *Manager) HasUpdate() bool {
	return m.provider != nil && m.provider.HasEntry(title.UpdateID(m.id), title.ContentProgram)
}

// TitleID returns the base title id the manager was bound to.
func (m *Manager) TitleID() title.ID { return m.id }

// modLayers lists mod directories under <loadDir>/<title id>/ that
// contain a romfs or exefs subdirectory, in name order.
func (m *Manager) modLayers() []Version {
	if m.loadDir == "" {
		return nil
	}
	titleDir := filepath.Join(m.loadDir, m.id.String())
	entries, err := os.ReadDir(titleDir)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			m.logger.Debug("mod directory unreadable", "path", titleDir, "error", err)
		}
		return nil
	}

	var out []Version
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if !hasPatchContent(filepath.Join(titleDir, entry.Name())) {
			continue
		}
		out = append(out, Version{Name: entry.Name()})
	}
	return out
}

// hasPatchContent reports whether dir holds content the loaders would
// layer: a romfs or exefs subdirectory.
func hasPatchContent(dir string) bool {
	for _, sub := range []string{"romfs", "exefs"} {
		info, err := os.Stat(filepath.Join(dir, sub))
		if err == nil && info.IsDir() {
			return true
		}
	}
	return false
}

// ParseControlNCA parses a control content file through the injected
// parser. Parser absence and parse failures both surface as a wrapped
// content.ErrParse so callers have one failure mode to branch on.
func (m *Manager) ParseControlNCA(file vfs.File) (*title.ControlMeta, vfs.File, error) {
	if m.control == nil {
		return nil, nil, fmt.Errorf("patch: %s: no control parser registered: %w", m.id, content.ErrParse)
	}
	meta, icon, err := m.control.ParseControl(file)
	if err != nil {
		return nil, nil, fmt.Errorf("patch: %s: %w: %w", m.id, content.ErrParse, err)
	}
	return meta, icon, nil
}

// ControlData resolves the title's control content through the
// provider and parses it. When the provider carries an update overlay
// the installed update's control shadows the base's, so listings show
// post-update names and version strings.
func (m *Manager) ControlData() (*title.ControlMeta, vfs.File, error) {
	if m.provider == nil {
		return nil, nil, fmt.Errorf("patch: %s: no provider: %w", m.id, content.ErrNotFound)
	}
	file, err := m.provider.GetEntry(m.id, title.ContentControl)
	if err != nil {
		return nil, nil, fmt.Errorf("patch: control for %s: %w", m.id, err)
	}
	return m.ParseControlNCA(file)
}
