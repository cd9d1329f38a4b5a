// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package content

import (
	"fmt"
	"sync"

	"github.com/depot-foundation/depot/lib/container"
	"github.com/depot-foundation/depot/lib/title"
	"github.com/depot-foundation/depot/lib/vfs"
)

// Manual is the in-memory provider the filesystem scan populates: a
// registry of content records found in loose files, keyed by title id
// and record type. Nothing persists; a rescan rebuilds it from
// scratch via ClearAllEntries.
type Manual struct {
	mu       sync.RWMutex
	entries  map[manualKey]vfs.File
	versions map[title.ID]title.Version
	parsers  *container.ParserSet
}

type manualKey struct {
	titleType  title.Type
	recordType title.ContentRecordType
	id         title.ID
}

var _ Provider = (*Manual)(nil)
var _ Clearer = (*Manual)(nil)

// NewManual creates an empty manual provider. The parser set is
// consulted lazily by GetEntry; nil disables parsing entirely, which
// is fine when the scan stores already-extracted record files.
func NewManual(parsers *container.ParserSet) *Manual {
	return &Manual{
		entries:  make(map[manualKey]vfs.File),
		versions: make(map[title.ID]title.Version),
		parsers:  parsers,
	}
}

// AddEntry registers a content record. Adding a key that already
// exists replaces the previous file; the last scan wins and duplicate
// files on disk never make the registry grow without bound.
func (m *Manual) AddEntry(titleType title.Type, recordType title.ContentRecordType, id title.ID, file vfs.File) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[manualKey{titleType, recordType, id}] = file
}

// SetEntryVersion records the packed meta version for a title, learned
// from its container's meta record during the scan.
func (m *Manual) SetEntryVersion(id title.ID, version title.Version) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.versions[id] = version
}

// ClearAllEntries empties the registry. A scan refresh starts here so
// files deleted from disk disappear from resolution.
func (m *Manual) ClearAllEntries() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[manualKey]vfs.File)
	m.versions = make(map[title.ID]title.Version)
}

func (m *Manual) lookup(id title.ID, recordType title.ContentRecordType) (vfs.File, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for key, file := range m.entries {
		if key.id == id && key.recordType == recordType {
			return file, true
		}
	}
	return nil, false
}

func (m *Manual) HasEntry(id title.ID, recordType title.ContentRecordType) bool {
	_, ok := m.lookup(id, recordType)
	return ok
}

func (m *Manual) GetEntry(id title.ID, recordType title.ContentRecordType) (vfs.File, error) {
	file, ok := m.lookup(id, recordType)
	if !ok {
		return nil, fmt.Errorf("content: manual: %s/%s: %w", id, recordType, ErrNotFound)
	}
	if m.parsers == nil {
		return file, nil
	}
	resolved, err := m.parsers.Extract(file, id, recordType)
	if err != nil {
		return nil, extractError("manual", id, recordType, err)
	}
	return resolved, nil
}

func (m *Manual) GetEntryUnparsed(id title.ID, recordType title.ContentRecordType) (vfs.File, error) {
	file, ok := m.lookup(id, recordType)
	if !ok {
		return nil, fmt.Errorf("content: manual: %s/%s: %w", id, recordType, ErrNotFound)
	}
	return file, nil
}

func (m *Manual) GetEntryVersion(id title.ID) (title.Version, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	version, ok := m.versions[id]
	return version, ok
}

func (m *Manual) List(filter Filter) []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var entries []Entry
	for key := range m.entries {
		if !filter.matches(key.titleType, key.recordType) {
			continue
		}
		entries = append(entries, Entry{TitleID: key.id, Type: key.recordType})
	}
	sortEntries(entries)
	return entries
}
