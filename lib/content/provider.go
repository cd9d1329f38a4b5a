// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

// Package content implements content providers: the components that
// answer "give me the file for title X, record type Y" without the
// caller knowing where the bytes live. Three provider shapes exist
// (the manually-populated in-memory registry the filesystem scan
// fills, the on-disk registered cache of installed content, and the
// update overlay), plus the union that layers providers behind a
// fixed slot precedence.
package content

import (
	"sort"

	"github.com/depot-foundation/depot/lib/title"
	"github.com/depot-foundation/depot/lib/vfs"
)

// Slot names a position in the union's precedence order. Lower values
// shadow higher ones: content the frontend added by hand wins over
// user-installed content, which wins over system content.
type Slot uint8

const (
	SlotFrontendManual Slot = iota
	SlotUserInstalled
	SlotSystem
)

func (s Slot) String() string {
	switch s {
	case SlotFrontendManual:
		return "frontend_manual"
	case SlotUserInstalled:
		return "user_installed"
	case SlotSystem:
		return "system"
	default:
		return "unknown"
	}
}

// Entry identifies one content record: which title, which kind.
type Entry struct {
	TitleID title.ID
	Type    title.ContentRecordType
}

// SlotEntry is an Entry tagged with the slot it was found in, produced
// by the union's slot-aware listing.
type SlotEntry struct {
	Slot  Slot
	Entry Entry
}

// Filter narrows listing results. Nil fields match everything.
type Filter struct {
	// TitleType restricts to entries whose owning title has this
	// type (application, update, AOC...).
	TitleType *title.Type

	// RecordType restricts to one content record type.
	RecordType *title.ContentRecordType

	// ExcludeSlot drops one slot from union listings. Providers
	// outside a union ignore it. The scan uses this to list installed
	// titles without re-reporting what it just added by hand.
	ExcludeSlot *Slot
}

// matches reports whether an entry with the given title type passes
// the type filters.
func (f Filter) matches(titleType title.Type, recordType title.ContentRecordType) bool {
	if f.TitleType != nil && *f.TitleType != titleType {
		return false
	}
	if f.RecordType != nil && *f.RecordType != recordType {
		return false
	}
	return true
}

// Provider resolves content records. Implementations are safe for
// concurrent readers with one writer (the scan refresh).
type Provider interface {
	// HasEntry reports whether the provider can resolve the record.
	HasEntry(id title.ID, recordType title.ContentRecordType) bool

	// GetEntry returns the resolved content file, running the
	// registered container parse lazily when the backing file is a
	// parseable container. A missing entry reports ErrNotFound; a
	// backing file that parses but is malformed reports ErrParse.
	GetEntry(id title.ID, recordType title.ContentRecordType) (vfs.File, error)

	// GetEntryUnparsed returns the raw backing file without invoking
	// any container parse, for callers that will construct their own
	// loader over it.
	GetEntryUnparsed(id title.ID, recordType title.ContentRecordType) (vfs.File, error)

	// GetEntryVersion returns the title's meta version when the
	// provider knows it.
	GetEntryVersion(id title.ID) (title.Version, bool)

	// List returns the entries passing the filter, ordered by title
	// id then record type.
	List(filter Filter) []Entry
}

// Clearer is implemented by providers whose population can be dropped
// wholesale (the manual registry). The union's ClearAll walks it.
type Clearer interface {
	ClearAllEntries()
}

// sortEntries orders entries by title id, then record type. Every
// List implementation funnels through this so listing order is a
// stable contract.
func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TitleID != entries[j].TitleID {
			return entries[i].TitleID < entries[j].TitleID
		}
		return entries[i].Type < entries[j].Type
	})
}
