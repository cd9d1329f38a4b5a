// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package content

import (
	"errors"
	"fmt"
	"sync"

	"github.com/depot-foundation/depot/lib/title"
	"github.com/depot-foundation/depot/lib/vfs"
)

// Union layers providers behind the fixed slot precedence: every
// resolution walks the registered slots in ascending order and the
// first provider that can answer wins. A union with no registered
// providers behaves as an empty provider.
//
// Only ErrNotFound falls through to the next slot. Any other failure
// (IO, parse) propagates: the winning slot owns the key, and masking
// its corruption with a lower-precedence copy would hide real damage.
type Union struct {
	mu        sync.RWMutex
	providers map[Slot]Provider
}

var _ Provider = (*Union)(nil)

// NewUnion creates an empty union.
func NewUnion() *Union {
	return &Union{providers: make(map[Slot]Provider)}
}

// RegisterProvider installs a provider at a slot, replacing whatever
// was there. Registering nil clears the slot.
func (u *Union) RegisterProvider(slot Slot, provider Provider) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if provider == nil {
		delete(u.providers, slot)
		return
	}
	u.providers[slot] = provider
}

// DeregisterProvider clears a slot.
func (u *Union) DeregisterProvider(slot Slot) {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.providers, slot)
}

// slotOrder is every slot in precedence order. Iteration never uses
// map order.
var slotOrder = []Slot{SlotFrontendManual, SlotUserInstalled, SlotSystem}

type slotProvider struct {
	slot     Slot
	provider Provider
}

// snapshot returns the registered providers in precedence order.
func (u *Union) snapshot() []slotProvider {
	u.mu.RLock()
	defer u.mu.RUnlock()

	ordered := make([]slotProvider, 0, len(u.providers))
	for _, slot := range slotOrder {
		if provider, ok := u.providers[slot]; ok {
			ordered = append(ordered, slotProvider{slot: slot, provider: provider})
		}
	}
	return ordered
}

func (u *Union) HasEntry(id title.ID, recordType title.ContentRecordType) bool {
	for _, member := range u.snapshot() {
		if member.provider.HasEntry(id, recordType) {
			return true
		}
	}
	return false
}

func (u *Union) GetEntry(id title.ID, recordType title.ContentRecordType) (vfs.File, error) {
	return u.resolve(id, recordType, func(p Provider) (vfs.File, error) {
		return p.GetEntry(id, recordType)
	})
}

func (u *Union) GetEntryUnparsed(id title.ID, recordType title.ContentRecordType) (vfs.File, error) {
	return u.resolve(id, recordType, func(p Provider) (vfs.File, error) {
		return p.GetEntryUnparsed(id, recordType)
	})
}

func (u *Union) resolve(id title.ID, recordType title.ContentRecordType, get func(Provider) (vfs.File, error)) (vfs.File, error) {
	for _, member := range u.snapshot() {
		if !member.provider.HasEntry(id, recordType) {
			continue
		}
		file, err := get(member.provider)
		if err == nil {
			return file, nil
		}
		if errors.Is(err, ErrNotFound) {
			// The entry vanished between HasEntry and the read;
			// lower slots may still hold a live copy.
			continue
		}
		return nil, fmt.Errorf("content: union: slot %s: %w", member.slot, err)
	}
	return nil, fmt.Errorf("content: union: %s/%s: %w", id, recordType, ErrNotFound)
}

func (u *Union) GetEntryVersion(id title.ID) (title.Version, bool) {
	for _, member := range u.snapshot() {
		if version, ok := member.provider.GetEntryVersion(id); ok {
			return version, true
		}
	}
	return 0, false
}

// List aggregates member listings, deduplicating by entry: when two
// slots hold the same record, only the winning slot's copy appears.
func (u *Union) List(filter Filter) []Entry {
	seen := make(map[Entry]struct{})
	var entries []Entry
	for _, member := range u.snapshot() {
		if filter.ExcludeSlot != nil && *filter.ExcludeSlot == member.slot {
			continue
		}
		for _, entry := range member.provider.List(filter) {
			if _, dup := seen[entry]; dup {
				continue
			}
			seen[entry] = struct{}{}
			entries = append(entries, entry)
		}
	}
	sortEntries(entries)
	return entries
}

// ListSlotEntries aggregates member listings with slot tags, keeping
// duplicates across slots. Earlier slots appear first; within a slot,
// entries follow the provider's deterministic order.
func (u *Union) ListSlotEntries(filter Filter) []SlotEntry {
	var entries []SlotEntry
	for _, member := range u.snapshot() {
		if filter.ExcludeSlot != nil && *filter.ExcludeSlot == member.slot {
			continue
		}
		for _, entry := range member.provider.List(filter) {
			entries = append(entries, SlotEntry{Slot: member.slot, Entry: entry})
		}
	}
	return entries
}

// ClearAll empties every registered provider that supports clearing
// (the manual registries). Providers without a clear operation are
// untouched.
func (u *Union) ClearAll() {
	for _, member := range u.snapshot() {
		if clearer, ok := member.provider.(Clearer); ok {
			clearer.ClearAllEntries()
		}
	}
}
