// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package content

import (
	"errors"
	"testing"

	"github.com/depot-foundation/depot/lib/title"
	"github.com/depot-foundation/depot/lib/vfs"
)

func TestUnionPrecedence(t *testing.T) {
	manualFile := vfs.NewMemFile("manual.nca", []byte("manual copy"))
	installedFile := vfs.NewMemFile("installed.nca", []byte("installed copy"))

	manual := NewManual(nil)
	manual.AddEntry(title.TypeApplication, title.ContentProgram, testTitle, manualFile)

	installed := NewManual(nil)
	installed.AddEntry(title.TypeApplication, title.ContentProgram, testTitle, installedFile)

	union := NewUnion()
	union.RegisterProvider(SlotUserInstalled, installed)
	union.RegisterProvider(SlotFrontendManual, manual)

	// The frontend-manual slot wins regardless of registration order.
	got, err := union.GetEntry(testTitle, title.ContentProgram)
	if err != nil {
		t.Fatalf("GetEntry failed: %v", err)
	}
	if got != manualFile {
		t.Error("union should resolve through the frontend-manual slot first")
	}

	// Dropping the winning slot exposes the next one.
	union.DeregisterProvider(SlotFrontendManual)
	got, err = union.GetEntry(testTitle, title.ContentProgram)
	if err != nil {
		t.Fatalf("GetEntry after deregister failed: %v", err)
	}
	if got != installedFile {
		t.Error("union should fall through to the user-installed slot")
	}
}

func TestUnionMiss(t *testing.T) {
	union := NewUnion()
	union.RegisterProvider(SlotFrontendManual, NewManual(nil))

	if union.HasEntry(testTitle, title.ContentProgram) {
		t.Error("HasEntry on empty union = true, want false")
	}
	_, err := union.GetEntry(testTitle, title.ContentProgram)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetEntry miss returned %v, want ErrNotFound", err)
	}
	_, err = union.GetEntryUnparsed(testTitle, title.ContentProgram)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetEntryUnparsed miss returned %v, want ErrNotFound", err)
	}
}

func TestUnionEmpty(t *testing.T) {
	union := NewUnion()

	if union.HasEntry(testTitle, title.ContentProgram) {
		t.Error("HasEntry with zero providers = true, want false")
	}
	if _, err := union.GetEntry(testTitle, title.ContentProgram); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetEntry with zero providers returned %v, want ErrNotFound", err)
	}
	if entries := union.List(Filter{}); len(entries) != 0 {
		t.Errorf("List with zero providers returned %d entries, want 0", len(entries))
	}
	// ClearAll on an empty union is a no-op, not a panic.
	union.ClearAll()
}

func TestUnionListDeduplicates(t *testing.T) {
	manual := NewManual(nil)
	manual.AddEntry(title.TypeApplication, title.ContentProgram, testTitle, vfs.NewMemFile("a", nil))

	installed := NewManual(nil)
	installed.AddEntry(title.TypeApplication, title.ContentProgram, testTitle, vfs.NewMemFile("b", nil))
	installed.AddEntry(title.TypeApplication, title.ContentControl, testTitle, vfs.NewMemFile("c", nil))

	union := NewUnion()
	union.RegisterProvider(SlotFrontendManual, manual)
	union.RegisterProvider(SlotUserInstalled, installed)

	entries := union.List(Filter{})
	if len(entries) != 2 {
		t.Fatalf("List returned %d entries, want 2 (deduplicated)", len(entries))
	}

	slotEntries := union.ListSlotEntries(Filter{})
	if len(slotEntries) != 3 {
		t.Fatalf("ListSlotEntries returned %d entries, want 3 (tagged, duplicates kept)", len(slotEntries))
	}
	if slotEntries[0].Slot != SlotFrontendManual {
		t.Errorf("first slot entry came from %v, want frontend_manual", slotEntries[0].Slot)
	}
}

func TestUnionExcludeSlot(t *testing.T) {
	manual := NewManual(nil)
	manual.AddEntry(title.TypeApplication, title.ContentProgram, testTitle, vfs.NewMemFile("a", nil))

	installed := NewManual(nil)
	installed.AddEntry(title.TypeApplication, title.ContentProgram, title.ID(0x0100000000020000), vfs.NewMemFile("b", nil))

	union := NewUnion()
	union.RegisterProvider(SlotFrontendManual, manual)
	union.RegisterProvider(SlotUserInstalled, installed)

	exclude := SlotFrontendManual
	entries := union.ListSlotEntries(Filter{ExcludeSlot: &exclude})
	if len(entries) != 1 {
		t.Fatalf("ListSlotEntries returned %d entries, want 1", len(entries))
	}
	if entries[0].Slot != SlotUserInstalled {
		t.Errorf("entry came from %v, want user_installed", entries[0].Slot)
	}
}

func TestUnionClearAll(t *testing.T) {
	manual := NewManual(nil)
	manual.AddEntry(title.TypeApplication, title.ContentProgram, testTitle, vfs.NewMemFile("a", nil))

	union := NewUnion()
	union.RegisterProvider(SlotFrontendManual, manual)

	union.ClearAll()
	if manual.HasEntry(testTitle, title.ContentProgram) {
		t.Error("ClearAll should clear the manual provider")
	}
}

func TestUnionVersionPrecedence(t *testing.T) {
	manual := NewManual(nil)
	manual.SetEntryVersion(testTitle, title.Version(1<<26))

	installed := NewManual(nil)
	installed.SetEntryVersion(testTitle, title.Version(2<<26))

	union := NewUnion()
	union.RegisterProvider(SlotFrontendManual, manual)
	union.RegisterProvider(SlotUserInstalled, installed)

	version, ok := union.GetEntryVersion(testTitle)
	if !ok {
		t.Fatal("GetEntryVersion = unknown, want known")
	}
	if version.String() != "v1.0.0" {
		t.Errorf("GetEntryVersion = %s, want v1.0.0 (winning slot)", version)
	}
}
