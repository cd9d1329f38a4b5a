// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package scan

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/depot-foundation/depot/lib/clock"
	"github.com/depot-foundation/depot/lib/compat"
	"github.com/depot-foundation/depot/lib/container"
	"github.com/depot-foundation/depot/lib/content"
	"github.com/depot-foundation/depot/lib/loader"
	"github.com/depot-foundation/depot/lib/testutil"
	"github.com/depot-foundation/depot/lib/title"
	"github.com/depot-foundation/depot/lib/vfs"
)

const testTitle = title.ID(0x0100000000010000)

// nroBytes builds a minimal homebrew executable: the magic at its
// fixed offset plus the title id in hex where the test factory reads
// it back.
func nroBytes(id title.ID) []byte {
	data := make([]byte, 0x30)
	copy(data[0x10:], "NRO0")
	copy(data[0x20:], fmt.Sprintf("%016X", uint64(id)))
	return data
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("creating %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

type testLoader struct {
	format container.Format
	id     title.ID
	name   string
}

func (l *testLoader) FileType() container.Format { return l.format }
func (l *testLoader) ProgramID() (title.ID, error) { return l.id, nil }
func (l *testLoader) Title() (string, error) { return l.name, nil }
func (l *testLoader) Icon() ([]byte, error) { return nil, content.ErrNotFound }
func (l *testLoader) UpdateRaw() (vfs.File, error) { return nil, content.ErrNotFound }

// nroFactory reads the title id the test data embeds.
func nroFactory(file vfs.File) (loader.Loader, error) {
	buf := make([]byte, 16)
	if _, err := file.ReadAt(buf, 0x20); err != nil {
		return nil, err
	}
	id, err := title.ParseID(string(buf))
	if err != nil {
		return nil, err
	}
	return &testLoader{
		format: container.FormatNRO,
		id:     id,
		name:   strings.TrimSuffix(file.Name(), ".nro"),
	}, nil
}

// fixtureOptions builds scanner options with an NRO loader registered
// and the manual provider wired into the union at its usual slot.
func fixtureOptions(roots ...RootDir) Options {
	manual := content.NewManual(nil)
	union := content.NewUnion()
	union.RegisterProvider(content.SlotFrontendManual, manual)
	loaders := loader.NewResolver()
	loaders.Register(container.FormatNRO, nroFactory)
	return Options{
		Roots:   roots,
		Manual:  manual,
		Union:   union,
		Loaders: loaders,
		Clock:   clock.Fake(time.Unix(1700000000, 0)),
	}
}

// runScan runs a fresh scanner to completion and returns the full
// event stream.
func runScan(t *testing.T, opts Options) []Event {
	t.Helper()
	scanner, err := NewScanner(opts)
	if err != nil {
		t.Fatalf("NewScanner: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- scanner.Run(context.Background()) }()

	var events []Event
	for event := range scanner.Events() {
		events = append(events, event)
	}
	if err := testutil.RequireReceive(t, done, 5*time.Second, "scan run"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return events
}

// entryEvents filters the stream down to entry events.
func entryEvents(events []Event) []*Entry {
	var entries []*Entry
	for _, event := range events {
		if event.Kind == EventKindEntry {
			entries = append(entries, event.Entry)
		}
	}
	return entries
}

func TestScanEmitsValidSkipsCorrupted(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "game.nro"), nroBytes(testTitle))
	writeFile(t, filepath.Join(root, "broken.nro"), []byte("not an executable"))

	events := runScan(t, fixtureOptions(RootDir{Path: root}))
	entries := entryEvents(events)
	if len(entries) != 1 {
		t.Fatalf("scan emitted %d entries, want 1", len(entries))
	}

	entry := entries[0]
	if entry.ProgramID != testTitle {
		t.Errorf("ProgramID = %s, want %s", entry.ProgramID, testTitle)
	}
	if entry.Name != "game" {
		t.Errorf("Name = %q, want %q", entry.Name, "game")
	}
	if entry.FileType != "NRO" {
		t.Errorf("FileType = %q, want NRO", entry.FileType)
	}
	if entry.Path != filepath.Join(root, "game.nro") {
		t.Errorf("Path = %q, want %q", entry.Path, filepath.Join(root, "game.nro"))
	}
	if entry.Size != int64(len(nroBytes(testTitle))) {
		t.Errorf("Size = %d, want %d", entry.Size, len(nroBytes(testTitle)))
	}
	if entry.Compatibility.Tier != compat.TierUntested {
		t.Errorf("Compatibility = %v, want Untested", entry.Compatibility.Tier)
	}

	last := events[len(events)-1]
	if last.Kind != EventKindFinished {
		t.Fatalf("last event kind = %v, want finished", last.Kind)
	}
	if len(last.WatchList) != 1 || last.WatchList[0] != root {
		t.Fatalf("WatchList = %v, want [%s]", last.WatchList, root)
	}
}

func TestScanCompatDecoration(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "game.nro"), nroBytes(testTitle))

	opts := fixtureOptions(RootDir{Path: root})
	opts.Compat = compat.List{testTitle: {Tier: compat.TierGreat, Notes: "minor audio issues"}}

	entries := entryEvents(runScan(t, opts))
	if len(entries) != 1 {
		t.Fatalf("scan emitted %d entries, want 1", len(entries))
	}
	if got := entries[0].Compatibility; got.Tier != compat.TierGreat || got.Notes != "minor audio issues" {
		t.Fatalf("Compatibility = %+v, want the configured rating", got)
	}
}

func TestScanDeepWalkOrder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "aaa", "first.nro"), nroBytes(0x0100000000010000))
	writeFile(t, filepath.Join(root, "bbb", "second.nro"), nroBytes(0x0100000000020000))
	writeFile(t, filepath.Join(root, "top.nro"), nroBytes(0x0100000000030000))

	events := runScan(t, fixtureOptions(RootDir{Path: root, Deep: true}))
	entries := entryEvents(events)
	wantNames := []string{"first", "second", "top"}
	if len(entries) != len(wantNames) {
		t.Fatalf("scan emitted %d entries, want %d", len(entries), len(wantNames))
	}
	for i, want := range wantNames {
		if entries[i].Name != want {
			t.Errorf("entry %d = %q, want %q", i, entries[i].Name, want)
		}
	}

	wantWatch := []string{root, filepath.Join(root, "aaa"), filepath.Join(root, "bbb")}
	gotWatch := events[len(events)-1].WatchList
	if len(gotWatch) != len(wantWatch) {
		t.Fatalf("WatchList = %v, want %v", gotWatch, wantWatch)
	}
	for i := range wantWatch {
		if gotWatch[i] != wantWatch[i] {
			t.Fatalf("WatchList = %v, want %v", gotWatch, wantWatch)
		}
	}
}

func TestScanShallowRootIgnoresSubdirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "top.nro"), nroBytes(0x0100000000010000))
	writeFile(t, filepath.Join(root, "nested", "below.nro"), nroBytes(0x0100000000020000))

	events := runScan(t, fixtureOptions(RootDir{Path: root}))
	entries := entryEvents(events)
	if len(entries) != 1 || entries[0].Name != "top" {
		t.Fatalf("shallow scan entries = %v, want only top", entries)
	}
	if watch := events[len(events)-1].WatchList; len(watch) != 1 {
		t.Fatalf("shallow scan WatchList = %v, want only the root", watch)
	}
}

func TestScanSymlinks(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	writeFile(t, filepath.Join(root, "real", "game.nro"), nroBytes(0x0100000000010000))
	writeFile(t, filepath.Join(outside, "linked.nro"), nroBytes(0x0100000000020000))

	// A symlinked directory must not be followed; a symlink to a
	// regular file is scanned through the link path.
	if err := os.Symlink(filepath.Join(root, "real"), filepath.Join(root, "mirror")); err != nil {
		t.Fatalf("creating directory symlink: %v", err)
	}
	if err := os.Symlink(filepath.Join(outside, "linked.nro"), filepath.Join(root, "linked.nro")); err != nil {
		t.Fatalf("creating file symlink: %v", err)
	}

	events := runScan(t, fixtureOptions(RootDir{Path: root, Deep: true}))
	entries := entryEvents(events)
	if len(entries) != 2 {
		t.Fatalf("scan emitted %d entries, want 2 (no duplicate through the mirror)", len(entries))
	}
	for _, watched := range events[len(events)-1].WatchList {
		if watched == filepath.Join(root, "mirror") {
			t.Fatalf("WatchList contains the symlinked directory: %v", events[len(events)-1].WatchList)
		}
	}
}

// recordParser yields fixed records for any parsed file, standing in
// for a real multi-content container parser.
type recordParser struct {
	records []container.Record
}

func (p recordParser) Records(file vfs.File) ([]container.Record, error) {
	out := make([]container.Record, len(p.records))
	copy(out, p.records)
	for i := range out {
		if out[i].File == nil {
			out[i].File = file
		}
	}
	return out, nil
}

func TestScanPopulatesManual(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "bundle.nsp"), []byte("PFS0 container body"))

	parsers := container.NewParserSet()
	parsers.Register(container.FormatNSP, recordParser{records: []container.Record{
		{TitleID: testTitle, Type: title.ContentProgram, TitleType: title.TypeApplication, Version: 1 << 26},
		{TitleID: testTitle, Type: title.ContentControl, TitleType: title.TypeApplication},
	}})

	opts := fixtureOptions(RootDir{Path: root})
	opts.Parsers = parsers

	events := runScan(t, opts)

	// No NSP loader is registered and the frontend-manual slot is
	// excluded from the installed phase, so the only event is the
	// completion marker; the population is observable on the provider.
	if entries := entryEvents(events); len(entries) != 0 {
		t.Fatalf("scan emitted %d entries, want 0", len(entries))
	}
	if !opts.Manual.HasEntry(testTitle, title.ContentProgram) {
		t.Fatal("manual provider missing the program record")
	}
	if !opts.Manual.HasEntry(testTitle, title.ContentControl) {
		t.Fatal("manual provider missing the control record")
	}
	version, ok := opts.Manual.GetEntryVersion(testTitle)
	if !ok || version.String() != "v1.0.0" {
		t.Fatalf("manual version = %v (known=%v), want v1.0.0", version, ok)
	}
}

func TestScanInstalledEntries(t *testing.T) {
	installed := content.NewManual(nil)
	installed.AddEntry(title.TypeApplication, title.ContentProgram, testTitle,
		vfs.NewMemFile("program.nca", bytes.Repeat([]byte{0xAB}, 64)))

	opts := fixtureOptions()
	opts.Union.RegisterProvider(content.SlotUserInstalled, installed)

	entries := entryEvents(runScan(t, opts))
	if len(entries) != 1 {
		t.Fatalf("scan emitted %d entries, want 1", len(entries))
	}
	entry := entries[0]
	if entry.ProgramID != testTitle {
		t.Errorf("ProgramID = %s, want %s", entry.ProgramID, testTitle)
	}
	if entry.FileType != "NCA" {
		t.Errorf("FileType = %q, want NCA", entry.FileType)
	}
	if entry.Size != 64 {
		t.Errorf("Size = %d, want 64", entry.Size)
	}
}

func TestScanInstalledPatchLayers(t *testing.T) {
	installed := content.NewManual(nil)
	installed.AddEntry(title.TypeApplication, title.ContentProgram, testTitle,
		vfs.NewMemFile("program.nca", []byte("base")))
	updateID := title.UpdateID(testTitle)
	installed.AddEntry(title.TypeUpdate, title.ContentProgram, updateID,
		vfs.NewMemFile("update.nca", []byte("update")))
	installed.SetEntryVersion(updateID, 2<<26)

	opts := fixtureOptions()
	opts.Union.RegisterProvider(content.SlotUserInstalled, installed)

	entries := entryEvents(runScan(t, opts))
	if len(entries) != 1 {
		t.Fatalf("scan emitted %d entries, want 1 (updates are not listed standalone)", len(entries))
	}
	patches := entries[0].Patches
	if len(patches) != 1 || patches[0].Name != "Update" || patches[0].Version != "v2.0.0" {
		t.Fatalf("Patches = %v, want the installed update layer", patches)
	}
}

type stubControlParser struct {
	meta *title.ControlMeta
	icon vfs.File
}

func (p stubControlParser) ParseControl(vfs.File) (*title.ControlMeta, vfs.File, error) {
	return p.meta, p.icon, nil
}

func TestScanControlMetadata(t *testing.T) {
	installed := content.NewManual(nil)
	installed.AddEntry(title.TypeApplication, title.ContentProgram, testTitle,
		vfs.NewMemFile("program.nca", []byte("base")))
	installed.AddEntry(title.TypeApplication, title.ContentControl, testTitle,
		vfs.NewMemFile("control.nca", []byte("control")))

	opts := fixtureOptions()
	opts.Union.RegisterProvider(content.SlotUserInstalled, installed)
	opts.Control = stubControlParser{
		meta: &title.ControlMeta{Name: "Example Quest", DisplayVersion: "1.0.0"},
		icon: vfs.NewMemFile("icon.jpg", []byte("jpeg bytes")),
	}

	entries := entryEvents(runScan(t, opts))
	if len(entries) != 1 {
		t.Fatalf("scan emitted %d entries, want 1", len(entries))
	}
	if entries[0].Name != "Example Quest" {
		t.Errorf("Name = %q, want the control metadata name", entries[0].Name)
	}
	if !bytes.Equal(entries[0].Icon, []byte("jpeg bytes")) {
		t.Errorf("Icon = %q, want the control icon", entries[0].Icon)
	}
}

func TestScanRefreshIdempotent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "game.nro"), nroBytes(testTitle))
	writeFile(t, filepath.Join(root, "bundle.nsp"), []byte("PFS0 container body"))

	parsers := container.NewParserSet()
	parsers.Register(container.FormatNSP, recordParser{records: []container.Record{
		{TitleID: 0x0100000000020000, Type: title.ContentProgram, TitleType: title.TypeApplication},
	}})

	opts := fixtureOptions(RootDir{Path: root})
	opts.Parsers = parsers

	first := runScan(t, opts)
	second := runScan(t, opts)

	firstEntries := entryEvents(first)
	secondEntries := entryEvents(second)
	if len(firstEntries) != len(secondEntries) {
		t.Fatalf("rescan emitted %d entries, first scan %d", len(secondEntries), len(firstEntries))
	}
	for i := range firstEntries {
		if firstEntries[i].Path != secondEntries[i].Path ||
			firstEntries[i].ProgramID != secondEntries[i].ProgramID ||
			firstEntries[i].FileType != secondEntries[i].FileType {
			t.Fatalf("rescan entry %d = %+v, first scan %+v", i, secondEntries[i], firstEntries[i])
		}
	}
	if !opts.Manual.HasEntry(0x0100000000020000, title.ContentProgram) {
		t.Fatal("manual provider lost the container record after rescan")
	}
}

// gateFactory blocks the first load until released, giving tests a
// deterministic point in mid-scan.
type gateFactory struct {
	ready   chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGateFactory() *gateFactory {
	return &gateFactory{ready: make(chan struct{}), release: make(chan struct{})}
}

func (g *gateFactory) factory(file vfs.File) (loader.Loader, error) {
	g.once.Do(func() {
		close(g.ready)
		<-g.release
	})
	return nroFactory(file)
}

func TestScanCancelStopsStream(t *testing.T) {
	root := t.TempDir()
	for i := range 3 {
		writeFile(t, filepath.Join(root, fmt.Sprintf("game%d.nro", i)), nroBytes(testTitle+title.ID(i)<<16))
	}

	gate := newGateFactory()
	opts := fixtureOptions(RootDir{Path: root})
	opts.Loaders = loader.NewResolver()
	opts.Loaders.Register(container.FormatNRO, gate.factory)

	scanner, err := NewScanner(opts)
	if err != nil {
		t.Fatalf("NewScanner: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- scanner.Run(context.Background()) }()

	testutil.RequireClosed(t, gate.ready, 5*time.Second, "first load reached")
	scanner.Cancel()
	close(gate.release)

	var events []Event
	for event := range scanner.Events() {
		events = append(events, event)
	}
	if len(events) != 0 {
		t.Fatalf("cancelled scan emitted %d events, want 0", len(events))
	}
	if err := testutil.RequireReceive(t, done, 5*time.Second, "scan run"); err != nil {
		t.Fatalf("Run after Cancel: %v", err)
	}
}

func TestScanContextCancellation(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "game.nro"), nroBytes(testTitle))

	gate := newGateFactory()
	opts := fixtureOptions(RootDir{Path: root})
	opts.Loaders = loader.NewResolver()
	opts.Loaders.Register(container.FormatNRO, gate.factory)

	scanner, err := NewScanner(opts)
	if err != nil {
		t.Fatalf("NewScanner: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- scanner.Run(ctx) }()

	testutil.RequireClosed(t, gate.ready, 5*time.Second, "first load reached")
	cancel()
	close(gate.release)

	for range scanner.Events() {
		t.Fatal("cancelled scan emitted an event")
	}
	if err := testutil.RequireReceive(t, done, 5*time.Second, "scan run"); err != context.Canceled {
		t.Fatalf("Run after context cancel = %v, want context.Canceled", err)
	}
}

func TestScanSecondRunRejected(t *testing.T) {
	scanner, err := NewScanner(fixtureOptions())
	if err != nil {
		t.Fatalf("NewScanner: %v", err)
	}
	go func() {
		for range scanner.Events() {
		}
	}()
	if err := scanner.Run(context.Background()); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if err := scanner.Run(context.Background()); err == nil {
		t.Fatal("second Run succeeded, want error")
	}
}

func TestNewScannerValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"missing manual", func(o *Options) { o.Manual = nil }},
		{"missing union", func(o *Options) { o.Union = nil }},
		{"missing loaders", func(o *Options) { o.Loaders = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := fixtureOptions()
			tt.mutate(&opts)
			if _, err := NewScanner(opts); err == nil {
				t.Fatal("NewScanner accepted incomplete options")
			}
		})
	}
}
