// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

// Package scan walks configured directories for content files and
// emits an ordered stream of presentation-ready entries. A scan runs
// in three phases: populate the manual provider from installable
// containers, report installed titles from the union, then report
// loose executable files through the loader resolver. Unreadable
// files and directories are skipped with a debug log; a scan never
// fails because one file is broken.
package scan

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/depot-foundation/depot/lib/clock"
	"github.com/depot-foundation/depot/lib/compat"
	"github.com/depot-foundation/depot/lib/container"
	"github.com/depot-foundation/depot/lib/content"
	"github.com/depot-foundation/depot/lib/loader"
	"github.com/depot-foundation/depot/lib/patch"
	"github.com/depot-foundation/depot/lib/title"
	"github.com/depot-foundation/depot/lib/vfs"
)

// deepScanDepth bounds recursion for deep roots. Shallow roots scan
// only their immediate files.
const deepScanDepth = 256

// defaultBufferSize is the event channel buffer when Options leaves
// BufferSize zero.
const defaultBufferSize = 16

// RootDir is one directory to scan.
type RootDir struct {
	Path string

	// Deep scans subdirectories too, to a bounded depth. Symlinked
	// directories are never followed either way.
	Deep bool
}

// EventKind discriminates scan events.
type EventKind uint8

const (
	// EventKindEntry carries one presentation entry.
	EventKindEntry EventKind = iota

	// EventKindFinished is the final event of a completed scan and
	// carries the watch list. A cancelled scan closes the stream
	// without it.
	EventKindFinished
)

func (k EventKind) String() string {
	switch k {
	case EventKindEntry:
		return "entry"
	case EventKindFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Event is one element of the scan stream.
type Event struct {
	Kind EventKind

	// Entry is set for EventKindEntry.
	Entry *Entry

	// WatchList is set for EventKindFinished: every directory the
	// scan visited, in visit order. Callers wire these into their
	// file watcher to trigger rescans.
	WatchList []string
}

// Entry is one scanned title, ready for presentation.
type Entry struct {
	// Path is the host path of the backing file.
	Path string

	// Name is the display name: the control metadata's name when a
	// parser could supply one, the file name otherwise.
	Name string

	// Icon is the raw icon image, nil when the format carries none.
	Icon []byte

	ProgramID title.ID

	// FileType is the container format label ("NSP", "NRO", ...).
	FileType string

	Size int64

	Compatibility compat.Rating

	// Patches are the patch layers that would apply, update first.
	Patches []patch.Version
}

// Options wires a Scanner. Manual, Union, and Loaders are required.
type Options struct {
	// Roots are the directories to scan, in order.
	Roots []RootDir

	// Manual is the provider the scan populates from installable
	// containers. Each run clears and refills it.
	Manual *content.Manual

	// Union resolves installed titles and backs patch queries. The
	// manual provider is expected to be registered in it at the
	// frontend-manual slot.
	Union *content.Union

	// Loaders resolves loose executable files.
	Loaders *loader.Resolver

	// Parsers enumerates container records during population. Nil
	// parses nothing (containers without metadata are still listed
	// as loose files).
	Parsers *container.ParserSet

	// Compat decorates entries with compatibility ratings. Nil marks
	// everything untested.
	Compat compat.List

	// Control parses control content for display names and icons.
	// Nil leaves entries with file-derived names.
	Control patch.ControlParser

	// LoadDir is the mod layout root passed to patch managers.
	LoadDir string

	// Clock times the scan for the completion log. Nil means the
	// real clock.
	Clock clock.Clock

	// Logger receives progress and skip events. Nil discards.
	Logger *slog.Logger

	// BufferSize is the Events channel buffer. Zero means a small
	// default; the worker never blocks on a slow consumer regardless
	// because queued events are held in memory until consumed.
	BufferSize int
}

// Scanner runs one scan and streams its results. A scanner is single
// use: build it with [NewScanner], then read [Scanner.Events] while
// [Scanner.Run] executes. The events channel closes when Run returns;
// consumers must drain it.
type Scanner struct {
	opts    Options
	overlay content.Provider
	clock   clock.Clock
	logger  *slog.Logger

	cancelled atomic.Bool
	started   atomic.Bool

	events chan Event

	mu           sync.Mutex
	queueChanged *sync.Cond
	queue        []Event
	producerDone bool

	watchSeen map[string]struct{}
	watchList []string
}

// NewScanner validates options and creates a scanner.
func NewScanner(opts Options) (*Scanner, error) {
	if opts.Manual == nil {
		return nil, fmt.Errorf("scan: Options.Manual is required")
	}
	if opts.Union == nil {
		return nil, fmt.Errorf("scan: Options.Union is required")
	}
	if opts.Loaders == nil {
		return nil, fmt.Errorf("scan: Options.Loaders is required")
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	buffer := opts.BufferSize
	if buffer <= 0 {
		buffer = defaultBufferSize
	}
	s := &Scanner{
		opts:      opts,
		overlay:   content.NewUpdateOverlay(opts.Union),
		clock:     clk,
		logger:    logger,
		events:    make(chan Event, buffer),
		watchSeen: make(map[string]struct{}),
	}
	s.queueChanged = sync.NewCond(&s.mu)
	return s, nil
}

// Events returns the scan stream. The channel closes after Run
// returns and all queued events are consumed.
func (s *Scanner) Events() <-chan Event {
	return s.events
}

// Cancel stops the scan at the next directory descent or entry
// emission. Events already queued are still delivered; no new ones
// are produced. Safe from any goroutine.
func (s *Scanner) Cancel() {
	s.cancelled.Store(true)
}

// Run executes the scan. It returns after all phases complete, the
// context is cancelled, or Cancel takes effect. A second Run on the
// same scanner is an error.
func (s *Scanner) Run(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return fmt.Errorf("scan: scanner already run")
	}
	go s.pump()
	defer func() {
		s.mu.Lock()
		s.producerDone = true
		s.queueChanged.Broadcast()
		s.mu.Unlock()
	}()

	start := s.clock.Now()

	s.populate(ctx)
	emitted := s.emitInstalled(ctx)
	emitted += s.emitLooseFiles(ctx)

	if err := ctx.Err(); err != nil {
		return err
	}
	if s.cancelled.Load() {
		s.logger.Info("content scan cancelled", "entries", emitted)
		return nil
	}

	s.enqueue(Event{Kind: EventKindFinished, WatchList: s.watchList})
	s.logger.Info("content scan finished",
		"entries", emitted,
		"directories", len(s.watchList),
		"elapsed", s.clock.Now().Sub(start))
	return nil
}

// stopped reports whether emission must cease.
func (s *Scanner) stopped(ctx context.Context) bool {
	return s.cancelled.Load() || ctx.Err() != nil
}

// enqueue appends an event to the unbounded queue feeding the events
// channel. Never blocks.
func (s *Scanner) enqueue(event Event) {
	s.mu.Lock()
	s.queue = append(s.queue, event)
	s.queueChanged.Signal()
	s.mu.Unlock()
}

// pump moves queued events onto the events channel and closes it once
// the producer is done and the queue is drained. Owning the channel
// here keeps Run from ever blocking on a slow consumer.
func (s *Scanner) pump() {
	defer close(s.events)
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.producerDone {
			s.queueChanged.Wait()
		}
		if len(s.queue) == 0 {
			s.mu.Unlock()
			return
		}
		event := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()
		s.events <- event
	}
}

// populate is phase one: clear the manual provider and refill it with
// every record found in installable containers under the roots.
func (s *Scanner) populate(ctx context.Context) {
	s.opts.Manual.ClearAllEntries()
	for _, root := range s.opts.Roots {
		s.walkRoot(ctx, root, func(path string, file vfs.File) {
			if !container.Detect(file).Installable() {
				return
			}
			records, err := s.opts.Parsers.Records(file)
			if err != nil {
				s.logger.Debug("container parse failed", "path", path, "error", err)
				return
			}
			for _, record := range records {
				// Identity records carry no title metadata and
				// cannot be registered under a real id.
				if record.TitleID == 0 {
					continue
				}
				s.opts.Manual.AddEntry(record.TitleType, record.Type, record.TitleID, record.File)
				if record.Version != 0 {
					s.opts.Manual.SetEntryVersion(record.TitleID, record.Version)
				}
			}
		})
	}
}

// emitInstalled is phase two: report program content of application
// titles resolvable through the union, excluding the frontend-manual
// slot phase one just filled (those files are reported by the loose
// file phase, against their real on-disk paths).
func (s *Scanner) emitInstalled(ctx context.Context) int {
	applicationType := title.TypeApplication
	programRecord := title.ContentProgram
	manualSlot := content.SlotFrontendManual
	installed := s.opts.Union.ListSlotEntries(content.Filter{
		TitleType:   &applicationType,
		RecordType:  &programRecord,
		ExcludeSlot: &manualSlot,
	})

	emitted := 0
	for _, slotEntry := range installed {
		if s.stopped(ctx) {
			break
		}
		entry, err := s.installedEntry(slotEntry.Entry.TitleID)
		if err != nil {
			s.logger.Debug("installed entry skipped", "title", slotEntry.Entry.TitleID, "error", err)
			continue
		}
		s.enqueue(Event{Kind: EventKindEntry, Entry: entry})
		emitted++
	}
	return emitted
}

// emitLooseFiles is phase three: walk the roots again and report
// every file a registered loader can open.
func (s *Scanner) emitLooseFiles(ctx context.Context) int {
	emitted := 0
	for _, root := range s.opts.Roots {
		s.walkRoot(ctx, root, func(path string, file vfs.File) {
			entry, err := s.looseEntry(path, file)
			if err != nil {
				s.logger.Debug("file skipped", "path", path, "error", err)
				return
			}
			if s.stopped(ctx) {
				return
			}
			s.enqueue(Event{Kind: EventKindEntry, Entry: entry})
			emitted++
		})
	}
	return emitted
}

func (s *Scanner) installedEntry(id title.ID) (*Entry, error) {
	file, err := s.opts.Union.GetEntryUnparsed(id, title.ContentProgram)
	if err != nil {
		return nil, err
	}

	entry := &Entry{
		Path:          filePath(file),
		Name:          file.Name(),
		ProgramID:     id,
		FileType:      container.Detect(file).DisplayName(),
		Size:          file.Size(),
		Compatibility: s.opts.Compat.Lookup(id),
		Patches:       s.patchManager(id).PatchVersionNames(nil),
	}
	s.applyControl(entry, id)
	return entry, nil
}

func (s *Scanner) looseEntry(path string, file vfs.File) (*Entry, error) {
	ldr, err := s.opts.Loaders.Resolve(file)
	if err != nil {
		return nil, err
	}
	programID, err := ldr.ProgramID()
	if err != nil {
		return nil, fmt.Errorf("program id: %w", err)
	}

	entry := &Entry{
		Path:          path,
		Name:          file.Name(),
		ProgramID:     programID,
		FileType:      ldr.FileType().DisplayName(),
		Size:          file.Size(),
		Compatibility: s.opts.Compat.Lookup(programID),
	}
	if name, err := ldr.Title(); err == nil && name != "" {
		entry.Name = name
	}
	if icon, err := ldr.Icon(); err == nil {
		entry.Icon = icon
	}
	var updateRaw vfs.File
	if raw, err := ldr.UpdateRaw(); err == nil {
		updateRaw = raw
	}
	entry.Patches = s.patchManager(programID).PatchVersionNames(updateRaw)
	return entry, nil
}

// patchManager builds a per-title patch manager over the update
// overlay, so an installed update's control and version shadow the
// base title's.
func (s *Scanner) patchManager(id title.ID) *patch.Manager {
	return patch.NewManager(id, patch.Config{
		Provider: s.overlay,
		Control:  s.opts.Control,
		LoadDir:  s.opts.LoadDir,
		Logger:   s.logger,
	})
}

// applyControl fills the entry's name and icon from control content
// when a parser can decode it. Failures leave the file-derived name;
// a scan entry without pretty metadata beats no entry.
func (s *Scanner) applyControl(entry *Entry, id title.ID) {
	if s.opts.Control == nil {
		return
	}
	meta, icon, err := s.patchManager(id).ControlData()
	if err != nil {
		s.logger.Debug("control metadata unavailable", "title", id, "error", err)
		return
	}
	if meta != nil && meta.Name != "" {
		entry.Name = meta.Name
	}
	if icon != nil {
		if data, err := vfs.ReadAll(icon); err == nil {
			entry.Icon = data
		}
	}
}

// walkRoot walks one root with its configured depth.
func (s *Scanner) walkRoot(ctx context.Context, root RootDir, visit func(path string, file vfs.File)) {
	depth := 0
	if root.Deep {
		depth = deepScanDepth
	}
	s.walk(ctx, root.Path, depth, visit)
}

// walk visits the regular files of dir in name order, descending into
// subdirectories while depth remains. Symlinked directories are never
// followed; symlinks to regular files are visited through the link
// path.
func (s *Scanner) walk(ctx context.Context, dir string, depth int, visit func(path string, file vfs.File)) {
	if s.stopped(ctx) {
		return
	}
	s.recordWatch(dir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		s.logger.Debug("unreadable directory", "path", dir, "error", err)
		return
	}
	for _, entry := range entries {
		if s.stopped(ctx) {
			return
		}
		path := filepath.Join(dir, entry.Name())
		if entry.Type()&fs.ModeSymlink != 0 {
			info, err := os.Stat(path)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
			s.visitFile(path, visit)
			continue
		}
		if entry.IsDir() {
			if depth > 0 {
				s.walk(ctx, path, depth-1, visit)
			}
			continue
		}
		if !entry.Type().IsRegular() {
			continue
		}
		s.visitFile(path, visit)
	}
}

func (s *Scanner) visitFile(path string, visit func(path string, file vfs.File)) {
	file, err := vfs.OpenOSFile(path)
	if err != nil {
		s.logger.Debug("unreadable file", "path", path, "error", err)
		return
	}
	visit(path, file)
}

// recordWatch notes a visited directory for the finished event's
// watch list. Both walk phases visit the same tree; only the first
// visit registers.
func (s *Scanner) recordWatch(dir string) {
	if _, seen := s.watchSeen[dir]; seen {
		return
	}
	s.watchSeen[dir] = struct{}{}
	s.watchList = append(s.watchList, dir)
}

// filePath reports the fullest path a file can offer: host-backed
// files expose their real path, others fall back to the display name.
func filePath(file vfs.File) string {
	if p, ok := file.(interface{ Path() string }); ok {
		return p.Path()
	}
	return file.Name()
}
