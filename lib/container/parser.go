// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package container

import (
	"errors"
	"fmt"
	"sync"

	"github.com/depot-foundation/depot/lib/title"
	"github.com/depot-foundation/depot/lib/vfs"
)

// ErrNoRecord is returned by Extract when a container parses cleanly
// but holds no record matching the requested title id and record type.
var ErrNoRecord = errors.New("container: no matching record")

// Record is one content record yielded by parsing a container: which
// title it belongs to, what kind of content it is, and a handle on the
// record's bytes (typically a vfs.Window into the container).
type Record struct {
	TitleID title.ID
	Type    title.ContentRecordType

	// TitleType classifies the owning title (application, update,
	// AOC). Parsers that cannot tell report TypeApplication.
	TitleType title.Type

	// Version is the packed title version from the container's meta
	// record, zero when the parser cannot determine it.
	Version title.Version

	File vfs.File
}

// Parser enumerates the content records inside a container file. One
// implementation exists per Format, registered by the embedding
// application; this layer never parses container internals itself.
type Parser interface {
	Records(file vfs.File) ([]Record, error)
}

// ParserSet maps formats to their registered parsers. The zero value
// is usable and empty; a nil *ParserSet behaves as empty too, so
// components can make parsing strictly optional.
type ParserSet struct {
	mu      sync.RWMutex
	parsers map[Format]Parser
}

// NewParserSet returns an empty parser registry.
func NewParserSet() *ParserSet {
	return &ParserSet{}
}

// Register installs the parser for a format, replacing any previous
// registration. Registering nil removes the entry.
func (s *ParserSet) Register(format Format, parser Parser) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.parsers == nil {
		s.parsers = make(map[Format]Parser)
	}
	if parser == nil {
		delete(s.parsers, format)
		return
	}
	s.parsers[format] = parser
}

// Lookup returns the parser registered for a format, or nil.
func (s *ParserSet) Lookup(format Format) Parser {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.parsers[format]
}

// Records parses the file with the parser registered for its detected
// format. A file with no registered parser yields a single synthetic
// record for the file itself (identity parse) with unknown title
// metadata, so single-content files flow through unannotated.
func (s *ParserSet) Records(file vfs.File) ([]Record, error) {
	format := Detect(file)
	parser := s.Lookup(format)
	if parser == nil {
		return []Record{{File: file}}, nil
	}
	records, err := parser.Records(file)
	if err != nil {
		return nil, fmt.Errorf("container: parsing %s as %s: %w", file.Name(), format, err)
	}
	return records, nil
}

// Extract resolves the record matching (id, recordType) inside the
// file. With no parser registered for the file's format the file
// itself is returned: the caller asked for content the container is
// presumed to be. A parsed container lacking the record reports
// ErrNoRecord.
func (s *ParserSet) Extract(file vfs.File, id title.ID, recordType title.ContentRecordType) (vfs.File, error) {
	format := Detect(file)
	parser := s.Lookup(format)
	if parser == nil {
		return file, nil
	}
	records, err := parser.Records(file)
	if err != nil {
		return nil, fmt.Errorf("container: parsing %s as %s: %w", file.Name(), format, err)
	}
	for _, record := range records {
		if record.TitleID == id && record.Type == recordType {
			return record.File, nil
		}
	}
	return nil, fmt.Errorf("container: %s: record %s/%s: %w", file.Name(), id, recordType, ErrNoRecord)
}
