// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package container

import (
	"errors"
	"testing"

	"github.com/depot-foundation/depot/lib/title"
	"github.com/depot-foundation/depot/lib/vfs"
)

// nspImage builds a minimal byte image carrying the submission-package
// magic at offset zero.
func nspImage() []byte {
	data := make([]byte, 64)
	copy(data, "PFS0")
	return data
}

func xciImage() []byte {
	data := make([]byte, 0x120)
	copy(data[0x100:], "HEAD")
	return data
}

func nroImage() []byte {
	data := make([]byte, 0x20)
	copy(data[0x10:], "NRO0")
	return data
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		file vfs.File
		want Format
	}{
		{"nsp", vfs.NewMemFile("game.nsp", nspImage()), FormatNSP},
		{"xci", vfs.NewMemFile("card.xci", xciImage()), FormatXCI},
		{"nro", vfs.NewMemFile("homebrew.nro", nroImage()), FormatNRO},
		{"nca by extension", vfs.NewMemFile("content.nca", []byte("opaque encrypted bytes")), FormatNCA},
		{"extracted main", vfs.NewMemFile("main", []byte{0, 1, 2}), FormatExtractedMain},
		{"nsp magic without extension", vfs.NewMemFile("renamed.bin", nspImage()), FormatNSP},
		{"corrupted nsp", vfs.NewMemFile("broken.nsp", []byte("not a package at all")), FormatUnknown},
		{"corrupted xci", vfs.NewMemFile("short.xci", []byte("tiny")), FormatUnknown},
		{"junk", vfs.NewMemFile("not-a-thing.txt", []byte("plain text")), FormatUnknown},
		{"empty", vfs.NewMemFile("void.nsp", nil), FormatUnknown},
		{"nil file", nil, FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Detect(tt.file); got != tt.want {
				t.Errorf("Detect(%s) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestFormatInstallable(t *testing.T) {
	tests := []struct {
		format Format
		want   bool
	}{
		{FormatNCA, true},
		{FormatNSP, true},
		{FormatXCI, true},
		{FormatNRO, false},
		{FormatExtractedMain, false},
		{FormatUnknown, false},
	}

	for _, tt := range tests {
		if got := tt.format.Installable(); got != tt.want {
			t.Errorf("%v.Installable() = %v, want %v", tt.format, got, tt.want)
		}
	}
}

// fakeParser yields a fixed record list or error, and counts calls so
// tests can assert the parse actually ran (or did not).
type fakeParser struct {
	records []Record
	err     error
	calls   int
}

func (p *fakeParser) Records(file vfs.File) ([]Record, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.records, nil
}

func TestParserSetIdentityFallback(t *testing.T) {
	set := NewParserSet()
	file := vfs.NewMemFile("content.nca", []byte("bytes"))

	got, err := set.Extract(file, 0x0100000000010000, title.ContentProgram)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if got != file {
		t.Error("Extract without a registered parser should return the input file")
	}

	records, err := set.Records(file)
	if err != nil {
		t.Fatalf("Records failed: %v", err)
	}
	if len(records) != 1 || records[0].File != file {
		t.Errorf("Records = %d entries, want the identity record", len(records))
	}

	// A nil set behaves the same way.
	var nilSet *ParserSet
	if nilSet.Lookup(FormatNCA) != nil {
		t.Error("nil ParserSet.Lookup should return nil")
	}
}

func TestParserSetExtract(t *testing.T) {
	const id = title.ID(0x0100000000010000)
	inner := vfs.NewMemFile("program", []byte("program bytes"))
	parser := &fakeParser{records: []Record{
		{TitleID: id, Type: title.ContentControl, File: vfs.NewMemFile("control", nil)},
		{TitleID: id, Type: title.ContentProgram, File: inner},
	}}

	set := NewParserSet()
	set.Register(FormatNSP, parser)

	got, err := set.Extract(vfs.NewMemFile("game.nsp", nspImage()), id, title.ContentProgram)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if got != inner {
		t.Error("Extract returned the wrong record file")
	}
	if parser.calls != 1 {
		t.Errorf("parser ran %d times, want 1", parser.calls)
	}

	// Missing record type reports ErrNoRecord.
	_, err = set.Extract(vfs.NewMemFile("game.nsp", nspImage()), id, title.ContentData)
	if !errors.Is(err, ErrNoRecord) {
		t.Errorf("Extract for absent record returned %v, want ErrNoRecord", err)
	}
}

func TestParserSetParseFailure(t *testing.T) {
	parseErr := errors.New("truncated entry table")
	set := NewParserSet()
	set.Register(FormatNSP, &fakeParser{err: parseErr})

	_, err := set.Extract(vfs.NewMemFile("game.nsp", nspImage()), 1, title.ContentProgram)
	if !errors.Is(err, parseErr) {
		t.Errorf("Extract returned %v, want wrapped parse error", err)
	}
}

func TestParserSetRegisterNilRemoves(t *testing.T) {
	set := NewParserSet()
	parser := &fakeParser{}
	set.Register(FormatXCI, parser)
	if set.Lookup(FormatXCI) == nil {
		t.Fatal("Lookup after Register returned nil")
	}
	set.Register(FormatXCI, nil)
	if set.Lookup(FormatXCI) != nil {
		t.Error("Lookup after Register(nil) should return nil")
	}
}
