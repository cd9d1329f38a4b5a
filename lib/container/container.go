// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

// Package container classifies content files into the closed set of
// supported container formats and defines the parser interface that
// per-format plugins implement. The package itself never interprets
// container internals beyond fixed-offset magic probes; real header
// parsing (and any decryption it needs) belongs to the plugins.
package container

import (
	"path/filepath"
	"strings"

	"github.com/depot-foundation/depot/lib/vfs"
)

// Format is a detected container format. The set is closed: new
// formats require a new constant, a detection rule, and a parser
// registration, which keeps "what can the scan meet" enumerable.
type Format uint8

const (
	// FormatUnknown is the total-function fallback: unreadable,
	// unrecognized, or corrupted input classifies here.
	FormatUnknown Format = iota

	// FormatNCA is a single content archive. Its magic sits behind
	// header encryption, so detection is by extension alone.
	FormatNCA

	// FormatNSP is a submission package holding multiple content
	// records ("PFS0" magic at offset 0).
	FormatNSP

	// FormatXCI is a gamecard image ("HEAD" magic at offset 0x100).
	FormatXCI

	// FormatNRO is a directly executable binary ("NRO0" magic at
	// offset 0x10). Not installable; the loader path handles it.
	FormatNRO

	// FormatExtractedMain is the conventional "main" file at the root
	// of an extracted title directory. Not installable.
	FormatExtractedMain
)

var formatNames = map[Format]string{
	FormatUnknown:       "unknown",
	FormatNCA:           "nca",
	FormatNSP:           "nsp",
	FormatXCI:           "xci",
	FormatNRO:           "nro",
	FormatExtractedMain: "extracted",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return "unknown"
}

// DisplayName returns the file-type label presentation records carry.
func (f Format) DisplayName() string {
	switch f {
	case FormatNCA:
		return "NCA"
	case FormatNSP:
		return "NSP"
	case FormatXCI:
		return "XCI"
	case FormatNRO:
		return "NRO"
	case FormatExtractedMain:
		return "Extracted"
	default:
		return "Unknown"
	}
}

// Installable reports whether files of this format carry content
// records that belong in a content provider. Direct executables and
// extracted directories take the loader path instead.
func (f Format) Installable() bool {
	switch f {
	case FormatNCA, FormatNSP, FormatXCI:
		return true
	default:
		return false
	}
}

// magic probe positions for the formats that expose one.
var magicProbes = []struct {
	format Format
	offset int64
	magic  string
}{
	{FormatNSP, 0x0, "PFS0"},
	{FormatNRO, 0x10, "NRO0"},
	{FormatXCI, 0x100, "HEAD"},
}

// Detect classifies a file. Detection is total and side-effect-free:
// any input yields exactly one Format and never an error. A recognized
// extension must be confirmed by the format's magic where one is
// readable; mismatches classify as FormatUnknown rather than trusting
// the name.
func Detect(file vfs.File) Format {
	if file == nil {
		return FormatUnknown
	}
	name := file.Name()
	if name == "main" {
		return FormatExtractedMain
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".nca":
		return FormatNCA
	case ".nsp":
		return detectByMagic(file, FormatNSP)
	case ".xci":
		return detectByMagic(file, FormatXCI)
	case ".nro":
		return detectByMagic(file, FormatNRO)
	}

	// No recognized extension: fall back to probing every magic so
	// renamed dumps still classify.
	for _, probe := range magicProbes {
		if hasMagic(file, probe.offset, probe.magic) {
			return probe.format
		}
	}
	return FormatUnknown
}

// detectByMagic confirms an extension-suggested format by its magic.
func detectByMagic(file vfs.File, want Format) Format {
	for _, probe := range magicProbes {
		if probe.format != want {
			continue
		}
		if hasMagic(file, probe.offset, probe.magic) {
			return want
		}
	}
	return FormatUnknown
}

func hasMagic(file vfs.File, offset int64, magic string) bool {
	buf := make([]byte, len(magic))
	n, _ := file.ReadAt(buf, offset)
	return n == len(magic) && string(buf) == magic
}
