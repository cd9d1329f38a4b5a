// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

// Package title defines title identifiers and the content taxonomy used
// across the content-resolution layer: 64-bit title ids with the
// base/update arithmetic convention, content record types, title kinds,
// and the packed version encoding.
package title

import (
	"fmt"
	"strconv"
	"strings"
)

// ID is a 64-bit title identifier. The canonical text form is sixteen
// upper-case hex digits with no prefix.
type ID uint64

// updateBit distinguishes an update title id from its base title id.
// An application's update carries the base id with this bit set.
const updateBit ID = 0x800

// String returns the canonical sixteen-digit upper-case hex form.
func (id ID) String() string {
	return fmt.Sprintf("%016X", uint64(id))
}

// ParseID parses a title id from hex text. Both cases are accepted; an
// optional "0x" prefix is tolerated. The digit count is not required to
// be sixteen, so short forms from hand-written configs parse too.
func ParseID(s string) (ID, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(s), "0x")
	if trimmed == "" {
		return 0, fmt.Errorf("title: empty title id")
	}
	value, err := strconv.ParseUint(trimmed, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("title: parsing id %q: %w", s, err)
	}
	return ID(value), nil
}

// UpdateID returns the update title id paired with the given base id.
func UpdateID(base ID) ID {
	return base | updateBit
}

// BaseID returns the base title id for an id that may be an update id.
func BaseID(id ID) ID {
	return id &^ updateBit
}

// IsUpdateID reports whether the id carries the update bit.
func IsUpdateID(id ID) bool {
	return id&updateBit != 0
}

// ContentRecordType identifies one content record inside a title: the
// executable program, its control data, legal information, and so on.
// Values follow the console's content metadata encoding.
type ContentRecordType uint8

const (
	ContentMeta             ContentRecordType = 0
	ContentProgram          ContentRecordType = 1
	ContentData             ContentRecordType = 2
	ContentControl          ContentRecordType = 3
	ContentHTMLDocument     ContentRecordType = 4
	ContentLegalInformation ContentRecordType = 5
	ContentDeltaFragment    ContentRecordType = 6
)

var contentRecordNames = map[ContentRecordType]string{
	ContentMeta:             "meta",
	ContentProgram:          "program",
	ContentData:             "data",
	ContentControl:          "control",
	ContentHTMLDocument:     "html_document",
	ContentLegalInformation: "legal_information",
	ContentDeltaFragment:    "delta_fragment",
}

func (t ContentRecordType) String() string {
	if name, ok := contentRecordNames[t]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", uint8(t))
}

// ParseContentRecordType parses the lower-case name form produced by
// String. Used by the CLI and the registered-cache path layout.
func ParseContentRecordType(s string) (ContentRecordType, error) {
	for t, name := range contentRecordNames {
		if name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("title: unknown content record type %q", s)
}

// Type classifies what kind of title an id refers to. Application-range
// values follow the console's meta-type encoding; the system ranges
// exist so installed firmware content can be filtered out of listings.
type Type uint8

const (
	TypeSystemProgram Type = 0x01
	TypeSystemData    Type = 0x02
	TypeSystemUpdate  Type = 0x03
	TypeFirmwareA     Type = 0x04
	TypeFirmwareB     Type = 0x05
	TypeApplication   Type = 0x80
	TypeUpdate        Type = 0x81
	TypeAOC           Type = 0x82
	TypeDelta         Type = 0x83
)

var typeNames = map[Type]string{
	TypeSystemProgram: "system_program",
	TypeSystemData:    "system_data",
	TypeSystemUpdate:  "system_update",
	TypeFirmwareA:     "firmware_a",
	TypeFirmwareB:     "firmware_b",
	TypeApplication:   "application",
	TypeUpdate:        "update",
	TypeAOC:           "aoc",
	TypeDelta:         "delta",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%#02x)", uint8(t))
}

// ParseType parses the lower-case name form produced by String.
func ParseType(s string) (Type, error) {
	for t, name := range typeNames {
		if name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("title: unknown title type %q", s)
}

// IsSystem reports whether the title type belongs to the firmware or
// system ranges rather than user-facing content.
func (t Type) IsSystem() bool {
	return t < TypeApplication
}

// Version is the packed title version: major in the top six bits, then
// six bits of minor, four of micro. The remaining low bits hold the
// internal build counter and do not appear in the display form.
type Version uint32

// String formats the version the way release notes write it, for
// example "v1.2.0".
func (v Version) String() string {
	return fmt.Sprintf("v%d.%d.%d", v.Major(), v.Minor(), v.Micro())
}

func (v Version) Major() uint32 { return uint32(v) >> 26 }
func (v Version) Minor() uint32 { return (uint32(v) >> 20) & 0x3F }
func (v Version) Micro() uint32 { return (uint32(v) >> 16) & 0xF }

// ControlMeta is the slice of control-content metadata the resolution
// layer cares about: the display name and version string shown in
// listings. Parsing the full control structure is the format plugin's
// job; this is its distilled result.
type ControlMeta struct {
	// Name is the title's display name.
	Name string

	// DisplayVersion is the human-readable version string, which may
	// disagree with the packed Version (publishers set it freely).
	DisplayVersion string
}
