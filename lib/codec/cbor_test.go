// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"testing"
)

// sampleRecord is a representative internal record using cbor struct
// tags (the convention for purely-internal types).
type sampleRecord struct {
	Source string `cbor:"source"`
	Label  string `cbor:"label,omitempty"`
	Size   int64  `cbor:"size"`
}

// sampleDualRecord carries only json struct tags, the convention for
// types that also surface in CLI output; fxamacker reads them as the
// fallback.
type sampleDualRecord struct {
	Version int    `json:"version"`
	Name    string `json:"name"`
}

func TestMarshalUnmarshalRoundtrip(t *testing.T) {
	original := sampleRecord{
		Source: "game.nsp",
		Label:  "user-installed",
		Size:   4096,
	}

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	if len(data) == 0 {
		t.Fatal("Marshal produced empty output")
	}

	var decoded sampleRecord
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if decoded != original {
		t.Errorf("roundtrip mismatch: got %+v, want %+v", decoded, original)
	}
}

func TestMarshalDeterministic(t *testing.T) {
	record := sampleRecord{
		Source: "update.nsp",
		Label:  "update",
		Size:   7,
	}

	first, err := Marshal(record)
	if err != nil {
		t.Fatalf("first Marshal: %v", err)
	}

	second, err := Marshal(record)
	if err != nil {
		t.Fatalf("second Marshal: %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Errorf("deterministic encoding violated: %x != %x", first, second)
	}
}

func TestJSONTagFallback(t *testing.T) {
	// A type with only json tags must round-trip through the shared
	// modes with the json names as its CBOR map keys.
	original := sampleDualRecord{Version: 3, Name: "entry"}

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded sampleDualRecord
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if decoded != original {
		t.Errorf("json-tag roundtrip mismatch: got %+v, want %+v", decoded, original)
	}
}

func TestUnmarshalIgnoresUnknownFields(t *testing.T) {
	// A record written by a newer depot may carry fields this build
	// does not know. Decoding must not fail on them.
	type widened struct {
		Source string `cbor:"source"`
		Size   int64  `cbor:"size"`
		Extra  string `cbor:"extra"`
	}

	data, err := Marshal(widened{Source: "game.nsp", Size: 9, Extra: "future"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded sampleRecord
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Source != "game.nsp" || decoded.Size != 9 {
		t.Errorf("got %+v, want Source=game.nsp Size=9", decoded)
	}
}

func TestOmitemptyRespected(t *testing.T) {
	withLabel := sampleRecord{Source: "a", Label: "x", Size: 1}
	withoutLabel := sampleRecord{Source: "a", Size: 1}

	dataWith, err := Marshal(withLabel)
	if err != nil {
		t.Fatal(err)
	}
	dataWithout, err := Marshal(withoutLabel)
	if err != nil {
		t.Fatal(err)
	}

	// A zero-value omitempty field must vanish from the map entirely,
	// which shows up as a strictly shorter encoding.
	if len(dataWithout) >= len(dataWith) {
		t.Errorf("omitempty not effective: without=%d bytes, with=%d bytes",
			len(dataWithout), len(dataWith))
	}
}

func TestUnmarshalInvalidCBOR(t *testing.T) {
	// A map header promising two pairs, then nothing.
	var record sampleRecord
	err := Unmarshal([]byte{0xA2, 0x01}, &record)
	if err == nil {
		t.Error("Unmarshal should reject truncated CBOR")
	}
}

func TestByteStringRoundtrip(t *testing.T) {
	// []byte fields must come out as CBOR byte strings, not text;
	// icon payloads and digests travel through these.
	type envelope struct {
		Payload []byte `cbor:"payload"`
	}

	original := envelope{Payload: []byte{0xDE, 0xAD, 0xBE, 0xEF}}

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded envelope
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if !bytes.Equal(decoded.Payload, original.Payload) {
		t.Errorf("byte string roundtrip: got %x, want %x", decoded.Payload, original.Payload)
	}
}

func BenchmarkMarshal(b *testing.B) {
	record := sampleRecord{
		Source: "game.nsp",
		Label:  "user-installed",
		Size:   4096,
	}

	b.ReportAllocs()
	for b.Loop() {
		Marshal(record)
	}
}

func BenchmarkUnmarshal(b *testing.B) {
	record := sampleRecord{
		Source: "game.nsp",
		Label:  "user-installed",
		Size:   4096,
	}
	data, err := Marshal(record)
	if err != nil {
		b.Fatal(err)
	}

	b.SetBytes(int64(len(data)))
	b.ReportAllocs()
	for b.Loop() {
		var decoded sampleRecord
		Unmarshal(data, &decoded)
	}
}
