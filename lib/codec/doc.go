// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides Depot's standard CBOR encoding configuration.
//
// Depot keeps a clear format boundary: text formats a person edits or
// reads stay at the edges (YAML configuration, the JSONC
// compatibility list, JSON --json output), while CBOR carries the
// internal records no one hand-edits, such as the registered cache's
// install metadata.
//
// Every package encodes through the modes here so the whole module
// encodes identically. The encoder uses Core Deterministic Encoding
// (RFC 8949 §4.2), which keeps index blobs byte-comparable across
// processes.
//
// Struct tags follow the format a type serves: `cbor` tags on types
// that only ever exist as CBOR (the cache's install metadata), `json`
// tags on types that serve CLI output. fxamacker/cbor falls back to
// `json` tags when `cbor` tags are absent, so a type never needs both.
package codec
