// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for depot.
//
// One file configures everything. [Load] reads the path in the
// DEPOT_CONFIG environment variable; [LoadFile] reads an explicit
// path (the --config flag). When neither names a file, [Load] returns
// the defaults: depot works out of the box with everything under one
// storage root.
//
// Scalar settings can be overridden by DEPOT_* environment variables
// (DEPOT_STORAGE_ROOT, DEPOT_LOG_LEVEL, ...) after the file loads.
// Variable expansion is performed on path fields: ${HOME},
// ${DEPOT_ROOT}, and ${VAR:-default} patterns are expanded.
//
// Key exports:
//
//   - [Config] -- master struct with Storage, Scan, Cache, Compat, Log
//   - [Default] -- returns a Config with out-of-the-box defaults
//   - [Load] and [LoadFile] -- env-driven and explicit-path loading
//
// This package depends on no other depot packages.
package config
