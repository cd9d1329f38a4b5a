// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

// Package cache implements the registered-cache commands: "depot
// titles", "depot info", "depot install", "depot uninstall", and
// "depot refresh". They are exposed as top-level commands rather than
// nested under a "cache" parent because they are the operations users
// reach for most.
package cache
