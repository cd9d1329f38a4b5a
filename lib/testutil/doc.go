// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared helpers for tests that wait on
// channels.
//
// [RequireReceive] and [RequireClosed] wrap the select-with-timeout
// pattern so a broken cancellation path fails the test instead of
// hanging the run. They are the one place the test suite uses real
// wall-clock timeouts; code under test takes an injected clock.
package testutil
