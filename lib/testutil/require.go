// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import "time"

// failer is the slice of testing.T the helpers need.
type failer interface {
	Helper()
	Fatalf(format string, args ...any)
}

// RequireReceive reads one value from ch or fails the test after
// timeout. Scan tests use it to collect the Run result without
// hanging the suite when a cancellation path breaks:
//
//	err := testutil.RequireReceive(t, done, 5*time.Second, "scan run")
func RequireReceive[T any](t failer, ch <-chan T, timeout time.Duration, msg string) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		if !ok {
			t.Fatalf("%s: channel closed without a value", msg)
		}
		return v
	case <-time.After(timeout):
		t.Fatalf("%s: timed out after %v", msg, timeout)
	}
	panic("unreachable")
}

// RequireClosed waits for ch to close (or deliver) or fails the test
// after timeout. Use it on readiness gates that signal by closing.
func RequireClosed(t failer, ch <-chan struct{}, timeout time.Duration, msg string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(timeout):
		t.Fatalf("%s: timed out after %v", msg, timeout)
	}
}
