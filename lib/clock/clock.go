// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock supplies the current time. Code that stamps records (the
// registered cache marks installs, the scanner times its passes)
// takes a Clock instead of calling time.Now directly, so tests can
// pin time to a known value.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// Real returns the Clock backed by the system clock.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }
