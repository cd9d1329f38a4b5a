// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source.
//
// Code that stamps records with the current time takes a Clock and
// calls Now on it instead of calling time.Now directly. Real() is the
// system clock. Fake() returns a clock tests control exactly:
//
//	c := clock.Fake(time.Unix(1700000000, 0))
//	// wire c into the component under test, then:
//	c.Advance(time.Minute)
//
// Depot components only ever read the clock, so Clock is a single
// method; there are no timers or tickers to fake.
package clock
