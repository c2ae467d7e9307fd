// Copyright 2026 The Turnstile Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts time for testability.
//
// The ledger core is ordered by its own sequence counter and never
// reads the clock — determinism requires that. The service shell does:
// journal rows carry a wall-clock receipt time, and the status action
// reports uptime. Production code injects [Real]; tests inject [Fake]
// and advance time explicitly.
package clock

import "time"

// Clock provides the time operations the service shell needs. Every
// production function that would call time.Now or time.Sleep accepts
// a Clock (or is a method on a struct with a Clock field) instead of
// calling the time package directly.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives the current time after
	// duration d elapses. If d <= 0, the channel receives
	// immediately.
	After(d time.Duration) <-chan time.Time

	// Sleep pauses the current goroutine for at least duration d.
	Sleep(d time.Duration)
}
