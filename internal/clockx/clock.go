// Package clockx provides a tiny time abstraction.
//
// Session expiry and TOTP step math depend on wall-clock time; depending on
// the Clocker interface instead of time.Now() directly lets tests drive a
// deterministic fake clock.
package clockx

import "time"

// Clocker abstracts the current time.
type Clocker interface {
	Now() time.Time
}

// SystemClock is the production clock backed by time.Now.
type SystemClock struct{}

// New returns a SystemClock reading the current system time.
func New() *SystemClock {
	return &SystemClock{}
}

// Now returns the current system time.
func (*SystemClock) Now() time.Time {
	return time.Now()
}
