package actor

import "time"

// Clock provides a testable time source.
//
// Reducers must not call a Clock. Event producers stamp inputs with it
// instead.
type Clock interface {
	Now() time.Time
}

// RealClock is the production Clock backed by time.Now.
type RealClock struct{}

// Now implements Clock.
func (RealClock) Now() time.Time { return time.Now() }
