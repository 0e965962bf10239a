package actortest

import (
	"sync"
	"time"

	"github.com/kindredapp/kindred/internal/actor"
)

// FakeClock is a Clock that only moves when told to.
//
// With a step set, every Now call returns the current time and then moves the
// clock forward by step, so consecutive stamps are distinct and ordered.
type FakeClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

var _ actor.Clock = (*FakeClock)(nil)

// NewFakeClock returns a FakeClock reading start.
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

// Now implements actor.Clock.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now
	c.now = c.now.Add(c.step)
	return now
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Step makes every later Now call advance the clock by d. Zero stops it.
func (c *FakeClock) Step(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.step = d
}
