package testfixtures

import (
	"sync"
	"time"
)

// Clock provides a controllable time source for history timestamps. With a
// non-zero step every reading advances the clock, so consecutive history
// records get distinct, predictable timestamps.
type Clock struct {
	mu      sync.Mutex
	current time.Time
	step    time.Duration
}

// NewClock returns a clock initialised to the supplied time. When start is the
// zero value, ReferenceTime is used.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	return &Clock{current: start}
}

// NewTickingClock returns a clock that advances by step after every reading.
func NewTickingClock(start time.Time, step time.Duration) *Clock {
	c := NewClock(start)
	c.step = step
	return c
}

// Now returns the current instant and then applies the configured step.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.current
	c.current = c.current.Add(c.step)
	return now
}

// NowFunc exposes Now as a function suitable for dependency injection.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

// Set updates the clock to the provided time.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.current = t
	c.mu.Unlock()
}

// Advance moves the clock forward by the provided duration and returns the
// updated time.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	c.current = c.current.Add(d)
	updated := c.current
	c.mu.Unlock()
	return updated
}

// Current returns the next reading without consuming it.
func (c *Clock) Current() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}
