package ledger

import "time"

// Clock supplies the current time for expiry checks and record timestamps.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// monotonicClock never reports a time earlier than one it already reported.
// Callers must hold the ledger write lock.
type monotonicClock struct {
	source Clock
	last   time.Time
}

func (c *monotonicClock) now() time.Time {
	t := c.source.Now()
	if t.Before(c.last) {
		return c.last
	}
	c.last = t
	return t
}

func (c *monotonicClock) observe(t time.Time) {
	if t.After(c.last) {
		c.last = t
	}
}
