package speed

import (
	"time"

	"github.com/benbjohnson/clock"
)

// Uptime is a monotonic millisecond time source
type Uptime interface {
	UptimeMillis() int64
}

type clockUptime struct {
	clock  clock.Clock
	origin time.Time
}

var processStart = time.Now()

// NewUptime measures milliseconds on c since the process started (or since construction for mock clocks).
// Readings start at 1 because 0 marks a monitor that has never been sampled.
func NewUptime(c clock.Clock) Uptime {
	origin := processStart
	if _, ok := c.(*clock.Mock); ok {
		origin = c.Now()
	}

	return &clockUptime{
		clock:  c,
		origin: origin,
	}
}

func (u *clockUptime) UptimeMillis() int64 {
	return u.clock.Since(u.origin).Milliseconds() + 1
}

// SystemUptime returns an Uptime backed by the wall clock's monotonic reading
func SystemUptime() Uptime {
	return NewUptime(clock.New())
}
