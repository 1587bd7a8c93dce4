package electy

import (
	"sync/atomic"
	"time"
)

// ManualClock is a clock only moving when asked to.
// It's safe for concurrent use
type ManualClock struct {
	now atomic.Uint64
}

// NewManualClock returns a clock starting at start
func NewManualClock(start uint64) *ManualClock {
	c := &ManualClock{}
	c.now.Store(start)
	return c
}

// Time returns the current time of the clock
func (c *ManualClock) Time() uint64 {
	return c.now.Load()
}

// Set moves the clock to now
func (c *ManualClock) Set(now uint64) {
	c.now.Store(now)
}

// Advance moves the clock forward by d and returns the new time
func (c *ManualClock) Advance(d uint64) uint64 {
	return c.now.Add(d)
}

// WallClock converts wall time elapsed since its creation
// into a number of ticks of duration resolution
type WallClock struct {
	start      time.Time
	resolution time.Duration
}

// NewWallClock returns a clock ticking every resolution.
// A resolution lower or equal to zero defaults to one millisecond
func NewWallClock(resolution time.Duration) *WallClock {
	if resolution <= 0 {
		resolution = time.Millisecond
	}
	return &WallClock{
		start:      time.Now(),
		resolution: resolution,
	}
}

// Time returns the number of ticks elapsed since the clock creation
func (c *WallClock) Time() uint64 {
	return uint64(time.Since(c.start) / c.resolution)
}
