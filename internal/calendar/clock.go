package calendar

import (
	"sync"
	"time"
)

// PauseIdle is how long a paused tick sleeps so a paused host loop does
// not spin.
const PauseIdle = 50 * time.Millisecond

// speedTable holds the tick duration presets, slowest first.
var speedTable = [7]time.Duration{
	500 * time.Millisecond,
	200 * time.Millisecond,
	100 * time.Millisecond,
	50 * time.Millisecond,
	20 * time.Millisecond,
	10 * time.Millisecond,
	2 * time.Millisecond,
}

// SpeedLevels is the number of speed presets.
const SpeedLevels = len(speedTable)

// DefaultSpeed is the preset used when nothing else is configured.
const DefaultSpeed = 3

// SpeedInterval returns the tick duration for a speed index, clamping
// out-of-range indices to the nearest preset.
func SpeedInterval(index int) time.Duration {
	return speedTable[ClampSpeed(index)]
}

// ClampSpeed limits index to a valid speed preset.
func ClampSpeed(index int) int {
	if index < 0 {
		return 0
	}
	if index >= SpeedLevels {
		return SpeedLevels - 1
	}
	return index
}

// Clock owns the tick counter. The host loop is its only writer; anyone
// may read Now.
type Clock struct {
	mu    sync.RWMutex
	tick  uint64
	date  Date
	sleep func(time.Duration)
}

// NewClock returns a clock starting at tick.
func NewClock(tick uint64) *Clock {
	return &Clock{tick: tick, date: FromTick(tick), sleep: time.Sleep}
}

// SetSleep replaces the function used to idle while paused.
func (c *Clock) SetSleep(fn func(time.Duration)) {
	c.sleep = fn
}

// Tick advances the clock by one minute and classifies the change. A
// paused clock idles for PauseIdle and reports Paused without moving.
func (c *Clock) Tick(paused bool) Event {
	if paused {
		c.sleep(PauseIdle)
		return Paused
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.date
	c.tick++
	c.date = FromTick(c.tick)
	return Classify(prev, c.date)
}

// Now returns the current tick and its date.
func (c *Clock) Now() (uint64, Date) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tick, c.date
}
