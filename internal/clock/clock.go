package clock

import "time"

// DefaultTickPeriod is the advance per tick of a TimerClock
const DefaultTickPeriod = 25 * time.Millisecond

// TimerClock counts fixed-period ticks while running.
// Elapsed time is derived from the tick count, never from wall time, so
// pausing or a late tick cannot shift the workout.
// A TimerClock is not safe for concurrent use; the owning loop serializes access.
type TimerClock struct {
	period       time.Duration
	elapsedTicks int64
	running      bool
}

// NewTimerClock returns an idle clock at zero. A non-positive period
// falls back to DefaultTickPeriod.
func NewTimerClock(period time.Duration) *TimerClock {
	if period <= 0 {
		period = DefaultTickPeriod
	}
	return &TimerClock{period: period}
}

// Resume starts accumulating ticks from the current count
func (c *TimerClock) Resume() {
	c.running = true
}

// Pause freezes the tick count
func (c *TimerClock) Pause() {
	c.running = false
}

// Reset returns to zero and stops the clock
func (c *TimerClock) Reset() {
	c.elapsedTicks = 0
	c.running = false
}

// Tick advances by one tick when running and reports whether it did
func (c *TimerClock) Tick() bool {
	if !c.running {
		return false
	}
	c.elapsedTicks++
	return true
}

func (c *TimerClock) Running() bool {
	return c.running
}

func (c *TimerClock) Period() time.Duration {
	return c.period
}

func (c *TimerClock) ElapsedTicks() int64 {
	return c.elapsedTicks
}

// Elapsed returns elapsedTicks * period
func (c *TimerClock) Elapsed() time.Duration {
	return time.Duration(c.elapsedTicks) * c.period
}

// ElapsedSeconds returns Elapsed in seconds, the input of the stage mapper
func (c *TimerClock) ElapsedSeconds() float64 {
	return c.Elapsed().Seconds()
}

// AtZero reports whether no tick has been counted since the last reset
func (c *TimerClock) AtZero() bool {
	return c.elapsedTicks == 0
}
