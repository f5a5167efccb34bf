package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimerClock_InitialState(t *testing.T) {
	c := NewTimerClock(DefaultTickPeriod)
	assert.False(t, c.Running())
	assert.Equal(t, int64(0), c.ElapsedTicks())
	assert.True(t, c.AtZero())
	assert.Equal(t, 25*time.Millisecond, c.Period())
}

func TestTimerClock_InvalidPeriodFallsBack(t *testing.T) {
	assert.Equal(t, DefaultTickPeriod, NewTimerClock(0).Period())
	assert.Equal(t, DefaultTickPeriod, NewTimerClock(-time.Second).Period())
}

func TestTimerClock_FortyTicksIsOneSecond(t *testing.T) {
	c := NewTimerClock(DefaultTickPeriod)
	c.Resume()
	for i := 0; i < 40; i++ {
		require.True(t, c.Tick())
	}
	assert.Equal(t, time.Second, c.Elapsed())
	assert.Equal(t, 1.0, c.ElapsedSeconds())
}

func TestTimerClock_TicksOnlyWhileRunning(t *testing.T) {
	c := NewTimerClock(DefaultTickPeriod)

	assert.False(t, c.Tick())
	assert.Equal(t, int64(0), c.ElapsedTicks())

	c.Resume()
	c.Tick()
	c.Tick()
	c.Pause()
	assert.False(t, c.Tick())
	assert.Equal(t, int64(2), c.ElapsedTicks())

	// resume continues from the frozen count
	c.Resume()
	c.Tick()
	assert.Equal(t, int64(3), c.ElapsedTicks())
	assert.Equal(t, 75*time.Millisecond, c.Elapsed())
}

func TestTimerClock_Reset(t *testing.T) {
	c := NewTimerClock(DefaultTickPeriod)
	c.Resume()
	c.Tick()
	c.Reset()

	assert.False(t, c.Running())
	assert.True(t, c.AtZero())
	assert.Equal(t, 0.0, c.ElapsedSeconds())
}

func TestTimerClock_LongRunStaysExact(t *testing.T) {
	c := NewTimerClock(DefaultTickPeriod)
	c.Resume()
	for i := 0; i < 40*295; i++ {
		c.Tick()
	}
	assert.Equal(t, 295.0, c.ElapsedSeconds())
}

func TestFakeTicker(t *testing.T) {
	src := NewFakeTickSource()
	ticker := src.NewTicker(DefaultTickPeriod).(*FakeTicker)

	created := <-src.Created()
	assert.Same(t, ticker, created)
	assert.Len(t, src.Tickers(), 1)

	received := make(chan time.Time, 3)
	go func() {
		for i := 0; i < 2; i++ {
			received <- <-ticker.C()
		}
	}()

	assert.Equal(t, 2, ticker.FireN(2))
	first := <-received
	second := <-received
	assert.Equal(t, DefaultTickPeriod, second.Sub(first))

	ticker.Stop()
	assert.False(t, ticker.Active())
	assert.False(t, ticker.Fire())

	ticker.Reset(time.Second)
	assert.True(t, ticker.Active())
	assert.Equal(t, time.Second, ticker.Period())
}
