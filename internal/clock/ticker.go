package clock

import (
	"sync"
	"time"
)

// Ticker delivers periodic ticks until stopped
type Ticker interface {
	C() <-chan time.Time
	Stop()
	Reset(d time.Duration)
}

// TickSource creates tickers. Tests inject a FakeTickSource.
type TickSource interface {
	NewTicker(d time.Duration) Ticker
}

// RealTickSource is backed by time.Ticker
type RealTickSource struct{}

func (RealTickSource) NewTicker(d time.Duration) Ticker {
	return &realTicker{t: time.NewTicker(d)}
}

type realTicker struct {
	t *time.Ticker
}

func (r *realTicker) C() <-chan time.Time   { return r.t.C }
func (r *realTicker) Stop()                 { r.t.Stop() }
func (r *realTicker) Reset(d time.Duration) { r.t.Reset(d) }

// FakeTickSource hands out tickers whose ticks are fired by the test
type FakeTickSource struct {
	mu      sync.Mutex
	tickers []*FakeTicker
	created chan *FakeTicker
}

func NewFakeTickSource() *FakeTickSource {
	return &FakeTickSource{created: make(chan *FakeTicker, 16)}
}

func (f *FakeTickSource) NewTicker(d time.Duration) Ticker {
	t := &FakeTicker{
		period:  d,
		ch:      make(chan time.Time),
		active:  true,
		current: time.Unix(0, 0),
	}
	f.mu.Lock()
	f.tickers = append(f.tickers, t)
	f.mu.Unlock()

	select {
	case f.created <- t:
	default:
	}
	return t
}

// Created receives every ticker as it is created
func (f *FakeTickSource) Created() <-chan *FakeTicker {
	return f.created
}

// Tickers returns the tickers created so far
func (f *FakeTickSource) Tickers() []*FakeTicker {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*FakeTicker, len(f.tickers))
	copy(out, f.tickers)
	return out
}

// FakeTicker is a Ticker driven by Fire. Its channel is unbuffered so Fire
// returns only after the consumer has received the tick.
type FakeTicker struct {
	mu      sync.Mutex
	period  time.Duration
	ch      chan time.Time
	active  bool
	current time.Time
}

func (t *FakeTicker) C() <-chan time.Time {
	return t.ch
}

func (t *FakeTicker) Stop() {
	t.mu.Lock()
	t.active = false
	t.mu.Unlock()
}

func (t *FakeTicker) Reset(d time.Duration) {
	t.mu.Lock()
	t.period = d
	t.active = true
	t.mu.Unlock()
}

// Active reports whether the ticker is started
func (t *FakeTicker) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

func (t *FakeTicker) Period() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.period
}

// Fire delivers one tick if the ticker is active and reports whether it did.
// It blocks until the tick is received.
func (t *FakeTicker) Fire() bool {
	t.mu.Lock()
	if !t.active {
		t.mu.Unlock()
		return false
	}
	t.current = t.current.Add(t.period)
	now := t.current
	t.mu.Unlock()

	t.ch <- now
	return true
}

// FireN calls Fire n times and returns how many ticks were delivered
func (t *FakeTicker) FireN(n int) int {
	delivered := 0
	for i := 0; i < n; i++ {
		if t.Fire() {
			delivered++
		}
	}
	return delivered
}
