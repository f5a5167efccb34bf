package events

import (
	"sync"
)

// DropPolicy decides what happens when a subscriber's buffer is full
type DropPolicy int

const (
	DropNewest DropPolicy = iota // Keep what is queued, discard the new value
	DropOldest                   // Discard the oldest queued value to make room
)

// ChannelEvent fans values out to subscriber channels it owns.
// Sends never block the notifier; a full buffer is handled by the DropPolicy.
type ChannelEvent[T any] struct {
	mu         sync.Mutex
	subs       map[uint64]chan T
	nextID     uint64
	replayLast bool
	policy     DropPolicy
	last       T
	hasLast    bool
	closed     bool
}

// NewChannelEvent creates a ChannelEvent.
// replayLast: new subscribers immediately receive the last notified value.
func NewChannelEvent[T any](replayLast bool, policy DropPolicy) *ChannelEvent[T] {
	return &ChannelEvent[T]{
		subs:       make(map[uint64]chan T),
		replayLast: replayLast,
		policy:     policy,
	}
}

// Subscribe returns a channel receiving every notified value and a function
// that unsubscribes and closes the channel. Subscribing to a closed event
// returns an already closed channel.
func (e *ChannelEvent[T]) Subscribe(buffer int) (<-chan T, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan T, buffer)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		close(ch)
		return ch, func() {}
	}

	id := e.nextID
	e.nextID++
	e.subs[id] = ch
	if e.replayLast && e.hasLast {
		ch <- e.last
	}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			if sub, ok := e.subs[id]; ok {
				delete(e.subs, id)
				close(sub)
			}
		})
	}
}

// Notify delivers value to every subscriber without blocking
func (e *ChannelEvent[T]) Notify(value T) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	e.last = value
	e.hasLast = true

	for _, ch := range e.subs {
		e.deliver(ch, value)
	}
}

// deliver sends without blocking. Must be called with mu held.
func (e *ChannelEvent[T]) deliver(ch chan T, value T) {
	select {
	case ch <- value:
		return
	default:
	}
	if e.policy == DropNewest {
		return
	}
	// only the notifier sends, so one receive frees a slot
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- value:
	default:
	}
}

// Last returns the most recently notified value
func (e *ChannelEvent[T]) Last() (T, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last, e.hasLast
}

// ListenerCount returns the number of live subscribers
func (e *ChannelEvent[T]) ListenerCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.subs)
}

// Close closes every subscriber channel. Later notifications are dropped.
func (e *ChannelEvent[T]) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	for id, ch := range e.subs {
		delete(e.subs, id)
		close(ch)
	}
}
