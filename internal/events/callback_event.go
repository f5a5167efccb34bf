package events

import (
	"slices"
	"sync"
)

type callbackEntry[T any] struct {
	id uint64
	fn func(T)
}

// CallbackEvent calls registered callbacks synchronously on the notifying
// goroutine, in registration order
type CallbackEvent[T any] struct {
	mu        sync.RWMutex
	listeners []callbackEntry[T]
	nextID    uint64
}

func NewCallbackEvent[T any]() *CallbackEvent[T] {
	return &CallbackEvent[T]{}
}

// Listen registers callback and returns a function that removes it
func (e *CallbackEvent[T]) Listen(callback func(T)) func() {
	if callback == nil {
		panic("callback cannot be nil")
	}

	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.listeners = append(e.listeners, callbackEntry[T]{id: id, fn: callback})
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.listeners = slices.DeleteFunc(e.listeners, func(l callbackEntry[T]) bool {
			return l.id == id
		})
	}
}

// Notify calls every callback with value. Callbacks run outside the lock so
// they may register or remove listeners.
func (e *CallbackEvent[T]) Notify(value T) {
	e.mu.RLock()
	listeners := slices.Clone(e.listeners)
	e.mu.RUnlock()

	for _, l := range listeners {
		l.fn(value)
	}
}

// ListenerCount returns the number of registered callbacks
func (e *CallbackEvent[T]) ListenerCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.listeners)
}
