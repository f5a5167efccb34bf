package events

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCallbackEvent_CallsInRegistrationOrder(t *testing.T) {
	event := NewCallbackEvent[string]()

	var calls []string
	event.Listen(func(v string) { calls = append(calls, "a:"+v) })
	event.Listen(func(v string) { calls = append(calls, "b:"+v) })
	event.Listen(func(v string) { calls = append(calls, "c:"+v) })

	event.Notify("x")
	assert.Equal(t, []string{"a:x", "b:x", "c:x"}, calls)
}

func TestCallbackEvent_Remove(t *testing.T) {
	event := NewCallbackEvent[int]()

	var first, second int
	removeFirst := event.Listen(func(v int) { first += v })
	event.Listen(func(v int) { second += v })
	assert.Equal(t, 2, event.ListenerCount())

	event.Notify(1)
	removeFirst()
	removeFirst()
	event.Notify(10)

	assert.Equal(t, 1, first)
	assert.Equal(t, 11, second)
	assert.Equal(t, 1, event.ListenerCount())
}

func TestCallbackEvent_ListenerMayRemoveItself(t *testing.T) {
	event := NewCallbackEvent[int]()

	count := 0
	var remove func()
	remove = event.Listen(func(int) {
		count++
		remove()
	})

	event.Notify(1)
	event.Notify(2)
	assert.Equal(t, 1, count)
	assert.Equal(t, 0, event.ListenerCount())
}

func TestCallbackEvent_NilCallbackPanics(t *testing.T) {
	event := NewCallbackEvent[int]()
	assert.Panics(t, func() { event.Listen(nil) })
}

func TestCallbackEvent_ConcurrentUse(t *testing.T) {
	event := NewCallbackEvent[int]()

	var mu sync.Mutex
	total := 0
	event.Listen(func(v int) {
		mu.Lock()
		total += v
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				event.Notify(1)
				remove := event.Listen(func(int) {})
				remove()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 800, total)
	assert.Equal(t, 1, event.ListenerCount())
}
