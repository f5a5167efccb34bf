package go_func_utils

import (
	"log"
	"runtime/debug"
	"sync"
)

// SafeGo runs fn on a new goroutine. A panic is written to logger with the
// goroutine name and stack before it is re-raised, because the terminal UI
// owns stdout and would swallow the crash output.
func SafeGo(logger *log.Logger, name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Printf("PANIC in %s: %v\n%s", name, r, debug.Stack())
				panic(r)
			}
		}()
		fn()
	}()
}

// SafeGoWait is SafeGo tracked by wg
func SafeGoWait(logger *log.Logger, wg *sync.WaitGroup, name string, fn func()) {
	wg.Add(1)
	SafeGo(logger, name, func() {
		defer wg.Done()
		fn()
	})
}
