package speech

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/lowaak/hiit-timer/internal/go_func_utils"
)

// DefaultSayTimeout bounds a single utterance
const DefaultSayTimeout = 10 * time.Second

// FailureObserver is told about utterances that could not be played
type FailureObserver interface {
	ObserveSpeechFailure(backend string)
}

// AsyncSpeaker plays each request on its own goroutine so the caller never
// waits on audio. A new request cancels the utterance still playing.
type AsyncSpeaker struct {
	backend  Backend
	logger   *log.Logger
	observer FailureObserver
	timeout  time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	closed bool
	wg     sync.WaitGroup
}

// NewAsyncSpeaker wraps backend. observer may be nil.
func NewAsyncSpeaker(backend Backend, logger *log.Logger, observer FailureObserver) *AsyncSpeaker {
	if backend == nil {
		panic("AsyncSpeaker: backend cannot be nil")
	}
	if logger == nil {
		panic("AsyncSpeaker: logger cannot be nil")
	}
	return &AsyncSpeaker{
		backend:  backend,
		logger:   logger,
		observer: observer,
		timeout:  DefaultSayTimeout,
	}
}

// SetTimeout changes the per-utterance limit
func (s *AsyncSpeaker) SetTimeout(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d > 0 {
		s.timeout = d
	}
}

// Speak starts playing text and returns immediately
func (s *AsyncSpeaker) Speak(text string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	s.cancel = cancel
	// registered under mu so Close never waits on a zero counter being raised
	go_func_utils.SafeGoWait(s.logger, &s.wg, "AsyncSpeaker.say", func() {
		defer cancel()
		s.say(ctx, text)
	})
	s.mu.Unlock()
}

func (s *AsyncSpeaker) say(ctx context.Context, text string) {
	err := s.backend.Say(ctx, text)
	if err == nil {
		return
	}
	if errors.Is(err, context.Canceled) {
		// interrupted by a newer announcement
		return
	}
	s.logger.Printf("AsyncSpeaker: Failed to say %q via %s: %v", text, s.backend.Name(), err)
	if s.observer != nil {
		s.observer.ObserveSpeechFailure(s.backend.Name())
	}
}

// Close drops later requests and waits for the utterance in flight to play
// to the end. The wait is bounded by the per-utterance timeout.
func (s *AsyncSpeaker) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.wg.Wait()
}
