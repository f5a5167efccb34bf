package trainer

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lowaak/hiit-timer/internal/announce"
	"github.com/lowaak/hiit-timer/internal/clock"
	"github.com/lowaak/hiit-timer/internal/events"
	"github.com/lowaak/hiit-timer/internal/go_func_utils"
	"github.com/lowaak/hiit-timer/internal/metrics"
	"github.com/lowaak/hiit-timer/internal/settings"
	"github.com/lowaak/hiit-timer/internal/workout"
)

// ErrSessionClosed is returned by controls called after Shutdown
var ErrSessionClosed = errors.New("session closed")

// ErrNoRoutine is returned by controls that need a loaded routine
var ErrNoRoutine = errors.New("no routine loaded")

// ErrRoutineFinished is returned when resuming a finished routine
var ErrRoutineFinished = errors.New("routine finished, reset to run again")

const historyTimeout = 5 * time.Second

// SettingsProvider is the part of settings.Provider a session uses
type SettingsProvider interface {
	Read() settings.Settings
	RecordCompletion(routineName string, now time.Time) (bool, error)
	MarkCompletion(routineName string, now time.Time) error
}

// CompletionLog keeps every completion with its run id
type CompletionLog interface {
	AppendCompletion(ctx context.Context, c settings.Completion) error
}

// sessionCommand represents commands sent to the session goroutine
type sessionCommand int

const (
	cmdLoad sessionCommand = iota
	cmdResume
	cmdPause
	cmdToggle
	cmdReset
)

type sessionRequest struct {
	cmd       sessionCommand
	routineID string
	reply     chan error
}

// NewWorkoutSessionArg holds the arguments for creating a WorkoutSession
type NewWorkoutSessionArg struct {
	Catalog    *workout.Catalog
	Settings   SettingsProvider
	History    CompletionLog    // Optional
	Speaker    announce.Speaker // Optional
	Metrics    metrics.Recorder // Optional
	TickSource clock.TickSource // Optional, defaults to real tickers
	TickPeriod time.Duration
	Now        func() time.Time // Optional, defaults to time.Now
	Logger     *log.Logger
}

// WorkoutSession runs one routine: it owns the clock and the announcement
// memory and is the only code that advances them. Every tick rebuilds the
// timeline from the current settings snapshot.
type WorkoutSession struct {
	catalog    *workout.Catalog
	provider   SettingsProvider
	history    CompletionLog
	metrics    metrics.Recorder
	tickSource clock.TickSource
	now        func() time.Time
	logger     *log.Logger

	// Protected by mu
	mu           sync.Mutex
	status       SessionStatus
	routine      workout.Routine
	requestedID  string
	runID        string
	clock        *clock.TimerClock
	scheduler    *announce.Scheduler
	lastStageIdx int

	stateEvent        *events.ChannelEvent[SessionState]
	announcementEvent *events.CallbackEvent[announce.Announcement]

	// Goroutine management
	cmdChan      chan sessionRequest
	doneChan     chan struct{}
	wg           sync.WaitGroup
	shutdownOnce sync.Once
}

// NewWorkoutSession creates an idle session and starts its loop
func NewWorkoutSession(args NewWorkoutSessionArg) *WorkoutSession {
	if args.Logger == nil {
		panic("WorkoutSession: logger cannot be nil")
	}
	if args.Catalog == nil {
		panic("WorkoutSession: catalog cannot be nil")
	}
	if args.Settings == nil {
		panic("WorkoutSession: settings cannot be nil")
	}
	if args.Metrics == nil {
		args.Metrics = metrics.Nop()
	}
	if args.TickSource == nil {
		args.TickSource = clock.RealTickSource{}
	}
	if args.Now == nil {
		args.Now = time.Now
	}

	s := &WorkoutSession{
		catalog:           args.Catalog,
		provider:          args.Settings,
		history:           args.History,
		metrics:           args.Metrics,
		tickSource:        args.TickSource,
		now:               args.Now,
		logger:            args.Logger,
		status:            SessionStatusIdle,
		clock:             clock.NewTimerClock(args.TickPeriod),
		scheduler:         announce.NewScheduler(nil),
		lastStageIdx:      -1,
		stateEvent:        events.NewChannelEvent[SessionState](true, events.DropOldest),
		announcementEvent: events.NewCallbackEvent[announce.Announcement](),
		cmdChan:           make(chan sessionRequest),
		doneChan:          make(chan struct{}),
	}

	if args.Speaker != nil {
		speaker := args.Speaker
		s.announcementEvent.Listen(func(a announce.Announcement) { speaker.Speak(a.Text) })
	}
	s.announcementEvent.Listen(func(a announce.Announcement) { s.metrics.ObserveAnnouncement(a.Kind.String()) })

	go_func_utils.SafeGoWait(s.logger, &s.wg, "WorkoutSession loop", s.runLoop)

	return s
}

// SubscribeState returns a channel of state updates. The latest state is
// delivered immediately; a slow reader only misses intermediate states.
func (s *WorkoutSession) SubscribeState(buffer int) (<-chan SessionState, func()) {
	return s.stateEvent.Subscribe(buffer)
}

// ListenToAnnouncements registers a callback run synchronously for every
// emitted announcement. Returns a deregistration function.
func (s *WorkoutSession) ListenToAnnouncements(callback func(announce.Announcement)) func() {
	return s.announcementEvent.Listen(callback)
}

// State returns the current state
func (s *WorkoutSession) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buildState(s.provider.Read())
}

// LoadRoutine selects the routine to run. An unknown id leaves the session
// in the RoutineNotFound state and returns workout.ErrRoutineNotFound.
func (s *WorkoutSession) LoadRoutine(id string) error {
	return s.send(sessionRequest{cmd: cmdLoad, routineID: id})
}

// Resume starts or continues the clock
func (s *WorkoutSession) Resume() error {
	return s.send(sessionRequest{cmd: cmdResume})
}

// Pause stops the clock, keeping the elapsed time
func (s *WorkoutSession) Pause() error {
	return s.send(sessionRequest{cmd: cmdPause})
}

// Toggle pauses a running clock and resumes a stopped one
func (s *WorkoutSession) Toggle() error {
	return s.send(sessionRequest{cmd: cmdToggle})
}

// Reset stops the clock at zero, forgets every announcement and starts a
// new run id
func (s *WorkoutSession) Reset() error {
	return s.send(sessionRequest{cmd: cmdReset})
}

// MarkComplete records a completion of the loaded routine now, without the
// debounce applied to completions detected by the clock
func (s *WorkoutSession) MarkComplete() error {
	s.mu.Lock()
	loaded := s.hasRoutine()
	name := s.routine.Name
	runID := s.runID
	s.mu.Unlock()

	if !loaded {
		return ErrNoRoutine
	}

	now := s.now()
	err := s.provider.MarkCompletion(name, now)
	if err != nil {
		s.logger.Printf("WorkoutSession: Failed to save manual completion of %s: %v", name, err)
	}
	s.appendHistory(name, runID, now)
	s.metrics.ObserveCompletion(true)
	s.logger.Printf("WorkoutSession: %s marked complete", name)
	return err
}

// Shutdown stops the session loop
// Safe to call multiple times - only the first call has effect
func (s *WorkoutSession) Shutdown() {
	s.shutdownOnce.Do(func() {
		s.logger.Printf("WorkoutSession: Shutting down (%d state subscribers, %d announcement listeners)",
			s.stateEvent.ListenerCount(), s.announcementEvent.ListenerCount())
		close(s.doneChan)
		s.wg.Wait()
		s.stateEvent.Close()
		s.logger.Printf("WorkoutSession: Shutdown complete")
	})
}

func (s *WorkoutSession) send(req sessionRequest) error {
	req.reply = make(chan error, 1)
	select {
	case s.cmdChan <- req:
	case <-s.doneChan:
		return ErrSessionClosed
	}
	select {
	case err := <-req.reply:
		return err
	case <-s.doneChan:
		return ErrSessionClosed
	}
}

// --- Private Methods ---

// hasRoutine MUST be called with mu held
func (s *WorkoutSession) hasRoutine() bool {
	return s.status != SessionStatusIdle && s.status != SessionStatusRoutineNotFound
}

// buildState computes the state from the internal fields.
// MUST be called with mu held.
func (s *WorkoutSession) buildState(snapshot settings.Settings) SessionState {
	state := SessionState{
		Status:      s.status,
		RunID:       s.runID,
		RequestedID: s.requestedID,
		Running:     s.clock.Running(),
	}
	if !s.hasRoutine() {
		return state
	}

	timeline := s.routine.Timeline(snapshot)
	state.Routine = s.routine
	state.Elapsed = s.clock.Elapsed()
	state.Total = timeline.TotalDuration()
	state.Remaining = max(0, state.Total-state.Elapsed)
	state.Position = workout.StageAt(timeline, s.clock.ElapsedSeconds())
	state.StageProgress = stageDisplayProgress(state.Position)
	return state
}

// newRun clears the clock and announcement memory under a fresh run id.
// MUST be called with mu held.
func (s *WorkoutSession) newRun() {
	s.clock.Reset()
	s.scheduler.Reset()
	s.lastStageIdx = -1
	s.runID = uuid.NewString()
}

// commandResult holds what the loop does after a command was applied
type commandResult struct {
	state       SessionState
	err         error
	startTicker bool
	stopTicker  bool
}

// applyCommand updates the session for req under lock
func (s *WorkoutSession) applyCommand(req sessionRequest) commandResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result commandResult
	switch req.cmd {
	case cmdLoad:
		result.stopTicker = true
		s.requestedID = req.routineID
		s.newRun()
		routine, err := s.catalog.Find(req.routineID)
		if err != nil {
			s.routine = workout.Routine{}
			s.status = SessionStatusRoutineNotFound
			s.logger.Printf("WorkoutSession: Routine %q not found", req.routineID)
			result.err = err
			break
		}
		s.routine = routine
		s.status = SessionStatusReady
		s.logger.Printf("WorkoutSession: Routine '%s' loaded (run %s)", routine.Name, s.runID)

	case cmdResume:
		result.err = s.resumeLocked()
		result.startTicker = result.err == nil

	case cmdPause:
		result.err = s.pauseLocked()
		result.stopTicker = result.err == nil

	case cmdToggle:
		if s.clock.Running() {
			result.err = s.pauseLocked()
			result.stopTicker = result.err == nil
		} else {
			result.err = s.resumeLocked()
			result.startTicker = result.err == nil
		}

	case cmdReset:
		if !s.hasRoutine() {
			result.err = ErrNoRoutine
			break
		}
		result.stopTicker = true
		s.newRun()
		s.status = SessionStatusReady
		s.logger.Printf("WorkoutSession: Reset (run %s)", s.runID)
	}

	result.state = s.buildState(s.provider.Read())
	return result
}

// resumeLocked MUST be called with mu held
func (s *WorkoutSession) resumeLocked() error {
	switch s.status {
	case SessionStatusReady, SessionStatusPaused:
	case SessionStatusRunning:
		return nil
	case SessionStatusFinished:
		return ErrRoutineFinished
	default:
		return ErrNoRoutine
	}
	s.clock.Resume()
	s.status = SessionStatusRunning
	s.logger.Printf("WorkoutSession: Started at %v", s.clock.Elapsed())
	return nil
}

// pauseLocked MUST be called with mu held
func (s *WorkoutSession) pauseLocked() error {
	if s.status != SessionStatusRunning {
		return nil
	}
	s.clock.Pause()
	s.status = SessionStatusPaused
	s.logger.Printf("WorkoutSession: Paused at %v", s.clock.Elapsed())
	return nil
}

// tickResult holds the result of processing a clock tick
type tickResult struct {
	state         SessionState
	skip          bool // clock wasn't running, skip this tick
	completed     bool // routine just finished
	routineName   string
	runID         string
	stageEntered  bool
	highIntensity bool
	announcements []announce.Announcement
}

// handleTick advances the clock by one tick under lock and returns what
// actions to take
func (s *WorkoutSession) handleTick() tickResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasRoutine() || !s.clock.Tick() {
		return tickResult{skip: true}
	}

	snapshot := s.provider.Read()
	timeline := s.routine.Timeline(snapshot)
	pos := workout.StageAt(timeline, s.clock.ElapsedSeconds())

	result := tickResult{
		announcements: s.scheduler.OnTick(s.clock.Running(), pos),
		routineName:   s.routine.Name,
		runID:         s.runID,
	}

	if !pos.Finished && pos.Index != s.lastStageIdx {
		s.lastStageIdx = pos.Index
		result.stageEntered = true
		result.highIntensity = pos.Stage.IsHighIntensity
		s.logger.Printf("WorkoutSession: Stage %d (%s) entered", pos.Index, pos.Stage.Label)
	}

	if pos.Finished {
		s.clock.Pause()
		s.status = SessionStatusFinished
		result.completed = true
	}

	result.state = s.buildState(snapshot)
	return result
}

// completeRoutine records a completion detected by the clock.
// No lock needed - only makes external calls.
func (s *WorkoutSession) completeRoutine(name, runID string) {
	now := s.now()
	recorded, err := s.provider.RecordCompletion(name, now)
	if err != nil {
		s.logger.Printf("WorkoutSession: Failed to save completion of %s: %v", name, err)
	}
	s.metrics.ObserveCompletion(recorded)
	if !recorded {
		s.logger.Printf("WorkoutSession: Completion of %s already recorded", name)
		return
	}
	s.appendHistory(name, runID, now)
	s.logger.Printf("WorkoutSession: %s complete!", name)
}

func (s *WorkoutSession) appendHistory(name, runID string, at time.Time) {
	if s.history == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
	defer cancel()
	c := settings.Completion{Routine: name, RunID: runID, CompletedAt: at}
	if err := s.history.AppendCompletion(ctx, c); err != nil {
		s.logger.Printf("WorkoutSession: Failed to append history for %s: %v", name, err)
	}
}

// processTick runs handleTick and then the external calls it asked for.
// Returns true when the ticker should stop.
func (s *WorkoutSession) processTick() bool {
	start := time.Now()
	result := s.handleTick()
	if result.skip {
		return false
	}

	if result.stageEntered {
		s.metrics.ObserveStageEntered(result.highIntensity)
	}
	for _, a := range result.announcements {
		s.announcementEvent.Notify(a)
	}
	if result.completed {
		s.completeRoutine(result.routineName, result.runID)
	}
	s.stateEvent.Notify(result.state)
	s.metrics.ObserveTick(time.Since(start))
	return result.completed
}

// runLoop is the goroutine that owns the ticker
func (s *WorkoutSession) runLoop() {
	ticker := s.tickSource.NewTicker(s.clock.Period())
	ticker.Stop() // Start stopped, will be started on resume

	s.stateEvent.Notify(s.State())

	for {
		select {
		case <-s.doneChan:
			ticker.Stop()
			s.logger.Printf("WorkoutSession: Goroutine exiting")
			return

		case req := <-s.cmdChan:
			result := s.applyCommand(req)
			if result.stopTicker {
				ticker.Stop()
			}
			if result.startTicker {
				ticker.Reset(s.clock.Period())
			}
			s.stateEvent.Notify(result.state)
			req.reply <- result.err

		case <-ticker.C():
			if s.processTick() {
				ticker.Stop()
			}
		}
	}
}
