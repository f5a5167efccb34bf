package trainer

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/lowaak/hiit-timer/internal/events"
	"github.com/lowaak/hiit-timer/internal/go_func_utils"
)

// UIState holds the current state of the UI that views need to render
type UIState struct {
	Mode UIMode
}

// SettingsSummary is what the routine screen shows about the current settings
type SettingsSummary struct {
	WorkSeconds         uint32
	ExerciseRestSeconds uint32
	SetRestSeconds      uint32
	Sets                uint32
	Preset              string // Empty when the values match no preset
}

type UIModel struct {
	logEvent              *events.ChannelEvent[string]
	closeApplicationEvent *events.ChannelEvent[struct{}]
	uiStateEvent          *events.ChannelEvent[UIState]
	uiState               UIState
	routinesEvent         *events.ChannelEvent[[]RoutineSummary]
	routines              []RoutineSummary
	settingsEvent         *events.ChannelEvent[SettingsSummary]
	settingsSummary       SettingsSummary
	sessionStateEvent     *events.ChannelEvent[SessionState]
	sessionState          SessionState
	logLines              []string
	logMu                 sync.RWMutex
	mu                    sync.RWMutex
	ctx                   context.Context
	cancel                context.CancelFunc
	wg                    sync.WaitGroup
	logger                *log.Logger
}

const maxLogLines = 1000

func NewUIModel(session *WorkoutSession, logger *log.Logger, uiLogChan <-chan string) *UIModel {
	if logger == nil {
		panic("UIModel: logger cannot be nil")
	}
	if session == nil {
		panic("UIModel: session cannot be nil")
	}
	if uiLogChan == nil {
		panic("UIModel: uiLogChan cannot be nil")
	}
	ctx, cancel := context.WithCancel(context.Background())
	model := &UIModel{
		logEvent:              events.NewChannelEvent[string](false, events.DropOldest),
		closeApplicationEvent: events.NewChannelEvent[struct{}](true, events.DropNewest),
		uiStateEvent:          events.NewChannelEvent[UIState](true, events.DropOldest),
		uiState:               UIState{Mode: UIModeRoutineSelection},
		routinesEvent:         events.NewChannelEvent[[]RoutineSummary](true, events.DropOldest),
		settingsEvent:         events.NewChannelEvent[SettingsSummary](true, events.DropOldest),
		sessionStateEvent:     events.NewChannelEvent[SessionState](true, events.DropOldest),
		sessionState:          session.State(),
		logLines:              make([]string, 0, maxLogLines),
		ctx:                   ctx,
		cancel:                cancel,
		logger:                logger,
	}

	// Mirror the session state for the views
	stateChan, unsubscribe := session.SubscribeState(1)
	go_func_utils.SafeGoWait(model.logger, &model.wg, "UIModel session listener", func() {
		model.listenToSession(ctx, stateChan, unsubscribe)
	})

	// Read from the UI log channel and populate logLines
	go_func_utils.SafeGoWait(model.logger, &model.wg, "UIModel log reader", func() {
		model.readFromLogChannel(ctx, uiLogChan)
	})

	return model
}

// Shutdown stops all goroutines and waits for them to finish
func (m *UIModel) Shutdown() {
	m.logger.Println("UIModel: Shutting down")
	m.cancel()
	m.wg.Wait()
	m.logger.Println("UIModel: Shutdown complete")
}

// SubscribeLog returns a channel receiving every new log line
// and a function that unsubscribes it
func (m *UIModel) SubscribeLog() (<-chan string, func()) {
	return m.logEvent.Subscribe(1)
}

// SubscribeCloseApplication returns a channel signalled when the application should close
func (m *UIModel) SubscribeCloseApplication() (<-chan struct{}, func()) {
	return m.closeApplicationEvent.Subscribe(1)
}

// RequestCloseApplication signals that the application should close
func (m *UIModel) RequestCloseApplication() {
	m.closeApplicationEvent.Notify(struct{}{})
}

// SubscribeUIState returns a channel receiving UI state changes
func (m *UIModel) SubscribeUIState() (<-chan UIState, func()) {
	return m.uiStateEvent.Subscribe(1)
}

// GetUIState returns the current UI state
func (m *UIModel) GetUIState() UIState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.uiState
}

// SetMode updates the current UI mode and notifies listeners
func (m *UIModel) SetMode(mode UIMode) {
	m.mu.Lock()
	if m.uiState.Mode == mode {
		m.mu.Unlock()
		return
	}
	m.uiState.Mode = mode
	state := m.uiState
	m.mu.Unlock()

	m.uiStateEvent.Notify(state)
}

// SubscribeRoutines returns a channel receiving routine list changes
func (m *UIModel) SubscribeRoutines() (<-chan []RoutineSummary, func()) {
	return m.routinesEvent.Subscribe(1)
}

// GetRoutines returns a copy of the routine list
func (m *UIModel) GetRoutines() []RoutineSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyRoutineSummaries(m.routines)
}

// SetRoutines replaces the routine list and notifies listeners
func (m *UIModel) SetRoutines(routines []RoutineSummary) {
	m.mu.Lock()
	m.routines = copyRoutineSummaries(routines)
	result := copyRoutineSummaries(m.routines)
	m.mu.Unlock()

	m.routinesEvent.Notify(result)
}

// SubscribeSettings returns a channel receiving settings summary changes
func (m *UIModel) SubscribeSettings() (<-chan SettingsSummary, func()) {
	return m.settingsEvent.Subscribe(1)
}

// GetSettings returns the current settings summary
func (m *UIModel) GetSettings() SettingsSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settingsSummary
}

// SetSettings updates the settings summary and notifies listeners
func (m *UIModel) SetSettings(summary SettingsSummary) {
	m.mu.Lock()
	m.settingsSummary = summary
	m.mu.Unlock()

	m.settingsEvent.Notify(summary)
}

// SubscribeSessionState returns a channel receiving session state updates
func (m *UIModel) SubscribeSessionState() (<-chan SessionState, func()) {
	return m.sessionStateEvent.Subscribe(1)
}

// GetSessionState returns the latest session state
func (m *UIModel) GetSessionState() SessionState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessionState
}

// listenToSession mirrors the session's state updates into the model
func (m *UIModel) listenToSession(ctx context.Context, stateChan <-chan SessionState, unsubscribe func()) {
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case state, ok := <-stateChan:
			if !ok {
				return
			}
			m.mu.Lock()
			m.sessionState = state
			m.mu.Unlock()

			m.sessionStateEvent.Notify(state)
		}
	}
}

// readFromLogChannel reads log lines from the channel and populates logLines
func (m *UIModel) readFromLogChannel(ctx context.Context, logChan <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-logChan:
			if !ok {
				// Channel closed
				return
			}

			m.logMu.Lock()
			m.logLines = append(m.logLines, line)
			if len(m.logLines) > maxLogLines {
				// Keep the most recent maxLogLines
				m.logLines = m.logLines[len(m.logLines)-maxLogLines:]
			}
			m.logMu.Unlock()

			// Notify listeners for immediate display
			m.logEvent.Notify(line)
		}
	}
}

// GetLogTail returns the last n lines of logs
func (m *UIModel) GetLogTail(n int) []string {
	m.logMu.RLock()
	defer m.logMu.RUnlock()

	if n <= 0 {
		return []string{}
	}

	if n >= len(m.logLines) {
		result := make([]string, len(m.logLines))
		copy(result, m.logLines)
		return result
	}

	result := make([]string, n)
	copy(result, m.logLines[len(m.logLines)-n:])
	return result
}

func copyRoutineSummaries(in []RoutineSummary) []RoutineSummary {
	out := make([]RoutineSummary, len(in))
	for i, r := range in {
		out[i] = r
		out[i].Routine.Exercises = append([]string(nil), r.Routine.Exercises...)
		out[i].RecentRuns = append([]time.Time(nil), r.RecentRuns...)
	}
	return out
}
