package trainer

import (
	"time"

	"github.com/lowaak/hiit-timer/internal/workout"
)

// UIMode represents the current UI mode/screen
type UIMode int

const (
	UIModeRoutineSelection UIMode = iota // Routine list with durations and last completion
	UIModeTimerDashboard                 // Countdown, stage progress and controls
)

// UIModeInfo contains display information for a UI mode
type UIModeInfo struct {
	Mode        UIMode
	DisplayName string
	KeyBinding  rune // The number key to activate this mode (1-9)
}

// AllUIModes defines all available UI modes in order
var AllUIModes = []UIModeInfo{
	{Mode: UIModeRoutineSelection, DisplayName: "Routines", KeyBinding: '1'},
	{Mode: UIModeTimerDashboard, DisplayName: "Timer", KeyBinding: '2'},
}

// GetUIModeByKey returns the mode for a given key binding
func GetUIModeByKey(key rune) (UIMode, bool) {
	for _, info := range AllUIModes {
		if info.KeyBinding == key {
			return info.Mode, true
		}
	}
	return 0, false
}

// GetUIModeInfo returns the info for a given mode
func GetUIModeInfo(mode UIMode) (UIModeInfo, bool) {
	for _, info := range AllUIModes {
		if info.Mode == mode {
			return info, true
		}
	}
	return UIModeInfo{}, false
}

// SessionStatus represents the current status of a workout session
type SessionStatus int

const (
	SessionStatusIdle            SessionStatus = iota // No routine loaded
	SessionStatusRoutineNotFound                      // The requested routine id is unknown
	SessionStatusReady                                // Routine loaded, clock at zero
	SessionStatusRunning                              // Clock running
	SessionStatusPaused                               // Clock stopped above zero
	SessionStatusFinished                             // No time left
)

func (s SessionStatus) String() string {
	switch s {
	case SessionStatusIdle:
		return "Idle"
	case SessionStatusRoutineNotFound:
		return "Routine not found"
	case SessionStatusReady:
		return "Ready"
	case SessionStatusRunning:
		return "Running"
	case SessionStatusPaused:
		return "Paused"
	case SessionStatusFinished:
		return "Finished"
	default:
		return "Unknown"
	}
}

// SessionState is what views render for one moment of a session
type SessionState struct {
	Status      SessionStatus
	RunID       string          // Changes on every load and reset
	Routine     workout.Routine // Zero unless a routine is loaded
	RequestedID string          // Last id passed to LoadRoutine
	Position    workout.Position
	Elapsed     time.Duration
	Total       time.Duration
	Remaining   time.Duration // max(0, Total - Elapsed)

	// StageProgress fills up during high intensity stages and drains during rests
	StageProgress float64
	Running       bool
}

// HasRoutine reports whether a routine is loaded
func (s SessionState) HasRoutine() bool {
	return s.Status != SessionStatusIdle && s.Status != SessionStatusRoutineNotFound
}

// OverallProgress is the share of the routine still ahead, from 1 down to 0
func (s SessionState) OverallProgress() float64 {
	if s.Total <= 0 {
		return 0
	}
	return float64(s.Remaining) / float64(s.Total)
}

// stageDisplayProgress converts a position into the progress bar value
func stageDisplayProgress(pos workout.Position) float64 {
	if pos.Finished {
		return 0
	}
	p := pos.Progress()
	if pos.Stage.IsHighIntensity {
		return p
	}
	return 1 - p
}

// RoutineSummary is one row of the routine selection list
type RoutineSummary struct {
	Routine        workout.Routine
	Summary        string
	Duration       time.Duration
	WorkTime       time.Duration // Time spent in high intensity stages
	LastCompletion string        // e.g. "done today", empty when never completed
	Runs           int           // Completions on record, 0 without a history store
	RecentRuns     []time.Time   // Newest first, at most maxRecentRuns
}
