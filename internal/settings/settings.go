package settings

import (
	"maps"
	"time"
)

// Default values used when nothing is stored or a stored field is unusable
const (
	DefaultWorkSeconds         = 30
	DefaultExerciseRestSeconds = 15
	DefaultSetRestSeconds      = 30
	DefaultSets                = 3
)

// CompletionDebounce is the window in which a second completion of the same
// routine is not recorded
const CompletionDebounce = 10 * time.Second

// Range is an inclusive bound for a numeric setting
type Range struct {
	Min  uint32
	Max  uint32
	Step uint32
}

// Clamp returns v limited to the range
func (r Range) Clamp(v uint32) uint32 {
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// Ranges offered by the settings screen of the app
var (
	WorkRange         = Range{Min: 5, Max: 300, Step: 5}
	ExerciseRestRange = Range{Min: 0, Max: 120, Step: 5}
	SetRestRange      = Range{Min: 0, Max: 120, Step: 5}
	SetsRange         = Range{Min: 1, Max: 30, Step: 1}
)

// Settings is a snapshot of the workout parameters and the completion history.
// Values handed out by a Provider are copies and may be modified freely.
type Settings struct {
	WorkSeconds         uint32               // High intensity (exercise) stage length
	ExerciseRestSeconds uint32               // Rest between exercises of a set
	SetRestSeconds      uint32               // Break between sets
	Sets                uint32               // Number of passes through the exercise list
	Completions         map[string]time.Time // Routine name -> last completion
}

// Default returns the settings used on first launch
func Default() Settings {
	return Settings{
		WorkSeconds:         DefaultWorkSeconds,
		ExerciseRestSeconds: DefaultExerciseRestSeconds,
		SetRestSeconds:      DefaultSetRestSeconds,
		Sets:                DefaultSets,
		Completions:         make(map[string]time.Time),
	}
}

// Clone returns a deep copy so the completion map is never shared
func (s Settings) Clone() Settings {
	c := s
	c.Completions = make(map[string]time.Time, len(s.Completions))
	maps.Copy(c.Completions, s.Completions)
	return c
}

// Clamp returns a copy with every numeric field inside its Range
func (s Settings) Clamp() Settings {
	c := s.Clone()
	c.WorkSeconds = WorkRange.Clamp(c.WorkSeconds)
	c.ExerciseRestSeconds = ExerciseRestRange.Clamp(c.ExerciseRestSeconds)
	c.SetRestSeconds = SetRestRange.Clamp(c.SetRestSeconds)
	c.Sets = SetsRange.Clamp(c.Sets)
	return c
}

func (s Settings) WorkDuration() time.Duration {
	return time.Duration(s.WorkSeconds) * time.Second
}

func (s Settings) ExerciseRestDuration() time.Duration {
	return time.Duration(s.ExerciseRestSeconds) * time.Second
}

func (s Settings) SetRestDuration() time.Duration {
	return time.Duration(s.SetRestSeconds) * time.Second
}

// LastCompletion returns when the routine was last completed
func (s Settings) LastCompletion(routineName string) (time.Time, bool) {
	t, ok := s.Completions[routineName]
	return t, ok
}

// ShouldRecordCompletion reports whether a completion at now is outside the
// debounce window of the previous one
func (s Settings) ShouldRecordCompletion(routineName string, now time.Time) bool {
	last, ok := s.Completions[routineName]
	if !ok {
		return true
	}
	return now.Sub(last) > CompletionDebounce
}

// WithCompletion returns a copy with the routine's last completion set to at
func (s Settings) WithCompletion(routineName string, at time.Time) Settings {
	c := s.Clone()
	c.Completions[routineName] = at
	return c
}
