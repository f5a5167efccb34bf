package announce

import (
	"github.com/lowaak/hiit-timer/internal/workout"
)

// Fixed announcement texts
const (
	TextComplete  = "Workout Complete"
	TextCountdown = "three two one"
)

const (
	// labelWindow is how long after a stage starts its label may be announced
	labelWindow = 1.0
	// countdownWindow is the remaining stage time at which the countdown starts
	countdownWindow = 2.5
)

// Kind classifies an announcement
type Kind int

const (
	KindStage Kind = iota
	KindCountdown
	KindComplete
)

func (k Kind) String() string {
	switch k {
	case KindStage:
		return "stage"
	case KindCountdown:
		return "countdown"
	case KindComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Key identifies an announcement within one run
type Key struct {
	StageIndex int
	Text       string
}

// Announcement is a text handed to the speaker
type Announcement struct {
	Key
	Kind Kind
}

// Speaker outputs an announcement. Implementations must not block the caller.
type Speaker interface {
	Speak(text string)
}

// SpeakerFunc adapts a function to Speaker
type SpeakerFunc func(text string)

func (f SpeakerFunc) Speak(text string) { f(text) }

// Scheduler decides which announcements to make as the clock advances and
// makes each (stage index, text) pair at most once until Reset.
// It is not safe for concurrent use.
type Scheduler struct {
	speaker Speaker
	memory  map[Key]struct{}
}

// NewScheduler returns a scheduler with empty memory. speaker may be nil,
// in which case announcements are only returned from OnTick.
func NewScheduler(speaker Speaker) *Scheduler {
	return &Scheduler{
		speaker: speaker,
		memory:  make(map[Key]struct{}),
	}
}

// OnTick evaluates the announcement rules for pos and returns what was
// emitted, in emission order. Nothing is emitted while the clock is stopped.
func (s *Scheduler) OnTick(running bool, pos workout.Position) []Announcement {
	if !running {
		return nil
	}

	var emitted []Announcement
	emit := func(index int, text string, kind Kind) {
		key := Key{StageIndex: index, Text: text}
		if _, seen := s.memory[key]; seen {
			return
		}
		s.memory[key] = struct{}{}
		if s.speaker != nil {
			s.speaker.Speak(text)
		}
		emitted = append(emitted, Announcement{Key: key, Kind: kind})
	}

	if pos.Finished {
		emit(0, TextComplete, KindComplete)
		return emitted
	}

	if pos.TimeInStage < labelWindow {
		emit(pos.Index, pos.Stage.Label, KindStage)
	}
	if pos.Remaining() <= countdownWindow {
		emit(pos.Index, TextCountdown, KindCountdown)
	}
	return emitted
}

// Reset forgets every emitted key so a fresh run announces again
func (s *Scheduler) Reset() {
	clear(s.memory)
}

// Emitted reports whether key has been emitted since the last Reset
func (s *Scheduler) Emitted(key Key) bool {
	_, ok := s.memory[key]
	return ok
}

// MemorySize returns the number of remembered keys
func (s *Scheduler) MemorySize() int {
	return len(s.memory)
}
