package workout

import (
	"time"

	"github.com/lowaak/hiit-timer/internal/settings"
)

// Fixed stage labels. Work stages use the exercise name as label.
const (
	LabelPrepare  = "Prepare"
	LabelRest     = "Rest"
	LabelSetBreak = "Set Break"
)

// PrepareDuration is the length of the stage every timeline starts with
const PrepareDuration = 10 * time.Second

// Stage is one labeled, fixed-duration segment of a workout
type Stage struct {
	Duration        time.Duration
	IsHighIntensity bool
	Label           string
}

// Seconds returns the stage length in seconds
func (s Stage) Seconds() float64 {
	return s.Duration.Seconds()
}

// Timeline is the ordered sequence of stages for one routine under one
// settings snapshot. It always starts with a single Prepare stage.
type Timeline []Stage

// TotalDuration returns the sum of all stage durations
func (tl Timeline) TotalDuration() time.Duration {
	var total time.Duration
	for _, stage := range tl {
		total += stage.Duration
	}
	return total
}

// HighIntensityDuration returns the summed length of the work stages
func (tl Timeline) HighIntensityDuration() time.Duration {
	var total time.Duration
	for _, stage := range tl {
		if stage.IsHighIntensity {
			total += stage.Duration
		}
	}
	return total
}

// BuildTimeline builds the stages for exercises under s:
// Prepare, then one block per set with a Set Break between consecutive
// blocks. A block is every exercise in order with a Rest stage between
// consecutive exercises. Durations are taken as given, zero included.
func BuildTimeline(exercises []string, s settings.Settings) Timeline {
	prepare := Stage{Duration: PrepareDuration, Label: LabelPrepare}
	rest := Stage{Duration: s.ExerciseRestDuration(), Label: LabelRest}
	setBreak := Stage{Duration: s.SetRestDuration(), Label: LabelSetBreak}

	block := make([]Stage, 0, 2*len(exercises))
	for i, exercise := range exercises {
		if i > 0 {
			block = append(block, rest)
		}
		block = append(block, Stage{
			Duration:        s.WorkDuration(),
			IsHighIntensity: true,
			Label:           exercise,
		})
	}

	sets := int(s.Sets)
	size := 1 + sets*len(block)
	if sets > 1 {
		size += sets - 1
	}

	timeline := make(Timeline, 0, size)
	timeline = append(timeline, prepare)
	for set := 0; set < sets; set++ {
		if set > 0 {
			timeline = append(timeline, setBreak)
		}
		timeline = append(timeline, block...)
	}
	return timeline
}
