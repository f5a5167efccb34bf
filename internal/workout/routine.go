package workout

import (
	"fmt"
	"strings"
	"time"

	"github.com/lowaak/hiit-timer/internal/settings"
)

// Routine is a named, ordered list of exercises
type Routine struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Exercises   []string `yaml:"exercises"`
}

// Summary lists the exercises of the routine
func (r Routine) Summary() string {
	return strings.Join(r.Exercises, ", ")
}

// Timeline builds the routine's stages from the given settings snapshot
func (r Routine) Timeline(s settings.Settings) Timeline {
	return BuildTimeline(r.Exercises, s)
}

// Duration returns the total length of the routine under s
func (r Routine) Duration(s settings.Settings) time.Duration {
	return r.Timeline(s).TotalDuration()
}

// LastCompletionLabel describes how long ago the routine was last finished.
// It returns an empty string when there is no recorded completion.
func LastCompletionLabel(last time.Time, ok bool, now time.Time) string {
	if !ok {
		return ""
	}
	since := now.Sub(last)
	switch {
	case since < 24*time.Hour:
		return "done today"
	case since < 48*time.Hour:
		return "done yesterday"
	default:
		return fmt.Sprintf("done %d days ago", int(since/(24*time.Hour)))
	}
}
