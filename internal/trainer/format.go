package trainer

import (
	"fmt"
	"strings"
	"time"
)

// formatDurationMMSS formats a duration as MM:SS, dropping fractions of a second
func formatDurationMMSS(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	totalSeconds := int(d / time.Second)
	minutes := totalSeconds / 60
	seconds := totalSeconds % 60
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// formatDuration formats a routine length for the routine list
func formatDuration(d time.Duration) string {
	totalSeconds := int(d / time.Second)
	minutes := totalSeconds / 60
	seconds := totalSeconds % 60
	switch {
	case minutes >= 60:
		return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
	case minutes == 0:
		return fmt.Sprintf("%d s", seconds)
	case seconds == 0:
		return fmt.Sprintf("%d min", minutes)
	default:
		return fmt.Sprintf("%d min %d s", minutes, seconds)
	}
}

// progressBar renders fraction (clamped to 0..1) as a bar of width cells
func progressBar(fraction float64, width int) string {
	if width <= 0 {
		return ""
	}
	fraction = max(0, min(1, fraction))
	filled := int(fraction*float64(width) + 0.5)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// nextStageText is the line under the current stage label
func nextStageText(state SessionState) string {
	if state.Position.Finished {
		return ""
	}
	if state.Position.HasNext {
		return "Next: " + state.Position.Next.Label
	}
	return "Final Stage"
}

// stageText is the big label on the timer screen
func stageText(state SessionState) string {
	switch state.Status {
	case SessionStatusIdle:
		return "No routine loaded"
	case SessionStatusRoutineNotFound:
		return "Routine not found"
	}
	if state.Position.Finished {
		return "Workout Complete"
	}
	return state.Position.Stage.Label
}

// toggleText names what Space does in the current state
func toggleText(state SessionState) string {
	switch state.Status {
	case SessionStatusRunning:
		return "Pause"
	case SessionStatusPaused:
		return "Resume"
	case SessionStatusFinished:
		return "Reset to run again"
	default:
		return "Start Routine"
	}
}
