// Package metrics records workout session activity.
package metrics

import "time"

// Recorder receives session events worth counting
type Recorder interface {
	// ObserveTick records one processed clock tick and how long handling it took
	ObserveTick(handling time.Duration)

	// ObserveStageEntered counts a stage transition
	ObserveStageEntered(highIntensity bool)

	// ObserveAnnouncement counts an emitted announcement by kind
	ObserveAnnouncement(kind string)

	// ObserveSpeechFailure counts an utterance the backend could not play
	ObserveSpeechFailure(backend string)

	// ObserveCompletion counts a finished run; recorded is false when the
	// completion fell inside the debounce window
	ObserveCompletion(recorded bool)
}

// NoopRecorder discards everything
type NoopRecorder struct{}

// Nop returns a recorder for when metrics are disabled
func Nop() Recorder {
	return NoopRecorder{}
}

func (NoopRecorder) ObserveTick(time.Duration)   {}
func (NoopRecorder) ObserveStageEntered(bool)    {}
func (NoopRecorder) ObserveAnnouncement(string)  {}
func (NoopRecorder) ObserveSpeechFailure(string) {}
func (NoopRecorder) ObserveCompletion(bool)      {}
