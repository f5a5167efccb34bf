package trainer

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/lowaak/hiit-timer/internal/announce"
)

// HeadlessView prints a session as plain lines: stage transitions,
// announcements and status changes. Used when stdout is not a terminal.
type HeadlessView struct {
	session *WorkoutSession
	logger  *log.Logger

	mu  sync.Mutex
	out io.Writer

	attached          bool
	stateChan         <-chan SessionState
	unsubscribe       func()
	stopAnnouncements func()
}

func NewHeadlessView(session *WorkoutSession, out io.Writer, logger *log.Logger) *HeadlessView {
	if session == nil {
		panic("HeadlessView: session cannot be nil")
	}
	if logger == nil {
		panic("HeadlessView: logger cannot be nil")
	}
	return &HeadlessView{session: session, out: out, logger: logger}
}

func (v *HeadlessView) printf(format string, args ...any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, err := fmt.Fprintf(v.out, format+"\n", args...); err != nil {
		v.logger.Printf("HeadlessView: Write failed: %v", err)
	}
}

// Attach subscribes to the session. Call it before loading a routine so no
// announcement is missed; Run attaches on its own otherwise.
func (v *HeadlessView) Attach() {
	if v.attached {
		return
	}
	v.attached = true
	v.stopAnnouncements = v.session.ListenToAnnouncements(func(a announce.Announcement) {
		v.printf("  >> %s", a.Text)
	})
	v.stateChan, v.unsubscribe = v.session.SubscribeState(16)
}

func (v *HeadlessView) detach() {
	v.stopAnnouncements()
	v.unsubscribe()
	v.attached = false
}

// Run prints until the routine finishes, the routine is not found, or ctx
// is done. It returns ctx.Err() only when ctx ended the run.
func (v *HeadlessView) Run(ctx context.Context) error {
	v.Attach()
	defer v.detach()
	stateChan := v.stateChan

	lastStatus := SessionStatus(-1)
	lastStage := -1
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case state, ok := <-stateChan:
			if !ok {
				return nil
			}
			if state.Status != lastStatus {
				lastStatus = state.Status
				v.printStatus(state)
			}
			switch state.Status {
			case SessionStatusRoutineNotFound, SessionStatusFinished:
				return nil
			case SessionStatusReady:
				lastStage = -1
			}
			if state.Status == SessionStatusRunning && state.Position.Index != lastStage {
				lastStage = state.Position.Index
				v.printf("%s  %s  (%ds)  %s", formatDurationMMSS(state.Remaining),
					state.Position.Stage.Label, int(state.Position.Stage.Seconds()), nextStageText(state))
			}
		}
	}
}

func (v *HeadlessView) printStatus(state SessionState) {
	switch state.Status {
	case SessionStatusIdle:
		return
	case SessionStatusRoutineNotFound:
		v.printf("Routine not found: %q", state.RequestedID)
	case SessionStatusReady:
		v.printf("%s: %s (%s)", state.Routine.Name, state.Routine.Summary(), formatDuration(state.Total))
	default:
		v.printf("[%s] %s remaining", state.Status, formatDurationMMSS(state.Remaining))
	}
}
