package trainer

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/lowaak/hiit-timer/internal/go_func_utils"
	"github.com/lowaak/hiit-timer/internal/settings"
	"github.com/lowaak/hiit-timer/internal/workout"
)

// SettingsEditor is a SettingsProvider that can also switch presets
type SettingsEditor interface {
	SettingsProvider
	ApplyPreset(name string) error
}

// CompletionHistory is a CompletionLog that can also list past runs
type CompletionHistory interface {
	CompletionLog
	History(ctx context.Context, routine string) ([]settings.Completion, error)
}

const maxRecentRuns = 3

// UIController handles UI events and coordinates the session and the UIModel
type UIController struct {
	model    *UIModel
	session  *WorkoutSession
	catalog  *workout.Catalog
	settings SettingsEditor
	history  CompletionHistory
	logger   *log.Logger
	now      func() time.Time
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewUIController creates a new UIController with the given dependencies.
// history may be nil.
func NewUIController(model *UIModel, session *WorkoutSession, catalog *workout.Catalog, editor SettingsEditor,
	history CompletionHistory, logger *log.Logger) *UIController {
	if model == nil {
		panic("UIController: model cannot be nil")
	}
	if session == nil {
		panic("UIController: session cannot be nil")
	}
	if catalog == nil {
		panic("UIController: catalog cannot be nil")
	}
	if editor == nil {
		panic("UIController: settings cannot be nil")
	}
	if logger == nil {
		panic("UIController: logger cannot be nil")
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &UIController{
		model:    model,
		session:  session,
		catalog:  catalog,
		settings: editor,
		history:  history,
		logger:   logger,
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
	}

	c.RefreshRoutines()

	stateChan, unsubscribe := session.SubscribeState(1)
	go_func_utils.SafeGoWait(logger, &c.wg, "UIController completion listener", func() {
		c.listenToCompletion(stateChan, unsubscribe)
	})

	return c
}

// listenToCompletion refreshes the routine list when a run finishes so the
// "done today" label appears
func (c *UIController) listenToCompletion(stateChan <-chan SessionState, unsubscribe func()) {
	defer unsubscribe()

	last := SessionStatusIdle
	for {
		select {
		case <-c.ctx.Done():
			return
		case state, ok := <-stateChan:
			if !ok {
				return
			}
			if state.Status == SessionStatusFinished && last != SessionStatusFinished {
				c.RefreshRoutines()
			}
			last = state.Status
		}
	}
}

// BuildRoutineSummaries lists every routine in the catalog with its length
// under s and when it was last completed
func BuildRoutineSummaries(catalog *workout.Catalog, s settings.Settings, now time.Time) []RoutineSummary {
	routines := catalog.All()
	result := make([]RoutineSummary, 0, len(routines))
	for _, r := range routines {
		last, ok := s.LastCompletion(r.Name)
		timeline := r.Timeline(s)
		result = append(result, RoutineSummary{
			Routine:        r,
			Summary:        r.Summary(),
			Duration:       timeline.TotalDuration(),
			WorkTime:       timeline.HighIntensityDuration(),
			LastCompletion: workout.LastCompletionLabel(last, ok, now),
		})
	}
	return result
}

// addRunHistory fills the run counts from the history store
func (c *UIController) addRunHistory(summaries []RoutineSummary) {
	if c.history == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.ctx, historyTimeout)
	defer cancel()
	for i := range summaries {
		runs, err := c.history.History(ctx, summaries[i].Routine.Name)
		if err != nil {
			c.logger.Printf("UIController: Failed to read history of %s: %v", summaries[i].Routine.Name, err)
			continue
		}
		summaries[i].Runs = len(runs)
		for _, run := range runs[:min(len(runs), maxRecentRuns)] {
			summaries[i].RecentRuns = append(summaries[i].RecentRuns, run.CompletedAt)
		}
	}
}

func summarizeSettings(s settings.Settings) SettingsSummary {
	summary := SettingsSummary{
		WorkSeconds:         s.WorkSeconds,
		ExerciseRestSeconds: s.ExerciseRestSeconds,
		SetRestSeconds:      s.SetRestSeconds,
		Sets:                s.Sets,
	}
	if p, ok := settings.MatchPreset(s); ok {
		summary.Preset = p.Name
	}
	return summary
}

// RefreshRoutines rebuilds the routine list and settings summary from the
// current settings
func (c *UIController) RefreshRoutines() {
	snapshot := c.settings.Read()
	summaries := BuildRoutineSummaries(c.catalog, snapshot, c.now())
	c.addRunHistory(summaries)
	c.model.SetRoutines(summaries)
	c.model.SetSettings(summarizeSettings(snapshot))
}

// OnEscapeKey handles when the Escape key is pressed
func (c *UIController) OnEscapeKey() {
	c.model.RequestCloseApplication()
}

// OnModeChange handles when the user requests a mode change
func (c *UIController) OnModeChange(mode UIMode) {
	if info, ok := GetUIModeInfo(mode); ok {
		c.logger.Printf("UIController: Switching to %s mode", info.DisplayName)
	}
	if mode == UIModeRoutineSelection {
		c.RefreshRoutines()
	}
	c.model.SetMode(mode)
}

// OnRoutineSelected loads the routine at index of the routine list and
// switches to the timer
func (c *UIController) OnRoutineSelected(index int) {
	routines := c.model.GetRoutines()
	if index < 0 || index >= len(routines) {
		c.logger.Printf("UIController: Invalid routine index: %d", index)
		return
	}
	c.OpenRoutine(routines[index].Routine.ID)
}

// OpenRoutine loads a routine by id and switches to the timer. An unknown id
// is shown on the timer screen as not found.
func (c *UIController) OpenRoutine(id string) {
	if err := c.session.LoadRoutine(id); err != nil {
		c.logger.Printf("UIController: Cannot open routine %q: %v", id, err)
	}
	c.model.SetMode(UIModeTimerDashboard)
}

// ToggleSession starts, pauses, or resumes the loaded routine
func (c *UIController) ToggleSession() {
	if err := c.session.Toggle(); err != nil {
		c.logger.Printf("UIController: %v", err)
	}
}

// ResetSession stops the routine and rewinds it to the start
func (c *UIController) ResetSession() {
	if err := c.session.Reset(); err != nil {
		c.logger.Printf("UIController: %v", err)
	}
}

// MarkComplete records a completion of the loaded routine
func (c *UIController) MarkComplete() {
	if err := c.session.MarkComplete(); err != nil {
		c.logger.Printf("UIController: Mark complete failed: %v", err)
	}
	c.RefreshRoutines()
}

// CyclePreset applies the preset after the one currently matched
func (c *UIController) CyclePreset() {
	next := settings.Presets[0]
	if current, ok := settings.MatchPreset(c.settings.Read()); ok {
		for i, p := range settings.Presets {
			if p.Name == current.Name {
				next = settings.Presets[(i+1)%len(settings.Presets)]
				break
			}
		}
	}
	if err := c.settings.ApplyPreset(next.Name); err != nil {
		c.logger.Printf("UIController: Failed to apply preset %s: %v", next.Name, err)
	}
	c.RefreshRoutines()
}

// Shutdown stops the controller and the session
func (c *UIController) Shutdown() {
	c.cancel()
	c.wg.Wait()
	c.session.Shutdown()
}
