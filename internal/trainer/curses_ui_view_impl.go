package trainer

import (
	"fmt"
	"log"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// Page names for tview.Pages
const (
	pageRoutineSelection = "routine_selection"
	pageTimerDashboard   = "timer_dashboard"
)

const progressBarWidth = 30

// CursesUIViewImpl implements UIViewImpl using tview (curses-based terminal UI)
type CursesUIViewImpl struct {
	logger      *log.Logger
	app         *tview.Application
	currentMode UIMode

	// Root container that holds all pages
	pages *tview.Pages

	// Shared components (visible in all modes)
	logView  *tview.TextView
	mainFlex *tview.Flex // Main layout: mode content on left, logs on right

	// Routine Selection mode components
	routineSelectionFlex       *tview.Flex
	routineSelectionTabWidgets []*tview.Box
	routineList                *tview.List
	routineDetailsPanel        *tview.TextView
	routines                   []RoutineSummary
	settingsSummary            SettingsSummary

	// Timer Dashboard mode components
	timerDashboardFlex       *tview.Flex
	timerDashboardTabWidgets []*tview.Box
	timerPanel               *tview.TextView
}

func NewCursesUIView(logger *log.Logger, app *tview.Application) *CursesUIViewImpl {
	return &CursesUIViewImpl{
		logger:      logger,
		app:         app,
		currentMode: UIModeRoutineSelection,
	}
}

// Initialize sets up the tview widgets
func (ui *CursesUIViewImpl) Initialize(controller *UIController) {
	// No SetChangedFunc with app.Draw() here: it can hang during shutdown.
	// The BaseUIView's event listeners call Draw() after updating content.
	ui.logView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(false)
	ui.logView.SetBorder(true).SetTitle(" Logs ")

	ui.pages = tview.NewPages()

	ui.initRoutineSelectionMode(controller)
	ui.initTimerDashboardMode()

	ui.pages.AddPage(pageRoutineSelection, ui.routineSelectionFlex, true, true)
	ui.pages.AddPage(pageTimerDashboard, ui.timerDashboardFlex, true, false)

	// Main layout: pages on left, logs on right
	ui.mainFlex = tview.NewFlex().
		AddItem(ui.pages, 0, 2, true).
		AddItem(ui.logView, 0, 1, false)

	ui.setFocusForCurrentMode()
}

// initRoutineSelectionMode sets up the Routine Selection mode UI
func (ui *CursesUIViewImpl) initRoutineSelectionMode(controller *UIController) {
	instructionsText := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	instructionsText.SetText("[yellow]Enter[white] Open  |  [yellow]P[white] Next Preset  |  [yellow]Tab[white] Focus\n[yellow]1[white] Routines  |  [yellow]2[white] Timer  |  [yellow]Esc[white] Quit")

	ui.routineList = tview.NewList().
		ShowSecondaryText(true).
		SetSelectedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
			ui.logger.Printf("UI: Routine selected: index=%d, name=%s", index, mainText)
			controller.OnRoutineSelected(index)
		}).
		SetChangedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
			ui.updateRoutineDetailsDisplay(index)
		})
	ui.routineList.SetBorder(true).SetTitle(" Routines ")

	ui.routineDetailsPanel = tview.NewTextView().
		SetDynamicColors(true).
		SetWordWrap(true).
		SetTextAlign(tview.AlignLeft)
	ui.routineDetailsPanel.SetBorder(true).SetTitle(" Routine Details ")
	ui.updateRoutineDetailsDisplay(-1)

	ui.routineSelectionTabWidgets = append(ui.routineSelectionTabWidgets, ui.routineList.Box)
	ui.routineSelectionTabWidgets = append(ui.routineSelectionTabWidgets, ui.routineDetailsPanel.Box)

	columns := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(ui.routineList, 0, 1, true).
		AddItem(ui.routineDetailsPanel, 0, 1, false)

	ui.routineSelectionFlex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(instructionsText, 2, 0, false).
		AddItem(columns, 0, 1, true)
}

// initTimerDashboardMode sets up the Timer Dashboard mode UI
func (ui *CursesUIViewImpl) initTimerDashboardMode() {
	ui.timerPanel = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	ui.timerPanel.SetBorder(true).SetTitle(" Timer ")
	ui.updateTimerDisplay(SessionState{Status: SessionStatusIdle})

	ui.timerDashboardTabWidgets = append(ui.timerDashboardTabWidgets, ui.timerPanel.Box)

	ui.timerDashboardFlex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(ui.timerPanel, 0, 1, true)
}

// SetRoutineList populates the routine selection list
func (ui *CursesUIViewImpl) SetRoutineList(routines []RoutineSummary) {
	ui.routines = routines
	current := ui.routineList.GetCurrentItem()
	ui.routineList.Clear()

	for _, r := range routines {
		secondary := formatDuration(r.Duration)
		if r.LastCompletion != "" {
			secondary += "  [green]" + r.LastCompletion + "[white]"
		}
		ui.routineList.AddItem(r.Routine.Name, secondary, 0, nil)
	}

	if len(routines) > 0 {
		if current < 0 || current >= len(routines) {
			current = 0
		}
		ui.routineList.SetCurrentItem(current)
		ui.updateRoutineDetailsDisplay(current)
	}
}

// UpdateSettings refreshes the settings shown with the routine details
func (ui *CursesUIViewImpl) UpdateSettings(summary SettingsSummary) {
	ui.settingsSummary = summary
	ui.updateRoutineDetailsDisplay(ui.routineList.GetCurrentItem())
}

// updateRoutineDetailsDisplay formats and displays the routine details
func (ui *CursesUIViewImpl) updateRoutineDetailsDisplay(index int) {
	if ui.routineDetailsPanel == nil {
		return
	}
	ui.routineDetailsPanel.SetText(formatRoutineDetails(ui.routines, index, ui.settingsSummary))
}

// formatRoutineDetails renders the details panel for routines[index]
func formatRoutineDetails(routines []RoutineSummary, index int, s SettingsSummary) string {
	var b strings.Builder

	if index < 0 || index >= len(routines) {
		b.WriteString("\n\n  [yellow]Routine Selection[white]\n\n")
		b.WriteString("  Select a routine from the list to view details.\n")
	} else {
		r := routines[index]
		fmt.Fprintf(&b, "\n  [yellow]%s[white]\n\n", r.Routine.Name)
		if r.Routine.Description != "" {
			fmt.Fprintf(&b, "  %s\n\n", r.Routine.Description)
		}
		fmt.Fprintf(&b, "  [gray]Exercises:[white] %s\n", r.Summary)
		fmt.Fprintf(&b, "  [gray]Duration:[white]  %s\n", formatDuration(r.Duration))
		fmt.Fprintf(&b, "  [gray]Work:[white]      %s\n", formatDuration(r.WorkTime))
		if r.LastCompletion != "" {
			fmt.Fprintf(&b, "  [gray]Last:[white]      [green]%s[white]\n", r.LastCompletion)
		}
		if r.Runs > 0 {
			fmt.Fprintf(&b, "  [gray]Runs:[white]      %d\n", r.Runs)
			for _, at := range r.RecentRuns {
				fmt.Fprintf(&b, "             %s\n", at.Local().Format("Mon 2 Jan 15:04"))
			}
		}
		b.WriteString("\n  [green]Press Enter to open this routine[white]\n")
	}

	preset := s.Preset
	if preset == "" {
		preset = "custom"
	}
	b.WriteString("\n  [gray]Settings[white]\n")
	fmt.Fprintf(&b, "  Work %ds  |  Rest %ds  |  Set break %ds  |  Sets %d\n",
		s.WorkSeconds, s.ExerciseRestSeconds, s.SetRestSeconds, s.Sets)
	fmt.Fprintf(&b, "  [gray]Preset:[white] %s\n", preset)
	return b.String()
}

// UpdateSessionState updates the timer display
func (ui *CursesUIViewImpl) UpdateSessionState(state SessionState) {
	ui.updateTimerDisplay(state)
}

// updateTimerDisplay formats and displays the session state
func (ui *CursesUIViewImpl) updateTimerDisplay(state SessionState) {
	if ui.timerPanel == nil {
		return
	}
	ui.timerPanel.SetText(formatTimerPanel(state))
}

// formatTimerPanel renders the timer screen text for state
func formatTimerPanel(state SessionState) string {
	var b strings.Builder
	b.WriteString("\n")

	switch state.Status {
	case SessionStatusIdle:
		b.WriteString("[gray]No routine loaded[white]\n\n")
		b.WriteString("Pick one in Routines (press 1)\n")
		return b.String()
	case SessionStatusRoutineNotFound:
		b.WriteString("[red]Routine not found[white]\n\n")
		fmt.Fprintf(&b, "[gray]No routine has id %q[white]\n", state.RequestedID)
		return b.String()
	}

	title := state.Routine.Name
	if state.Status == SessionStatusPaused {
		title += " [gray](PAUSED)[white]"
	}
	fmt.Fprintf(&b, "[yellow]%s[white]\n", title)
	if state.Routine.Description != "" {
		fmt.Fprintf(&b, "[gray]%s[white]\n", state.Routine.Description)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "[::b]%s[::-]\n", formatDurationMMSS(state.Remaining))
	fmt.Fprintf(&b, "[blue]%s[white]\n\n", progressBar(state.OverallProgress(), progressBarWidth))

	label := stageText(state)
	if state.Position.Finished {
		fmt.Fprintf(&b, "[green::b]%s[white::-]\n", label)
	} else {
		color := "green"
		if state.Position.Stage.IsHighIntensity {
			color = "red"
		}
		fmt.Fprintf(&b, "[::b]%s[::-]\n", label)
		fmt.Fprintf(&b, "[%s]%s[white]\n", color, progressBar(state.StageProgress, progressBarWidth))
		fmt.Fprintf(&b, "[gray]%s[white]\n", nextStageText(state))
	}

	b.WriteString("\n[gray]─────────────────────────[white]\n")
	fmt.Fprintf(&b, "[yellow]Space[white] %s  |  [yellow]R[white] Reset  |  [yellow]C[white] Mark Complete\n", toggleText(state))
	return b.String()
}

// SetMode switches the UI to the specified mode
func (ui *CursesUIViewImpl) SetMode(mode UIMode) {
	if ui.currentMode == mode {
		return
	}

	ui.currentMode = mode

	switch mode {
	case UIModeRoutineSelection:
		ui.pages.SwitchToPage(pageRoutineSelection)
	case UIModeTimerDashboard:
		ui.pages.SwitchToPage(pageTimerDashboard)
	}

	ui.setFocusForCurrentMode()
}

// GetCurrentMode returns the currently active UI mode
func (ui *CursesUIViewImpl) GetCurrentMode() UIMode {
	return ui.currentMode
}

// setFocusForCurrentMode sets focus to the first widget in the current mode
func (ui *CursesUIViewImpl) setFocusForCurrentMode() {
	widgets := ui.getTabWidgetsForCurrentMode()
	if len(widgets) > 0 {
		ui.app.SetFocus(widgets[0])
	}
}

// getTabWidgetsForCurrentMode returns the tab widgets for the current mode
func (ui *CursesUIViewImpl) getTabWidgetsForCurrentMode() []*tview.Box {
	switch ui.currentMode {
	case UIModeRoutineSelection:
		return ui.routineSelectionTabWidgets
	case UIModeTimerDashboard:
		return ui.timerDashboardTabWidgets
	default:
		return nil
	}
}

// SetupKeyboardHandlers sets up keyboard event handlers
func (ui *CursesUIViewImpl) SetupKeyboardHandlers(controller *UIController) {
	ui.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		// Number keys for mode switching
		if event.Key() == tcell.KeyRune {
			if mode, ok := GetUIModeByKey(event.Rune()); ok {
				// Delegate to controller - it will update the model, which will notify us
				controller.OnModeChange(mode)
				return nil
			}
		}

		// Tab to switch focus between widgets in current mode
		if event.Key() == tcell.KeyTab {
			widgets := ui.getTabWidgetsForCurrentMode()
			for i, w := range widgets {
				if w.HasFocus() {
					ui.app.SetFocus(widgets[(i+1)%len(widgets)])
					break
				}
			}
			return nil
		}

		// Escape to quit
		if event.Key() == tcell.KeyEscape {
			controller.OnEscapeKey()
			return nil
		}

		if event.Key() != tcell.KeyRune {
			return event
		}

		// Mode-specific key handlers
		switch ui.currentMode {
		case UIModeRoutineSelection:
			if event.Rune() == 'p' {
				controller.CyclePreset()
				return nil
			}
		case UIModeTimerDashboard:
			switch event.Rune() {
			case ' ':
				controller.ToggleSession()
				return nil
			case 'r':
				controller.ResetSession()
				return nil
			case 'c':
				controller.MarkComplete()
				return nil
			}
		}

		return event
	})
}

// GetLogViewHeight returns the visible height of the log view
func (ui *CursesUIViewImpl) GetLogViewHeight() int {
	_, _, _, height := ui.logView.GetInnerRect()
	return height
}

// ClearLogView clears the log view
func (ui *CursesUIViewImpl) ClearLogView() {
	ui.logView.Clear()
}

// WriteLogLine writes a line to the log view
func (ui *CursesUIViewImpl) WriteLogLine(line string) error {
	_, err := fmt.Fprint(ui.logView, tview.Escape(line))
	return err
}

// Draw refreshes/redraws the UI
func (ui *CursesUIViewImpl) Draw() error {
	ui.app.Draw()
	return nil
}

// Run starts the UI and blocks until it exits
func (ui *CursesUIViewImpl) Run() error {
	// SetRoot must be called before setting focus, otherwise focus may be reset
	ui.app.SetRoot(ui.mainFlex, true)
	ui.setFocusForCurrentMode()
	return ui.app.Run()
}

// Stop stops the UI framework
func (ui *CursesUIViewImpl) Stop() {
	ui.app.Stop()
}
