package trainer

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/lowaak/hiit-timer/internal/go_func_utils"
)

// BaseUIView contains the base logic shared by all UI implementations
type BaseUIView struct {
	uiViewImpl   UIViewImpl
	uiModel      *UIModel
	uiController *UIController
	context      context.Context
	cancelFunc   context.CancelFunc
	waitGroup    sync.WaitGroup
	logger       *log.Logger
}

// NewBaseUIViewArg holds the arguments for creating a new BaseUIView
type NewBaseUIViewArg struct {
	UIViewImpl   UIViewImpl
	UIModel      *UIModel
	UIController *UIController
	Logger       *log.Logger
}

// NewBaseUIView creates a new BaseUIView with the given implementation
func NewBaseUIView(args NewBaseUIViewArg) *BaseUIView {
	if args.Logger == nil {
		panic("BaseUIView: logger cannot be nil")
	}
	if args.UIViewImpl == nil {
		panic("BaseUIView: UIViewImpl cannot be nil")
	}
	if args.UIModel == nil {
		panic("BaseUIView: UIModel cannot be nil")
	}
	if args.UIController == nil {
		panic("BaseUIView: UIController cannot be nil")
	}
	ctx, cancel := context.WithCancel(context.Background())

	base := &BaseUIView{
		uiViewImpl:   args.UIViewImpl,
		uiModel:      args.UIModel,
		uiController: args.UIController,
		context:      ctx,
		cancelFunc:   cancel,
		logger:       args.Logger,
	}

	// Initialize framework-specific widgets
	args.UIViewImpl.Initialize(args.UIController)

	// Set up keyboard handlers
	args.UIViewImpl.SetupKeyboardHandlers(args.UIController)

	// Set initial content from model
	args.UIViewImpl.SetMode(args.UIModel.GetUIState().Mode)
	args.UIViewImpl.SetRoutineList(args.UIModel.GetRoutines())
	args.UIViewImpl.UpdateSettings(args.UIModel.GetSettings())
	args.UIViewImpl.UpdateSessionState(args.UIModel.GetSessionState())

	// Set up periodic resize check and initial display
	go_func_utils.SafeGoWait(base.logger, &base.waitGroup, "BaseUIView log resize", base.monitorLogResize)
	base.updateLogDisplay()

	base.setupEventListeners()

	return base
}

// listen drains ch on its own goroutine, calling apply then redrawing for
// every value, until the view shuts down or ch closes
func listen[T any](base *BaseUIView, name string, ch <-chan T, unsubscribe func(), apply func(T)) {
	go_func_utils.SafeGoWait(base.logger, &base.waitGroup, name, func() {
		defer unsubscribe()
		for {
			select {
			case <-base.context.Done():
				return
			case value, ok := <-ch:
				if !ok {
					return
				}
				apply(value)
				if err := base.uiViewImpl.Draw(); err != nil {
					base.logger.Printf("BaseUIView: Error drawing: %v", err)
				}
			}
		}
	})
}

func (base *BaseUIView) setupEventListeners() {
	// When a new log arrives, update the display to show the tail
	logChan, logUnsubscribe := base.uiModel.SubscribeLog()
	listen(base, "BaseUIView log listener", logChan, logUnsubscribe, func(string) {
		base.updateLogDisplay()
	})

	routinesChan, routinesUnsubscribe := base.uiModel.SubscribeRoutines()
	listen(base, "BaseUIView routines listener", routinesChan, routinesUnsubscribe, base.uiViewImpl.SetRoutineList)

	settingsChan, settingsUnsubscribe := base.uiModel.SubscribeSettings()
	listen(base, "BaseUIView settings listener", settingsChan, settingsUnsubscribe, base.uiViewImpl.UpdateSettings)

	uiStateChan, uiStateUnsubscribe := base.uiModel.SubscribeUIState()
	listen(base, "BaseUIView mode listener", uiStateChan, uiStateUnsubscribe, func(state UIState) {
		base.uiViewImpl.SetMode(state.Mode)
	})

	sessionChan, sessionUnsubscribe := base.uiModel.SubscribeSessionState()
	listen(base, "BaseUIView session listener", sessionChan, sessionUnsubscribe, base.uiViewImpl.UpdateSessionState)

	// Stop the UI implementation when the model asks to close
	closeChan, closeUnsubscribe := base.uiModel.SubscribeCloseApplication()
	go_func_utils.SafeGoWait(base.logger, &base.waitGroup, "BaseUIView close listener", func() {
		defer closeUnsubscribe()
		select {
		case <-base.context.Done():
			return
		case _, ok := <-closeChan:
			if !ok {
				return
			}
			base.uiViewImpl.Stop()
		}
	})
}

func (base *BaseUIView) updateLogDisplay() {
	height := base.uiViewImpl.GetLogViewHeight()
	if height <= 0 {
		return
	}

	logLines := base.uiModel.GetLogTail(height)

	base.uiViewImpl.ClearLogView()
	for _, line := range logLines {
		if err := base.uiViewImpl.WriteLogLine(line + "\n"); err != nil {
			base.logger.Printf("BaseUIView: Error writing to log view: %v", err)
		}
	}
}

func (base *BaseUIView) monitorLogResize() {
	var lastHeight int
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-base.context.Done():
			return
		case <-ticker.C:
			height := base.uiViewImpl.GetLogViewHeight()
			if height != lastHeight && height > 0 {
				lastHeight = height
				base.updateLogDisplay()
				if err := base.uiViewImpl.Draw(); err != nil {
					base.logger.Printf("BaseUIView: Error drawing: %v", err)
				}
			}
		}
	}
}

// Shutdown stops all goroutines and waits for them to finish
func (base *BaseUIView) Shutdown() {
	base.logger.Println("BaseUIView: Shutting down")
	base.cancelFunc()
	base.waitGroup.Wait()
	base.logger.Println("BaseUIView: Shutdown complete")
}

// Run starts the UI and blocks until it exits
func (base *BaseUIView) Run() error {
	return base.uiViewImpl.Run()
}
