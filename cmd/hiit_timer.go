package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rivo/tview"
	"golang.org/x/term"

	"github.com/lowaak/hiit-timer/internal/config"
	"github.com/lowaak/hiit-timer/internal/go_func_utils"
	"github.com/lowaak/hiit-timer/internal/logging"
	"github.com/lowaak/hiit-timer/internal/metrics"
	"github.com/lowaak/hiit-timer/internal/settings"
	"github.com/lowaak/hiit-timer/internal/speech"
	"github.com/lowaak/hiit-timer/internal/trainer"
	"github.com/lowaak/hiit-timer/internal/workout"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, config.ErrHelp) {
		fmt.Fprintf(os.Stdout, "Usage of %s:\n%s", config.AppName, config.Usage())
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", config.AppName, err)
		os.Exit(2)
	}

	interactive := !cfg.Headless && term.IsTerminal(int(os.Stdout.Fd()))
	if err := run(cfg, interactive); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", config.AppName, err)
		os.Exit(1)
	}
}

func run(cfg config.Config, interactive bool) error {
	logOpts := logging.Options{
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	}
	var uiLogChan chan string
	if interactive {
		uiLogChan = logging.NewUIChannel()
		logOpts.UI = uiLogChan
	} else if cfg.LogFile == "" {
		logOpts.Extra = os.Stderr
	}
	logger, logCloser := logging.New(logOpts)
	defer func() {
		if err := logCloser.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "close log: %v\n", err)
		}
	}()
	if cfg.ConfigFile != "" {
		logger.Printf("Main: Using config file %s", cfg.ConfigFile)
	}

	registry := prometheus.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(registry)
	if cfg.MetricsAddr != "" {
		server := startMetricsServer(cfg.MetricsAddr, registry, logger)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				logger.Printf("Main: Metrics server shutdown failed: %v", err)
			}
		}()
	}

	store, db, closeStore, err := openSettingsStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	var history trainer.CompletionHistory
	switch st := store.(type) {
	case *settings.YAMLStore:
		logger.Printf("Main: Settings file %s", st.Path())
	case *settings.SQLiteStore:
		logger.Printf("Main: Settings database %s", cfg.SettingsPath)
		history = db
	}

	provider := settings.NewProvider(store, logger)
	if cfg.Preset != "" {
		if err := provider.ApplyPreset(cfg.Preset); err != nil {
			logger.Printf("Main: Failed to apply preset %q: %v", cfg.Preset, err)
		}
	}

	catalog := workout.NewCatalog()
	if cfg.RoutinesFile != "" {
		catalog, err = workout.LoadCatalogFile(cfg.RoutinesFile)
		if err != nil {
			return fmt.Errorf("load routines: %w", err)
		}
	}

	var backend speech.Backend = speech.MuteBackend{}
	if cfg.Mute {
		logger.Println("Main: Announcements muted")
	} else {
		backend = newSpeechBackend(cfg, logger)
	}
	speaker := speech.NewAsyncSpeaker(backend, logger, recorder)
	speaker.SetTimeout(cfg.SpeechTimeout)
	// lets the last announcement finish after the session stops
	defer speaker.Close()

	session := trainer.NewWorkoutSession(trainer.NewWorkoutSessionArg{
		Catalog:    catalog,
		Settings:   provider,
		History:    history,
		Speaker:    speaker,
		Metrics:    recorder,
		TickPeriod: cfg.TickPeriod,
		Logger:     logger,
	})

	if interactive {
		return runInteractive(cfg, session, catalog, provider, history, logger, uiLogChan)
	}
	defer session.Shutdown()
	return runHeadless(cfg, session, catalog, provider, logger)
}

// runInteractive owns the session from here on: the controller shuts it down
func runInteractive(cfg config.Config, session *trainer.WorkoutSession, catalog *workout.Catalog,
	provider *settings.Provider, history trainer.CompletionHistory, logger *log.Logger, uiLogChan <-chan string) error {
	uiModel := trainer.NewUIModel(session, logger, uiLogChan)
	uiController := trainer.NewUIController(uiModel, session, catalog, provider, history, logger)

	if cfg.Routine != "" {
		uiController.OpenRoutine(cfg.Routine)
		if cfg.Autostart {
			uiController.ToggleSession()
		}
	}

	app := tview.NewApplication()
	baseView := trainer.NewBaseUIView(trainer.NewBaseUIViewArg{
		UIViewImpl:   trainer.NewCursesUIView(logger, app),
		UIModel:      uiModel,
		UIController: uiController,
		Logger:       logger,
	})

	logger.Println("Main: Starting terminal UI")
	runErr := baseView.Run()

	baseView.Shutdown()
	uiController.Shutdown()
	uiModel.Shutdown()
	return runErr
}

// runHeadless prints the routine list when no routine was requested;
// otherwise it runs the routine to the end
func runHeadless(cfg config.Config, session *trainer.WorkoutSession, catalog *workout.Catalog,
	provider *settings.Provider, logger *log.Logger) error {
	if cfg.Routine == "" {
		printRoutines(os.Stdout, catalog, provider.Read())
		return nil
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	view := trainer.NewHeadlessView(session, os.Stdout, logger)
	view.Attach()
	viewErr := make(chan error, 1)
	go_func_utils.SafeGo(logger, "HeadlessView", func() {
		viewErr <- view.Run(ctx)
	})

	if err := session.LoadRoutine(cfg.Routine); err != nil {
		// the view reports the missing routine and returns
		logger.Printf("Main: %v", err)
		return <-viewErr
	}
	// nothing can press start in headless mode
	if err := session.Resume(); err != nil {
		return fmt.Errorf("start routine: %w", err)
	}

	err := <-viewErr
	if errors.Is(err, context.Canceled) {
		logger.Println("Main: Interrupted")
		return nil
	}
	return err
}

func printRoutines(out io.Writer, catalog *workout.Catalog, s settings.Settings) {
	now := time.Now()
	for _, summary := range trainer.BuildRoutineSummaries(catalog, s, now) {
		fmt.Fprintf(out, "%-4s %-20s %8s  %s\n", summary.Routine.ID, summary.Routine.Name,
			summary.Duration, summary.LastCompletion)
	}
}

// openSettingsStore returns the configured store. db is non-nil only for the
// SQLite backend, which also keeps the completion history.
func openSettingsStore(cfg config.Config) (store settings.Store, db *settings.SQLiteStore, closeStore func(), err error) {
	noop := func() {}
	switch cfg.SettingsBackend {
	case config.BackendMemory:
		return settings.NewMemoryStore(), nil, noop, nil
	case config.BackendSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.SettingsPath), 0o755); err != nil {
			return nil, nil, noop, fmt.Errorf("create settings dir: %w", err)
		}
		db, err = settings.OpenSQLiteStore(cfg.SettingsPath)
		if err != nil {
			return nil, nil, noop, fmt.Errorf("open settings database: %w", err)
		}
		return db, db, func() { _ = db.Close() }, nil
	default:
		return settings.NewYAMLStore(cfg.SettingsPath), nil, noop, nil
	}
}

// newSpeechBackend prefers recorded clips and falls back to synthesized speech
func newSpeechBackend(cfg config.Config, logger *log.Logger) speech.Backend {
	tts := speech.NewCommandBackend(cfg.TTSCommand)
	if !tts.Available() {
		logger.Println("Main: No speech synthesizer found")
	}
	if cfg.AudioDir == "" {
		return tts
	}
	clips := speech.NewClipBackend(cfg.AudioDir, cfg.AudioPlayer)
	if !clips.Available() {
		logger.Println("Main: No audio player found, using speech synthesis only")
		return tts
	}
	return speech.FallbackBackend{Primary: clips, Secondary: tts}
}

func startMetricsServer(addr string, g prometheus.Gatherer, logger *log.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(g))
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go_func_utils.SafeGo(logger, "metrics server", func() {
		logger.Printf("Main: Serving metrics on http://%s/metrics", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Printf("Main: Metrics server failed: %v", err)
		}
	})
	return server
}
