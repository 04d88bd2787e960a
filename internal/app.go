package internal

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/atelleria/sessionwatch/config"
	"github.com/atelleria/sessionwatch/fileio"
	"github.com/atelleria/sessionwatch/logging"
	"github.com/atelleria/sessionwatch/models"
	"github.com/atelleria/sessionwatch/orchestrator"
)

// Application wires configuration, scanner, watcher and tracker into a
// runnable foreground daemon.
type Application struct {
	cfg         *config.Config
	tracker     *orchestrator.Tracker
	broadcaster *orchestrator.Broadcaster
	cache       *fileio.FileCache
}

// NewApplication builds the application from a validated configuration.
func NewApplication(cfg *config.Config) (*Application, error) {
	logging.InitGlobalLogger(cfg.App.LogLevel, cfg.App.LogFile)

	var cache *fileio.FileCache
	if cfg.Data.CacheEnabled {
		var err error
		cache, err = fileio.OpenFileCache(cfg.Data.CacheDir)
		if err != nil {
			// The cache is a regenerable convenience; run without it.
			logging.LogWarnf("file cache unavailable, scanning without it: %v", err)
			cache = nil
		}
	}

	scanner := fileio.NewScanner(cfg.Data.LogRoot, cache)

	watcher, err := fileio.NewWatcher(cfg.Data.LogRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	broadcaster := orchestrator.NewBroadcaster()
	broadcaster.Subscribe(newTransitionLogger())

	tracker := orchestrator.New(scanner, watcher, broadcaster, orchestrator.Options{
		Tracking:      cfg.Tracking,
		DebounceDelay: cfg.Data.DebounceDelay,
	})

	return &Application{
		cfg:         cfg,
		tracker:     tracker,
		broadcaster: broadcaster,
		cache:       cache,
	}, nil
}

// Tracker exposes the core for embedding callers (pull queries, observer
// subscriptions via Broadcaster).
func (a *Application) Tracker() *orchestrator.Tracker {
	return a.tracker
}

// Broadcaster exposes the snapshot fan-out point.
func (a *Application) Broadcaster() *orchestrator.Broadcaster {
	return a.broadcaster
}

// Run starts the tracker and blocks until SIGINT or SIGTERM.
func (a *Application) Run() error {
	if err := a.tracker.Start(); err != nil {
		return fmt.Errorf("failed to start tracker: %w", err)
	}
	logging.LogInfof("watching %s (billing day %d, window %s)",
		a.cfg.Data.LogRoot, a.cfg.Tracking.BillingDay, a.cfg.Tracking.WindowLength)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logging.LogInfof("received %s, shutting down", sig)

	a.tracker.Stop()
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			logging.LogWarnf("failed to close file cache: %v", err)
		}
	}

	return nil
}

// newTransitionLogger logs session transitions without echoing every 1 Hz
// countdown tick. Publishes can arrive from both the pass and the countdown
// goroutine, so the comparison state is locked.
func newTransitionLogger() orchestrator.Publisher {
	var mu sync.Mutex
	var last models.LiveSnapshot
	seeded := false

	return orchestrator.PublisherFunc(func(snap models.LiveSnapshot) {
		mu.Lock()
		changed := !seeded ||
			snap.Enabled != last.Enabled ||
			snap.IsActive != last.IsActive ||
			snap.MonthlySessions != last.MonthlySessions
		seeded = true
		last = snap
		mu.Unlock()

		if !changed {
			return
		}

		switch {
		case !snap.Enabled:
			logging.LogInfo("tracking disabled")
		case snap.IsActive:
			logging.LogInfof("session active: %s remaining, %d sessions this period",
				snap.TimeRemaining.Round(models.CountdownInterval), snap.MonthlySessions)
		default:
			logging.LogInfof("no active session, %d sessions this period", snap.MonthlySessions)
		}
	})
}
