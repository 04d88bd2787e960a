package orchestrator

import (
	stderrors "errors"
	"sync"
	"time"

	"github.com/atelleria/sessionwatch/calculations"
	"github.com/atelleria/sessionwatch/errors"
	"github.com/atelleria/sessionwatch/fileio"
	"github.com/atelleria/sessionwatch/logging"
	"github.com/atelleria/sessionwatch/models"
	"github.com/atelleria/sessionwatch/sessions"
)

// DefaultDebounceDelay is how long a burst of file notifications must settle
// before one recompute runs.
const DefaultDebounceDelay = 500 * time.Millisecond

var errAlreadyStarted = stderrors.New("tracker already started")

// Scanner supplies the full event stream for one pass.
type Scanner interface {
	Scan() ([]models.Event, error)
}

// Options configures a Tracker.
type Options struct {
	Tracking      models.TrackingConfig
	DebounceDelay time.Duration
	Clock         Clock
}

// Tracker is the accounting core: it owns the snapshot store, turns file
// change notifications into debounced full passes, and keeps the live
// countdown armed against the current session window.
type Tracker struct {
	scanner   Scanner
	watcher   *fileio.Watcher
	publisher Publisher
	store     *SnapshotStore
	countdown *Countdown
	debounce  *Debouncer
	clock     Clock

	mu       sync.Mutex // guards tracking and gen
	tracking models.TrackingConfig
	gen      uint64 // bumped on config change; stale passes are discarded

	passMu sync.Mutex // serializes full passes

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	started  bool
}

// New creates a tracker. The watcher may be nil when change notifications
// are fed externally via NotifyChange.
func New(scanner Scanner, watcher *fileio.Watcher, publisher Publisher, opts Options) *Tracker {
	if opts.Clock == nil {
		opts.Clock = RealClock()
	}
	if opts.DebounceDelay <= 0 {
		opts.DebounceDelay = DefaultDebounceDelay
	}
	if opts.Tracking.WindowLength <= 0 {
		opts.Tracking.WindowLength = models.WindowLength
	}

	t := &Tracker{
		scanner:   scanner,
		watcher:   watcher,
		publisher: publisher,
		store:     NewSnapshotStore(),
		clock:     opts.Clock,
		tracking:  opts.Tracking,
		stopCh:    make(chan struct{}),
	}
	t.countdown = NewCountdown(opts.Clock, t.handleTick, t.handleExpired)
	t.debounce = NewDebouncer(opts.DebounceDelay, func() {
		if err := t.Refresh(); err != nil {
			logging.LogWarnf("debounced recompute failed: %v", err)
		}
	})

	return t
}

// Start runs one initial pass and begins consuming watcher events.
func (t *Tracker) Start() error {
	t.mu.Lock()
	if t.started {
		t.mu.Unlock()
		return errors.Wrap(errors.TypeInternal, "start", errAlreadyStarted)
	}
	t.started = true
	t.mu.Unlock()

	if err := t.Refresh(); err != nil {
		// Not fatal: the snapshot stays empty until the next pass succeeds.
		logging.LogWarnf("initial scan failed: %v", err)
	}

	if t.watcher != nil {
		if err := t.watcher.Start(); err != nil {
			return errors.Wrap(errors.TypeFileIO, "watch log root", err)
		}
		t.wg.Add(1)
		go t.pumpFileEvents()
	}

	return nil
}

// Stop cancels the countdown, drops pending debounce triggers and stops the
// watcher. An in-flight pass finishes on its own and is discarded if
// tracking was disabled meanwhile.
func (t *Tracker) Stop() {
	t.stopOnce.Do(func() {
		close(t.stopCh)
	})
	if t.watcher != nil {
		_ = t.watcher.Stop()
	}
	t.countdown.Disarm()
	t.debounce.Reset()
	t.wg.Wait()
}

// NotifyChange records one log change notification. Ignored entirely while
// tracking is disabled.
func (t *Tracker) NotifyChange() {
	t.mu.Lock()
	enabled := t.tracking.Enabled
	t.mu.Unlock()

	if !enabled {
		return
	}
	t.debounce.Trigger()
}

// Refresh runs one full pipeline pass: scan, window, aggregate, swap the
// snapshot, publish, re-arm the countdown. Passes are serialized.
func (t *Tracker) Refresh() error {
	t.mu.Lock()
	cfg := t.tracking
	gen := t.gen
	t.mu.Unlock()

	if !cfg.Enabled {
		t.countdown.Disarm()
		t.publishSnapshot(calculations.DisabledSnapshot())
		return nil
	}

	t.passMu.Lock()
	defer t.passMu.Unlock()

	events, err := t.scanner.Scan()
	if err != nil {
		return errors.Wrap(errors.TypeFileIO, "scan log root", err)
	}

	now := t.clock.Now()
	list := sessions.Build(events, cfg.BillingDay, cfg.WindowLength, now)
	snapshot := calculations.BuildSnapshot(list, cfg, now, now)

	// Tracking may have been toggled while we were scanning; the result of
	// this pass is then stale and gets discarded.
	t.mu.Lock()
	stale := t.gen != gen || !t.tracking.Enabled
	t.mu.Unlock()
	if stale {
		logging.LogDebug("discarding pass result: configuration changed mid-scan")
		return nil
	}

	t.publishSnapshot(snapshot)

	if snapshot.IsActive && snapshot.Current != nil {
		t.countdown.Arm(snapshot.Current.StartTime.Add(cfg.WindowLength))
	} else {
		t.countdown.Disarm()
	}

	logging.LogDebugf("pass complete: %d events, %d sessions, active=%v",
		len(events), snapshot.MonthlySessions, snapshot.IsActive)

	return nil
}

// SetTracking applies a new tracking configuration. Disabling synchronously
// cancels the countdown and drops pending debounce triggers. The new
// configuration takes effect on the next recompute.
func (t *Tracker) SetTracking(cfg models.TrackingConfig) error {
	if cfg.WindowLength <= 0 {
		cfg.WindowLength = models.WindowLength
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(errors.TypeConfig, "set tracking", err)
	}

	t.mu.Lock()
	t.tracking = cfg
	t.gen++
	t.mu.Unlock()

	if !cfg.Enabled {
		t.countdown.Disarm()
		t.debounce.Reset()
		t.publishSnapshot(calculations.DisabledSnapshot())
		return nil
	}

	go func() {
		if err := t.Refresh(); err != nil {
			logging.LogWarnf("recompute after config change failed: %v", err)
		}
	}()
	return nil
}

// Tracking returns the current tracking configuration.
func (t *Tracker) Tracking() models.TrackingConfig {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tracking
}

// Snapshot returns the latest snapshot from memory without recomputing.
func (t *Tracker) Snapshot() models.LiveSnapshot {
	return t.store.Get()
}

// CountdownState returns the cheap countdown projection.
func (t *Tracker) CountdownState() models.CountdownState {
	return t.countdown.State()
}

// publishSnapshot swaps the store and fans the snapshot out.
func (t *Tracker) publishSnapshot(snapshot models.LiveSnapshot) {
	t.store.Replace(snapshot)
	if t.publisher != nil {
		t.publisher.Publish(snapshot)
	}
}

// handleTick applies one countdown tick to the stored snapshot. A tick that
// fires after tracking was disabled is a no-op. The mutation runs inside the
// store's lock so a tick racing a full pass can only adjust the fresh
// snapshot's remaining time, never write a pre-pass snapshot back.
func (t *Tracker) handleTick(remaining time.Duration) {
	skipped := false
	snapshot := t.store.Update(func(snap *models.LiveSnapshot) {
		if !snap.Enabled || !snap.IsActive {
			skipped = true
			return
		}
		snap.TimeRemaining = remaining
	})
	if skipped {
		return
	}
	if t.publisher != nil {
		t.publisher.Publish(snapshot)
	}
}

// handleExpired runs one full pass when the window elapses; a new window may
// already be open.
func (t *Tracker) handleExpired() {
	t.mu.Lock()
	enabled := t.tracking.Enabled
	t.mu.Unlock()
	if !enabled {
		return
	}

	if err := t.Refresh(); err != nil {
		logging.LogWarnf("recompute after window expiry failed: %v", err)
	}
}

// pumpFileEvents forwards watcher notifications into the debouncer.
func (t *Tracker) pumpFileEvents() {
	defer t.wg.Done()

	for {
		select {
		case event, ok := <-t.watcher.Events():
			if !ok {
				return
			}
			logging.LogDebugf("log change: %s %s", event.Type, event.Path)
			t.NotifyChange()
		case err, ok := <-t.watcher.Errors():
			if !ok {
				return
			}
			logging.LogWarnf("watcher error: %v", err)
		case <-t.stopCh:
			return
		}
	}
}
