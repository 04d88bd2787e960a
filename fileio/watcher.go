package fileio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/atelleria/sessionwatch/models"
)

// EventType represents the type of file system event
type EventType int

const (
	EventCreate EventType = iota
	EventModify
	EventDelete
)

// String returns a string representation of the event type
func (e EventType) String() string {
	switch e {
	case EventCreate:
		return "CREATE"
	case EventModify:
		return "MODIFY"
	case EventDelete:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

// FileEvent represents a change to a log file under the watched root.
type FileEvent struct {
	Path      string
	Type      EventType
	Timestamp time.Time
}

// Watcher monitors the log root recursively using fsnotify. New
// subdirectories are picked up as they appear. Debouncing is the recompute
// controller's job, not the watcher's; every relevant event is forwarded.
//
// A Watcher is single-use: Stop closes the underlying fsnotify watcher, so a
// stopped Watcher cannot be restarted. Create a new one instead.
type Watcher struct {
	watcher *fsnotify.Watcher
	root    string
	events  chan FileEvent
	errors  chan error
	stopCh  chan struct{}
	mu      sync.RWMutex
	running bool
	stopped bool
}

// NewWatcher creates a watcher for the given log root.
func NewWatcher(root string) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		watcher: fsWatcher,
		root:    root,
		events:  make(chan FileEvent, 100),
		errors:  make(chan error, 10),
		stopCh:  make(chan struct{}),
	}, nil
}

// Start begins watching. A missing root is not an error: the watcher idles
// and the caller sees no events until the next Start after the root appears.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("watcher is already running")
	}
	if w.stopped {
		return fmt.Errorf("watcher cannot be restarted after stop")
	}

	if _, err := os.Stat(w.root); err == nil {
		if err := w.addRecursive(w.root); err != nil {
			w.watcher.Close()
			return err
		}
	}

	w.running = true
	go w.processEvents()

	return nil
}

// Stop stops the watcher permanently.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		w.stopped = true
		return nil
	}

	close(w.stopCh)
	w.running = false
	w.stopped = true

	return w.watcher.Close()
}

// Events returns the channel for file events.
func (w *Watcher) Events() <-chan FileEvent {
	return w.events
}

// Errors returns the channel for watch errors.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// IsRunning returns whether the watcher is currently running.
func (w *Watcher) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// addRecursive registers root and every directory beneath it.
func (w *Watcher) addRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip entries we can't access
		}
		if info.IsDir() {
			if err := w.watcher.Add(path); err != nil {
				return fmt.Errorf("failed to watch %s: %w", path, err)
			}
		}
		return nil
	})
}

// processEvents forwards fsnotify events until stopped.
func (w *Watcher) processEvents() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			case <-w.stopCh:
				return
			default:
				// Drop error if channel is full
			}

		case <-w.stopCh:
			return
		}
	}
}

// handleEvent registers newly created directories and forwards log file
// changes.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&fsnotify.Create == fsnotify.Create {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			// New subdirectory: watch it too. Files already inside it will
			// surface on their own write events.
			_ = w.addRecursive(event.Name)
			return
		}
	}

	if !strings.HasSuffix(strings.ToLower(event.Name), models.LogFileExtension) {
		return
	}

	var eventType EventType
	switch {
	case event.Op&fsnotify.Create == fsnotify.Create:
		eventType = EventCreate
	case event.Op&fsnotify.Write == fsnotify.Write:
		eventType = EventModify
	case event.Op&fsnotify.Remove == fsnotify.Remove, event.Op&fsnotify.Rename == fsnotify.Rename:
		eventType = EventDelete
	default:
		return // Skip CHMOD and friends
	}

	fileEvent := FileEvent{
		Path:      event.Name,
		Type:      eventType,
		Timestamp: time.Now(),
	}

	select {
	case w.events <- fileEvent:
	case <-w.stopCh:
	default:
		// Drop event if channel is full; the debounced recompute that
		// follows any earlier event will pick the change up anyway.
	}
}
