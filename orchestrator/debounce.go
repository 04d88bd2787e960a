package orchestrator

import (
	"sync"
	"time"
)

type debounceState int

const (
	debounceIdle debounceState = iota
	debouncePending
	debounceRunning
)

// timerHandle is the cancellable half of a pending delay.
type timerHandle interface {
	Stop() bool
}

// afterFunc schedules fn after d and returns a handle to cancel it. Tests
// inject a manual implementation to avoid real wall-clock waits.
type afterFunc func(d time.Duration, fn func()) timerHandle

func realAfterFunc(d time.Duration, fn func()) timerHandle {
	return time.AfterFunc(d, fn)
}

// Debouncer collapses bursts of change notifications into one delayed pass.
// It is an explicit Idle/Pending/Running state machine:
//
//	Idle    --Trigger--> Pending (delay timer armed; re-trigger restarts it)
//	Pending --timer-----> Running (the pass executes, never re-entrantly)
//	Running --Trigger--> pass re-armed once the current one finishes
//
// Passes are serialized; overlapping passes would violate the "session list
// is wholly rebuilt" invariant.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	after afterFunc
	run   func()

	state debounceState
	timer timerHandle
	rearm bool
}

// NewDebouncer creates a debouncer that executes run once per settled burst.
func NewDebouncer(delay time.Duration, run func()) *Debouncer {
	return NewDebouncerWithTimer(delay, realAfterFunc, run)
}

// NewDebouncerWithTimer injects the timer implementation.
func NewDebouncerWithTimer(delay time.Duration, after afterFunc, run func()) *Debouncer {
	return &Debouncer{
		delay: delay,
		after: after,
		run:   run,
	}
}

// Trigger records one change notification.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch d.state {
	case debounceIdle:
		d.state = debouncePending
		d.timer = d.after(d.delay, d.fire)
	case debouncePending:
		// Restart the delay: the burst has not settled yet.
		d.timer.Stop()
		d.timer = d.after(d.delay, d.fire)
	case debounceRunning:
		// Absorbed by the in-flight pass; one more follows when it ends.
		d.rearm = true
	}
}

// Reset drops any pending trigger. An in-flight pass is allowed to finish;
// it will not be re-armed.
func (d *Debouncer) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.rearm = false
	if d.state == debouncePending {
		d.state = debounceIdle
	}
}

// fire runs the pass on the timer goroutine, then re-arms if triggers
// arrived while it was running.
func (d *Debouncer) fire() {
	d.mu.Lock()
	if d.state != debouncePending {
		// Reset raced with the timer.
		d.mu.Unlock()
		return
	}
	d.state = debounceRunning
	d.timer = nil
	d.mu.Unlock()

	d.run()

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != debounceRunning {
		return
	}
	if d.rearm {
		d.rearm = false
		d.state = debouncePending
		d.timer = d.after(d.delay, d.fire)
	} else {
		d.state = debounceIdle
	}
}
