package orchestrator

import (
	"sync"
	"time"

	"github.com/atelleria/sessionwatch/models"
)

// Countdown projects the remaining time of the active session window at
// 1 Hz. It never rescans logs: it is a cheap derivation from the window end
// the last full pass handed it. When the window elapses it stops itself and
// fires onExpired exactly once, so the owner can run a fresh pass (a new
// window may already be open).
type Countdown struct {
	mu        sync.Mutex
	clock     Clock
	interval  time.Duration
	onTick    func(remaining time.Duration)
	onExpired func()

	active    bool
	windowEnd time.Time
	cancel    chan struct{}
}

// NewCountdown creates an idle countdown.
func NewCountdown(clock Clock, onTick func(time.Duration), onExpired func()) *Countdown {
	return &Countdown{
		clock:     clock,
		interval:  models.CountdownInterval,
		onTick:    onTick,
		onExpired: onExpired,
	}
}

// Arm starts ticking toward windowEnd. Any previously running tick is
// cancelled first: at most one runs at a time.
func (c *Countdown) Arm(windowEnd time.Time) {
	c.mu.Lock()
	c.stopLocked()
	c.active = true
	c.windowEnd = windowEnd
	cancel := make(chan struct{})
	c.cancel = cancel
	c.mu.Unlock()

	go c.run(windowEnd, cancel)
}

// Disarm cancels any running tick.
func (c *Countdown) Disarm() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

// State returns the pull-side projection without touching any timer. A
// window whose end has already passed reads as inactive even if the expiry
// tick has not fired yet, matching the snapshot's notion of active.
func (c *Countdown) State() models.CountdownState {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.active {
		return models.CountdownState{}
	}

	remaining := c.windowEnd.Sub(c.clock.Now())
	if remaining <= 0 {
		return models.CountdownState{}
	}
	return models.CountdownState{IsActive: true, TimeRemaining: remaining}
}

// stopLocked cancels the running tick. Caller holds c.mu.
func (c *Countdown) stopLocked() {
	if c.cancel != nil {
		close(c.cancel)
		c.cancel = nil
	}
	c.active = false
}

func (c *Countdown) run(windowEnd time.Time, cancel chan struct{}) {
	ticker := c.clock.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-cancel:
			return
		case <-ticker.C():
			remaining := windowEnd.Sub(c.clock.Now())
			if remaining <= 0 {
				c.mu.Lock()
				// Only clear state if this tick is still the armed one.
				if c.cancel == cancel {
					c.cancel = nil
					c.active = false
				}
				c.mu.Unlock()
				c.onExpired()
				return
			}
			c.onTick(remaining)
		}
	}
}
