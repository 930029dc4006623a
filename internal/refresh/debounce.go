// package refresh collapses bursts of refresh requests and fans them out to every data source and view.
package refresh

import (
	"sync"
	"time"
)

// DefaultDelay is the quiet period used when none is configured.
const DefaultDelay = 400 * time.Millisecond

// Debouncer runs an action once, a fixed delay after the last of a burst of triggers (trailing edge).
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	action  func()
	timer   *time.Timer
	seq     uint64
	pending bool
	stopped bool
}

// NewDebouncer wraps action. A non-positive delay uses [DefaultDelay].
func NewDebouncer(delay time.Duration, action func()) *Debouncer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer{delay: delay, action: action}
}

// Trigger schedules the action, pushing back any pending run. It never blocks.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	d.pending = true
	seq := d.seq
	d.timer = time.AfterFunc(d.delay, func() { d.fire(seq) })
}

// Flush runs a pending action now, on the calling goroutine. It reports whether anything was pending.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	if !d.pending {
		d.mu.Unlock()
		return false
	}
	d.cancelLocked()
	d.mu.Unlock()

	d.action()
	return true
}

// Stop cancels a pending action and ignores later triggers.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.cancelLocked()
}

// Pending reports whether an action is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// SetDelay changes the quiet period for subsequent triggers.
func (d *Debouncer) SetDelay(delay time.Duration) {
	if delay <= 0 {
		delay = DefaultDelay
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.delay = delay
}

// Delay returns the quiet period.
func (d *Debouncer) Delay() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.delay
}

func (d *Debouncer) cancelLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++
	d.pending = false
}

// fire runs the action if seq is still the latest trigger. A timer that was stopped too late to prevent its
// callback is filtered out here.
func (d *Debouncer) fire(seq uint64) {
	d.mu.Lock()
	if seq != d.seq || !d.pending {
		d.mu.Unlock()
		return
	}
	d.pending = false
	d.timer = nil
	d.mu.Unlock()

	d.action()
}
