package daemon

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of file events into single rebuild signals.
// Each Notify restarts the quiet window; the signal fires once the window
// passes without another event. The max delay bounds how long a steady
// stream of edits can postpone the signal, so continuous saving still
// produces periodic rebuilds.
type Debouncer struct {
	quiet time.Duration
	max   time.Duration

	mu       sync.Mutex
	pending  bool
	events   int
	quietTmr *time.Timer
	maxTmr   *time.Timer
	stopped  bool

	out chan struct{}
}

// NewDebouncer creates a debouncer with the given quiet window. A maxDelay
// of zero defaults to ten quiet windows.
func NewDebouncer(quiet, maxDelay time.Duration) *Debouncer {
	if quiet <= 0 {
		quiet = 300 * time.Millisecond
	}
	if maxDelay <= 0 {
		maxDelay = 10 * quiet
	}
	return &Debouncer{
		quiet: quiet,
		max:   maxDelay,
		out:   make(chan struct{}, 1),
	}
}

// Notify records one file event and restarts the quiet window.
func (d *Debouncer) Notify() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.events++
	if !d.pending {
		d.pending = true
		d.maxTmr = time.AfterFunc(d.max, d.fire)
	}
	if d.quietTmr != nil {
		d.quietTmr.Stop()
	}
	d.quietTmr = time.AfterFunc(d.quiet, d.fire)
}

// C delivers one signal per coalesced burst. The channel holds at most one
// pending signal: bursts arriving while a rebuild is in flight collapse
// into exactly one follow-up.
func (d *Debouncer) C() <-chan struct{} {
	return d.out
}

// Stop cancels any pending signal. Safe to call more than once.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.pending = false
	if d.quietTmr != nil {
		d.quietTmr.Stop()
	}
	if d.maxTmr != nil {
		d.maxTmr.Stop()
	}
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	if !d.pending || d.stopped {
		d.mu.Unlock()
		return
	}
	d.pending = false
	d.events = 0
	if d.quietTmr != nil {
		d.quietTmr.Stop()
	}
	if d.maxTmr != nil {
		d.maxTmr.Stop()
	}
	d.mu.Unlock()

	select {
	case d.out <- struct{}{}:
	default:
	}
}
