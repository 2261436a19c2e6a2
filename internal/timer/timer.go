// Package timer implements the booking hold countdown.  A Timer counts down
// whole seconds and fires its expiry callback exactly once when it reaches
// zero.  Timers are owned per booking session through a Registry.
package timer

import (
	"fmt"
	"sync"
	"time"
)

// DefaultCriticalSeconds is the remaining time at or below which the hold is
// displayed as critical.
const DefaultCriticalSeconds = 60

// Snapshot is a point-in-time view of a timer for display.
type Snapshot struct {
	DurationSeconds  int    `json:"duration_seconds"`
	RemainingSeconds int    `json:"remaining_seconds"`
	IsActive         bool   `json:"is_active"`
	IsExpired        bool   `json:"is_expired"`
	IsCritical       bool   `json:"is_critical"`
	Display          string `json:"display"`
}

// Timer is a one-second countdown with an expiry callback.
//
// Invariants: 0 <= remaining <= duration; expired == (remaining == 0) once
// the countdown has run; an expired timer only resumes through Start.
type Timer struct {
	mu        sync.Mutex
	duration  int
	remaining int
	active    bool
	expired   bool
	closed    bool
	critical  int
	interval  time.Duration
	manual    bool
	onExpire  func()

	// gen invalidates ticks from a previous run after Stop/Start.
	gen  uint64
	stop chan struct{}
}

// Option configures a Timer.
type Option func(*Timer)

// WithManualTicks disables the internal ticker; the owner advances the
// countdown by calling Tick.
func WithManualTicks() Option { return func(t *Timer) { t.manual = true } }

// WithInterval overrides the length of one tick (one second by default).
func WithInterval(d time.Duration) Option {
	return func(t *Timer) {
		if d > 0 {
			t.interval = d
		}
	}
}

// WithCriticalThreshold sets the critical display threshold in seconds.
func WithCriticalThreshold(seconds int) Option {
	return func(t *Timer) {
		if seconds >= 0 {
			t.critical = seconds
		}
	}
}

// New returns an inactive timer of the given duration.  onExpire may be nil.
func New(duration time.Duration, onExpire func(), opts ...Option) *Timer {
	secs := int(duration / time.Second)
	if secs < 1 {
		secs = 1
	}
	t := &Timer{
		duration:  secs,
		remaining: secs,
		critical:  DefaultCriticalSeconds,
		interval:  time.Second,
		onExpire:  onExpire,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Start begins the countdown from the full duration.  It is a no-op when the
// timer is already active or has been closed.
func (t *Timer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active || t.closed {
		return
	}
	t.remaining = t.duration
	t.active = true
	t.expired = false
	t.gen++
	if t.manual {
		return
	}
	stop := make(chan struct{})
	t.stop = stop
	go t.run(t.gen, stop)
}

func (t *Timer) run(gen uint64, stop <-chan struct{}) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !t.tick(gen) {
				return
			}
		}
	}
}

// Tick advances the countdown by one second.  It reports whether the timer
// is still running afterwards.
func (t *Timer) Tick() bool {
	t.mu.Lock()
	gen := t.gen
	t.mu.Unlock()
	return t.tick(gen)
}

func (t *Timer) tick(gen uint64) bool {
	t.mu.Lock()
	if gen != t.gen || !t.active {
		t.mu.Unlock()
		return false
	}
	t.remaining--
	if t.remaining > 0 {
		t.mu.Unlock()
		return true
	}
	t.remaining = 0
	t.expired = true
	t.active = false
	t.stop = nil
	cb := t.onExpire
	t.mu.Unlock()

	if cb != nil {
		cb()
	}
	return false
}

// Stop halts the countdown without resetting the remaining time.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.halt()
}

func (t *Timer) halt() {
	if !t.active {
		return
	}
	t.active = false
	t.gen++
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
}

// Close tears the timer down and drops the callback.  A countdown that has
// not reached zero never fires once Close returns; a callback already under
// way is not waited for, so it may call Close itself.  A closed timer cannot
// be restarted.
func (t *Timer) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.halt()
	t.closed = true
	t.onExpire = nil
}

// Remaining returns the remaining seconds.
func (t *Timer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

// IsActive reports whether the countdown is running.
func (t *Timer) IsActive() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// IsExpired reports whether the countdown reached zero.
func (t *Timer) IsExpired() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.expired
}

// FormatTime renders the remaining time as MM:SS.
func (t *Timer) FormatTime() string {
	return FormatSeconds(t.Remaining())
}

// Snapshot returns the current display state.
func (t *Timer) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Snapshot{
		DurationSeconds:  t.duration,
		RemainingSeconds: t.remaining,
		IsActive:         t.active,
		IsExpired:        t.expired,
		IsCritical:       t.active && t.remaining <= t.critical,
		Display:          FormatSeconds(t.remaining),
	}
}

// FormatSeconds renders seconds as MM:SS.
func FormatSeconds(s int) string {
	if s < 0 {
		s = 0
	}
	return fmt.Sprintf("%02d:%02d", s/60, s%60)
}
