package timer

import (
	"sync"
	"time"
)

// Registry owns one Timer per booking session.  A session's timer lives
// until Release is called, independent of any request that touched it.
type Registry struct {
	mu       sync.Mutex
	timers   map[string]*Timer
	duration time.Duration
	opts     []Option
}

// NewRegistry returns a registry creating timers of the given duration.
func NewRegistry(duration time.Duration, opts ...Option) *Registry {
	return &Registry{
		timers:   make(map[string]*Timer),
		duration: duration,
		opts:     opts,
	}
}

// Acquire returns the session's timer, creating it with onExpire when the
// session has none.  The callback of an existing timer is not replaced.
func (r *Registry) Acquire(sessionID string, onExpire func()) *Timer {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.timers[sessionID]; ok {
		return t
	}
	t := New(r.duration, onExpire, r.opts...)
	r.timers[sessionID] = t
	return t
}

// Get returns the session's timer or nil.
func (r *Registry) Get(sessionID string) *Timer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.timers[sessionID]
}

// Release closes and forgets the session's timer.  Releasing an unknown
// session is a no-op.
func (r *Registry) Release(sessionID string) {
	r.mu.Lock()
	t, ok := r.timers[sessionID]
	delete(r.timers, sessionID)
	r.mu.Unlock()
	if ok {
		t.Close()
	}
}

// Len returns the number of sessions holding a timer.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.timers)
}
