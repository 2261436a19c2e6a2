package payment

import (
	"errors"
	"sync"
	"time"
)

// ErrBreakerOpen is returned while the gateway is considered down.
var ErrBreakerOpen = errors.New("circuit breaker is open")

// Breaker stops calling the gateway after a run of consecutive failures and
// lets a single probe through once the cool-down has passed.
type Breaker struct {
	mu        sync.Mutex
	threshold int
	coolDown  time.Duration
	failures  int
	openUntil time.Time
	probing   bool
	now       func() time.Time
}

// NewBreaker trips after threshold consecutive failures.
func NewBreaker(threshold int, coolDown time.Duration) *Breaker {
	if threshold < 1 {
		threshold = 1
	}
	return &Breaker{threshold: threshold, coolDown: coolDown, now: time.Now}
}

// Allow reports whether a call may proceed.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failures < b.threshold {
		return nil
	}
	if b.now().Before(b.openUntil) || b.probing {
		return ErrBreakerOpen
	}
	b.probing = true
	return nil
}

// Record feeds the outcome of an allowed call back into the breaker.
func (b *Breaker) Record(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.probing = false
	if success {
		b.failures = 0
		return
	}
	b.failures++
	if b.failures >= b.threshold {
		b.openUntil = b.now().Add(b.coolDown)
	}
}
