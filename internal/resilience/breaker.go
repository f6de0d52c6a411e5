package resilience

import (
	"sync"
	"time"
)

// CircuitBreaker suppresses new backend operations for a cooldown window after
// a transient failure. Each consecutive failure doubles the cooldown up to
// maxCooldown; any success resets it to zero.
type CircuitBreaker struct {
	mu           sync.Mutex
	now          func() time.Time
	baseCooldown time.Duration
	maxCooldown  time.Duration
	cooldown     time.Duration
	openUntil    time.Time
}

// BreakerOption configures a CircuitBreaker.
type BreakerOption func(*CircuitBreaker)

// WithClock injects the time source (tests).
func WithClock(now func() time.Time) BreakerOption {
	return func(b *CircuitBreaker) { b.now = now }
}

// NewCircuitBreaker base is the first cooldown, maxCooldown caps the doubling.
func NewCircuitBreaker(base, maxCooldown time.Duration, opts ...BreakerOption) *CircuitBreaker {
	if maxCooldown < base {
		maxCooldown = base
	}
	b := &CircuitBreaker{now: time.Now, baseCooldown: base, maxCooldown: maxCooldown}
	for _, o := range opts {
		o(b)
	}
	return b
}

// CanRequest false while the cooldown window is open.
func (b *CircuitBreaker) CanRequest() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.now().Before(b.openUntil)
}

// ReportFailure opens the breaker for the next cooldown.
func (b *CircuitBreaker) ReportFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cooldown == 0 {
		b.cooldown = b.baseCooldown
	} else {
		b.cooldown *= 2
		if b.cooldown > b.maxCooldown {
			b.cooldown = b.maxCooldown
		}
	}
	b.openUntil = b.now().Add(b.cooldown)
}

// ReportSuccess closes the breaker and resets the cooldown.
func (b *CircuitBreaker) ReportSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cooldown = 0
	b.openUntil = time.Time{}
}

// Cooldown current cooldown length (zero when closed and reset).
func (b *CircuitBreaker) Cooldown() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cooldown
}
