package resilience

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// Policy retry bounds.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultPolicy 3 attempts, 500ms doubling, 5s cap.
var DefaultPolicy = Policy{MaxAttempts: 3, BaseDelay: 500 * time.Millisecond, MaxDelay: 5 * time.Second}

// Retrier runs operations with bounded retries on transient errors. The
// breaker is consulted once per operation, before the first attempt, and is
// told the final outcome.
type Retrier struct {
	policy  Policy
	breaker *CircuitBreaker
	logger  *zap.Logger
	sleep   func(ctx context.Context, d time.Duration) error
	jitter  func() float64
}

// NewRetrier breaker may be nil.
func NewRetrier(policy Policy, breaker *CircuitBreaker, logger *zap.Logger) *Retrier {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retrier{
		policy:  policy,
		breaker: breaker,
		logger:  logger,
		sleep:   sleepContext,
		jitter:  rand.Float64,
	}
}

// Breaker the breaker gating this retrier (may be nil).
func (r *Retrier) Breaker() *CircuitBreaker { return r.breaker }

// Do runs fn until it succeeds, fails permanently, or attempts run out.
func (r *Retrier) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	if r.breaker != nil && !r.breaker.CanRequest() {
		return fmt.Errorf("%s: %w", op, ErrCircuitOpen)
	}

	var lastErr error
	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			if r.breaker != nil {
				r.breaker.ReportSuccess()
			}
			return nil
		}
		if !IsTransient(err) {
			return err
		}
		lastErr = err
		if attempt == r.policy.MaxAttempts {
			break
		}

		delay := r.Backoff(attempt)
		r.logger.Warn("Transient backend error, retrying",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		if err := r.sleep(ctx, delay); err != nil {
			// the backend already failed transiently; a caller giving up does not clear that
			if r.breaker != nil {
				r.breaker.ReportFailure()
			}
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	if r.breaker != nil {
		r.breaker.ReportFailure()
	}
	r.logger.Error("Backend operation failed after retries",
		zap.String("op", op),
		zap.Int("attempts", r.policy.MaxAttempts),
		zap.Error(lastErr),
	)
	return fmt.Errorf("%s: %w", op, errors.Join(ErrBackendUnavailable, lastErr))
}

// Backoff delay after the given failed attempt (1-based): exponential from
// BaseDelay, capped at MaxDelay, with jitter over the upper half.
func (r *Retrier) Backoff(attempt int) time.Duration {
	d := r.policy.BaseDelay
	for i := 1; i < attempt && d < r.policy.MaxDelay; i++ {
		d *= 2
	}
	if d > r.policy.MaxDelay {
		d = r.policy.MaxDelay
	}
	half := d / 2
	return half + time.Duration(r.jitter()*float64(d-half))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
