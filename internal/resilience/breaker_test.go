package resilience

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker() (*CircuitBreaker, *fakeClock) {
	clk := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	return NewCircuitBreaker(2*time.Second, 10*time.Second, WithClock(clk.Now)), clk
}

func TestCircuitBreaker_OpensForCooldown(t *testing.T) {
	b, clk := newTestBreaker()
	assert.True(t, b.CanRequest())

	b.ReportFailure()
	assert.False(t, b.CanRequest())
	clk.Advance(1999 * time.Millisecond)
	assert.False(t, b.CanRequest())
	clk.Advance(time.Millisecond)
	assert.True(t, b.CanRequest())
}

func TestCircuitBreaker_DoublesUpToCap(t *testing.T) {
	b, _ := newTestBreaker()

	b.ReportFailure()
	first := b.Cooldown()
	b.ReportFailure()
	assert.GreaterOrEqual(t, b.Cooldown(), 2*first)

	for i := 0; i < 10; i++ {
		b.ReportFailure()
	}
	assert.Equal(t, 10*time.Second, b.Cooldown())
}

func TestCircuitBreaker_SuccessResets(t *testing.T) {
	b, _ := newTestBreaker()
	b.ReportFailure()
	b.ReportFailure()

	b.ReportSuccess()
	assert.Equal(t, time.Duration(0), b.Cooldown())
	assert.True(t, b.CanRequest())

	b.ReportFailure()
	assert.Equal(t, 2*time.Second, b.Cooldown(), "doubling restarts from base")
}

func TestCircuitBreaker_IndependentInstances(t *testing.T) {
	a, _ := newTestBreaker()
	b, _ := newTestBreaker()
	a.ReportFailure()
	assert.False(t, a.CanRequest())
	assert.True(t, b.CanRequest())
}
