package engine

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Throttle enforces a minimum gap between consecutive outbound LLM calls.
//
// One Throttle is shared by every task in the process. It is backed by a
// token bucket with burst 1, so each Wait reserves the next free slot under
// the limiter's own lock and then sleeps outside of it: concurrent callers
// queue up min_interval apart, but the outbound calls themselves are not
// serialized.
type Throttle struct {
	limiter *rate.Limiter
	clock   Clock
}

// NewThrottle creates a throttle allowing one call every minInterval.
// A zero interval disables throttling.
func NewThrottle(minInterval time.Duration, clock Clock) *Throttle {
	if clock == nil {
		clock = RealClock()
	}
	limit := rate.Inf
	if minInterval > 0 {
		limit = rate.Every(minInterval)
	}
	return &Throttle{
		limiter: rate.NewLimiter(limit, 1),
		clock:   clock,
	}
}

// Wait blocks until the next call slot is available. It returns immediately
// when the previous slot is at least minInterval in the past. If ctx is
// cancelled while waiting the slot is handed back.
func (t *Throttle) Wait(ctx context.Context) error {
	now := t.clock.Now()
	r := t.limiter.ReserveN(now, 1)
	delay := r.DelayFrom(now)
	if delay == 0 {
		return nil
	}
	if err := t.clock.Sleep(ctx, delay); err != nil {
		r.CancelAt(t.clock.Now())
		return err
	}
	return nil
}
