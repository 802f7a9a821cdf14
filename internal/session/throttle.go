// Package session decorates execution sessions with outbound rate limiting.
package session

import (
	"golang.org/x/time/rate"

	"autotrader/internal/core"
	apperrors "autotrader/pkg/errors"
)

// Throttled wraps an execution session with a token bucket on outbound
// operations. Order placements over budget are dropped and reported through
// the reject callback so the caller can unwind its state; cancels and
// hedges always pass, they only ever reduce exposure.
type Throttled struct {
	inner   core.ExecutionSession
	limiter *rate.Limiter
	logger  core.Logger

	onReject func(orderID int64, message string)
}

// NewThrottled wraps inner with a budget of opsPerSecond. A zero or
// negative budget disables throttling. burst defaults to opsPerSecond.
func NewThrottled(inner core.ExecutionSession, opsPerSecond, burst int, logger core.Logger) *Throttled {
	var limiter *rate.Limiter
	if opsPerSecond > 0 {
		if burst <= 0 {
			burst = opsPerSecond
		}
		limiter = rate.NewLimiter(rate.Limit(opsPerSecond), burst)
	}
	return &Throttled{
		inner:   inner,
		limiter: limiter,
		logger:  logger.WithField("component", "throttle"),
	}
}

// SetRejectHandler installs the callback invoked for dropped placements.
func (t *Throttled) SetRejectHandler(fn func(orderID int64, message string)) {
	t.onReject = fn
}

func (t *Throttled) PlaceOrder(id int64, side core.Side, price, volume int64, lifespan core.Lifespan) {
	if t.limiter != nil && !t.limiter.Allow() {
		t.logger.Warn("order placement throttled", "order_id", id, "side", side.String(), "price", price)
		if t.onReject != nil {
			t.onReject(id, apperrors.ErrThrottled.Error())
		}
		return
	}
	t.inner.PlaceOrder(id, side, price, volume, lifespan)
}

func (t *Throttled) CancelOrder(id int64) {
	if t.limiter != nil {
		// Consume a token when one is available but never block or drop.
		t.limiter.Allow()
	}
	t.inner.CancelOrder(id)
}

func (t *Throttled) PlaceHedgeOrder(id int64, side core.Side, price, volume int64) {
	if t.limiter != nil {
		t.limiter.Allow()
	}
	t.inner.PlaceHedgeOrder(id, side, price, volume)
}
