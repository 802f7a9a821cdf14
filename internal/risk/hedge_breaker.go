package risk

import (
	"sync"
	"time"
)

// HedgeBreaker trips quote placement after consecutive unsuccessful hedge
// orders. An unsuccessful hedge (the session reports price and volume both
// zero) leaves inventory exposed, so after enough of them in a row the
// engine stops adding exposure until a hedge succeeds or the cooldown
// expires.
type HedgeBreaker struct {
	mu sync.RWMutex

	maxFailures int
	cooldown    time.Duration

	consecutiveFailures int
	tripped             bool
	lastTripped         time.Time
}

// NewHedgeBreaker returns a breaker that trips after maxFailures consecutive
// failed hedges. maxFailures <= 0 disables the breaker entirely.
func NewHedgeBreaker(maxFailures int, cooldown time.Duration) *HedgeBreaker {
	return &HedgeBreaker{maxFailures: maxFailures, cooldown: cooldown}
}

// RecordHedge records the outcome of one hedge fill event.
func (b *HedgeBreaker) RecordHedge(success bool) {
	if b.maxFailures <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if success {
		b.consecutiveFailures = 0
		b.tripped = false
		return
	}

	b.consecutiveFailures++
	if b.consecutiveFailures >= b.maxFailures {
		b.tripped = true
		b.lastTripped = time.Now()
	}
}

// IsTripped reports whether placement should be suppressed. A tripped
// breaker re-arms itself once the cooldown has elapsed.
func (b *HedgeBreaker) IsTripped() bool {
	if b.maxFailures <= 0 {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.tripped && b.cooldown > 0 && time.Since(b.lastTripped) >= b.cooldown {
		b.tripped = false
		b.consecutiveFailures = 0
	}
	return b.tripped
}

// Reset clears the breaker state.
func (b *HedgeBreaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tripped = false
	b.consecutiveFailures = 0
}
