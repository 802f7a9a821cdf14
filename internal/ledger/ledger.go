// Package ledger owns the set of currently resting orders. It is the single
// source of truth for order state: the engine and risk tracker only see
// orders through it.
package ledger

import "autotrader/internal/core"

// Order is one resting quote. Owned exclusively by the Ledger; callers get
// transient lookups only.
type Order struct {
	Price           int64
	RemainingVolume int64
	FilledVolume    int64

	// Cancelling is set once a cancel has been sent and the confirmation is
	// still outstanding. The order keeps resting (and keeps counting toward
	// the cap) until the exchange confirms.
	Cancelling bool
}

// Ledger tracks resting orders per side and allocates order/request ids.
// It is not safe for concurrent use; all access happens on the event loop.
type Ledger struct {
	bids map[int64]*Order
	asks map[int64]*Order

	nextID int64
}

// New returns an empty ledger. Ids start at 1 and are never reused,
// including across quotes and hedge orders.
func New() *Ledger {
	return &Ledger{
		bids:   make(map[int64]*Order),
		asks:   make(map[int64]*Order),
		nextID: 1,
	}
}

func (l *Ledger) side(s core.Side) map[int64]*Order {
	if s == core.Buy {
		return l.bids
	}
	return l.asks
}

// NextID allocates a fresh id for an outbound request that is not tracked as
// a resting order (hedge orders).
func (l *Ledger) NextID() int64 {
	id := l.nextID
	l.nextID++
	return id
}

// Place records a new resting order and returns its id.
func (l *Ledger) Place(s core.Side, price, volume int64) int64 {
	id := l.NextID()
	l.side(s)[id] = &Order{Price: price, RemainingVolume: volume}
	return id
}

// MarkCancelling flags an order as cancel-in-flight. Idempotent; unknown ids
// are ignored.
func (l *Ledger) MarkCancelling(id int64) {
	if o, ok := l.bids[id]; ok {
		o.Cancelling = true
		return
	}
	if o, ok := l.asks[id]; ok {
		o.Cancelling = true
	}
}

// Get looks up an order by id on either side.
func (l *Ledger) Get(id int64) (core.Side, *Order, bool) {
	if o, ok := l.bids[id]; ok {
		return core.Buy, o, true
	}
	if o, ok := l.asks[id]; ok {
		return core.Sell, o, true
	}
	return 0, nil, false
}

// ApplyStatus folds an order-status update into the stored order and returns
// the incremental fill and the incremental reduction in remaining volume
// since the last known state. Duplicate or out-of-date updates yield zero or
// negative deltas; the stored state is only advanced, and the order is
// removed exactly when remainingVolume reaches zero. ok is false when the id
// is not tracked, in which case nothing changes.
func (l *Ledger) ApplyStatus(id, fillVolume, remainingVolume int64) (deltaFilled, deltaRemaining int64, ok bool) {
	s, o, found := l.Get(id)
	if !found {
		return 0, 0, false
	}

	deltaFilled = fillVolume - o.FilledVolume
	deltaRemaining = o.RemainingVolume - remainingVolume

	if remainingVolume > 0 {
		o.RemainingVolume = remainingVolume
		o.FilledVolume = fillVolume
	} else {
		delete(l.side(s), id)
	}
	return deltaFilled, deltaRemaining, true
}

// Iterate walks all orders on one side, including cancelling ones. Callers
// must check the Cancelling flag themselves. The order must not be mutated
// through the callback except via the pointer's Cancelling flag.
func (l *Ledger) Iterate(s core.Side, fn func(id int64, o *Order)) {
	for id, o := range l.side(s) {
		fn(id, o)
	}
}

// Count returns the number of tracked orders on one side, cancelling
// included.
func (l *Ledger) Count(s core.Side) int {
	return len(l.side(s))
}
