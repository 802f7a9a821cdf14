// Package events fans engine events out to observers (journal, live stream)
// off the event-dispatch hot path.
package events

import (
	"sync"

	"autotrader/internal/core"
	"autotrader/pkg/concurrency"
)

// Message is one engine event. Data is one of the payload types below.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Message types.
const (
	TypeQuotePlaced    = "quote_placed"
	TypeQuoteCancelled = "quote_cancelled"
	TypeFill           = "fill"
	TypeHedge          = "hedge"
	TypePosition       = "position"
)

// Quote describes a placed or cancelled resting quote.
type Quote struct {
	OrderID int64  `json:"order_id"`
	Side    string `json:"side"`
	Price   int64  `json:"price"`
	Volume  int64  `json:"volume"`
	Reason  string `json:"reason,omitempty"`
}

// Fill describes newly filled volume on a tracked order.
type Fill struct {
	OrderID   int64  `json:"order_id"`
	Side      string `json:"side"`
	Volume    int64  `json:"volume"`
	Remaining int64  `json:"remaining"`
}

// Hedge describes an offsetting order sent to the hedge instrument.
type Hedge struct {
	OrderID int64  `json:"order_id"`
	Side    string `json:"side"`
	Price   int64  `json:"price"`
	Volume  int64  `json:"volume"`
}

// Position is a snapshot of the risk state after an event.
type Position struct {
	Position      int64  `json:"position"`
	CommittedBuy  int64  `json:"committed_buy"`
	CommittedSell int64  `json:"committed_sell"`
	RestingBids   int    `json:"resting_bids"`
	RestingAsks   int    `json:"resting_asks"`
	NetFees       string `json:"net_fees"`
}

// Dispatcher delivers messages to subscribers through a worker pool so
// observers never block the engine. Delivery order across subscribers is not
// guaranteed; observers needing ordering must sequence on their own.
type Dispatcher struct {
	pool   *concurrency.WorkerPool
	logger core.Logger

	mu   sync.RWMutex
	subs []func(Message)
}

// NewDispatcher creates a dispatcher on top of the given pool.
func NewDispatcher(pool *concurrency.WorkerPool, logger core.Logger) *Dispatcher {
	return &Dispatcher{
		pool:   pool,
		logger: logger.WithField("component", "events"),
	}
}

// Subscribe registers an observer. Not safe to call concurrently with
// Publish deliveries that assume a frozen subscriber list; register during
// wiring.
func (d *Dispatcher) Subscribe(fn func(Message)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subs = append(d.subs, fn)
}

// Publish hands the message to the pool. When the pool is saturated the
// message is dropped with a warning; observers are advisory, the engine's
// own state never depends on delivery.
func (d *Dispatcher) Publish(msg Message) {
	d.mu.RLock()
	subs := d.subs
	d.mu.RUnlock()
	if len(subs) == 0 {
		return
	}

	if !d.pool.TrySubmit(func() {
		for _, fn := range subs {
			fn(msg)
		}
	}) {
		d.logger.Warn("event pool saturated, dropping message", "type", msg.Type)
	}
}

// Stop drains the pool.
func (d *Dispatcher) Stop() {
	d.pool.Stop()
}
