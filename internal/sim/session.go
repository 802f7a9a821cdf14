// Package sim provides a deterministic in-process execution session for
// replaying recorded market data and for synthetic runs. It matches quotes
// against the current top of book and delivers all callbacks sequentially,
// preserving the engine's single-threaded model.
package sim

import (
	"github.com/shopspring/decimal"

	"autotrader/internal/core"
	"autotrader/pkg/tradingutils"
)

// Exchange fee schedule applied to simulated fills, as a fraction of
// notional. Quotes rest, so they earn the maker rebate; hedges cross.
var (
	makerRate = decimal.NewFromFloat(-0.0001)
	takerRate = decimal.NewFromFloat(0.0002)
)

type restingOrder struct {
	side   core.Side
	price  int64
	volume int64
	filled int64
}

// Session implements core.ExecutionSession against a simulated book.
// Callbacks triggered by an order action are queued and delivered only
// after the engine's current callback returns, never re-entrantly.
type Session struct {
	handler core.MarketEvents
	logger  core.Logger

	orders map[int64]*restingOrder

	bestAsk int64
	bestBid int64

	queue    []func()
	draining bool
}

// NewSession returns a session with an empty book. Bind the engine with
// SetHandler before feeding data.
func NewSession(logger core.Logger) *Session {
	return &Session{
		orders: make(map[int64]*restingOrder),
		logger: logger.WithField("component", "sim"),
	}
}

// SetHandler binds the consumer of market events.
func (s *Session) SetHandler(h core.MarketEvents) { s.handler = h }

// PlaceOrder accepts a quote. If it crosses the current touch it fills
// immediately at its limit price; otherwise it rests until a later book
// update crosses it or it is cancelled.
func (s *Session) PlaceOrder(id int64, side core.Side, price, volume int64, _ core.Lifespan) {
	o := &restingOrder{side: side, price: price, volume: volume}
	s.orders[id] = o
	s.enqueue(func() { s.tryMatch(id, o, takerRate) })
}

// CancelOrder removes whatever volume of the order is still resting and
// confirms via an order status callback.
func (s *Session) CancelOrder(id int64) {
	s.enqueue(func() {
		o, ok := s.orders[id]
		if !ok {
			return
		}
		delete(s.orders, id)
		s.handler.OnOrderStatus(id, o.filled, 0, fee(makerRate, o.price, o.filled))
	})
}

// PlaceHedgeOrder fills against the opposite touch when one exists;
// otherwise it reports an unsuccessful hedge with zero price and volume.
func (s *Session) PlaceHedgeOrder(id int64, side core.Side, price, volume int64) {
	s.enqueue(func() {
		touch := s.bestAsk
		if side == core.Sell {
			touch = s.bestBid
		}
		crossed := touch != 0 &&
			((side == core.Buy && price >= touch) || (side == core.Sell && price <= touch))
		if !crossed {
			s.logger.Warn("hedge order missed", "order_id", id, "side", side.String(), "price", price)
			s.handler.OnHedgeFilled(id, 0, 0)
			return
		}
		s.handler.OnHedgeFilled(id, touch, volume)
	})
}

// Deliver moves the touch, crosses any resting quotes the move ran through,
// and only then feeds the book update into the engine, mirroring how a
// venue matches before publishing.
func (s *Session) Deliver(book *core.BookSnapshot) {
	s.bestAsk = book.BestAsk()
	s.bestBid = book.BestBid()

	s.enqueue(s.matchAll)
	s.enqueue(func() { s.handler.OnOrderBook(book) })
	s.drain()
}

// DeliverTicks feeds one trade tick update.
func (s *Session) DeliverTicks(ticks *core.BookSnapshot) {
	s.enqueue(func() { s.handler.OnTradeTicks(ticks) })
	s.drain()
}

// Defer queues fn behind any callbacks already in flight, so callers can
// inject work without re-entering the handler.
func (s *Session) Defer(fn func()) {
	s.enqueue(fn)
}

// OpenOrders returns the number of orders still resting in the simulator.
func (s *Session) OpenOrders() int { return len(s.orders) }

func (s *Session) tryMatch(id int64, o *restingOrder, rate decimal.Decimal) {
	touch := s.bestAsk
	if o.side == core.Sell {
		touch = s.bestBid
	}
	if touch == 0 {
		return
	}
	crossed := (o.side == core.Buy && o.price >= touch) ||
		(o.side == core.Sell && o.price <= touch)
	if !crossed {
		return
	}
	if _, live := s.orders[id]; !live {
		return
	}

	// Full fill at the limit price.
	o.filled += o.volume
	volume := o.volume
	o.volume = 0
	delete(s.orders, id)
	s.handler.OnOrderStatus(id, o.filled, 0, fee(rate, o.price, volume))
}

func (s *Session) matchAll() {
	for id, o := range s.orders {
		s.tryMatch(id, o, makerRate)
	}
}

// enqueue defers a callback until the engine's current callback has
// returned. Calls arriving outside a drain start one.
func (s *Session) enqueue(fn func()) {
	s.queue = append(s.queue, fn)
	if !s.draining {
		s.drain()
	}
}

func (s *Session) drain() {
	if s.draining {
		return
	}
	s.draining = true
	defer func() { s.draining = false }()

	for len(s.queue) > 0 {
		fn := s.queue[0]
		s.queue = s.queue[1:]
		fn()
	}
}

// fee returns the fee for a fill in hundredths of the account currency,
// negative when the venue pays a rebate.
func fee(rate decimal.Decimal, price, volume int64) int64 {
	return tradingutils.Fee(rate, price, volume)
}
