// Package engine implements the market-making decision core: repricing of
// resting quotes on each book update and immediate hedging of fills.
package engine

import (
	"context"

	"go.opentelemetry.io/otel/metric"

	"autotrader/internal/core"
	"autotrader/internal/events"
	"autotrader/internal/ledger"
	"autotrader/internal/risk"
	"autotrader/pkg/telemetry"
	"autotrader/pkg/tradingutils"
)

// Config holds the fixed quoting parameters.
type Config struct {
	// Instrument whose book updates drive repricing. Hedge orders go to the
	// other instrument.
	Instrument core.Instrument

	LotSize          int64
	TickSize         int64
	MaxOrdersPerSide int
}

// AutoTrader consumes market events and reconciles resting quotes against a
// single target price per side. All state is mutated by the event-dispatch
// goroutine only; no internal locking.
type AutoTrader struct {
	cfg     Config
	session core.ExecutionSession
	ledger  *ledger.Ledger
	tracker *risk.Tracker
	breaker *risk.HedgeBreaker
	logger  core.Logger
	events  *events.Dispatcher

	bookSequence uint64
	askCount     int
	bidCount     int

	// Aggressive hedge prices at the edges of the tradable range, aligned to
	// the tick grid.
	minBidTick int64
	maxAskTick int64

	bookCounter   metric.Int64Counter
	staleCounter  metric.Int64Counter
	quoteCounter  metric.Int64Counter
	cancelCounter metric.Int64Counter
	hedgeCounter  metric.Int64Counter
}

// New wires an AutoTrader. breaker and dispatcher may be nil.
func New(
	cfg Config,
	session core.ExecutionSession,
	book *ledger.Ledger,
	tracker *risk.Tracker,
	breaker *risk.HedgeBreaker,
	dispatcher *events.Dispatcher,
	logger core.Logger,
) *AutoTrader {
	meter := telemetry.GetMeter("engine")

	bookCounter, _ := meter.Int64Counter("autotrader_book_updates_total",
		metric.WithDescription("Order book updates processed"))
	staleCounter, _ := meter.Int64Counter("autotrader_stale_books_total",
		metric.WithDescription("Order book updates dropped as stale"))
	quoteCounter, _ := meter.Int64Counter("autotrader_quotes_placed_total",
		metric.WithDescription("Quotes placed"))
	cancelCounter, _ := meter.Int64Counter("autotrader_quotes_cancelled_total",
		metric.WithDescription("Quote cancellations sent"))
	hedgeCounter, _ := meter.Int64Counter("autotrader_hedges_total",
		metric.WithDescription("Hedge orders placed"))

	return &AutoTrader{
		cfg:           cfg,
		session:       session,
		ledger:        book,
		tracker:       tracker,
		breaker:       breaker,
		logger:        logger.WithField("component", "engine"),
		events:        dispatcher,
		minBidTick:    tradingutils.AlignToTick(core.MinimumBid+cfg.TickSize, cfg.TickSize),
		maxAskTick:    tradingutils.AlignToTick(core.MaximumAsk, cfg.TickSize),
		bookCounter:   bookCounter,
		staleCounter:  staleCounter,
		quoteCounter:  quoteCounter,
		cancelCounter: cancelCounter,
		hedgeCounter:  hedgeCounter,
	}
}

// OnOrderBook handles one book update. Stale sequence numbers are dropped
// before anything else; updates for the hedge instrument are logged only.
func (a *AutoTrader) OnOrderBook(book *core.BookSnapshot) {
	if book.SequenceNumber <= a.bookSequence {
		a.logger.Debug("dropping stale order book",
			"sequence", book.SequenceNumber, "last", a.bookSequence)
		a.staleCounter.Add(context.Background(), 1)
		return
	}
	a.bookSequence = book.SequenceNumber
	a.bookCounter.Add(context.Background(), 1)

	a.logger.Debug("order book",
		"instrument", book.Instrument.String(),
		"sequence", book.SequenceNumber,
		"best_ask", book.BestAsk(), "ask_volume", book.AskVolumes[0],
		"best_bid", book.BestBid(), "bid_volume", book.BidVolumes[0])

	if book.Instrument != a.cfg.Instrument {
		return
	}

	a.reprice(core.Sell, book.BestAsk())
	a.reprice(core.Buy, book.BestBid())
	a.publishPosition()
}

// reprice reconciles one side's resting quotes against the target derived
// from the touch. The sell and buy passes are mirror images; direction is
// folded into the target, the too-aggressive test, and the worst-order test.
func (a *AutoTrader) reprice(side core.Side, touch int64) {
	count := &a.bidCount
	if side == core.Sell {
		count = &a.askCount
	}

	// Target price one tick behind the touch. With an empty book the
	// sentinel target makes every live quote too aggressive, pulling the
	// whole side; the placement gate below then declines to quote.
	var target int64
	switch {
	case touch == 0 && side == core.Sell:
		target = core.MaximumAsk
	case touch == 0:
		target = 0
	case side == core.Sell:
		target = touch + a.cfg.TickSize
	default:
		target = touch - a.cfg.TickSize
	}

	tooAggressive := func(price int64) bool {
		if side == core.Sell {
			return price < target
		}
		return price > target
	}

	// Pass-local sentinel: worst price starts at the best imaginable so the
	// first non-cancelling candidate always takes over.
	worstPrice := core.MaximumAsk
	if side == core.Sell {
		worstPrice = 0
	}
	worseOrEqual := func(price int64) bool {
		if side == core.Sell {
			return price >= worstPrice
		}
		return price <= worstPrice
	}

	var (
		worstID      int64
		worst        *ledger.Order
		liveAtTarget bool
	)

	a.ledger.Iterate(side, func(id int64, o *ledger.Order) {
		if o.Cancelling {
			return
		}
		if o.Price == target {
			liveAtTarget = true
		}
		if tooAggressive(o.Price) {
			a.cancelQuote(side, id, o, "repricing")
		} else if worseOrEqual(o.Price) {
			worstID, worst, worstPrice = id, o, o.Price
		}
	})

	// Make-room rule: at cap-minus-one, pull the worst quote now so a fresh
	// quote at the improved target has capacity once the cancel confirms.
	if worstID != 0 && !worst.Cancelling && *count >= a.cfg.MaxOrdersPerSide-1 {
		a.logger.Info("cancelling worst quote to make room",
			"side", side.String(), "order_id", worstID, "price", worst.Price)
		a.cancelQuote(side, worstID, worst, "make_room")
	}

	// Placement gate.
	if liveAtTarget || touch == 0 || *count >= a.cfg.MaxOrdersPerSide {
		return
	}
	if side == core.Buy && !a.tracker.CanPlaceBuy(a.cfg.LotSize) {
		return
	}
	if side == core.Sell && !a.tracker.CanPlaceSell(a.cfg.LotSize) {
		return
	}
	if a.breaker != nil && a.breaker.IsTripped() {
		a.logger.Warn("hedge breaker tripped, suppressing new quotes", "side", side.String())
		return
	}

	id := a.ledger.Place(side, target, a.cfg.LotSize)
	a.session.PlaceOrder(id, side, target, a.cfg.LotSize, core.GoodForDay)
	*count++
	a.tracker.OnPlace(side, a.cfg.LotSize)
	a.quoteCounter.Add(context.Background(), 1)

	a.logger.Info("quote placed",
		"order_id", id, "side", side.String(), "price", target, "volume", a.cfg.LotSize)
	a.publish(events.Message{Type: events.TypeQuotePlaced, Data: events.Quote{
		OrderID: id, Side: side.String(), Price: target, Volume: a.cfg.LotSize,
	}})
}

func (a *AutoTrader) cancelQuote(side core.Side, id int64, o *ledger.Order, reason string) {
	a.session.CancelOrder(id)
	o.Cancelling = true
	a.cancelCounter.Add(context.Background(), 1)
	a.publish(events.Message{Type: events.TypeQuoteCancelled, Data: events.Quote{
		OrderID: id, Side: side.String(), Price: o.Price, Volume: o.RemainingVolume, Reason: reason,
	}})
}

// OnOrderStatus folds a status update into the ledger and position, hedging
// any newly filled volume on the opposite side of the other instrument.
func (a *AutoTrader) OnOrderStatus(orderID, fillVolume, remainingVolume, fees int64) {
	side, _, tracked := a.ledger.Get(orderID)
	if !tracked {
		a.logger.Info("status for untracked order", "order_id", orderID)
		return
	}

	a.logger.Debug("order status",
		"order_id", orderID, "fill_volume", fillVolume,
		"remaining_volume", remainingVolume, "fees", fees)

	deltaFilled, deltaRemaining, _ := a.ledger.ApplyStatus(orderID, fillVolume, remainingVolume)

	// Fill first, remaining-adjustment second: filled volume moves from the
	// committed counter to the confirmed position without a gap.
	if deltaFilled > 0 {
		a.tracker.OnFill(side, deltaFilled)
		a.hedge(side, deltaFilled)
		a.publish(events.Message{Type: events.TypeFill, Data: events.Fill{
			OrderID: orderID, Side: side.String(),
			Volume: deltaFilled, Remaining: remainingVolume,
		}})
	}
	a.tracker.OnRemainingReduced(side, deltaRemaining)
	a.tracker.AddFees(fees)

	if remainingVolume == 0 {
		if side == core.Sell {
			a.askCount--
		} else {
			a.bidCount--
		}
	}
	a.publishPosition()
}

// hedge sends an immediate offsetting order on the hedge instrument, priced
// at the far edge of the tradable range so it executes against whatever is
// resting there.
func (a *AutoTrader) hedge(filledSide core.Side, volume int64) {
	hedgeSide := filledSide.Opposite()
	price := a.minBidTick
	if hedgeSide == core.Buy {
		price = a.maxAskTick
	}

	id := a.ledger.NextID()
	a.session.PlaceHedgeOrder(id, hedgeSide, price, volume)
	a.hedgeCounter.Add(context.Background(), 1)

	a.logger.Info("hedge order placed",
		"order_id", id, "side", hedgeSide.String(), "price", price, "volume", volume)
	a.publish(events.Message{Type: events.TypeHedge, Data: events.Hedge{
		OrderID: id, Side: hedgeSide.String(), Price: price, Volume: volume,
	}})
}

// OnOrderError treats a rejection of a tracked order as a forced removal so
// the ledger never retains an order the exchange has voided.
func (a *AutoTrader) OnOrderError(orderID int64, message string) {
	a.logger.Warn("order error", "order_id", orderID, "message", message)
	if orderID == 0 {
		return
	}
	if _, _, tracked := a.ledger.Get(orderID); tracked {
		a.OnOrderStatus(orderID, 0, 0, 0)
	}
}

// OnTradeTicks is observational only.
func (a *AutoTrader) OnTradeTicks(ticks *core.BookSnapshot) {
	a.logger.Debug("trade ticks",
		"instrument", ticks.Instrument.String(),
		"sequence", ticks.SequenceNumber,
		"ask_price", ticks.AskPrices[0], "ask_volume", ticks.AskVolumes[0],
		"bid_price", ticks.BidPrices[0], "bid_volume", ticks.BidVolumes[0])
}

// OnHedgeFilled is observational for position purposes (hedges are not
// ledger-tracked) but feeds the hedge breaker: a zero price and volume means
// the hedge did not execute.
func (a *AutoTrader) OnHedgeFilled(orderID, price, volume int64) {
	success := price != 0 || volume != 0
	if success {
		a.logger.Info("hedge order filled",
			"order_id", orderID, "volume", volume, "average_price", price)
	} else {
		a.logger.Warn("hedge order unsuccessful", "order_id", orderID)
	}
	if a.breaker != nil {
		a.breaker.RecordHedge(success)
	}
}

// OnDisconnect logs the lost session; reconnection belongs to the session
// layer.
func (a *AutoTrader) OnDisconnect() {
	a.logger.Warn("execution connection lost")
}

// CancelAll pulls every resting quote that is not already cancelling. Used
// on shutdown so nothing is left working the book.
func (a *AutoTrader) CancelAll() {
	for _, side := range []core.Side{core.Buy, core.Sell} {
		a.ledger.Iterate(side, func(id int64, o *ledger.Order) {
			if o.Cancelling {
				return
			}
			a.cancelQuote(side, id, o, "shutdown")
		})
	}
	a.logger.Info("all resting quotes cancelled")
}

// RestingOrders returns the current per-side resting-order counts.
func (a *AutoTrader) RestingOrders() (bids, asks int) {
	return a.bidCount, a.askCount
}

func (a *AutoTrader) publish(msg events.Message) {
	if a.events != nil {
		a.events.Publish(msg)
	}
}

func (a *AutoTrader) publishPosition() {
	m := telemetry.GetGlobalMetrics()
	m.SetPosition(a.tracker.Position())
	m.SetCommitted(core.Buy.String(), a.tracker.CommittedBuy())
	m.SetCommitted(core.Sell.String(), a.tracker.CommittedSell())
	m.SetResting(core.Buy.String(), int64(a.bidCount))
	m.SetResting(core.Sell.String(), int64(a.askCount))

	a.publish(events.Message{Type: events.TypePosition, Data: events.Position{
		Position:      a.tracker.Position(),
		CommittedBuy:  a.tracker.CommittedBuy(),
		CommittedSell: a.tracker.CommittedSell(),
		RestingBids:   a.bidCount,
		RestingAsks:   a.askCount,
		NetFees:       a.tracker.NetFees().String(),
	}})
}
