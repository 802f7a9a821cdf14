// Package core defines the shared types and capability interfaces of the
// auto-trader.
package core

// ExecutionSession is the capability set the engine needs from the external
// exchange session. All calls are fire-and-forget: outcomes surface later as
// separate events delivered to the MarketEvents handler.
type ExecutionSession interface {
	// PlaceOrder submits a new resting quote on the market-made instrument.
	PlaceOrder(id int64, side Side, price, volume int64, lifespan Lifespan)

	// CancelOrder requests cancellation of a resting quote. The result
	// arrives as an order-status event with remaining volume zero.
	CancelOrder(id int64)

	// PlaceHedgeOrder submits an immediate-execution order on the hedge
	// instrument. Hedge orders never rest and are not tracked by the ledger.
	PlaceHedgeOrder(id int64, side Side, price, volume int64)
}

// MarketEvents is the handler set the engine exposes to the session layer.
// Events are delivered one at a time, never concurrently.
type MarketEvents interface {
	OnOrderBook(book *BookSnapshot)
	OnTradeTicks(ticks *BookSnapshot)
	OnOrderStatus(orderID, fillVolume, remainingVolume, fees int64)
	OnOrderError(orderID int64, message string)
	OnHedgeFilled(orderID, price, volume int64)
	OnDisconnect()
}

// Logger is the structured logging interface used across the repo.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
	Fatal(msg string, fields ...interface{})
	WithField(key string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
}
