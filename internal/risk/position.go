// Package risk tracks committed exposure and gates order placement against
// the hard position limit.
package risk

import (
	"github.com/shopspring/decimal"

	"autotrader/internal/core"
)

// Tracker derives committed exposure from ledger mutations. Position checks
// are prospective: a quote is counted at its full volume from the moment it
// is placed until its remaining volume is released.
//
// Not safe for concurrent use; all access happens on the event loop.
type Tracker struct {
	limit int64

	confirmedPosition   int64
	committedBuyVolume  int64
	committedSellVolume int64

	// Net fees paid (positive) or received (negative), in whole currency
	// units. Status events report fees in hundredths.
	netFees decimal.Decimal
}

// NewTracker returns a tracker enforcing the given per-side position limit.
func NewTracker(limit int64) *Tracker {
	return &Tracker{limit: limit}
}

// CanPlaceBuy reports whether a new buy order of the given volume keeps the
// long exposure within the limit if everything resting eventually fills.
func (t *Tracker) CanPlaceBuy(volume int64) bool {
	return t.confirmedPosition+t.committedBuyVolume+volume <= t.limit
}

// CanPlaceSell is the short-side counterpart of CanPlaceBuy.
func (t *Tracker) CanPlaceSell(volume int64) bool {
	return t.confirmedPosition-t.committedSellVolume-volume >= -t.limit
}

// OnPlace commits the full volume of a newly placed order.
func (t *Tracker) OnPlace(s core.Side, volume int64) {
	if s == core.Buy {
		t.committedBuyVolume += volume
	} else {
		t.committedSellVolume += volume
	}
}

// OnFill folds a fill delta into the confirmed position. Must be called
// before OnRemainingReduced for the same status event so there is no
// transient state where filled volume counts neither as position nor as
// committed.
func (t *Tracker) OnFill(s core.Side, deltaFilled int64) {
	if s == core.Buy {
		t.confirmedPosition += deltaFilled
	} else {
		t.confirmedPosition -= deltaFilled
	}
}

// OnRemainingReduced releases committed volume. Covers both fills and
// cancellations; both reduce remaining volume.
func (t *Tracker) OnRemainingReduced(s core.Side, deltaRemaining int64) {
	if s == core.Buy {
		t.committedBuyVolume -= deltaRemaining
	} else {
		t.committedSellVolume -= deltaRemaining
	}
}

// AddFees accumulates the fee reported by a status event, in hundredths of
// the account currency.
func (t *Tracker) AddFees(fees int64) {
	t.netFees = t.netFees.Add(decimal.New(fees, -2))
}

// Position returns the confirmed net inventory.
func (t *Tracker) Position() int64 { return t.confirmedPosition }

// CommittedBuy returns the volume committed by resting buy orders.
func (t *Tracker) CommittedBuy() int64 { return t.committedBuyVolume }

// CommittedSell returns the volume committed by resting sell orders.
func (t *Tracker) CommittedSell() int64 { return t.committedSellVolume }

// NetFees returns the accumulated net fees in account currency.
func (t *Tracker) NetFees() decimal.Decimal { return t.netFees }

// Limit returns the configured position limit.
func (t *Tracker) Limit() int64 { return t.limit }
