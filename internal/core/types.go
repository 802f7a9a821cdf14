package core

// TopLevelCount is the number of price levels carried by book and trade-tick
// events.
const TopLevelCount = 5

// MinimumBid and MaximumAsk bound the tradable price range, in ticks.
const (
	MinimumBid int64 = 1
	MaximumAsk int64 = 1<<31 - 1
)

// Side identifies which half of the book an order rests on.
type Side int

const (
	Buy Side = iota
	Sell
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

func (s Side) String() string {
	if s == Buy {
		return "BUY"
	}
	return "SELL"
}

// Instrument identifies a tradable product. The engine market-makes one
// instrument and hedges on the other.
type Instrument int

const (
	Future Instrument = iota
	ETF
)

func (i Instrument) String() string {
	switch i {
	case Future:
		return "FUTURE"
	case ETF:
		return "ETF"
	default:
		return "UNKNOWN"
	}
}

// Lifespan controls how long a resting order stays eligible to trade.
type Lifespan int

const (
	GoodForDay Lifespan = iota
	FillAndKill
)

func (l Lifespan) String() string {
	if l == FillAndKill {
		return "FAK"
	}
	return "GFD"
}

// BookSnapshot is one order-book update: the five best levels per side.
// Unused trailing levels hold zeros. Snapshots are read-only inputs; the
// engine keeps nothing from them beyond the sequence number.
type BookSnapshot struct {
	Instrument     Instrument
	SequenceNumber uint64
	AskPrices      [TopLevelCount]int64
	AskVolumes     [TopLevelCount]int64
	BidPrices      [TopLevelCount]int64
	BidVolumes     [TopLevelCount]int64
}

// BestAsk returns the touch price on the ask side, zero when empty.
func (b *BookSnapshot) BestAsk() int64 { return b.AskPrices[0] }

// BestBid returns the touch price on the bid side, zero when empty.
func (b *BookSnapshot) BestBid() int64 { return b.BidPrices[0] }
