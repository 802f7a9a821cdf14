package sim

import (
	"context"
	"strings"
	"testing"

	"autotrader/internal/core"
	"autotrader/internal/mock"
)

// recordingHandler captures market event callbacks for assertions.
type recordingHandler struct {
	books    []uint64
	ticks    []uint64
	statuses []statusCall
	hedges   []hedgeCall

	// depth tracks callback nesting; the session must never deliver a
	// callback while another is still on the stack.
	depth    int
	maxDepth int

	onBook func(h *recordingHandler, b *core.BookSnapshot)
}

type statusCall struct {
	id        int64
	fill      int64
	remaining int64
	fees      int64
}

type hedgeCall struct {
	id     int64
	price  int64
	volume int64
}

func (h *recordingHandler) enter() {
	h.depth++
	if h.depth > h.maxDepth {
		h.maxDepth = h.depth
	}
}
func (h *recordingHandler) exit() { h.depth-- }

func (h *recordingHandler) OnOrderBook(b *core.BookSnapshot) {
	h.enter()
	defer h.exit()
	h.books = append(h.books, b.SequenceNumber)
	if h.onBook != nil {
		h.onBook(h, b)
	}
}

func (h *recordingHandler) OnTradeTicks(b *core.BookSnapshot) {
	h.enter()
	defer h.exit()
	h.ticks = append(h.ticks, b.SequenceNumber)
}

func (h *recordingHandler) OnOrderStatus(id, fill, remaining, fees int64) {
	h.enter()
	defer h.exit()
	h.statuses = append(h.statuses, statusCall{id, fill, remaining, fees})
}

func (h *recordingHandler) OnOrderError(int64, string) {}

func (h *recordingHandler) OnHedgeFilled(id, price, volume int64) {
	h.enter()
	defer h.exit()
	h.hedges = append(h.hedges, hedgeCall{id, price, volume})
}

func (h *recordingHandler) OnDisconnect() {}

func newTestSession() (*Session, *recordingHandler) {
	s := NewSession(mock.Logger{})
	h := &recordingHandler{}
	s.SetHandler(h)
	return s, h
}

func book(seq uint64, bestAsk, bestBid int64) *core.BookSnapshot {
	b := &core.BookSnapshot{Instrument: core.Future, SequenceNumber: seq}
	b.AskPrices[0] = bestAsk
	b.BidPrices[0] = bestBid
	return b
}

func TestRestingBuyFillsWhenAskDrops(t *testing.T) {
	s, h := newTestSession()

	s.Deliver(book(1, 10100, 10000))
	s.PlaceOrder(1, core.Buy, 9900, 10, core.GoodForDay)
	if len(h.statuses) != 0 {
		t.Fatal("a quote behind the touch must rest, not fill")
	}

	s.Deliver(book(2, 9900, 9800))

	if len(h.statuses) != 1 {
		t.Fatalf("statuses = %d, want the resting buy filled", len(h.statuses))
	}
	got := h.statuses[0]
	if got.id != 1 || got.fill != 10 || got.remaining != 0 {
		t.Errorf("status = %+v, want full fill of order 1", got)
	}
	if got.fees >= 0 {
		t.Errorf("fees = %d, want a maker rebate (negative)", got.fees)
	}
	if s.OpenOrders() != 0 {
		t.Errorf("open orders = %d, want 0", s.OpenOrders())
	}
}

func TestCrossingOrderFillsImmediately(t *testing.T) {
	s, h := newTestSession()

	s.Deliver(book(1, 10100, 10000))
	s.PlaceOrder(1, core.Buy, 10200, 10, core.GoodForDay)

	if len(h.statuses) != 1 {
		t.Fatalf("statuses = %d, want an immediate fill", len(h.statuses))
	}
	if h.statuses[0].fees <= 0 {
		t.Errorf("fees = %d, want a taker fee (positive)", h.statuses[0].fees)
	}
}

func TestCancelConfirms(t *testing.T) {
	s, h := newTestSession()

	s.Deliver(book(1, 10100, 10000))
	s.PlaceOrder(1, core.Buy, 9900, 10, core.GoodForDay)
	s.CancelOrder(1)

	if len(h.statuses) != 1 {
		t.Fatalf("statuses = %d, want a cancel confirmation", len(h.statuses))
	}
	got := h.statuses[0]
	if got.fill != 0 || got.remaining != 0 {
		t.Errorf("status = %+v, want zero fill and zero remaining", got)
	}
	if s.OpenOrders() != 0 {
		t.Error("cancelled order still resting")
	}
}

func TestCancelUnknownOrderIgnored(t *testing.T) {
	s, h := newTestSession()
	s.CancelOrder(42)
	if len(h.statuses) != 0 {
		t.Error("cancelling an unknown order must not produce a status")
	}
}

func TestHedgeFillsAtTouch(t *testing.T) {
	s, h := newTestSession()
	s.Deliver(book(1, 10100, 10000))

	s.PlaceHedgeOrder(9, core.Buy, core.MaximumAsk/100*100, 10)

	if len(h.hedges) != 1 {
		t.Fatalf("hedges = %d, want 1", len(h.hedges))
	}
	got := h.hedges[0]
	if got.price != 10100 || got.volume != 10 {
		t.Errorf("hedge = %+v, want filled at the ask for 10", got)
	}
}

func TestHedgeOnEmptyBookFails(t *testing.T) {
	s, h := newTestSession()

	s.PlaceHedgeOrder(9, core.Sell, 100, 10)

	if len(h.hedges) != 1 {
		t.Fatalf("hedges = %d, want the failure reported", len(h.hedges))
	}
	if got := h.hedges[0]; got.price != 0 || got.volume != 0 {
		t.Errorf("hedge = %+v, want zero price and volume", got)
	}
}

func TestCallbacksNeverNest(t *testing.T) {
	s, h := newTestSession()

	// Placing from inside a book callback mirrors what the engine does.
	h.onBook = func(h *recordingHandler, b *core.BookSnapshot) {
		if b.SequenceNumber == 1 {
			s.PlaceOrder(1, core.Buy, b.AskPrices[0], 10, core.GoodForDay)
		}
	}

	s.Deliver(book(1, 10100, 10000))

	if len(h.statuses) != 1 {
		t.Fatalf("statuses = %d, want the crossing order filled", len(h.statuses))
	}
	if h.maxDepth != 1 {
		t.Errorf("max callback depth = %d, want 1 (no re-entrancy)", h.maxDepth)
	}
}

func TestReplayStream(t *testing.T) {
	s, h := newTestSession()
	r := NewRunner(s, mock.Logger{})

	data := `{"type":"book","instrument":0,"sequence":1,"ask_prices":[10100,0,0,0,0],"ask_volumes":[50,0,0,0,0],"bid_prices":[10000,0,0,0,0],"bid_volumes":[50,0,0,0,0]}
{"type":"ticks","instrument":0,"sequence":2,"ask_prices":[10100,0,0,0,0],"ask_volumes":[10,0,0,0,0],"bid_prices":[0,0,0,0,0],"bid_volumes":[0,0,0,0,0]}
{"type":"book","instrument":0,"sequence":3,"ask_prices":[10200,0,0,0,0],"ask_volumes":[50,0,0,0,0],"bid_prices":[10100,0,0,0,0],"bid_volumes":[50,0,0,0,0]}
`
	if err := r.Replay(context.Background(), strings.NewReader(data)); err != nil {
		t.Fatalf("Replay: %v", err)
	}

	if len(h.books) != 2 || h.books[0] != 1 || h.books[1] != 3 {
		t.Errorf("book sequences = %v, want [1 3]", h.books)
	}
	if len(h.ticks) != 1 || h.ticks[0] != 2 {
		t.Errorf("tick sequences = %v, want [2]", h.ticks)
	}
}

func TestReplayRejectsUnknownType(t *testing.T) {
	s, _ := newTestSession()
	r := NewRunner(s, mock.Logger{})

	err := r.Replay(context.Background(), strings.NewReader(`{"type":"quote","sequence":1}`+"\n"))
	if err == nil {
		t.Error("unknown record type must abort the replay")
	}
}

func TestRandomWalkDeterministic(t *testing.T) {
	s1, h1 := newTestSession()
	s2, h2 := newTestSession()

	cfg := WalkConfig{Updates: 50, StartMid: 10000, TickSize: 100, Seed: 7}
	if err := NewRunner(s1, mock.Logger{}).RandomWalk(context.Background(), cfg); err != nil {
		t.Fatal(err)
	}
	if err := NewRunner(s2, mock.Logger{}).RandomWalk(context.Background(), cfg); err != nil {
		t.Fatal(err)
	}

	if len(h1.books) != 50 {
		t.Fatalf("books = %d, want 50", len(h1.books))
	}
	if len(h1.books) != len(h2.books) {
		t.Fatal("same seed must produce the same run")
	}
}

func TestRandomWalkHonoursContext(t *testing.T) {
	s, _ := newTestSession()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewRunner(s, mock.Logger{}).RandomWalk(ctx, WalkConfig{Updates: 10, StartMid: 10000, TickSize: 100})
	if err == nil {
		t.Error("cancelled context must abort the run")
	}
}
