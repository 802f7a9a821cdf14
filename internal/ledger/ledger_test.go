package ledger

import (
	"testing"

	"autotrader/internal/core"
)

func TestLedger_PlaceAssignsFreshIDs(t *testing.T) {
	l := New()

	id1 := l.Place(core.Buy, 9900, 10)
	id2 := l.Place(core.Sell, 10100, 10)
	hedgeID := l.NextID()
	id3 := l.Place(core.Buy, 9800, 10)

	ids := []int64{id1, id2, hedgeID, id3}
	for i := 1; i < len(ids); i++ {
		if ids[i] <= ids[i-1] {
			t.Fatalf("ids not strictly increasing: %v", ids)
		}
	}

	if l.Count(core.Buy) != 2 || l.Count(core.Sell) != 1 {
		t.Errorf("unexpected counts: buy=%d sell=%d", l.Count(core.Buy), l.Count(core.Sell))
	}
}

func TestLedger_GetFindsCorrectSide(t *testing.T) {
	l := New()
	buyID := l.Place(core.Buy, 9900, 10)
	sellID := l.Place(core.Sell, 10100, 10)

	side, o, ok := l.Get(buyID)
	if !ok || side != core.Buy || o.Price != 9900 {
		t.Errorf("Get(buy) = %v, %+v, %v", side, o, ok)
	}

	side, _, ok = l.Get(sellID)
	if !ok || side != core.Sell {
		t.Errorf("Get(sell) = %v, %v", side, ok)
	}

	if _, _, ok := l.Get(999); ok {
		t.Error("Get should not find an unknown id")
	}
}

func TestLedger_ApplyStatusPartialFill(t *testing.T) {
	l := New()
	id := l.Place(core.Sell, 10100, 10)

	df, dr, ok := l.ApplyStatus(id, 4, 6)
	if !ok {
		t.Fatal("ApplyStatus should find the order")
	}
	if df != 4 || dr != 4 {
		t.Errorf("deltas = (%d, %d), want (4, 4)", df, dr)
	}

	_, o, _ := l.Get(id)
	if o.FilledVolume != 4 || o.RemainingVolume != 6 {
		t.Errorf("stored state = %+v", o)
	}
}

func TestLedger_ApplyStatusDuplicateIsZeroDelta(t *testing.T) {
	l := New()
	id := l.Place(core.Sell, 10100, 10)

	l.ApplyStatus(id, 4, 6)
	df, dr, ok := l.ApplyStatus(id, 4, 6)
	if !ok || df != 0 || dr != 0 {
		t.Errorf("duplicate status deltas = (%d, %d), want (0, 0)", df, dr)
	}
}

func TestLedger_ApplyStatusRemovesAtZeroRemaining(t *testing.T) {
	l := New()
	id := l.Place(core.Buy, 9900, 10)

	df, dr, ok := l.ApplyStatus(id, 10, 0)
	if !ok || df != 10 || dr != 10 {
		t.Errorf("deltas = (%d, %d, %v)", df, dr, ok)
	}
	if _, _, found := l.Get(id); found {
		t.Error("fully filled order should be removed")
	}
	if l.Count(core.Buy) != 0 {
		t.Errorf("count = %d after removal", l.Count(core.Buy))
	}
}

func TestLedger_ApplyStatusForcedRemoval(t *testing.T) {
	// An exchange error is applied as a zero-fill, zero-remaining status.
	// The filled delta goes negative after a partial fill; the remaining
	// delta releases the committed volume.
	l := New()
	id := l.Place(core.Buy, 9900, 10)
	l.ApplyStatus(id, 3, 7)

	df, dr, ok := l.ApplyStatus(id, 0, 0)
	if !ok {
		t.Fatal("forced removal should find the order")
	}
	if df != -3 {
		t.Errorf("deltaFilled = %d, want -3", df)
	}
	if dr != 7 {
		t.Errorf("deltaRemaining = %d, want 7", dr)
	}
	if _, _, found := l.Get(id); found {
		t.Error("order should be removed")
	}
}

func TestLedger_ApplyStatusUnknownIsNoOp(t *testing.T) {
	l := New()
	l.Place(core.Buy, 9900, 10)

	if _, _, ok := l.ApplyStatus(42, 10, 0); ok {
		t.Error("unknown id should report not tracked")
	}
	if l.Count(core.Buy) != 1 {
		t.Error("unknown id must not mutate the ledger")
	}
}

func TestLedger_MarkCancellingIdempotent(t *testing.T) {
	l := New()
	id := l.Place(core.Sell, 10100, 10)

	l.MarkCancelling(id)
	l.MarkCancelling(id)
	l.MarkCancelling(12345) // unknown: ignored

	_, o, _ := l.Get(id)
	if !o.Cancelling {
		t.Error("order should be flagged cancelling")
	}
}

func TestLedger_IterateIncludesCancelling(t *testing.T) {
	l := New()
	a := l.Place(core.Sell, 10100, 10)
	b := l.Place(core.Sell, 10200, 10)
	l.MarkCancelling(a)

	seen := map[int64]bool{}
	l.Iterate(core.Sell, func(id int64, o *Order) {
		seen[id] = o.Cancelling
	})

	if len(seen) != 2 {
		t.Fatalf("iterated %d orders, want 2", len(seen))
	}
	if !seen[a] || seen[b] {
		t.Errorf("cancelling flags wrong: %v", seen)
	}
}
