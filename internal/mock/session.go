// Package mock provides recording fakes for engine tests.
package mock

import (
	"sync"

	"autotrader/internal/core"
)

// OrderRequest is one recorded outbound order action.
type OrderRequest struct {
	ID       int64
	Side     core.Side
	Price    int64
	Volume   int64
	Lifespan core.Lifespan
}

// Session implements core.ExecutionSession and records every call for
// assertions.
type Session struct {
	mu sync.Mutex

	Placed    []OrderRequest
	Cancelled []int64
	Hedged    []OrderRequest
}

// NewSession returns an empty recording session.
func NewSession() *Session {
	return &Session{}
}

func (s *Session) PlaceOrder(id int64, side core.Side, price, volume int64, lifespan core.Lifespan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Placed = append(s.Placed, OrderRequest{ID: id, Side: side, Price: price, Volume: volume, Lifespan: lifespan})
}

func (s *Session) CancelOrder(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Cancelled = append(s.Cancelled, id)
}

func (s *Session) PlaceHedgeOrder(id int64, side core.Side, price, volume int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Hedged = append(s.Hedged, OrderRequest{ID: id, Side: side, Price: price, Volume: volume})
}

// PlacedCount returns the number of recorded order placements.
func (s *Session) PlacedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Placed)
}

// CancelledCount returns the number of recorded cancellations.
func (s *Session) CancelledCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Cancelled)
}

// HedgedCount returns the number of recorded hedge orders.
func (s *Session) HedgedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Hedged)
}

// LastPlaced returns the most recent order placement.
func (s *Session) LastPlaced() (OrderRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Placed) == 0 {
		return OrderRequest{}, false
	}
	return s.Placed[len(s.Placed)-1], true
}

// LastHedge returns the most recent hedge order.
func (s *Session) LastHedge() (OrderRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Hedged) == 0 {
		return OrderRequest{}, false
	}
	return s.Hedged[len(s.Hedged)-1], true
}

// Reset clears all recorded calls.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Placed = nil
	s.Cancelled = nil
	s.Hedged = nil
}
