package sim

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"os"

	"autotrader/internal/core"
)

// record is one line of a JSONL market data file.
type record struct {
	Type       string   `json:"type"`
	Instrument int      `json:"instrument"`
	Sequence   uint64   `json:"sequence"`
	AskPrices  []int64  `json:"ask_prices"`
	AskVolumes []int64  `json:"ask_volumes"`
	BidPrices  []int64  `json:"bid_prices"`
	BidVolumes []int64  `json:"bid_volumes"`
}

func (r *record) snapshot() *core.BookSnapshot {
	b := &core.BookSnapshot{
		Instrument:     core.Instrument(r.Instrument),
		SequenceNumber: r.Sequence,
	}
	copy(b.AskPrices[:], r.AskPrices)
	copy(b.AskVolumes[:], r.AskVolumes)
	copy(b.BidPrices[:], r.BidPrices)
	copy(b.BidVolumes[:], r.BidVolumes)
	return b
}

// Runner feeds market data into a simulated session.
type Runner struct {
	session *Session
	logger  core.Logger
}

// NewRunner returns a runner bound to the given session.
func NewRunner(session *Session, logger core.Logger) *Runner {
	return &Runner{session: session, logger: logger.WithField("component", "runner")}
}

// ReplayFile streams a JSONL market data file into the session. Unparseable
// lines abort the replay; replay files are machine-written.
func (r *Runner) ReplayFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open replay file: %w", err)
	}
	defer f.Close()
	return r.Replay(ctx, f)
}

// Replay streams JSONL market data from a reader.
func (r *Runner) Replay(ctx context.Context, src io.Reader) error {
	scanner := bufio.NewScanner(src)
	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return err
		}
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var rec record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return fmt.Errorf("replay line %d: %w", line, err)
		}

		switch rec.Type {
		case "book":
			r.session.Deliver(rec.snapshot())
		case "ticks":
			r.session.DeliverTicks(rec.snapshot())
		default:
			return fmt.Errorf("replay line %d: unknown record type %q", line, rec.Type)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("replay read failed: %w", err)
	}
	r.logger.Info("replay complete", "records", line)
	return nil
}

// WalkConfig parameterizes a synthetic random-walk run.
type WalkConfig struct {
	Updates  int
	StartMid int64
	TickSize int64
	Seed     int64
}

// RandomWalk generates a synthetic book sequence: the mid moves up or down
// one tick per update around a fixed one-tick half spread.
func (r *Runner) RandomWalk(ctx context.Context, cfg WalkConfig) error {
	rng := rand.New(rand.NewSource(cfg.Seed))
	mid := cfg.StartMid

	for i := 0; i < cfg.Updates; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		switch rng.Intn(3) {
		case 0:
			mid += cfg.TickSize
		case 1:
			if mid > 2*cfg.TickSize {
				mid -= cfg.TickSize
			}
		}

		b := &core.BookSnapshot{
			Instrument:     core.Future,
			SequenceNumber: uint64(i + 1),
		}
		b.AskPrices[0] = mid + cfg.TickSize
		b.AskVolumes[0] = 100
		b.BidPrices[0] = mid - cfg.TickSize
		b.BidVolumes[0] = 100
		r.session.Deliver(b)
	}
	r.logger.Info("synthetic run complete", "updates", cfg.Updates)
	return nil
}
