// Package journal persists fills, hedges and quote activity to a local
// sqlite database, one run per process start.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"autotrader/internal/core"
	"autotrader/internal/events"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	started_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS quotes (
	run_id     TEXT    NOT NULL,
	order_id   INTEGER NOT NULL,
	action     TEXT    NOT NULL,
	side       TEXT    NOT NULL,
	price      INTEGER NOT NULL,
	volume     INTEGER NOT NULL,
	reason     TEXT,
	recorded_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS fills (
	run_id     TEXT    NOT NULL,
	order_id   INTEGER NOT NULL,
	side       TEXT    NOT NULL,
	volume     INTEGER NOT NULL,
	remaining  INTEGER NOT NULL,
	recorded_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS hedges (
	run_id     TEXT    NOT NULL,
	order_id   INTEGER NOT NULL,
	side       TEXT    NOT NULL,
	price      INTEGER NOT NULL,
	volume     INTEGER NOT NULL,
	recorded_at INTEGER NOT NULL
);
`

// Journal is an append-only trade log. Writes happen on the dispatcher's
// worker pool, off the market data path.
type Journal struct {
	db     *sql.DB
	runID  string
	logger core.Logger
}

// Open opens (or creates) the journal database, enables WAL mode and
// registers a fresh run.
func Open(dbPath string, logger core.Logger) (*Journal, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping journal database: %w", err)
	}

	// WAL keeps readers (sqlite3 CLI, dashboards) from blocking writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create journal schema: %w", err)
	}

	j := &Journal{
		db:     db,
		runID:  uuid.NewString(),
		logger: logger.WithField("component", "journal"),
	}

	if _, err := db.Exec(`INSERT INTO runs (id, started_at) VALUES (?, ?)`,
		j.runID, time.Now().UnixNano()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to register run: %w", err)
	}

	j.logger.Info("journal opened", "path", dbPath, "run_id", j.runID)
	return j, nil
}

// RunID returns the id of the current run.
func (j *Journal) RunID() string { return j.runID }

// Attach subscribes the journal to the event dispatcher.
func (j *Journal) Attach(d *events.Dispatcher) {
	d.Subscribe(j.record)
}

func (j *Journal) record(msg events.Message) {
	ctx := context.Background()
	var err error

	switch data := msg.Data.(type) {
	case events.Quote:
		action := "place"
		if msg.Type == events.TypeQuoteCancelled {
			action = "cancel"
		}
		_, err = j.db.ExecContext(ctx,
			`INSERT INTO quotes (run_id, order_id, action, side, price, volume, reason, recorded_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			j.runID, data.OrderID, action, data.Side, data.Price, data.Volume, data.Reason,
			time.Now().UnixNano())
	case events.Fill:
		_, err = j.db.ExecContext(ctx,
			`INSERT INTO fills (run_id, order_id, side, volume, remaining, recorded_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			j.runID, data.OrderID, data.Side, data.Volume, data.Remaining,
			time.Now().UnixNano())
	case events.Hedge:
		_, err = j.db.ExecContext(ctx,
			`INSERT INTO hedges (run_id, order_id, side, price, volume, recorded_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			j.runID, data.OrderID, data.Side, data.Price, data.Volume,
			time.Now().UnixNano())
	}

	if err != nil {
		j.logger.Error("journal write failed", "type", msg.Type, "error", err)
	}
}

// FillCount returns the number of fills recorded for the current run.
func (j *Journal) FillCount(ctx context.Context) (int64, error) {
	var n int64
	err := j.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM fills WHERE run_id = ?`, j.runID).Scan(&n)
	return n, err
}

// HedgeCount returns the number of hedges recorded for the current run.
func (j *Journal) HedgeCount(ctx context.Context) (int64, error) {
	var n int64
	err := j.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM hedges WHERE run_id = ?`, j.runID).Scan(&n)
	return n, err
}

// Ping reports whether the underlying database is reachable.
func (j *Journal) Ping() error {
	return j.db.Ping()
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}
