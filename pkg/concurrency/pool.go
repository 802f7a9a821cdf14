// Package concurrency wraps alitto/pond with standardized configuration and
// panic recovery.
package concurrency

import (
	"time"

	"github.com/alitto/pond"

	"autotrader/internal/core"
)

// PoolConfig holds configuration for a worker pool.
type PoolConfig struct {
	Name        string
	MaxWorkers  int
	MaxCapacity int
	IdleTimeout time.Duration
}

// WorkerPool is a named pond pool with logging.
type WorkerPool struct {
	pool   *pond.WorkerPool
	config PoolConfig
}

// NewWorkerPool creates a worker pool. Zero config fields get safe defaults.
func NewWorkerPool(cfg PoolConfig, logger core.Logger) *WorkerPool {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 4
	}
	if cfg.MaxCapacity <= 0 {
		cfg.MaxCapacity = 256
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 60 * time.Second
	}

	pool := pond.New(
		cfg.MaxWorkers,
		cfg.MaxCapacity,
		pond.MinWorkers(1),
		pond.IdleTimeout(cfg.IdleTimeout),
		pond.Strategy(pond.Balanced()),
		pond.PanicHandler(func(p interface{}) {
			logger.Error("worker pool panic recovered", "pool", cfg.Name, "panic", p)
		}),
	)

	return &WorkerPool{pool: pool, config: cfg}
}

// TrySubmit adds a task without blocking. Returns false when the pool is
// saturated.
func (wp *WorkerPool) TrySubmit(task func()) bool {
	return wp.pool.TrySubmit(task)
}

// Submit adds a task, blocking until the pool accepts it.
func (wp *WorkerPool) Submit(task func()) {
	wp.pool.Submit(task)
}

// Stop waits for queued tasks and shuts the pool down.
func (wp *WorkerPool) Stop() {
	wp.pool.StopAndWait()
}

// Stats returns pool statistics for status reporting.
func (wp *WorkerPool) Stats() map[string]interface{} {
	return map[string]interface{}{
		"running_workers": wp.pool.RunningWorkers(),
		"idle_workers":    wp.pool.IdleWorkers(),
		"submitted_tasks": wp.pool.SubmittedTasks(),
		"waiting_tasks":   wp.pool.WaitingTasks(),
	}
}
