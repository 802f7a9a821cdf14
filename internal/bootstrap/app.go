// Package bootstrap wires configuration, logging, telemetry and the trading
// components into a runnable application.
package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"autotrader/internal/config"
	"autotrader/internal/core"
	"autotrader/internal/engine"
	"autotrader/internal/events"
	"autotrader/internal/infrastructure/health"
	"autotrader/internal/infrastructure/metrics"
	"autotrader/internal/journal"
	"autotrader/internal/ledger"
	"autotrader/internal/risk"
	"autotrader/internal/session"
	"autotrader/internal/sim"
	"autotrader/pkg/concurrency"
	"autotrader/pkg/liveserver"
	"autotrader/pkg/logging"
	"autotrader/pkg/telemetry"
)

// Runner is a component driven by the application lifecycle.
type Runner interface {
	Run(ctx context.Context) error
}

// App holds the wired application.
type App struct {
	Cfg    *config.Config
	Logger core.Logger
	Trader *engine.AutoTrader

	telemetry  *telemetry.Telemetry
	dispatcher *events.Dispatcher
	journal    *journal.Journal
	metricsSrv *metrics.Server
	liveSrv    *liveserver.Server
	liveHub    *liveserver.Hub
	simSession *sim.Session
	runner     *sim.Runner
}

// NewApp loads configuration and wires every component.
func NewApp(configPath string) (*App, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return newApp(cfg)
}

func newApp(cfg *config.Config) (*App, error) {
	tel, err := telemetry.Setup(cfg.App.Name)
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}

	zl, err := logging.NewZapLogger(cfg.System.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	logging.SetGlobalLogger(zl)
	logger := core.Logger(zl)

	app := &App{Cfg: cfg, Logger: logger, telemetry: tel}
	healthMgr := health.NewManager(logger)

	pool := concurrency.NewWorkerPool(concurrency.PoolConfig{
		Name:        "events",
		MaxWorkers:  2,
		MaxCapacity: 1024,
	}, logger)
	app.dispatcher = events.NewDispatcher(pool, logger)

	if cfg.Journal.Enabled {
		j, err := journal.Open(cfg.Journal.Path, logger)
		if err != nil {
			return nil, fmt.Errorf("journal: %w", err)
		}
		j.Attach(app.dispatcher)
		app.journal = j
		healthMgr.Register("journal", j.Ping)
	}

	if cfg.Telemetry.EnableMetrics {
		app.metricsSrv = metrics.NewServer(cfg.Telemetry.MetricsPort, healthMgr, logger)
	}

	if cfg.LiveServer.Enabled {
		app.liveHub = liveserver.NewHub(logger)
		app.liveSrv = liveserver.NewServer(app.liveHub, logger)
		hub := app.liveHub
		app.dispatcher.Subscribe(func(msg events.Message) {
			hub.Broadcast(liveserver.Message{Type: msg.Type, Data: msg.Data})
		})
	}

	app.simSession = sim.NewSession(logger)
	app.runner = sim.NewRunner(app.simSession, logger)

	throttled := session.NewThrottled(app.simSession,
		cfg.Throttle.OpsPerSecond, cfg.Throttle.Burst, logger)

	book := ledger.New()
	tracker := risk.NewTracker(cfg.Trading.PositionLimit)
	breaker := risk.NewHedgeBreaker(cfg.Safety.MaxHedgeFailures,
		time.Duration(cfg.Safety.HedgeCooldownSeconds)*time.Second)

	app.Trader = engine.New(engine.Config{
		Instrument:       core.Future,
		LotSize:          cfg.Trading.LotSize,
		TickSize:         cfg.Trading.TickSize,
		MaxOrdersPerSide: cfg.Trading.MaxOrdersPerSide,
	}, throttled, book, tracker, breaker, app.dispatcher, logger)

	// Rejects are delivered through the session queue like any other
	// callback, never re-entrantly into the engine.
	trader, simSession := app.Trader, app.simSession
	throttled.SetRejectHandler(func(id int64, message string) {
		simSession.Defer(func() { trader.OnOrderError(id, message) })
	})
	app.simSession.SetHandler(app.Trader)

	return app, nil
}

// Run drives the application until the market data source is exhausted or a
// termination signal arrives.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.Logger.Info("starting application", "mode", a.Cfg.App.Mode)

	if a.metricsSrv != nil {
		a.metricsSrv.Start()
	}

	g, gctx := errgroup.WithContext(ctx)

	if a.liveHub != nil {
		g.Go(func() error {
			a.liveHub.Run(gctx)
			return nil
		})
		g.Go(func() error {
			return a.liveSrv.Start(gctx, fmt.Sprintf(":%d", a.Cfg.LiveServer.Port))
		})
	}

	marketDone := make(chan struct{})
	g.Go(func() error {
		defer close(marketDone)
		return a.feedMarketData(gctx)
	})

	// The live server and hub outlive the data feed only until shutdown;
	// once the feed ends, wind everything down.
	g.Go(func() error {
		select {
		case <-marketDone:
			stop()
		case <-gctx.Done():
		}
		return nil
	})

	err := g.Wait()
	a.shutdown()
	if err != nil && err != context.Canceled {
		a.Logger.Error("application stopped with error", "error", err)
		return err
	}

	a.Logger.Info("application shut down gracefully")
	return nil
}

func (a *App) feedMarketData(ctx context.Context) error {
	switch a.Cfg.App.Mode {
	case "replay":
		return a.runner.ReplayFile(ctx, a.Cfg.App.ReplayFile)
	case "sim":
		return a.runner.RandomWalk(ctx, sim.WalkConfig{
			Updates:  10000,
			StartMid: 150 * a.Cfg.Trading.TickSize,
			TickSize: a.Cfg.Trading.TickSize,
			Seed:     time.Now().UnixNano(),
		})
	default:
		return fmt.Errorf("unknown mode %q", a.Cfg.App.Mode)
	}
}

func (a *App) shutdown() {
	if a.Cfg.System.CancelOnExit {
		a.Trader.CancelAll()
	}

	a.dispatcher.Stop()

	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			a.Logger.Error("journal close failed", "error", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if a.metricsSrv != nil {
		if err := a.metricsSrv.Stop(ctx); err != nil {
			a.Logger.Error("metrics server stop failed", "error", err)
		}
	}
	if err := a.telemetry.Shutdown(ctx); err != nil {
		a.Logger.Error("telemetry shutdown failed", "error", err)
	}
}
