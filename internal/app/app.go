// Package app wires the bot together and supervises its long-running
// goroutines: the price feed, the trading engine, and the optional metrics
// listener.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/vulturelabs/vulturebot/internal/config"
	"github.com/vulturelabs/vulturebot/internal/engine"
	"github.com/vulturelabs/vulturebot/internal/metrics"
)

// App is the root application object. It owns the configuration, logger,
// and the cleanup chain torn down in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates an App from validated configuration.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run wires dependencies, starts the feed, engine, and metrics goroutines,
// and blocks until the context is cancelled or a component fails.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting",
		slog.String("mode", a.cfg.Mode),
		slog.String("log_level", a.cfg.LogLevel),
	)

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	eng := engine.New(
		engine.Config{
			TickInterval:      a.cfg.Engine.TickInterval.Duration,
			RotationThreshold: rotationThreshold(a.cfg),
			MaxSpread:         decimalFromFloat(a.cfg.Quant.MaxSpread),
			PanicDiscount:     decimalFromFloat(a.cfg.Quant.PanicDiscount),
			ManualMarket:      deps.ManualMarket,
		},
		deps.Price,
		deps.Markets,
		deps.Scalper,
		deps.Execution,
		deps.Fills,
		deps.Recorder,
		deps.Notifier,
		deps.Metrics,
		a.logger,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return deps.Feed.Run(gctx) })
	g.Go(func() error { return eng.Run(gctx) })
	if a.cfg.Metrics.Enabled {
		g.Go(func() error {
			return metrics.Serve(gctx, a.cfg.Metrics.Port, deps.Metrics, a.logger)
		})
	}

	return g.Wait()
}

// Close releases wired resources. Safe to call more than once.
func (a *App) Close() {
	a.logger.Info("shutting down")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
