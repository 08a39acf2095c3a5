// Package engine runs the trading loop: one sequential tick at a time, each
// tick observing spot, maintaining the active market, and driving the
// strategy against the order book.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vulturelabs/vulturebot/internal/domain"
	"github.com/vulturelabs/vulturebot/internal/execution"
	"github.com/vulturelabs/vulturebot/internal/lifecycle"
	"github.com/vulturelabs/vulturebot/internal/metrics"
	"github.com/vulturelabs/vulturebot/internal/notify"
	"github.com/vulturelabs/vulturebot/internal/quant"
	"github.com/vulturelabs/vulturebot/internal/strategy"
)

// FillChecker matches resting simulated orders against a fresh book. Only
// the paper backend implements it; live fills arrive through the exchange.
type FillChecker interface {
	CheckFills(tokenID string, top domain.BookTop) (execution.Fill, bool)
}

// Config carries the engine's loop parameters.
type Config struct {
	TickInterval      time.Duration
	RotationThreshold time.Duration
	MaxSpread         decimal.Decimal
	PanicDiscount     decimal.Decimal
	// ManualMarket pins the engine to a single operator-supplied market
	// instead of running discovery.
	ManualMarket *domain.MarketInfo
}

// Engine owns the tick loop and all mutable trading state. It is not safe
// for concurrent use; Run is the only goroutine that touches it.
type Engine struct {
	cfg      Config
	price    domain.PriceSource
	markets  *lifecycle.Manager
	scalper  *strategy.Scalper
	exec     domain.Execution
	fills    FillChecker // nil in live mode
	recorder domain.SessionRecorder
	notifier *notify.Notifier
	metrics  *metrics.Metrics // nil-safe
	logger   *slog.Logger

	market     *domain.MarketInfo
	manualDone bool
	tickNum    uint64
	totalPnL   decimal.Decimal
}

// New assembles an engine. notifier must be non-nil (use one with no
// senders to disable alerts); metrics and fills may be nil.
func New(
	cfg Config,
	price domain.PriceSource,
	markets *lifecycle.Manager,
	scalper *strategy.Scalper,
	exec domain.Execution,
	fills FillChecker,
	recorder domain.SessionRecorder,
	notifier *notify.Notifier,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		cfg:      cfg,
		price:    price,
		markets:  markets,
		scalper:  scalper,
		exec:     exec,
		fills:    fills,
		recorder: recorder,
		notifier: notifier,
		metrics:  m,
		logger:   logger.With(slog.String("component", "engine")),
		totalPnL: decimal.Zero,
	}
}

// Run drives ticks until ctx is cancelled, then flushes the session. A slow
// tick simply delays the next one; ticks never overlap.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("engine started",
		slog.Duration("tick_interval", e.cfg.TickInterval),
		slog.Duration("rotation_threshold", e.cfg.RotationThreshold),
	)

	ticker := time.NewTicker(e.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return e.shutdown()
		case now := <-ticker.C:
			if err := e.Tick(ctx, now); err != nil {
				e.logger.Error("tick failed", slog.String("error", err.Error()))
				e.notifier.Error(ctx, "tick", err)
			}
		}
	}
}

// TotalPnL returns the realized profit and loss accumulated so far.
func (e *Engine) TotalPnL() decimal.Decimal { return e.totalPnL }

// Tick executes one engine cycle at the given wall-clock time.
func (e *Engine) Tick(ctx context.Context, now time.Time) error {
	e.tickNum++
	e.metrics.TickProcessed()

	if e.market == nil && !e.ensureMarket(ctx, now) {
		return nil
	}

	if e.market.ExpiringSoon(now, e.cfg.RotationThreshold) {
		return e.rotate(ctx)
	}

	spot, ok := e.price.Price()
	if !ok {
		e.logger.Debug("waiting for first spot price")
		return nil
	}
	e.metrics.SetSpotPrice(spot)

	if e.market.StrikePending {
		e.market.Strike = spot
		e.market.StrikePending = false
		e.logger.Info("strike backfilled from live spot",
			slog.String("slug", e.market.Slug),
			slog.String("strike", spot.String()),
		)
	}

	minutes := e.market.MinutesRemaining(now)
	dir, fair := quant.SelectDirection(spot, e.market.Strike, minutes)
	tokenID := e.market.TokenFor(dir)
	target := quant.EntryTarget(fair, e.cfg.PanicDiscount)

	upBook, upErr := e.exec.OrderBook(ctx, e.market.TokenIDUp)
	downBook, downErr := e.exec.OrderBook(ctx, e.market.TokenIDDown)
	if upErr != nil || downErr != nil || !upBook.TwoSided() || !downBook.TwoSided() {
		e.logger.Debug("insufficient book liquidity, skipping tick",
			slog.Any("up_err", upErr),
			slog.Any("down_err", downErr),
		)
		e.recordTick(ctx, now, spot, fair, target, minutes, nil)
		return nil
	}

	book := upBook
	if dir == domain.DirectionDown {
		book = downBook
	}

	spread := book.Spread()
	if !quant.SpreadAcceptable(spread, e.cfg.MaxSpread) {
		e.logger.Warn("spread too wide, skipping tick",
			slog.String("spread", spread.String()),
			slog.String("max_spread", e.cfg.MaxSpread.String()),
		)
		e.recordTick(ctx, now, spot, fair, target, minutes, &book)
		return nil
	}

	posBefore, hadPos := e.exec.Position()
	stateBefore := e.scalper.State()

	evalErr := e.scalper.Evaluate(ctx, tokenID, fair, book.BestBid, book.BestAsk)

	if e.scalper.State() != stateBefore {
		e.metrics.OrderPlaced()
	}
	// A position gone after Evaluate means the stop loss fired a market
	// exit at the bid.
	if hadPos && !e.exec.HasPosition() {
		pnl := posBefore.PnL(book.BestBid)
		e.realize(ctx, tokenID, pnl)
	}

	if e.fills != nil {
		if fill, ok := e.fills.CheckFills(tokenID, book); ok {
			e.metrics.FillObserved()
			if fill.Side == domain.OrderSideSell {
				e.realize(ctx, tokenID, fill.Position.PnL(fill.Price))
			} else {
				e.notifier.OrderFilled(ctx, tokenID, fill.Price, fill.Position.Shares)
			}
		}
	}

	e.metrics.SetCashBalance(e.exec.CashBalance())
	e.recordTick(ctx, now, spot, fair, target, minutes, &book)

	if evalErr != nil {
		return fmt.Errorf("engine: strategy: %w", evalErr)
	}
	return nil
}

// ensureMarket installs a market to trade, from the manual pin or from
// discovery. Returns false when no tradable market exists yet.
func (e *Engine) ensureMarket(ctx context.Context, now time.Time) bool {
	var info domain.MarketInfo
	if e.cfg.ManualMarket != nil {
		// A pinned market is traded once; after rotation the engine idles.
		if e.manualDone {
			return false
		}
		info = *e.cfg.ManualMarket
	} else {
		var err error
		info, err = e.markets.Discover(ctx, now)
		if err != nil {
			if errors.Is(err, domain.ErrNoActiveMarket) {
				e.logger.Debug("no tradable market yet")
			} else {
				e.logger.Warn("market discovery failed", slog.String("error", err.Error()))
			}
			return false
		}
	}

	e.market = &info
	e.recorder.IncrementMarketsTraded()
	e.price.SetMarketHint(info.Slug)
	e.logger.Info("trading market installed",
		slog.String("slug", info.Slug),
		slog.String("strike", info.Strike.String()),
		slog.Bool("strike_pending", info.StrikePending),
		slog.Time("expiry", info.Expiry),
	)
	return true
}

// rotate runs the rotation protocol and discards the expiring market. The
// next tick discovers a fresh one.
func (e *Engine) rotate(ctx context.Context) error {
	slug := e.market.Slug
	pnl, err := e.markets.Rotate(ctx, e.scalper.ActiveOrderID())

	e.totalPnL = e.totalPnL.Add(pnl)
	e.metrics.SetRealizedPnL(e.totalPnL)
	e.metrics.MarketRotated()
	e.market = nil
	if e.cfg.ManualMarket != nil {
		e.manualDone = true
	}
	e.scalper.Reset()

	e.notifier.MarketRotated(ctx, slug, pnl)
	e.logger.Info("market rotated",
		slog.String("slug", slug),
		slog.String("pnl", pnl.String()),
	)

	if err != nil {
		return fmt.Errorf("engine: rotate %s: %w", slug, err)
	}
	return nil
}

// realize folds a closed position's P&L into the running total.
func (e *Engine) realize(ctx context.Context, tokenID string, pnl decimal.Decimal) {
	e.totalPnL = e.totalPnL.Add(pnl)
	e.metrics.SetRealizedPnL(e.totalPnL)
	e.notifier.PositionClosed(ctx, tokenID, pnl)
	e.logger.Info("position closed",
		slog.String("pnl", pnl.String()),
		slog.String("total_pnl", e.totalPnL.String()),
	)
}

// recordTick emits the snapshot for this cycle. book is nil when liquidity
// was missing.
func (e *Engine) recordTick(ctx context.Context, now time.Time, spot, fair, target decimal.Decimal, minutes float64, book *domain.BookTop) {
	rec := domain.TickRecord{
		Timestamp:        now,
		TickNumber:       e.tickNum,
		MarketSlug:       e.market.Slug,
		SpotPrice:        spot,
		StrikePrice:      e.market.Strike,
		FairValue:        fair,
		TargetBuyPrice:   target,
		MinutesRemaining: minutes,
		State:            e.scalper.State().String(),
	}
	if book != nil {
		bid, ask, spread := book.BestBid, book.BestAsk, book.Spread()
		rec.BestBid = &bid
		rec.BestAsk = &ask
		rec.Spread = &spread
	}
	e.recorder.Record(ctx, rec)
}

// shutdown flushes the session after the loop stops. Uses a fresh context
// because the run context is already cancelled.
func (e *Engine) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	finalCash := e.exec.CashBalance()
	e.logger.Info("engine stopping",
		slog.Uint64("ticks", e.tickNum),
		slog.String("total_pnl", e.totalPnL.String()),
		slog.String("final_cash", finalCash.String()),
	)

	if err := e.recorder.Flush(ctx, e.totalPnL, finalCash); err != nil {
		return fmt.Errorf("engine: flush session: %w", err)
	}
	e.notifier.SessionFlushed(ctx, e.totalPnL, finalCash)
	return nil
}
