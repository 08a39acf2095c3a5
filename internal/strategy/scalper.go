// Package strategy implements the scalping state machine that turns fair
// value and top-of-book observations into orders.
package strategy

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/vulturelabs/vulturebot/internal/domain"
	"github.com/vulturelabs/vulturebot/internal/quant"
)

// Params are the risk knobs for the scalper, all prices in probability
// space.
type Params struct {
	MaxCapitalPerTrade decimal.Decimal
	PanicDiscount      decimal.Decimal
	ScalpProfit        decimal.Decimal
	StopLoss           decimal.Decimal
}

// Scalper is the trading state machine. In Scanning it waits for the ask to
// dip below the discounted fair value; in InPosition it watches the bid for
// a take-profit or stop-loss exit. At most one entry and one exit happen per
// evaluation.
type Scalper struct {
	exec   domain.Execution
	params Params
	logger *slog.Logger

	state         domain.BotState
	activeOrderID string
}

// NewScalper creates a scalper in the Scanning state.
func NewScalper(exec domain.Execution, params Params, logger *slog.Logger) *Scalper {
	return &Scalper{
		exec:   exec,
		params: params,
		logger: logger.With(slog.String("component", "scalper")),
		state:  domain.StateScanning,
	}
}

// State returns the current state.
func (s *Scalper) State() domain.BotState { return s.state }

// ActiveOrderID returns the resting entry order's id, empty when none.
func (s *Scalper) ActiveOrderID() string { return s.activeOrderID }

// Reset returns the scalper to Scanning with no tracked order. Called after
// market rotation.
func (s *Scalper) Reset() {
	s.state = domain.StateScanning
	s.activeOrderID = ""
}

// Evaluate runs one state machine step against the trading token's top of
// book.
func (s *Scalper) Evaluate(ctx context.Context, tokenID string, fairValue, bestBid, bestAsk decimal.Decimal) error {
	switch s.state {
	case domain.StateScanning:
		return s.evaluateEntry(ctx, tokenID, fairValue, bestAsk)
	case domain.StateInPosition:
		return s.evaluateExit(ctx, tokenID, bestBid)
	}
	return nil
}

// evaluateEntry places a limit buy when the ask trades at or below the
// discounted fair value. Placement failure leaves the state unchanged so the
// next tick retries.
func (s *Scalper) evaluateEntry(ctx context.Context, tokenID string, fairValue, bestAsk decimal.Decimal) error {
	target := quant.EntryTarget(fairValue, s.params.PanicDiscount)
	if bestAsk.Cmp(target) > 0 {
		return nil
	}

	size := quant.PositionSize(s.params.MaxCapitalPerTrade, bestAsk)
	if size.Cmp(decimal.Zero) <= 0 {
		return nil
	}

	orderID, err := s.exec.Buy(ctx, tokenID, bestAsk, size)
	if err != nil {
		s.logger.Error("entry order placement failed",
			slog.String("price", bestAsk.String()),
			slog.String("size", size.String()),
			slog.String("error", err.Error()),
		)
		return nil
	}

	s.activeOrderID = orderID
	s.state = domain.StateInPosition
	s.logger.Info("entry order placed",
		slog.String("order_id", orderID),
		slog.String("price", bestAsk.String()),
		slog.String("size", size.String()),
		slog.String("target", target.String()),
	)
	return nil
}

// evaluateExit checks take-profit first, then stop-loss. Take-profit exits
// with a limit sell at the bid; stop-loss exits immediately with a market
// order. Either way the scalper returns to Scanning.
func (s *Scalper) evaluateExit(ctx context.Context, tokenID string, bestBid decimal.Decimal) error {
	pos, ok := s.exec.Position()
	if !ok {
		// Entry order not filled yet; keep waiting.
		return nil
	}

	takeProfit := quant.TakeProfitTarget(pos.EntryPrice, s.params.ScalpProfit)
	stopLoss := quant.StopLossTarget(pos.EntryPrice, s.params.StopLoss)

	switch {
	case bestBid.Cmp(takeProfit) >= 0:
		s.logger.Info("take profit triggered",
			slog.String("bid", bestBid.String()),
			slog.String("target", takeProfit.String()),
		)
		if _, err := s.exec.Sell(ctx, tokenID, bestBid, pos.Shares); err != nil {
			return err
		}
		s.state = domain.StateScanning
		s.activeOrderID = ""

	case bestBid.Cmp(stopLoss) <= 0:
		s.logger.Warn("stop loss triggered",
			slog.String("bid", bestBid.String()),
			slog.String("threshold", stopLoss.String()),
		)
		if _, err := s.exec.MarketOrder(ctx, tokenID, domain.OrderSideSell, bestBid, pos.Shares); err != nil {
			return err
		}
		s.state = domain.StateScanning
		s.activeOrderID = ""
	}

	return nil
}
