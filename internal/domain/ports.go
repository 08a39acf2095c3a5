package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// PriceSource supplies the most recent BTC spot price. Implementations run
// their own feed goroutines and expose only the last observed value; "no
// fresh value yet" and "value unavailable" are both reported as ok=false.
type PriceSource interface {
	// Price returns the latest spot price and whether one has been observed.
	Price() (decimal.Decimal, bool)
	// Ready reports whether at least one price update has arrived.
	Ready() bool
	// SetMarketHint retargets sources that scrape or poll a per-market
	// endpoint. Sources with a fixed upstream ignore it.
	SetMarketHint(slug string)
}

// MarketMetadata is the discovery API surface the lifecycle manager needs.
type MarketMetadata interface {
	// LookupMarket fetches the descriptor for a candidate slug. A lookup
	// that finds nothing returns ErrNotFound.
	LookupMarket(ctx context.Context, slug string) (MarketDescriptor, error)
	// FetchOpeningPrice returns the authoritative opening price for the
	// window, or an error when the window has not started yet.
	FetchOpeningPrice(ctx context.Context, start, end time.Time) (decimal.Decimal, error)
}

// Wallet checks on-chain trading balances. Consulted once at startup in
// live mode, never per tick.
type Wallet interface {
	ValidateTradingBalance(ctx context.Context, minimum decimal.Decimal) (bool, error)
}

// SessionRecorder accumulates per-tick records and persists the session
// summary on shutdown.
type SessionRecorder interface {
	Record(ctx context.Context, tick TickRecord)
	IncrementMarketsTraded()
	Flush(ctx context.Context, totalPnL, finalCash decimal.Decimal) error
}

// Execution is the order-execution port. The paper simulator and the live
// backend implement identical semantics; the engine and strategy hold only
// this interface.
type Execution interface {
	// Buy places a limit buy and returns the order id.
	Buy(ctx context.Context, tokenID string, price, size decimal.Decimal) (string, error)
	// Sell places a limit sell and returns the order id.
	Sell(ctx context.Context, tokenID string, price, size decimal.Decimal) (string, error)
	// Cancel removes a resting order. A missing order returns ErrNotFound.
	Cancel(ctx context.Context, orderID string) error
	// MarketOrder executes immediately at the given price. It returns
	// false without mutating state when the order cannot be honoured
	// (insufficient cash, no position, wrong token).
	MarketOrder(ctx context.Context, tokenID string, side OrderSide, price, size decimal.Decimal) (bool, error)
	// Position returns the open position, if any.
	Position() (Position, bool)
	// HasPosition reports whether a position is open.
	HasPosition() bool
	// CashBalance returns the simulator's cash ledger. Live backends
	// report zero and defer to the wallet.
	CashBalance() decimal.Decimal
	// OrderBook fetches the top of book for a token.
	OrderBook(ctx context.Context, tokenID string) (BookTop, error)
}
