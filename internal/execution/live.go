package execution

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/vulturelabs/vulturebot/internal/crypto"
	"github.com/vulturelabs/vulturebot/internal/domain"
)

// OrderGateway is the CLOB surface the live executor needs.
type OrderGateway interface {
	PostOrder(ctx context.Context, payload crypto.OrderPayload, orderType domain.OrderType) (string, error)
	CancelOrder(ctx context.Context, orderID string) error
	GetBook(ctx context.Context, tokenID string) (domain.BookTop, error)
}

// LiveExecutor places real orders on the Polymarket CLOB. Positions opened
// through MarketOrder are tracked locally; cash lives on chain and is
// reported as zero (the wallet is the authority there).
type LiveExecutor struct {
	gateway       OrderGateway
	maker         common.Address
	signatureType int
	logger        *slog.Logger

	mu       sync.Mutex
	position *domain.Position
}

// NewLiveExecutor creates a live executor. maker is the funding wallet
// address; signatureType matches the account type registered with the CLOB.
func NewLiveExecutor(gateway OrderGateway, maker common.Address, signatureType int, logger *slog.Logger) *LiveExecutor {
	return &LiveExecutor{
		gateway:       gateway,
		maker:         maker,
		signatureType: signatureType,
		logger:        logger.With(slog.String("component", "live_executor")),
	}
}

// Buy places a GTC limit buy on the CLOB and returns the exchange order id.
func (l *LiveExecutor) Buy(ctx context.Context, tokenID string, price, size decimal.Decimal) (string, error) {
	return l.placeOrder(ctx, tokenID, crypto.OrderSideBuy, price, size, domain.OrderTypeGTC)
}

// Sell places a GTC limit sell on the CLOB and returns the exchange order id.
func (l *LiveExecutor) Sell(ctx context.Context, tokenID string, price, size decimal.Decimal) (string, error) {
	return l.placeOrder(ctx, tokenID, crypto.OrderSideSell, price, size, domain.OrderTypeGTC)
}

func (l *LiveExecutor) placeOrder(ctx context.Context, tokenID string, side int, price, size decimal.Decimal, orderType domain.OrderType) (string, error) {
	payload, err := crypto.NewOrderPayload(l.maker, tokenID, side, price, size, l.signatureType)
	if err != nil {
		return "", fmt.Errorf("execution/live: build order: %w", err)
	}

	orderID, err := l.gateway.PostOrder(ctx, payload, orderType)
	if err != nil {
		return "", fmt.Errorf("execution/live: place order: %w", err)
	}

	l.logger.Info("order placed",
		slog.String("order_id", orderID),
		slog.Int("side", side),
		slog.String("price", price.String()),
		slog.String("size", size.String()),
		slog.String("type", string(orderType)),
	)
	return orderID, nil
}

// Cancel cancels a resting order on the CLOB.
func (l *LiveExecutor) Cancel(ctx context.Context, orderID string) error {
	if err := l.gateway.CancelOrder(ctx, orderID); err != nil {
		return fmt.Errorf("execution/live: cancel %s: %w", orderID, err)
	}
	l.logger.Info("order cancelled", slog.String("order_id", orderID))
	return nil
}

// MarketOrder places an aggressively priced fill-and-kill order for
// immediate execution. The price the caller supplies should already cross
// the book. A successful buy records the position; a successful sell clears
// it.
func (l *LiveExecutor) MarketOrder(ctx context.Context, tokenID string, side domain.OrderSide, price, size decimal.Decimal) (bool, error) {
	clobSide := crypto.OrderSideBuy
	if side == domain.OrderSideSell {
		clobSide = crypto.OrderSideSell
	}

	if _, err := l.placeOrder(ctx, tokenID, clobSide, price, size, domain.OrderTypeFAK); err != nil {
		return false, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if side == domain.OrderSideBuy {
		l.position = &domain.Position{
			TokenID:    tokenID,
			Shares:     size,
			EntryPrice: price,
		}
	} else {
		l.position = nil
	}
	return true, nil
}

// RecordFill updates the local position after an externally observed fill.
// The engine calls this when it learns a resting order executed.
func (l *LiveExecutor) RecordFill(pos domain.Position, closed bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if closed {
		l.position = nil
		return
	}
	l.position = &pos
}

// Position returns the locally tracked position, if any.
func (l *LiveExecutor) Position() (domain.Position, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.position == nil {
		return domain.Position{}, false
	}
	return *l.position, true
}

// HasPosition reports whether a position is tracked.
func (l *LiveExecutor) HasPosition() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.position != nil
}

// CashBalance returns zero; live cash is read from the wallet, not here.
func (l *LiveExecutor) CashBalance() decimal.Decimal {
	return decimal.Zero
}

// OrderBook fetches the top of book from the CLOB.
func (l *LiveExecutor) OrderBook(ctx context.Context, tokenID string) (domain.BookTop, error) {
	top, err := l.gateway.GetBook(ctx, tokenID)
	if err != nil {
		return domain.BookTop{}, fmt.Errorf("execution/live: order book: %w", err)
	}
	return top, nil
}
