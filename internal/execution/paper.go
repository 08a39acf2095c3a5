// Package execution implements the order-execution port in two backends: an
// in-memory paper simulator and a live CLOB-backed executor. Both expose the
// same semantics so the engine and strategy never branch on mode.
package execution

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vulturelabs/vulturebot/internal/domain"
)

// BookSource fetches the top of book for a token. The paper simulator has no
// exchange of its own, so it reads real books through this.
type BookSource interface {
	GetBook(ctx context.Context, tokenID string) (domain.BookTop, error)
}

// PaperExecutor simulates order execution against real market prices. Limit
// orders rest in memory until CheckFills observes a book that crosses them.
type PaperExecutor struct {
	books  BookSource
	logger *slog.Logger

	mu       sync.Mutex
	cash     decimal.Decimal
	position *domain.Position
	orders   map[string]domain.Order
	orderSeq []string // insertion order, so fills scan oldest first
	counter  uint64
}

// NewPaperExecutor creates a paper executor with the given starting cash.
func NewPaperExecutor(startingCash decimal.Decimal, books BookSource, logger *slog.Logger) *PaperExecutor {
	return &PaperExecutor{
		books:  books,
		logger: logger.With(slog.String("component", "paper_executor")),
		cash:   startingCash,
		orders: make(map[string]domain.Order),
	}
}

// Buy places a resting limit buy.
func (p *PaperExecutor) Buy(ctx context.Context, tokenID string, price, size decimal.Decimal) (string, error) {
	return p.placeOrder(tokenID, domain.OrderSideBuy, price, size), nil
}

// Sell places a resting limit sell.
func (p *PaperExecutor) Sell(ctx context.Context, tokenID string, price, size decimal.Decimal) (string, error) {
	return p.placeOrder(tokenID, domain.OrderSideSell, price, size), nil
}

func (p *PaperExecutor) placeOrder(tokenID string, side domain.OrderSide, price, size decimal.Decimal) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := fmt.Sprintf("PAPER_%d", p.counter)
	p.counter++

	p.orders[id] = domain.Order{
		ID:        id,
		TokenID:   tokenID,
		Side:      side,
		Price:     price,
		Size:      size,
		CreatedAt: time.Now(),
	}
	p.orderSeq = append(p.orderSeq, id)

	p.logger.Info("limit order placed",
		slog.String("order_id", id),
		slog.String("side", string(side)),
		slog.String("price", price.String()),
		slog.String("size", size.String()),
	)
	return id
}

// Cancel removes a resting order. A missing order returns domain.ErrNotFound.
func (p *PaperExecutor) Cancel(ctx context.Context, orderID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.orders[orderID]; !ok {
		return fmt.Errorf("execution/paper: cancel %s: %w", orderID, domain.ErrNotFound)
	}
	p.removeOrder(orderID)

	p.logger.Info("order cancelled", slog.String("order_id", orderID))
	return nil
}

// MarketOrder executes immediately at the given price. It returns false
// without mutating state when the order cannot be honoured.
func (p *PaperExecutor) MarketOrder(ctx context.Context, tokenID string, side domain.OrderSide, price, size decimal.Decimal) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch side {
	case domain.OrderSideBuy:
		cost := price.Mul(size)
		if p.cash.Cmp(cost) < 0 {
			p.logger.Warn("market buy rejected",
				slog.String("need", cost.String()),
				slog.String("cash", p.cash.String()),
			)
			return false, nil
		}
		p.cash = p.cash.Sub(cost)
		p.position = &domain.Position{
			TokenID:    tokenID,
			Shares:     size,
			EntryPrice: price,
			EntryTime:  time.Now(),
		}
		p.logger.Info("market buy executed",
			slog.String("price", price.String()),
			slog.String("size", size.String()),
			slog.String("cash", p.cash.String()),
		)
		return true, nil

	case domain.OrderSideSell:
		if p.position == nil || p.position.TokenID != tokenID || p.position.Shares.Cmp(size) < 0 {
			p.logger.Warn("market sell rejected: no matching position")
			return false, nil
		}
		proceeds := price.Mul(size)
		pnl := p.position.PnL(price)
		p.cash = p.cash.Add(proceeds)
		p.position = nil
		p.logger.Info("market sell executed",
			slog.String("price", price.String()),
			slog.String("size", size.String()),
			slog.String("pnl", pnl.String()),
			slog.String("cash", p.cash.String()),
		)
		return true, nil
	}

	return false, nil
}

// Fill describes a resting order matched against the book.
type Fill struct {
	OrderID string
	Side    domain.OrderSide
	Price   decimal.Decimal
	// Position is the position opened by a buy fill or closed by a sell
	// fill.
	Position domain.Position
}

// CheckFills scans resting orders for the token against the current top of
// book and fills at most one order per call: a buy fills when the best ask
// reaches down to its price, a sell when the best bid reaches up to it.
// Fills execute at the order's limit price.
func (p *PaperExecutor) CheckFills(tokenID string, top domain.BookTop) (Fill, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, id := range p.orderSeq {
		order, ok := p.orders[id]
		if !ok || order.TokenID != tokenID {
			continue
		}

		switch {
		case order.Side == domain.OrderSideBuy && top.HasAsk && top.BestAsk.Cmp(order.Price) <= 0:
			cost := order.Price.Mul(order.Size)
			p.cash = p.cash.Sub(cost)
			p.position = &domain.Position{
				TokenID:    order.TokenID,
				Shares:     order.Size,
				EntryPrice: order.Price,
				EntryTime:  time.Now(),
			}
			p.removeOrder(id)
			p.logger.Info("buy order filled",
				slog.String("order_id", id),
				slog.String("price", order.Price.String()),
				slog.String("cash", p.cash.String()),
			)
			return Fill{OrderID: id, Side: order.Side, Price: order.Price, Position: *p.position}, true

		case order.Side == domain.OrderSideSell && top.HasBid && top.BestBid.Cmp(order.Price) >= 0:
			proceeds := order.Price.Mul(order.Size)
			p.cash = p.cash.Add(proceeds)
			var closed domain.Position
			if p.position != nil {
				closed = *p.position
				pnl := p.position.PnL(order.Price)
				p.logger.Info("sell order filled",
					slog.String("order_id", id),
					slog.String("price", order.Price.String()),
					slog.String("pnl", pnl.String()),
					slog.String("cash", p.cash.String()),
				)
			}
			p.position = nil
			p.removeOrder(id)
			return Fill{OrderID: id, Side: order.Side, Price: order.Price, Position: closed}, true
		}
	}

	return Fill{}, false
}

// removeOrder drops an order from both the map and the insertion sequence.
// Caller holds p.mu.
func (p *PaperExecutor) removeOrder(id string) {
	delete(p.orders, id)
	for i, seq := range p.orderSeq {
		if seq == id {
			p.orderSeq = append(p.orderSeq[:i], p.orderSeq[i+1:]...)
			break
		}
	}
}

// Position returns the open position, if any.
func (p *PaperExecutor) Position() (domain.Position, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.position == nil {
		return domain.Position{}, false
	}
	return *p.position, true
}

// HasPosition reports whether a position is open.
func (p *PaperExecutor) HasPosition() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.position != nil
}

// CashBalance returns the simulated cash ledger.
func (p *PaperExecutor) CashBalance() decimal.Decimal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cash
}

// OpenOrders returns the number of resting orders.
func (p *PaperExecutor) OpenOrders() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.orders)
}

// OrderBook reads the real top of book through the configured source.
func (p *PaperExecutor) OrderBook(ctx context.Context, tokenID string) (domain.BookTop, error) {
	top, err := p.books.GetBook(ctx, tokenID)
	if err != nil {
		return domain.BookTop{}, fmt.Errorf("execution/paper: order book: %w", err)
	}
	return top, nil
}
