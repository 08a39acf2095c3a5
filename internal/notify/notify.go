// Package notify fans trading alerts out to operator channels. Events are
// filtered against a configured allow list so a quiet deployment can
// subscribe to rotations and errors only.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"
)

// Event types emitted by the engine.
const (
	EventOrderFilled    = "order_filled"
	EventPositionClosed = "position_closed"
	EventMarketRotated  = "market_rotated"
	EventSessionFlushed = "session_flushed"
	EventError          = "error"
)

// Sender delivers a single notification on one channel.
type Sender interface {
	Send(ctx context.Context, title, message string) error
	Name() string
}

// Notifier dispatches events to every configured sender. An empty event
// allow list passes everything. Delivery failures are logged and reported
// but never interrupt trading.
type Notifier struct {
	senders []Sender
	allowed map[string]bool
	logger  *slog.Logger
}

// NewNotifier builds a notifier over the given senders, filtering to the
// listed event types. With no senders every method is a cheap no-op.
func NewNotifier(senders []Sender, events []string, logger *slog.Logger) *Notifier {
	allowed := make(map[string]bool, len(events))
	for _, e := range events {
		allowed[strings.TrimSpace(e)] = true
	}
	return &Notifier{
		senders: senders,
		allowed: allowed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// OrderFilled reports a fill on the given token.
func (n *Notifier) OrderFilled(ctx context.Context, tokenID string, price, size decimal.Decimal) {
	n.emit(ctx, EventOrderFilled, "Order filled",
		fmt.Sprintf("token %s: %s shares @ %s", shortToken(tokenID), size, price))
}

// PositionClosed reports a realized exit and its P&L.
func (n *Notifier) PositionClosed(ctx context.Context, tokenID string, pnl decimal.Decimal) {
	n.emit(ctx, EventPositionClosed, "Position closed",
		fmt.Sprintf("token %s: realized P&L %s USDC", shortToken(tokenID), pnl))
}

// MarketRotated reports the switch away from an expiring market.
func (n *Notifier) MarketRotated(ctx context.Context, slug string, pnl decimal.Decimal) {
	n.emit(ctx, EventMarketRotated, "Market rotated",
		fmt.Sprintf("left %s with forced-exit P&L %s USDC", slug, pnl))
}

// SessionFlushed reports the end-of-session summary.
func (n *Notifier) SessionFlushed(ctx context.Context, totalPnL, finalCash decimal.Decimal) {
	n.emit(ctx, EventSessionFlushed, "Session flushed",
		fmt.Sprintf("total P&L %s USDC, final cash %s USDC", totalPnL, finalCash))
}

// Error reports an operational failure.
func (n *Notifier) Error(ctx context.Context, op string, err error) {
	n.emit(ctx, EventError, "Error", fmt.Sprintf("%s: %v", op, err))
}

func (n *Notifier) emit(ctx context.Context, event, title, message string) {
	if len(n.senders) == 0 {
		return
	}
	if len(n.allowed) > 0 && !n.allowed[event] {
		n.logger.DebugContext(ctx, "event filtered out", slog.String("event", event))
		return
	}

	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("event", event),
				slog.String("error", err.Error()),
			)
		}
	}
}

// shortToken abbreviates CLOB token ids, which run to 70+ digits.
func shortToken(tokenID string) string {
	if len(tokenID) <= 12 {
		return tokenID
	}
	return tokenID[:6] + ".." + tokenID[len(tokenID)-4:]
}
