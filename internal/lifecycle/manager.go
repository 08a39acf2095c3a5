// Package lifecycle manages which 15-minute market the bot trades: slug
// generation, concurrent discovery against the metadata API, strike
// resolution, and the rotation protocol when a market approaches expiry.
package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/vulturelabs/vulturebot/internal/domain"
)

// windowSeconds is the market window length: 15 minutes.
const windowSeconds = 15 * 60

// rotationExitPrice is the mid-market estimate used for the emergency exit
// when a position must be closed before rotation.
var rotationExitPrice = decimal.RequireFromString("0.50")

// Manager discovers active markets and executes the rotation protocol.
type Manager struct {
	metadata domain.MarketMetadata
	exec     domain.Execution
	asset    string
	logger   *slog.Logger
}

// NewManager creates a lifecycle manager. asset names the underlying used in
// slugs, e.g. "btc".
func NewManager(metadata domain.MarketMetadata, exec domain.Execution, asset string, logger *slog.Logger) *Manager {
	return &Manager{
		metadata: metadata,
		exec:     exec,
		asset:    asset,
		logger:   logger.With(slog.String("component", "lifecycle")),
	}
}

// CandidateWindows returns the window start timestamps to probe, highest
// priority first: the current aligned window, then the next, then the two
// previous ones.
func CandidateWindows(now time.Time) []int64 {
	base := (now.Unix() / windowSeconds) * windowSeconds
	return []int64{
		base,
		base + windowSeconds,
		base - windowSeconds,
		base - 2*windowSeconds,
	}
}

// Slug builds the market slug for a window start timestamp.
func (m *Manager) Slug(windowStart int64) string {
	return fmt.Sprintf("%s-updown-15m-%d", m.asset, windowStart)
}

// Discover probes all candidate windows concurrently and returns the first
// tradable market in candidate-priority order. When the opening price cannot
// be resolved the market is returned with the pending sentinel strike, which
// the caller must replace with live spot before trading.
func (m *Manager) Discover(ctx context.Context, now time.Time) (domain.MarketInfo, error) {
	candidates := CandidateWindows(now)
	found := make([]*domain.MarketDescriptor, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	for i, ts := range candidates {
		slug := m.Slug(ts)
		g.Go(func() error {
			desc, err := m.metadata.LookupMarket(gctx, slug)
			if err != nil {
				// A missing candidate is expected; anything else is
				// logged and treated the same way.
				m.logger.Debug("candidate lookup failed",
					slog.String("slug", slug),
					slog.String("error", err.Error()),
				)
				return nil
			}
			if desc.Tradable() {
				found[i] = &desc
			}
			return nil
		})
	}
	// Lookups never return errors through the group; Wait only joins.
	_ = g.Wait()

	for i, desc := range found {
		if desc == nil {
			continue
		}
		return m.buildMarketInfo(ctx, candidates[i], *desc), nil
	}

	return domain.MarketInfo{}, fmt.Errorf("lifecycle: discover: %w", domain.ErrNoActiveMarket)
}

// buildMarketInfo assembles a MarketInfo from a descriptor, resolving the
// strike from the opening-price API.
func (m *Manager) buildMarketInfo(ctx context.Context, windowStart int64, desc domain.MarketDescriptor) domain.MarketInfo {
	info := domain.MarketInfo{
		Slug:        desc.Slug,
		TokenIDUp:   desc.TokenIDUp,
		TokenIDDown: desc.TokenIDDown,
		Expiry:      desc.Expiry,
	}
	if info.Expiry.IsZero() {
		info.Expiry = time.Unix(windowStart+windowSeconds, 0)
	}

	start := desc.EventStart
	if start.IsZero() {
		start = time.Unix(windowStart, 0)
	}

	strike, err := m.metadata.FetchOpeningPrice(ctx, start, start.Add(windowSeconds*time.Second))
	if err != nil {
		m.logger.Warn("opening price unavailable, strike pending",
			slog.String("slug", desc.Slug),
			slog.String("error", err.Error()),
		)
		info.Strike = domain.PendingStrike
		info.StrikePending = true
		return info
	}

	info.Strike = strike
	m.logger.Info("market discovered",
		slog.String("slug", desc.Slug),
		slog.String("strike", strike.String()),
		slog.Time("expiry", info.Expiry),
	)
	return info
}

// ManualMarket builds a pinned MarketInfo from operator-supplied values,
// used when auto-discovery is disabled.
func ManualMarket(slug, tokenIDUp, tokenIDDown string, strike decimal.Decimal, expiry time.Time) domain.MarketInfo {
	return domain.MarketInfo{
		Slug:        slug,
		TokenIDUp:   tokenIDUp,
		TokenIDDown: tokenIDDown,
		Strike:      strike,
		Expiry:      expiry,
	}
}

// Rotate executes the rotation protocol for an expiring market: close any
// open position with an emergency market exit at the mid-market estimate,
// cancel the resting order (a missing order is tolerated), and report the
// realised P&L of the forced exit. The caller discards the market afterward.
func (m *Manager) Rotate(ctx context.Context, activeOrderID string) (decimal.Decimal, error) {
	pnl := decimal.Zero

	if pos, ok := m.exec.Position(); ok {
		m.logger.Warn("closing position before rotation",
			slog.String("token_id", pos.TokenID),
			slog.String("shares", pos.Shares.String()),
		)
		ok, err := m.exec.MarketOrder(ctx, pos.TokenID, domain.OrderSideSell, rotationExitPrice, pos.Shares)
		if err != nil {
			return pnl, fmt.Errorf("lifecycle: emergency exit: %w", err)
		}
		if ok {
			pnl = pos.PnL(rotationExitPrice)
			m.logger.Info("emergency exit executed", slog.String("pnl", pnl.String()))
		}
	}

	if activeOrderID != "" {
		if err := m.exec.Cancel(ctx, activeOrderID); err != nil {
			// The order may have filled or expired already.
			m.logger.Warn("cancel during rotation failed",
				slog.String("order_id", activeOrderID),
				slog.String("error", err.Error()),
			)
		}
	}

	return pnl, nil
}
