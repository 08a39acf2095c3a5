package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PendingStrike is the placeholder strike assigned when the opening-price
// API has no data for a freshly created market. A market carrying it is
// flagged StrikePending and must have its strike backfilled from live spot
// before any trading decision is made against it.
var PendingStrike = decimal.NewFromInt(100000)

// MarketInfo describes one 15-minute up/down market instance. It is created
// by discovery, replaced wholesale on rotation, and owned by the engine;
// only the strike may be backfilled after creation (StrikePending).
type MarketInfo struct {
	Slug          string
	TokenIDUp     string
	TokenIDDown   string
	Strike        decimal.Decimal
	StrikePending bool
	Expiry        time.Time
}

// MinutesRemaining returns the time until expiry in fractional minutes.
// Negative once the market has expired.
func (m *MarketInfo) MinutesRemaining(now time.Time) float64 {
	return m.Expiry.Sub(now).Minutes()
}

// ExpiringSoon reports whether less than threshold remains until expiry.
func (m *MarketInfo) ExpiringSoon(now time.Time, threshold time.Duration) bool {
	return m.Expiry.Sub(now) < threshold
}

// TokenFor returns the token id trading the given direction.
func (m *MarketInfo) TokenFor(dir Direction) string {
	if dir == DirectionUp {
		return m.TokenIDUp
	}
	return m.TokenIDDown
}

// MarketDescriptor is the raw metadata returned by the discovery API for a
// candidate slug, before strike resolution.
type MarketDescriptor struct {
	Slug            string
	TokenIDUp       string
	TokenIDDown     string
	Expiry          time.Time
	EventStart      time.Time
	Active          bool
	AcceptingOrders bool
	Closed          bool
}

// Tradable reports whether the market is open for new orders.
func (d *MarketDescriptor) Tradable() bool {
	return d.Active && d.AcceptingOrders && !d.Closed
}

// Direction is the outcome side being traded.
type Direction string

const (
	DirectionUp   Direction = "UP"
	DirectionDown Direction = "DOWN"
)
