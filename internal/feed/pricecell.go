// Package feed supplies the live BTC spot price. The websocket trade stream
// is the primary source with a REST poller covering gaps.
package feed

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// PriceCell is a last-value cell shared between the feed goroutines and the
// engine. It never blocks readers: the engine reads whatever was observed
// most recently.
type PriceCell struct {
	mu        sync.RWMutex
	price     decimal.Decimal
	observed  bool
	updatedAt time.Time
}

// NewPriceCell returns an empty cell; Price reports ok=false until the
// first update arrives.
func NewPriceCell() *PriceCell {
	return &PriceCell{}
}

// Set stores a new observation.
func (c *PriceCell) Set(price decimal.Decimal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.price = price
	c.observed = true
	c.updatedAt = time.Now()
}

// Price returns the latest observation and whether one exists.
func (c *PriceCell) Price() (decimal.Decimal, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.price, c.observed
}

// Ready reports whether at least one update has arrived.
func (c *PriceCell) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.observed
}

// UpdatedAt returns the time of the last observation.
func (c *PriceCell) UpdatedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.updatedAt
}

// SetMarketHint is a no-op: the exchange stream is not market-specific.
func (c *PriceCell) SetMarketHint(string) {}
