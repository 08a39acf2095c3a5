package domain

import "github.com/shopspring/decimal"

// BookTop is the top of book for one token. HasBid/HasAsk distinguish an
// empty side from a zero price.
type BookTop struct {
	BestBid decimal.Decimal
	BestAsk decimal.Decimal
	HasBid  bool
	HasAsk  bool
}

// TwoSided reports whether both sides of the book have liquidity.
func (b BookTop) TwoSided() bool {
	return b.HasBid && b.HasAsk
}

// Spread returns ask minus bid. Only meaningful when TwoSided.
func (b BookTop) Spread() decimal.Decimal {
	return b.BestAsk.Sub(b.BestBid)
}
