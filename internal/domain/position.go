package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is an open holding in one outcome token. The system never holds
// more than one position at a time; the strategy enforces that by only
// issuing opening orders while flat.
type Position struct {
	TokenID    string
	Shares     decimal.Decimal
	EntryPrice decimal.Decimal
	EntryTime  time.Time
}

// PnL returns the profit or loss realised by exiting the full position at
// the given price.
func (p *Position) PnL(exitPrice decimal.Decimal) decimal.Decimal {
	return exitPrice.Sub(p.EntryPrice).Mul(p.Shares)
}
