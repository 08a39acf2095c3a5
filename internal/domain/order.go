package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderSide indicates whether this is a buy or sell.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// OrderType indicates the time-in-force policy.
type OrderType string

const (
	OrderTypeGTC OrderType = "GTC" // Good-Till-Cancelled
	OrderTypeFAK OrderType = "FAK" // Fill-And-Kill, used for immediate exits
)

// Order is a resting limit order. In paper mode orders live in the
// simulator's ledger keyed by ID; in live mode the ID is assigned by the
// venue.
type Order struct {
	ID        string
	TokenID   string
	Side      OrderSide
	Price     decimal.Decimal
	Size      decimal.Decimal
	CreatedAt time.Time
}
