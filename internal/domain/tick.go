package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TickRecord is an immutable snapshot of one engine cycle. Bid/ask/spread
// pointers are nil when the book had no liquidity for that tick.
type TickRecord struct {
	Timestamp        time.Time        `json:"timestamp"`
	TickNumber       uint64           `json:"tick_number"`
	MarketSlug       string           `json:"market_slug"`
	SpotPrice        decimal.Decimal  `json:"spot_price"`
	StrikePrice      decimal.Decimal  `json:"strike_price"`
	FairValue        decimal.Decimal  `json:"fair_value"`
	TargetBuyPrice   decimal.Decimal  `json:"target_buy_price"`
	BestBid          *decimal.Decimal `json:"best_bid,omitempty"`
	BestAsk          *decimal.Decimal `json:"best_ask,omitempty"`
	Spread           *decimal.Decimal `json:"spread,omitempty"`
	MinutesRemaining float64          `json:"minutes_remaining"`
	State            string           `json:"state"`
}

// SessionSummary is the persisted record of one bot run.
type SessionSummary struct {
	SessionID       string          `json:"session_id"`
	StartTime       time.Time       `json:"start_time"`
	EndTime         time.Time       `json:"end_time"`
	DurationSeconds int64           `json:"duration_seconds"`
	TotalTicks      uint64          `json:"total_ticks"`
	MarketsTraded   uint64          `json:"markets_traded"`
	TotalPnL        decimal.Decimal `json:"total_pnl"`
	FinalCash       decimal.Decimal `json:"final_cash"`
	Ticks           []TickRecord    `json:"ticks"`
}
