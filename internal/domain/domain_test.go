package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestMinutesRemaining(t *testing.T) {
	now := time.Unix(1_757_000_000, 0)
	m := MarketInfo{Expiry: now.Add(7*time.Minute + 30*time.Second)}

	if got := m.MinutesRemaining(now); got != 7.5 {
		t.Fatalf("minutes remaining = %v, want 7.5", got)
	}
	if got := m.MinutesRemaining(now.Add(10 * time.Minute)); got != -2.5 {
		t.Fatalf("minutes remaining past expiry = %v, want -2.5", got)
	}
}

func TestExpiringSoon(t *testing.T) {
	now := time.Unix(1_757_000_000, 0)
	m := MarketInfo{Expiry: now.Add(90 * time.Second)}

	tests := []struct {
		name      string
		threshold time.Duration
		want      bool
	}{
		{"well above threshold", 30 * time.Second, false},
		{"exactly at threshold", 90 * time.Second, false},
		{"below threshold", 2 * time.Minute, true},
	}
	for _, tc := range tests {
		if got := m.ExpiringSoon(now, tc.threshold); got != tc.want {
			t.Fatalf("%s: ExpiringSoon = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestTokenFor(t *testing.T) {
	m := MarketInfo{TokenIDUp: "tok-up", TokenIDDown: "tok-down"}
	if got := m.TokenFor(DirectionUp); got != "tok-up" {
		t.Fatalf("TokenFor(UP) = %s", got)
	}
	if got := m.TokenFor(DirectionDown); got != "tok-down" {
		t.Fatalf("TokenFor(DOWN) = %s", got)
	}
}

func TestDescriptorTradable(t *testing.T) {
	tests := []struct {
		name string
		d    MarketDescriptor
		want bool
	}{
		{"open market", MarketDescriptor{Active: true, AcceptingOrders: true}, true},
		{"inactive", MarketDescriptor{AcceptingOrders: true}, false},
		{"not accepting orders", MarketDescriptor{Active: true}, false},
		{"closed", MarketDescriptor{Active: true, AcceptingOrders: true, Closed: true}, false},
	}
	for _, tc := range tests {
		if got := tc.d.Tradable(); got != tc.want {
			t.Fatalf("%s: Tradable = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestBookTopHelpers(t *testing.T) {
	full := BookTop{
		BestBid: decimal.RequireFromString("0.44"),
		BestAsk: decimal.RequireFromString("0.46"),
		HasBid:  true,
		HasAsk:  true,
	}
	if !full.TwoSided() {
		t.Fatal("book with both sides must be two-sided")
	}
	if !full.Spread().Equal(decimal.RequireFromString("0.02")) {
		t.Fatalf("spread = %s, want 0.02", full.Spread())
	}

	bidOnly := BookTop{BestBid: decimal.RequireFromString("0.44"), HasBid: true}
	if bidOnly.TwoSided() {
		t.Fatal("book missing an ask must not be two-sided")
	}
}

func TestPositionPnL(t *testing.T) {
	p := Position{
		TokenID:    "tok-up",
		Shares:     decimal.NewFromInt(43),
		EntryPrice: decimal.RequireFromString("0.46"),
	}
	if got := p.PnL(decimal.RequireFromString("0.50")); !got.Equal(decimal.RequireFromString("1.72")) {
		t.Fatalf("pnl at 0.50 = %s, want 1.72", got)
	}
	if got := p.PnL(decimal.RequireFromString("0.30")); !got.Equal(decimal.RequireFromString("-6.88")) {
		t.Fatalf("pnl at 0.30 = %s, want -6.88", got)
	}
}
