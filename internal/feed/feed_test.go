package feed

import (
	"sync"
	"testing"

	"github.com/shopspring/decimal"
)

func TestPriceCellEmptyUntilFirstSet(t *testing.T) {
	c := NewPriceCell()
	if _, ok := c.Price(); ok {
		t.Fatal("empty cell must report ok=false")
	}
	if c.Ready() {
		t.Fatal("empty cell must not be ready")
	}

	c.Set(decimal.RequireFromString("98600.5"))
	price, ok := c.Price()
	if !ok || !price.Equal(decimal.RequireFromString("98600.5")) {
		t.Fatalf("price = %s ok = %v", price, ok)
	}
	if !c.Ready() {
		t.Fatal("cell should be ready after first set")
	}
}

func TestPriceCellKeepsLatest(t *testing.T) {
	c := NewPriceCell()
	c.Set(decimal.NewFromInt(1))
	c.Set(decimal.NewFromInt(2))
	price, _ := c.Price()
	if !price.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("price = %s, want 2", price)
	}
}

func TestPriceCellConcurrentAccess(t *testing.T) {
	c := NewPriceCell()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(n int64) {
			defer wg.Done()
			c.Set(decimal.NewFromInt(n))
		}(int64(i))
		go func() {
			defer wg.Done()
			c.Price()
		}()
	}
	wg.Wait()
	if !c.Ready() {
		t.Fatal("cell should hold a value")
	}
}

func TestParseTradePrice(t *testing.T) {
	raw := []byte(`{"e":"trade","E":1788602850123,"s":"BTCUSDT","t":12345,"p":"98612.34","q":"0.005"}`)
	price, err := parseTradePrice(raw)
	if err != nil {
		t.Fatal(err)
	}
	if !price.Equal(decimal.RequireFromString("98612.34")) {
		t.Fatalf("price = %s", price)
	}
}

func TestParseTradePriceRejectsNonTradeFrames(t *testing.T) {
	for _, raw := range []string{
		`{"result":null,"id":1}`,
		`{"e":"aggTrade","p":"1"}`,
		`{"e":"trade"}`,
		`not json`,
	} {
		if _, err := parseTradePrice([]byte(raw)); err == nil {
			t.Errorf("frame %q should be rejected", raw)
		}
	}
}

func TestParseTickerPrice(t *testing.T) {
	price, err := parseTickerPrice([]byte(`{"symbol":"BTCUSDT","price":"98600.00000000"}`))
	if err != nil {
		t.Fatal(err)
	}
	if !price.Equal(decimal.RequireFromString("98600")) {
		t.Fatalf("price = %s", price)
	}

	if _, err := parseTickerPrice([]byte(`{"symbol":"BTCUSDT"}`)); err == nil {
		t.Fatal("missing price should be rejected")
	}
}
