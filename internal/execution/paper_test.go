package execution

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vulturelabs/vulturebot/internal/domain"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

type stubBooks struct {
	top domain.BookTop
	err error
}

func (s stubBooks) GetBook(ctx context.Context, tokenID string) (domain.BookTop, error) {
	return s.top, s.err
}

func newPaper(cash string) *PaperExecutor {
	return NewPaperExecutor(dec(cash), stubBooks{}, discard())
}

func TestPaperOrderIDsSequential(t *testing.T) {
	p := newPaper("100")
	ctx := context.Background()

	id0, _ := p.Buy(ctx, "tok", dec("0.40"), dec("10"))
	id1, _ := p.Sell(ctx, "tok", dec("0.60"), dec("10"))
	if id0 != "PAPER_0" || id1 != "PAPER_1" {
		t.Fatalf("ids = %s, %s, want PAPER_0, PAPER_1", id0, id1)
	}
}

func TestPaperCancel(t *testing.T) {
	p := newPaper("100")
	ctx := context.Background()

	id, _ := p.Buy(ctx, "tok", dec("0.40"), dec("10"))
	if err := p.Cancel(ctx, id); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if err := p.Cancel(ctx, id); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second cancel = %v, want ErrNotFound", err)
	}
	if err := p.Cancel(ctx, "PAPER_99"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown cancel = %v, want ErrNotFound", err)
	}
}

func TestPaperBuyFill(t *testing.T) {
	p := newPaper("100")
	ctx := context.Background()

	p.Buy(ctx, "tok", dec("0.40"), dec("50"))

	// Ask above our price: no fill.
	if _, ok := p.CheckFills("tok", domain.BookTop{BestAsk: dec("0.45"), HasAsk: true}); ok {
		t.Fatal("should not fill above limit price")
	}

	// Ask at our price: fill at the order's limit price.
	fill, ok := p.CheckFills("tok", domain.BookTop{BestAsk: dec("0.40"), HasAsk: true})
	if !ok {
		t.Fatal("expected fill")
	}
	if fill.Side != domain.OrderSideBuy || !fill.Price.Equal(dec("0.40")) {
		t.Fatalf("fill = %+v", fill)
	}
	if !fill.Position.EntryPrice.Equal(dec("0.40")) || !fill.Position.Shares.Equal(dec("50")) {
		t.Fatalf("position = %+v", fill.Position)
	}
	// Cash reduced by 0.40 * 50 = 20.
	if !p.CashBalance().Equal(dec("80")) {
		t.Fatalf("cash = %s, want 80", p.CashBalance())
	}
	if !p.HasPosition() {
		t.Fatal("position should be open")
	}
	if p.OpenOrders() != 0 {
		t.Fatal("filled order should be removed")
	}
}

func TestPaperSellFill(t *testing.T) {
	p := newPaper("100")
	ctx := context.Background()

	p.MarketOrder(ctx, "tok", domain.OrderSideBuy, dec("0.40"), dec("50"))
	p.Sell(ctx, "tok", dec("0.41"), dec("50"))

	if _, ok := p.CheckFills("tok", domain.BookTop{BestBid: dec("0.40"), HasBid: true}); ok {
		t.Fatal("should not fill below limit price")
	}

	_, ok := p.CheckFills("tok", domain.BookTop{BestBid: dec("0.41"), HasBid: true})
	if !ok {
		t.Fatal("expected fill")
	}
	if p.HasPosition() {
		t.Fatal("position should be closed")
	}
	// 100 - 20 + 20.50 = 100.50
	if !p.CashBalance().Equal(dec("100.5")) {
		t.Fatalf("cash = %s, want 100.5", p.CashBalance())
	}
}

func TestPaperOneFillPerCall(t *testing.T) {
	p := newPaper("100")
	ctx := context.Background()

	p.Buy(ctx, "tok", dec("0.40"), dec("10"))
	p.Buy(ctx, "tok", dec("0.45"), dec("10"))

	top := domain.BookTop{BestAsk: dec("0.30"), HasAsk: true}
	if _, ok := p.CheckFills("tok", top); !ok {
		t.Fatal("first call should fill")
	}
	if p.OpenOrders() != 1 {
		t.Fatalf("open orders = %d, want 1", p.OpenOrders())
	}
	if _, ok := p.CheckFills("tok", top); !ok {
		t.Fatal("second call should fill the remaining order")
	}
	if p.OpenOrders() != 0 {
		t.Fatal("all orders should be filled")
	}
}

func TestPaperFillsIgnoreOtherTokens(t *testing.T) {
	p := newPaper("100")
	ctx := context.Background()

	p.Buy(ctx, "tok-a", dec("0.40"), dec("10"))
	if _, ok := p.CheckFills("tok-b", domain.BookTop{BestAsk: dec("0.10"), HasAsk: true}); ok {
		t.Fatal("fill matched the wrong token")
	}
}

func TestPaperMarketOrderInsufficientCash(t *testing.T) {
	p := newPaper("10")
	ctx := context.Background()

	ok, err := p.MarketOrder(ctx, "tok", domain.OrderSideBuy, dec("0.50"), dec("100"))
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("buy beyond cash should be rejected")
	}
	if !p.CashBalance().Equal(dec("10")) {
		t.Fatal("rejected order must not touch cash")
	}
	if p.HasPosition() {
		t.Fatal("rejected order must not open a position")
	}
}

func TestPaperMarketSellWithoutPosition(t *testing.T) {
	p := newPaper("100")
	ctx := context.Background()

	ok, err := p.MarketOrder(ctx, "tok", domain.OrderSideSell, dec("0.50"), dec("10"))
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("sell without position should be rejected")
	}

	// Wrong token is also rejected.
	p.MarketOrder(ctx, "tok-a", domain.OrderSideBuy, dec("0.50"), dec("10"))
	ok, _ = p.MarketOrder(ctx, "tok-b", domain.OrderSideSell, dec("0.50"), dec("10"))
	if ok {
		t.Fatal("sell against a different token should be rejected")
	}
}

func TestPaperRoundTripPnL(t *testing.T) {
	p := newPaper("100")
	ctx := context.Background()

	p.MarketOrder(ctx, "tok", domain.OrderSideBuy, dec("0.45"), dec("40"))
	if !p.CashBalance().Equal(dec("82")) {
		t.Fatalf("cash after buy = %s, want 82", p.CashBalance())
	}

	ok, _ := p.MarketOrder(ctx, "tok", domain.OrderSideSell, dec("0.46"), dec("40"))
	if !ok {
		t.Fatal("sell should succeed")
	}
	// 82 + 18.40 = 100.40, a 0.40 scalp.
	if !p.CashBalance().Equal(dec("100.4")) {
		t.Fatalf("cash after round trip = %s, want 100.4", p.CashBalance())
	}
}
