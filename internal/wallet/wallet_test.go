package wallet

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

type fakeBackend struct {
	native   *big.Int
	usdcRaw  *big.Int
	callErr  error
	lastCall ethereum.CallMsg
}

func (f *fakeBackend) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	return f.native, nil
}

func (f *fakeBackend) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	if f.callErr != nil {
		return nil, f.callErr
	}
	f.lastCall = call
	return common.LeftPadBytes(f.usdcRaw.Bytes(), 32), nil
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

var (
	testAccount = common.HexToAddress("0x1111111111111111111111111111111111111111")
	testUSDC    = common.HexToAddress("0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174")
)

func TestUSDCBalanceScaling(t *testing.T) {
	// 12.345678 USDC in 6-decimal fixed point.
	be := &fakeBackend{native: big.NewInt(0), usdcRaw: big.NewInt(12_345_678)}
	w := NewWallet(be, testAccount, testUSDC, discard())

	bal, err := w.USDCBalance(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !bal.Equal(decimal.RequireFromString("12.345678")) {
		t.Fatalf("balance = %s", bal)
	}

	if to := be.lastCall.To; to == nil || *to != testUSDC {
		t.Fatal("balanceOf must target the USDC contract")
	}
	wantData := append([]byte{0x70, 0xa0, 0x82, 0x31}, common.LeftPadBytes(testAccount.Bytes(), 32)...)
	if !bytes.Equal(be.lastCall.Data, wantData) {
		t.Fatalf("call data = %x", be.lastCall.Data)
	}
}

func TestNativeBalanceScaling(t *testing.T) {
	// 1.5 POL in wei.
	wei, _ := new(big.Int).SetString("1500000000000000000", 10)
	be := &fakeBackend{native: wei, usdcRaw: big.NewInt(0)}
	w := NewWallet(be, testAccount, testUSDC, discard())

	bal, err := w.NativeBalance(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !bal.Equal(decimal.RequireFromString("1.5")) {
		t.Fatalf("balance = %s", bal)
	}
}

func TestValidateTradingBalance(t *testing.T) {
	wei, _ := new(big.Int).SetString("1000000000000000000", 10)
	cases := []struct {
		name    string
		native  *big.Int
		usdcRaw *big.Int
		min     string
		want    bool
	}{
		{"sufficient", wei, big.NewInt(5_000_000), "1", true},
		{"exactly minimum", wei, big.NewInt(1_000_000), "1", true},
		{"usdc short", wei, big.NewInt(999_999), "1", false},
		{"no gas", big.NewInt(0), big.NewInt(5_000_000), "1", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			be := &fakeBackend{native: tc.native, usdcRaw: tc.usdcRaw}
			w := NewWallet(be, testAccount, testUSDC, discard())
			ok, err := w.ValidateTradingBalance(context.Background(), decimal.RequireFromString(tc.min))
			if err != nil {
				t.Fatal(err)
			}
			if ok != tc.want {
				t.Fatalf("ok = %v, want %v", ok, tc.want)
			}
		})
	}
}

func TestValidatePropagatesRPCError(t *testing.T) {
	be := &fakeBackend{native: big.NewInt(0), usdcRaw: big.NewInt(0), callErr: errors.New("rpc down")}
	w := NewWallet(be, testAccount, testUSDC, discard())
	if _, err := w.ValidateTradingBalance(context.Background(), decimal.NewFromInt(1)); err == nil {
		t.Fatal("rpc failure must propagate")
	}
}
