// Package wallet reads on-chain balances for the trading account: native
// POL for gas and USDC collateral. It is consulted once at startup, never
// on the trading path.
package wallet

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"
)

// balanceOfSelector is the 4-byte selector of ERC-20 balanceOf(address).
var balanceOfSelector = []byte{0x70, 0xa0, 0x82, 0x31}

const (
	nativeDecimals = 18
	usdcDecimals   = 6
)

// Backend is the subset of the RPC client the wallet needs.
type Backend interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Wallet checks balances for one account against one USDC contract.
type Wallet struct {
	backend Backend
	address common.Address
	usdc    common.Address
	logger  *slog.Logger
}

// Dial connects to the RPC endpoint and returns a wallet for the account.
func Dial(ctx context.Context, rpcURL string, address, usdc common.Address, logger *slog.Logger) (*Wallet, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("wallet: dial %s: %w", rpcURL, err)
	}
	return NewWallet(client, address, usdc, logger), nil
}

// NewWallet wraps an existing backend.
func NewWallet(backend Backend, address, usdc common.Address, logger *slog.Logger) *Wallet {
	return &Wallet{
		backend: backend,
		address: address,
		usdc:    usdc,
		logger:  logger.With(slog.String("component", "wallet")),
	}
}

// Address returns the account being checked.
func (w *Wallet) Address() common.Address { return w.address }

// NativeBalance returns the gas token balance in whole POL.
func (w *Wallet) NativeBalance(ctx context.Context) (decimal.Decimal, error) {
	bal, err := w.backend.BalanceAt(ctx, w.address, nil)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("wallet: native balance: %w", err)
	}
	return decimal.NewFromBigInt(bal, -nativeDecimals), nil
}

// USDCBalance returns the collateral balance in whole USDC.
func (w *Wallet) USDCBalance(ctx context.Context) (decimal.Decimal, error) {
	data := make([]byte, 0, 36)
	data = append(data, balanceOfSelector...)
	data = append(data, common.LeftPadBytes(w.address.Bytes(), 32)...)

	out, err := w.backend.CallContract(ctx, ethereum.CallMsg{To: &w.usdc, Data: data}, nil)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("wallet: usdc balanceOf: %w", err)
	}
	if len(out) < 32 {
		return decimal.Decimal{}, fmt.Errorf("wallet: usdc balanceOf: short return (%d bytes)", len(out))
	}
	raw := new(big.Int).SetBytes(out[:32])
	return decimal.NewFromBigInt(raw, -usdcDecimals), nil
}

// ValidateTradingBalance reports whether the account holds at least minimum
// USDC and any gas at all. It logs both balances either way.
func (w *Wallet) ValidateTradingBalance(ctx context.Context, minimum decimal.Decimal) (bool, error) {
	usdc, err := w.USDCBalance(ctx)
	if err != nil {
		return false, err
	}
	native, err := w.NativeBalance(ctx)
	if err != nil {
		return false, err
	}

	w.logger.Info("wallet balances",
		slog.String("address", w.address.Hex()),
		slog.String("usdc", usdc.String()),
		slog.String("native", native.String()),
	)

	if usdc.Cmp(minimum) < 0 {
		w.logger.Warn("insufficient USDC for trading",
			slog.String("have", usdc.String()),
			slog.String("need", minimum.String()),
		)
		return false, nil
	}
	if native.Cmp(decimal.Zero) <= 0 {
		w.logger.Warn("no gas token balance")
		return false, nil
	}
	return true, nil
}
