package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrNoActiveMarket   = errors.New("no active market")
	ErrNoLiquidity      = errors.New("order book has no liquidity")
	ErrNoPrice          = errors.New("spot price not available")
	ErrInsufficientCash = errors.New("insufficient cash")
	ErrNoPosition       = errors.New("no open position")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrRateLimited      = errors.New("rate limited")
	ErrSigningFailed    = errors.New("signing failed")
)
