// Package quant implements the fair-value model for 15-minute up/down
// markets and the pure pricing helpers used by the strategy.
//
// The model prices the UP outcome as 0.50 plus the distance from strike
// scaled by a time-dependent sensitivity. The sensitivity shrinks linearly
// with time remaining down to a floor, so a fixed-width spot move produces
// a larger probability swing close to expiry (gamma compression).
package quant

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/vulturelabs/vulturebot/internal/domain"
)

// Probability bounds. Every price-like output is clamped into this range.
var (
	probFloor = decimal.RequireFromString("0.01")
	probCeil  = decimal.RequireFromString("0.99")

	half = decimal.RequireFromString("0.50")

	// repriceDrift is the order-price drift beyond which a resting order
	// should be replaced.
	repriceDrift = decimal.RequireFromString("0.02")
)

// sensitivityFloor is the minimum distance-to-probability divisor, reached
// one minute before expiry.
const sensitivityFloor = 20.0

// FairValue returns the model probability that the UP outcome resolves
// true, clamped to [0.01, 0.99].
//
// At 15 minutes remaining the sensitivity is 300; at one minute it bottoms
// out at 20. Non-finite or negative minutesRemaining collapses to the
// floor, making the estimate maximally reactive.
func FairValue(spot, strike decimal.Decimal, minutesRemaining float64) decimal.Decimal {
	distance := spot.Sub(strike)

	sens := minutesRemaining * sensitivityFloor
	if math.IsNaN(sens) || math.IsInf(sens, 0) || sens < sensitivityFloor {
		sens = sensitivityFloor
	}

	probUp := half.Add(distance.Div(decimal.NewFromFloat(sens)))
	return clamp(probUp)
}

// SelectDirection picks the outcome token to trade and its fair value. Spot
// at or above strike trades UP with the raw probability; below strike
// trades DOWN with the complement.
func SelectDirection(spot, strike decimal.Decimal, minutesRemaining float64) (domain.Direction, decimal.Decimal) {
	probUp := FairValue(spot, strike, minutesRemaining)
	if spot.Cmp(strike) >= 0 {
		return domain.DirectionUp, probUp
	}
	return domain.DirectionDown, decimal.NewFromInt(1).Sub(probUp)
}

// EntryTarget returns the conservative limit-buy target: fair value less
// the panic discount.
func EntryTarget(fairValue, panicDiscount decimal.Decimal) decimal.Decimal {
	return clamp(fairValue.Sub(panicDiscount))
}

// TakeProfitTarget returns the profit exit trigger above entry.
func TakeProfitTarget(entryPrice, scalpProfit decimal.Decimal) decimal.Decimal {
	return clamp(entryPrice.Add(scalpProfit))
}

// StopLossTarget returns the loss exit trigger below entry.
func StopLossTarget(entryPrice, stopLossThreshold decimal.Decimal) decimal.Decimal {
	return clamp(entryPrice.Sub(stopLossThreshold))
}

// PositionSize returns the whole number of shares maxCapital buys at
// entryPrice. Zero when entryPrice is not positive.
func PositionSize(maxCapital, entryPrice decimal.Decimal) decimal.Decimal {
	if entryPrice.Cmp(decimal.Zero) <= 0 {
		return decimal.Zero
	}
	return maxCapital.Div(entryPrice).Floor()
}

// ShouldReprice reports whether a resting order has drifted more than two
// cents from the new target and should be replaced.
func ShouldReprice(currentPrice, newTarget decimal.Decimal) bool {
	return currentPrice.Sub(newTarget).Abs().Cmp(repriceDrift) > 0
}

// SpreadAcceptable reports whether the bid-ask spread is within bounds.
func SpreadAcceptable(spread, maxSpread decimal.Decimal) bool {
	return spread.Cmp(maxSpread) <= 0
}

func clamp(v decimal.Decimal) decimal.Decimal {
	if v.Cmp(probFloor) < 0 {
		return probFloor
	}
	if v.Cmp(probCeil) > 0 {
		return probCeil
	}
	return v
}
