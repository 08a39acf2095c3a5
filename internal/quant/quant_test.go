package quant

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"

	"github.com/vulturelabs/vulturebot/internal/domain"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestFairValueAtStrike(t *testing.T) {
	for _, minutes := range []float64{0.5, 1, 5, 10, 15} {
		fair := FairValue(dec("98500"), dec("98500"), minutes)
		if fair.Sub(dec("0.50")).Abs().Cmp(dec("0.01")) >= 0 {
			t.Fatalf("minutes=%v: fair value at strike = %s, want ~0.50", minutes, fair)
		}
	}
}

func TestFairValueDirectionality(t *testing.T) {
	above := FairValue(dec("99000"), dec("98500"), 10)
	if above.Cmp(dec("0.50")) <= 0 {
		t.Fatalf("spot above strike: fair = %s, want > 0.50", above)
	}

	below := FairValue(dec("98000"), dec("98500"), 10)
	if below.Cmp(dec("0.50")) >= 0 {
		t.Fatalf("spot below strike: fair = %s, want < 0.50", below)
	}
}

func TestFairValueClamping(t *testing.T) {
	tests := []struct {
		name    string
		spot    string
		strike  string
		minutes float64
	}{
		{"far above near expiry", "110000", "98500", 1},
		{"far below near expiry", "80000", "98500", 1},
		{"expired", "99000", "98500", 0},
		{"negative minutes", "99000", "98500", -3},
		{"nan minutes", "99000", "98500", math.NaN()},
		{"inf minutes", "99000", "98500", math.Inf(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fair := FairValue(dec(tt.spot), dec(tt.strike), tt.minutes)
			if fair.Cmp(dec("0.01")) < 0 || fair.Cmp(dec("0.99")) > 0 {
				t.Fatalf("fair value %s outside [0.01, 0.99]", fair)
			}
		})
	}
}

func TestGammaCompression(t *testing.T) {
	// The same distance must move the probability further when less time
	// remains.
	near := FairValue(dec("98600"), dec("98500"), 2)
	far := FairValue(dec("98600"), dec("98500"), 14)
	if near.Cmp(far) <= 0 {
		t.Fatalf("near-expiry fair %s not greater than far-expiry fair %s", near, far)
	}
}

func TestSelectDirection(t *testing.T) {
	dir, fair := SelectDirection(dec("99000"), dec("98500"), 10)
	if dir != domain.DirectionUp {
		t.Fatalf("direction = %s, want UP", dir)
	}
	if fair.Cmp(dec("0.50")) <= 0 {
		t.Fatalf("UP fair = %s, want > 0.50", fair)
	}

	dir, fair = SelectDirection(dec("98000"), dec("98500"), 10)
	if dir != domain.DirectionDown {
		t.Fatalf("direction = %s, want DOWN", dir)
	}
	if fair.Cmp(dec("0.50")) <= 0 {
		t.Fatalf("DOWN fair = %s, want > 0.50 (complement of prob up)", fair)
	}

	// Exactly at strike trades UP.
	dir, _ = SelectDirection(dec("98500"), dec("98500"), 10)
	if dir != domain.DirectionUp {
		t.Fatalf("at-strike direction = %s, want UP", dir)
	}
}

func TestEntryTarget(t *testing.T) {
	if got := EntryTarget(dec("0.55"), dec("0.08")); !got.Equal(dec("0.47")) {
		t.Fatalf("EntryTarget = %s, want 0.47", got)
	}
	// Clamped at the floor.
	if got := EntryTarget(dec("0.05"), dec("0.08")); !got.Equal(dec("0.01")) {
		t.Fatalf("EntryTarget clamped = %s, want 0.01", got)
	}
}

func TestExitTargets(t *testing.T) {
	if got := TakeProfitTarget(dec("0.45"), dec("0.01")); !got.Equal(dec("0.46")) {
		t.Fatalf("TakeProfitTarget = %s, want 0.46", got)
	}
	if got := TakeProfitTarget(dec("0.99"), dec("0.05")); !got.Equal(dec("0.99")) {
		t.Fatalf("TakeProfitTarget clamped = %s, want 0.99", got)
	}
	if got := StopLossTarget(dec("0.45"), dec("0.10")); !got.Equal(dec("0.35")) {
		t.Fatalf("StopLossTarget = %s, want 0.35", got)
	}
}

func TestPositionSize(t *testing.T) {
	if got := PositionSize(dec("100"), dec("0.45")); !got.Equal(dec("222")) {
		t.Fatalf("PositionSize(100, 0.45) = %s, want 222", got)
	}
	if got := PositionSize(dec("100"), decimal.Zero); !got.Equal(decimal.Zero) {
		t.Fatalf("PositionSize(100, 0) = %s, want 0", got)
	}
	if got := PositionSize(dec("100"), dec("-0.10")); !got.Equal(decimal.Zero) {
		t.Fatalf("PositionSize(100, -0.10) = %s, want 0", got)
	}
}

func TestShouldReprice(t *testing.T) {
	if ShouldReprice(dec("0.45"), dec("0.46")) {
		t.Fatal("1 cent drift should not reprice")
	}
	if !ShouldReprice(dec("0.45"), dec("0.48")) {
		t.Fatal("3 cent drift should reprice")
	}
	// Exactly 2 cents is within tolerance.
	if ShouldReprice(dec("0.45"), dec("0.47")) {
		t.Fatal("2 cent drift should not reprice")
	}
}

func TestSpreadAcceptable(t *testing.T) {
	if !SpreadAcceptable(dec("0.03"), dec("0.05")) {
		t.Fatal("0.03 <= 0.05 should be acceptable")
	}
	if !SpreadAcceptable(dec("0.05"), dec("0.05")) {
		t.Fatal("spread equal to max should be acceptable")
	}
	if SpreadAcceptable(dec("0.06"), dec("0.05")) {
		t.Fatal("0.06 > 0.05 should be rejected")
	}
}

// Property: for fixed time remaining, fair value never decreases as the
// spot-strike distance grows, and always stays inside [0.01, 0.99].
func TestProperty_FairValueMonotoneAndBounded(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	strike := dec("98500")

	properties.Property("monotone in distance, bounded", prop.ForAll(
		func(spotA, spotB, minutes float64) bool {
			fairA := FairValue(decimal.NewFromFloat(spotA), strike, minutes)
			fairB := FairValue(decimal.NewFromFloat(spotB), strike, minutes)

			if fairA.Cmp(dec("0.01")) < 0 || fairA.Cmp(dec("0.99")) > 0 {
				return false
			}
			if spotA <= spotB {
				return fairA.Cmp(fairB) <= 0
			}
			return fairA.Cmp(fairB) >= 0
		},
		gen.Float64Range(50000, 150000),
		gen.Float64Range(50000, 150000),
		gen.Float64Range(0, 15),
	))

	properties.TestingRun(t)
}
