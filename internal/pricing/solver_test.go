package pricing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolvePriceForMargin_RoundTrip(t *testing.T) {
	cfg := referenceConfig()
	cfg.ReturnLossRate = 0.03
	costs := referenceInputs()

	for _, target := range []float64{-10, 5, 15, 20, 27.5, 40, 60} {
		sol, err := SolvePriceForMargin(cfg, costs, target, TierStandard)
		require.NoError(t, err, "target %v", target)

		in := costs
		in.SalePrice = sol.Price
		res, err := Compute(cfg, in)
		require.NoError(t, err)

		assert.InDelta(t, target, res.NetMarginPct, 1e-6*math.Max(1, math.Abs(target)), "target %v", target)
		assert.Equal(t, res, sol.Result, "solution carries its verified result")
	}
}

func TestSolvePriceForMargin_WithoutLowPriceTier(t *testing.T) {
	cfg := referenceConfig()
	cfg.LowPriceFixedFee = 0
	costs := referenceInputs()

	for _, target := range []float64{0, 12.5, 33} {
		sol, err := SolvePriceForMargin(cfg, costs, target, TierLowPrice)
		require.NoError(t, err)
		assert.Equal(t, TierStandard, sol.Tier)
		assert.False(t, sol.Retiered)
		assert.InDelta(t, target, sol.Result.NetMarginPct, 1e-6*math.Max(1, target))
	}

	// Target 0 is the break-even price.
	sol, err := SolvePriceForMargin(cfg, costs, 0, TierStandard)
	require.NoError(t, err)
	be, err := BreakEvenPrice(cfg, costs)
	require.NoError(t, err)
	assert.InDelta(t, be, sol.Price, 1e-9)
}

func TestSolvePriceForMargin_HonorsConsistentHint(t *testing.T) {
	cfg := referenceConfig()
	costs := UnitInputs{UnitCost: 5}

	sol, err := SolvePriceForMargin(cfg, costs, 10, TierLowPrice)
	require.NoError(t, err)

	assert.Equal(t, TierLowPrice, sol.Tier)
	assert.False(t, sol.Retiered)
	assert.Less(t, sol.Price, cfg.LowPriceThreshold)
	assert.InDelta(t, 5.0, sol.Result.FixedFeeAmount, 1e-12)
}

func TestSolvePriceForMargin_RetiersInconsistentHint(t *testing.T) {
	cfg := referenceConfig()
	costs := referenceInputs()

	// Without the fee the price lands below 79, so the low-price tier must be used.
	sol, err := SolvePriceForMargin(cfg, costs, -10, TierStandard)
	require.NoError(t, err)

	assert.Equal(t, TierLowPrice, sol.Tier)
	assert.True(t, sol.Retiered)
	assert.InDelta(t, -10, sol.Result.NetMarginPct, 1e-5)
}

func TestSolvePriceForMargin_AmbiguousAtThreshold(t *testing.T) {
	_, err := SolvePriceForMargin(referenceConfig(), referenceInputs(), 0, TierStandard)
	require.ErrorIs(t, err, ErrAmbiguous)
}

func TestSolvePriceForMargin_InfeasibleTargets(t *testing.T) {
	cfg := referenceConfig()

	_, err := SolvePriceForMargin(cfg, referenceInputs(), 70, TierStandard)
	require.ErrorIs(t, err, ErrInfeasible)

	saturated := RateConfig{TaxRate: 0.5, CommissionRate: 0.25, TacosRate: 0.25, FulfillmentFee: 3}
	for target := 0.0; target <= 100; target += 5 {
		_, err := SolvePriceForMargin(saturated, referenceInputs(), target, TierStandard)
		require.ErrorIs(t, err, ErrInfeasible, "target %v", target)
	}

	over := RateConfig{TaxRate: 0.4, CommissionRate: 0.4, TacosRate: 0.3}
	_, err = SolvePriceForMargin(over, referenceInputs(), 0, TierStandard)
	require.ErrorIs(t, err, ErrInfeasible)
	_, err = BreakEvenPrice(over, referenceInputs())
	require.ErrorIs(t, err, ErrInfeasible)
}

func TestSolvePriceForMargin_ZeroFixedCostsIsInfeasible(t *testing.T) {
	_, err := SolvePriceForMargin(RateConfig{TaxRate: 0.1}, UnitInputs{}, 20, TierStandard)
	require.ErrorIs(t, err, ErrInfeasible)
}

func TestSolvePriceForMargin_RejectsInvalidInput(t *testing.T) {
	_, err := SolvePriceForMargin(referenceConfig(), referenceInputs(), math.NaN(), TierStandard)
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = SolvePriceForMargin(referenceConfig(), UnitInputs{UnitCost: -1}, 10, TierStandard)
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = SolvePriceForMargin(referenceConfig(), referenceInputs(), 10, Tier(7))
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestParseTier(t *testing.T) {
	tier, err := ParseTier(" Low_Price ")
	require.NoError(t, err)
	assert.Equal(t, TierLowPrice, tier)

	tier, err = ParseTier("")
	require.NoError(t, err)
	assert.Equal(t, TierStandard, tier)

	_, err = ParseTier("premium")
	require.ErrorIs(t, err, ErrInvalidInput)

	text, err := TierLowPrice.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "low_price", string(text))
}
