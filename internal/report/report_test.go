package report

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/fbaunit/internal/pricing"
)

func sampleInput(t *testing.T) Input {
	t.Helper()
	cfg := pricing.RateConfig{
		TaxRate:        0.06,
		CommissionRate: 0.15,
		TacosRate:      0.10,
		FulfillmentFee: 14.50,
		InboundFreight: 1.20,
		StorageFee:     0.45,
	}
	base := pricing.UnitInputs{SalePrice: 129.90, UnitCost: 35, InboundCost: 1.5, PrepCost: 1}

	res, err := pricing.Compute(cfg, base)
	require.NoError(t, err)
	scenarios, err := pricing.RunNamed(cfg, base, pricing.DefaultScenarios())
	require.NoError(t, err)
	sol, err := pricing.SolvePriceForMargin(cfg, base, 20, pricing.TierStandard)
	require.NoError(t, err)
	proj, err := pricing.Project(res, 100)
	require.NoError(t, err)

	return Input{
		Title:      "Bluetooth headset",
		Currency:   "BRL",
		Result:     res,
		Diagnosis:  pricing.Diagnose(res),
		Scenarios:  scenarios,
		Target:     &sol,
		TargetPct:  20,
		Projection: &proj,
	}
}

func TestMarkdown_ContainsSections(t *testing.T) {
	md := Markdown(sampleInput(t))

	for _, want := range []string{
		"# Bluetooth headset",
		"**Status:** profitable",
		"| Net profit | 35.98 BRL |",
		"| Taxes | -7.79 BRL |",
		"## Projection for 100 units",
		"- Net profit: 3598.10 BRL",
		"## Target price",
		"| pessimistic |",
		"## Diagnosis: 100/100 (healthy)",
	} {
		assert.Contains(t, md, want)
	}
	assert.NotContains(t, md, "Low-price fee", "zero lines are skipped")
}

func TestMarkdown_MinimalInput(t *testing.T) {
	res, err := pricing.Compute(pricing.RateConfig{TaxRate: 0.5, CommissionRate: 0.5}, pricing.UnitInputs{SalePrice: 10, UnitCost: 4})
	require.NoError(t, err)

	md := Markdown(Input{Result: res})
	assert.True(t, strings.HasPrefix(md, "# Unit economics"))
	assert.Contains(t, md, "loss-making")
	assert.Contains(t, md, "| Break-even price | unreachable |")
	assert.NotContains(t, md, "## Scenarios")
	assert.NotContains(t, md, "## Diagnosis")
}

func TestMarkdown_AmbiguousBreakEvenAndNonFiniteValues(t *testing.T) {
	cfg := pricing.RateConfig{LowPriceFixedFee: 5, LowPriceThreshold: 79}
	res, err := pricing.Compute(cfg, pricing.UnitInputs{SalePrice: 100, UnitCost: 77})
	require.NoError(t, err)

	md := Markdown(Input{Result: res})
	assert.Contains(t, md, "| Break-even price | ambiguous at the low-price threshold |")

	assert.NotPanics(t, func() {
		md = Markdown(Input{Result: pricing.Result{Markup: math.Inf(1)}})
	})
	assert.Contains(t, md, "| Markup | +Infx |")
}

func TestHTML_RendersTables(t *testing.T) {
	html, err := HTML(sampleInput(t))
	require.NoError(t, err)

	assert.Contains(t, html, "<h1>Bluetooth headset</h1>")
	assert.Contains(t, html, "<table>")
	assert.Contains(t, html, "<strong>Status:</strong>")
}
