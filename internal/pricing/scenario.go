package pricing

import (
	"fmt"
	"math"
	"strings"
)

// Grid holds forward results for every price × cost multiplier pair.
// Cells[i][j] is PriceMultipliers[i] combined with CostMultipliers[j].
type Grid struct {
	PriceMultipliers []float64  `json:"price_multipliers"`
	CostMultipliers  []float64  `json:"cost_multipliers"`
	Cells            [][]Result `json:"cells"`
}

// Scenario is a named perturbation of the base inputs.
//
// Multipliers are fractional adjustments: 0.1 means +10%, -0.1 means -10%.
// A non-nil override replaces the base value outright and wins over its multiplier.
type Scenario struct {
	Name            string   `json:"name" yaml:"name"`
	PriceMultiplier float64  `json:"price_multiplier" yaml:"price_multiplier"`
	CostMultiplier  float64  `json:"cost_multiplier" yaml:"cost_multiplier"`
	AdsMultiplier   float64  `json:"ads_multiplier" yaml:"ads_multiplier"`
	PriceOverride   *float64 `json:"price_override,omitempty" yaml:"price_override"`
	CostOverride    *float64 `json:"cost_override,omitempty" yaml:"cost_override"`
	AdsOverride     *float64 `json:"ads_override,omitempty" yaml:"ads_override"`
}

// NamedResult pairs a scenario name with its forward result.
type NamedResult struct {
	Name   string `json:"name"`
	Result Result `json:"result"`
}

// DefaultScenarios returns the pessimistic, base and optimistic presets.
func DefaultScenarios() []Scenario {
	return []Scenario{
		{Name: "pessimistic", PriceMultiplier: -0.10, CostMultiplier: 0.15, AdsMultiplier: 0.25},
		{Name: "base"},
		{Name: "optimistic", PriceMultiplier: 0.05, CostMultiplier: -0.05, AdsMultiplier: -0.15},
	}
}

// SensitivitySteps returns n evenly spaced multipliers from -spread to +spread.
// SensitivitySteps(0.2, 5) yields [-0.2 -0.1 0 0.1 0.2].
func SensitivitySteps(spread float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{0}
	}
	steps := make([]float64, n)
	width := 2 * spread / float64(n-1)
	for i := range steps {
		steps[i] = -spread + float64(i)*width
	}
	// Pin the midpoint so the base cell stays bit-identical to Compute(base).
	if n%2 == 1 {
		steps[n/2] = 0
	}
	return steps
}

// RunGrid evaluates every price × cost multiplier combination in caller order.
// Cost multipliers scale UnitCost only; inbound and prep costs stay fixed.
func RunGrid(cfg RateConfig, base UnitInputs, priceMultipliers, costMultipliers []float64) (Grid, error) {
	grid := Grid{
		PriceMultipliers: append([]float64(nil), priceMultipliers...),
		CostMultipliers:  append([]float64(nil), costMultipliers...),
		Cells:            make([][]Result, len(priceMultipliers)),
	}

	for i, pm := range priceMultipliers {
		row := make([]Result, len(costMultipliers))
		for j, cm := range costMultipliers {
			in := base
			in.SalePrice = adjust(base.SalePrice, pm)
			in.UnitCost = adjust(base.UnitCost, cm)

			res, err := Compute(cfg, in)
			if err != nil {
				return Grid{}, fmt.Errorf("grid cell price%+g cost%+g: %w", pm, cm, err)
			}
			row[j] = res
		}
		grid.Cells[i] = row
	}

	return grid, nil
}

// RunPriceSweep evaluates the base inputs at each price multiplier in order.
func RunPriceSweep(cfg RateConfig, base UnitInputs, priceMultipliers []float64) ([]Result, error) {
	grid, err := RunGrid(cfg, base, priceMultipliers, []float64{0})
	if err != nil {
		return nil, err
	}
	out := make([]Result, len(grid.Cells))
	for i, row := range grid.Cells {
		out[i] = row[0]
	}
	return out, nil
}

// RunNamed evaluates each scenario in declaration order.
func RunNamed(cfg RateConfig, base UnitInputs, scenarios []Scenario) ([]NamedResult, error) {
	seen := make(map[string]struct{}, len(scenarios))
	out := make([]NamedResult, 0, len(scenarios))

	for _, sc := range scenarios {
		name := strings.TrimSpace(sc.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: scenario name is required", ErrInvalidInput)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: duplicate scenario %q", ErrInvalidInput, name)
		}
		seen[name] = struct{}{}

		scCfg, in := sc.apply(cfg, base)
		res, err := Compute(scCfg, in)
		if err != nil {
			return nil, fmt.Errorf("scenario %q: %w", name, err)
		}
		out = append(out, NamedResult{Name: name, Result: res})
	}

	return out, nil
}

func (sc Scenario) apply(cfg RateConfig, base UnitInputs) (RateConfig, UnitInputs) {
	in := base
	in.SalePrice = override(sc.PriceOverride, adjust(base.SalePrice, sc.PriceMultiplier))
	in.UnitCost = override(sc.CostOverride, adjust(base.UnitCost, sc.CostMultiplier))
	cfg.TacosRate = override(sc.AdsOverride, adjust(cfg.TacosRate, sc.AdsMultiplier))
	return cfg, in
}

func adjust(v, m float64) float64 {
	if m == 0 {
		return v
	}
	return v * (1 + m)
}

func override(o *float64, fallback float64) float64 {
	if o == nil {
		return fallback
	}
	return *o
}

// Projection is a unit result scaled to a batch of units.
type Projection struct {
	Units      int     `json:"units"`
	Revenue    float64 `json:"revenue"`
	TotalCosts float64 `json:"total_costs"`
	NetProfit  float64 `json:"net_profit"`
}

// Project returns revenue, cost and profit for units sold at res.
func Project(res Result, units int) (Projection, error) {
	if units < 0 {
		return Projection{}, fmt.Errorf("%w: units must be >= 0, got %d", ErrInvalidInput, units)
	}
	n := float64(units)
	p := Projection{
		Units:      units,
		Revenue:    res.SalePrice * n,
		TotalCosts: res.TotalCosts * n,
		NetProfit:  res.NetProfit * n,
	}
	if !isFinite(p.Revenue) || !isFinite(p.TotalCosts) || !isFinite(p.NetProfit) {
		return Projection{}, fmt.Errorf("%w: projection overflows", ErrInvalidInput)
	}
	return p, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
