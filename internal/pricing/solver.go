package pricing

import (
	"fmt"
	"math"
	"strings"
)

// marginTolerance is the relative tolerance a solved price must reproduce its target within.
const marginTolerance = 1e-6

// Tier identifies which side of the low-price threshold a price is expected to land on.
type Tier int

const (
	// TierStandard assumes price >= LowPriceThreshold, so no low-price fee is charged.
	TierStandard Tier = iota
	// TierLowPrice assumes price < LowPriceThreshold, so the low-price fee is charged.
	TierLowPrice
)

func (t Tier) String() string {
	switch t {
	case TierStandard:
		return "standard"
	case TierLowPrice:
		return "low_price"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

func (t Tier) other() Tier {
	if t == TierLowPrice {
		return TierStandard
	}
	return TierLowPrice
}

// MarshalText implements encoding.TextMarshaler.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Tier) UnmarshalText(b []byte) error {
	parsed, err := ParseTier(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseTier parses "standard" or "low_price". An empty string is TierStandard.
func ParseTier(s string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "standard":
		return TierStandard, nil
	case "low_price", "low":
		return TierLowPrice, nil
	default:
		return TierStandard, fmt.Errorf("%w: unknown tier %q", ErrInvalidInput, s)
	}
}

// Solution is a verified sale price for a target margin.
type Solution struct {
	Price    float64 `json:"price"`
	Tier     Tier    `json:"tier"`
	Retiered bool    `json:"retiered"`
	Result   Result  `json:"result"`
}

// SolvePriceForMargin returns the sale price whose net margin equals
// targetMarginPct for the costs in costs (SalePrice is ignored).
//
// The low-price fee depends on the price being solved for, so the caller
// states the tier it expects via hint. If the solved price lands in the other
// tier, the other tier is solved instead and Solution.Retiered is set; if
// neither tier is self-consistent ErrAmbiguous is returned.
func SolvePriceForMargin(cfg RateConfig, costs UnitInputs, targetMarginPct float64, hint Tier) (Solution, error) {
	if err := cfg.Validate(); err != nil {
		return Solution{}, err
	}
	if err := costs.validateCosts(); err != nil {
		return Solution{}, err
	}
	if math.IsNaN(targetMarginPct) || math.IsInf(targetMarginPct, 0) {
		return Solution{}, fmt.Errorf("%w: target_margin_pct must be finite", ErrInvalidInput)
	}
	if hint != TierStandard && hint != TierLowPrice {
		return Solution{}, fmt.Errorf("%w: unknown tier %v", ErrInvalidInput, hint)
	}

	denom := 1 - cfg.ProportionalRate() - targetMarginPct/100
	if denom <= 0 {
		return Solution{}, fmt.Errorf("%w: target margin %.2f%% unreachable, proportional rates sum to %.4f",
			ErrInfeasible, targetMarginPct, cfg.ProportionalRate())
	}

	fixed := cfg.perUnitFixed(costs.Cogs())
	if fixed == 0 {
		return Solution{}, fmt.Errorf("%w: without fixed costs the margin is constant at %.2f%%",
			ErrInfeasible, (1-cfg.ProportionalRate())*100)
	}

	sol := Solution{Tier: TierStandard}
	if !cfg.HasLowPriceTier() {
		sol.Price = fixed / denom
	} else {
		price, ok := solveTier(cfg, fixed, denom, hint)
		sol.Tier = hint
		if !ok {
			price, ok = solveTier(cfg, fixed, denom, hint.other())
			if !ok {
				return Solution{}, fmt.Errorf("%w: no self-consistent price around threshold %.2f",
					ErrAmbiguous, cfg.LowPriceThreshold)
			}
			sol.Tier = hint.other()
			sol.Retiered = true
		}
		sol.Price = price
	}

	costs.SalePrice = sol.Price
	res, err := Compute(cfg, costs)
	if err != nil {
		return Solution{}, err
	}
	if !withinTolerance(res.NetMarginPct, targetMarginPct) {
		return Solution{}, fmt.Errorf("%w: price %.6f yields margin %.9f%%, want %.9f%%",
			ErrVerification, sol.Price, res.NetMarginPct, targetMarginPct)
	}
	sol.Result = res

	return sol, nil
}

// solveTier solves under tier and reports whether the price falls inside it.
func solveTier(cfg RateConfig, fixed, denom float64, tier Tier) (float64, bool) {
	if tier == TierLowPrice {
		price := (fixed + cfg.LowPriceFixedFee) / denom
		return price, price < cfg.LowPriceThreshold
	}
	price := fixed / denom
	return price, price >= cfg.LowPriceThreshold
}

func withinTolerance(got, want float64) bool {
	return math.Abs(got-want) <= marginTolerance*math.Max(1, math.Abs(want))
}
