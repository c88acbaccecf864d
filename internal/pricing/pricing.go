// Package pricing computes per-unit fulfillment economics: the forward cost
// decomposition of a sale, its break-even price, the inverse price-for-margin
// solve and scenario grids built on top of them.
//
// Every function is pure. Configuration is passed by value on each call.
package pricing

import (
	"errors"
	"fmt"
	"math"
)

// RateConfig represents the marketplace rate structure shared across calculations.
type RateConfig struct {
	TaxRate        float64 `json:"tax_rate" yaml:"tax_rate"`
	CommissionRate float64 `json:"commission_rate" yaml:"commission_rate"`
	TacosRate      float64 `json:"tacos_rate" yaml:"tacos_rate"`
	ReturnLossRate float64 `json:"return_loss_rate" yaml:"return_loss_rate"`

	FulfillmentFee float64 `json:"fulfillment_fee" yaml:"fulfillment_fee"`
	InboundFreight float64 `json:"inbound_freight" yaml:"inbound_freight"`
	StorageFee     float64 `json:"storage_fee" yaml:"storage_fee"`
	MiscFixed      float64 `json:"misc_fixed" yaml:"misc_fixed"`

	LowPriceFixedFee  float64 `json:"low_price_fixed_fee" yaml:"low_price_fixed_fee"`
	LowPriceThreshold float64 `json:"low_price_threshold" yaml:"low_price_threshold"`
}

// UnitInputs represents the per-unit price and acquisition costs of one sale.
type UnitInputs struct {
	SalePrice   float64 `json:"sale_price"`
	UnitCost    float64 `json:"unit_cost"`
	InboundCost float64 `json:"inbound_cost"`
	PrepCost    float64 `json:"prep_cost"`
}

// BreakEven is the break-even price, or Feasible=false when no price has
// zero net profit. Ambiguous marks the low-price threshold gap: the price
// without the fee lands below the threshold and the price with it lands above.
type BreakEven struct {
	Price     float64 `json:"break_even_price"`
	Feasible  bool    `json:"break_even_feasible"`
	Ambiguous bool    `json:"break_even_ambiguous"`
}

// Result contains every deduction and metric of a forward calculation.
type Result struct {
	SalePrice float64 `json:"sale_price"`

	TaxAmount        float64 `json:"tax_amount"`
	CommissionAmount float64 `json:"commission_amount"`
	AdsAmount        float64 `json:"ads_amount"`
	ReturnLossAmount float64 `json:"return_loss_amount"`

	FulfillmentAmount    float64 `json:"fulfillment_amount"`
	InboundFreightAmount float64 `json:"inbound_freight_amount"`
	StorageAmount        float64 `json:"storage_amount"`
	FixedFeeAmount       float64 `json:"fixed_fee_amount"`
	MiscAmount           float64 `json:"misc_amount"`

	CogsTotal  float64 `json:"cogs_total"`
	TotalCosts float64 `json:"total_costs"`
	NetProfit  float64 `json:"net_profit"`

	NetMarginPct   float64 `json:"net_margin_pct"`
	GrossMarginPct float64 `json:"gross_margin_pct"`
	RoiPct         float64 `json:"roi_pct"`
	Markup         float64 `json:"markup"`

	BreakEven BreakEven `json:"break_even"`
}

// ProportionalRate returns the sum of all revenue-proportional fractions.
func (c RateConfig) ProportionalRate() float64 {
	return c.TaxRate + c.CommissionRate + c.TacosRate + c.ReturnLossRate
}

// HasLowPriceTier reports whether the low-price fixed fee can ever apply.
func (c RateConfig) HasLowPriceTier() bool {
	return c.LowPriceFixedFee > 0 && c.LowPriceThreshold > 0
}

// fixedFee returns the tiered fixed fee charged at price.
func (c RateConfig) fixedFee(price float64) float64 {
	if price < c.LowPriceThreshold {
		return c.LowPriceFixedFee
	}
	return 0
}

// perUnitFixed returns all price-independent charges except the tiered fee.
func (c RateConfig) perUnitFixed(cogs float64) float64 {
	return cogs + c.FulfillmentFee + c.InboundFreight + c.StorageFee + c.MiscFixed
}

// Validate checks that every rate is a fraction in [0,1) and every amount is non-negative.
func (c RateConfig) Validate() error {
	rates := []struct {
		name  string
		value float64
	}{
		{"tax_rate", c.TaxRate},
		{"commission_rate", c.CommissionRate},
		{"tacos_rate", c.TacosRate},
		{"return_loss_rate", c.ReturnLossRate},
	}
	for _, r := range rates {
		if err := checkFraction(r.name, r.value); err != nil {
			return err
		}
	}

	amounts := []struct {
		name  string
		value float64
	}{
		{"fulfillment_fee", c.FulfillmentFee},
		{"inbound_freight", c.InboundFreight},
		{"storage_fee", c.StorageFee},
		{"misc_fixed", c.MiscFixed},
		{"low_price_fixed_fee", c.LowPriceFixedFee},
		{"low_price_threshold", c.LowPriceThreshold},
	}
	for _, a := range amounts {
		if err := checkNonNegative(a.name, a.value); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks that price and costs are finite and non-negative.
func (in UnitInputs) Validate() error {
	if err := checkNonNegative("sale_price", in.SalePrice); err != nil {
		return err
	}
	return in.validateCosts()
}

func (in UnitInputs) validateCosts() error {
	if err := checkNonNegative("unit_cost", in.UnitCost); err != nil {
		return err
	}
	if err := checkNonNegative("inbound_cost", in.InboundCost); err != nil {
		return err
	}
	return checkNonNegative("prep_cost", in.PrepCost)
}

// Cogs returns acquisition cost plus inbound and prep.
func (in UnitInputs) Cogs() float64 {
	return in.UnitCost + in.InboundCost + in.PrepCost
}

// Compute derives the full cost breakdown and profitability metrics for one unit.
func Compute(cfg RateConfig, in UnitInputs) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	if err := in.Validate(); err != nil {
		return Result{}, err
	}

	price := in.SalePrice
	cogs := in.Cogs()

	taxAmount := price * cfg.TaxRate
	commissionAmount := price * cfg.CommissionRate
	adsAmount := price * cfg.TacosRate
	returnLossAmount := price * cfg.ReturnLossRate
	fixedFeeAmount := cfg.fixedFee(price)

	totalCosts := taxAmount + commissionAmount + adsAmount + returnLossAmount +
		cfg.FulfillmentFee + cfg.InboundFreight + cfg.StorageFee + fixedFeeAmount + cfg.MiscFixed +
		cogs
	netProfit := price - totalCosts

	res := Result{
		SalePrice:            price,
		TaxAmount:            taxAmount,
		CommissionAmount:     commissionAmount,
		AdsAmount:            adsAmount,
		ReturnLossAmount:     returnLossAmount,
		FulfillmentAmount:    cfg.FulfillmentFee,
		InboundFreightAmount: cfg.InboundFreight,
		StorageAmount:        cfg.StorageFee,
		FixedFeeAmount:       fixedFeeAmount,
		MiscAmount:           cfg.MiscFixed,
		CogsTotal:            cogs,
		TotalCosts:           totalCosts,
		NetProfit:            netProfit,
		NetMarginPct:         percentOf(netProfit, price),
		GrossMarginPct:       percentOf(price-cogs, price),
		RoiPct:               percentOf(netProfit, cogs),
		Markup:               ratio(price, cogs),
	}

	if err := res.checkFinite(); err != nil {
		return Result{}, err
	}

	be, err := breakEven(cfg, cogs)
	switch {
	case err == nil:
		res.BreakEven = BreakEven{Price: be, Feasible: true}
	case errors.Is(err, ErrAmbiguous):
		res.BreakEven = BreakEven{Ambiguous: true}
	}

	return res, nil
}

// BreakEvenPrice returns the sale price at which net profit reaches zero
// for the costs in in. SalePrice is ignored. It fails with ErrInfeasible when
// the proportional rates consume all revenue, and with ErrAmbiguous when no
// zero-profit price exists on either side of the low-price threshold.
func BreakEvenPrice(cfg RateConfig, in UnitInputs) (float64, error) {
	if err := cfg.Validate(); err != nil {
		return 0, err
	}
	if err := in.validateCosts(); err != nil {
		return 0, err
	}
	return breakEven(cfg, in.Cogs())
}

// breakEven resolves the low-price tier from the solution it lands on.
func breakEven(cfg RateConfig, cogs float64) (float64, error) {
	denom := 1 - cfg.ProportionalRate()
	if denom <= 0 {
		return 0, fmt.Errorf("%w: proportional rates sum to %.4f", ErrInfeasible, cfg.ProportionalRate())
	}

	fixed := cfg.perUnitFixed(cogs)
	standard := fixed / denom
	if !cfg.HasLowPriceTier() || standard >= cfg.LowPriceThreshold {
		return standard, nil
	}

	low := (fixed + cfg.LowPriceFixedFee) / denom
	if low < cfg.LowPriceThreshold {
		return low, nil
	}

	// Below the threshold every price loses money with the fee, and at the
	// threshold the unit is already profitable without it.
	return 0, fmt.Errorf("%w: break-even jumps across threshold %.2f (%.4f without fee, %.4f with it)",
		ErrAmbiguous, cfg.LowPriceThreshold, standard, low)
}

// checkFinite rejects results that overflowed float64 even though every
// input was finite.
func (r Result) checkFinite() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"cogs_total", r.CogsTotal},
		{"total_costs", r.TotalCosts},
		{"net_profit", r.NetProfit},
		{"net_margin_pct", r.NetMarginPct},
		{"gross_margin_pct", r.GrossMarginPct},
		{"roi_pct", r.RoiPct},
		{"markup", r.Markup},
	}
	for _, f := range fields {
		if !isFinite(f.value) {
			return fmt.Errorf("%w: %s overflows", ErrInvalidInput, f.name)
		}
	}
	return nil
}

func percentOf(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return part / whole * 100
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

func checkFraction(field string, v float64) error {
	if math.IsNaN(v) || v < 0 || v >= 1 {
		return fmt.Errorf("%w: %s must be in [0, 1), got %v", ErrInvalidInput, field, v)
	}
	return nil
}

func checkNonNegative(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return fmt.Errorf("%w: %s must be a finite value >= 0, got %v", ErrInvalidInput, field, v)
	}
	return nil
}
