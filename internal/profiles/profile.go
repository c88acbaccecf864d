// Package profiles manages named rate configurations: presets read from YAML
// files and the catalog persisted in SQLite.
package profiles

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Simplici0/fbaunit/internal/pricing"
)

// DefaultName is the name of the built-in profile.
const DefaultName = "default"

// ErrNotFound is returned when a profile does not exist.
var ErrNotFound = errors.New("profile not found")

// Profile is a named RateConfig with its scenario presets.
type Profile struct {
	Name        string             `json:"name" yaml:"name"`
	Description string             `json:"description" yaml:"description"`
	Currency    string             `json:"currency" yaml:"currency"`
	Rates       pricing.RateConfig `json:"rates" yaml:"rates"`
	Scenarios   []pricing.Scenario `json:"scenarios" yaml:"scenarios"`
}

// Default returns the built-in marketplace profile: 6% tax, 16% commission,
// 10% TACOS, 3% returns, 14.50 fulfillment, 0.50 storage and a 5.00 fee below 79.
func Default() Profile {
	return Profile{
		Name:        DefaultName,
		Description: "Marketplace fulfillment defaults",
		Currency:    "BRL",
		Rates: pricing.RateConfig{
			TaxRate:           0.06,
			CommissionRate:    0.16,
			TacosRate:         0.10,
			ReturnLossRate:    0.03,
			FulfillmentFee:    14.50,
			StorageFee:        0.50,
			LowPriceFixedFee:  5.00,
			LowPriceThreshold: 79.00,
		},
		Scenarios: pricing.DefaultScenarios(),
	}
}

// Normalize trims text fields and fills the currency default.
func (p Profile) Normalize() Profile {
	p.Name = strings.TrimSpace(p.Name)
	p.Description = strings.TrimSpace(p.Description)
	p.Currency = strings.ToUpper(strings.TrimSpace(p.Currency))
	if p.Currency == "" {
		p.Currency = "BRL"
	}
	scenarios := make([]pricing.Scenario, len(p.Scenarios))
	for i, sc := range p.Scenarios {
		sc.Name = strings.TrimSpace(sc.Name)
		scenarios[i] = sc
	}
	p.Scenarios = scenarios
	return p
}

// Validate checks the profile name, its rates and its scenario presets.
func (p Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: profile name is required", pricing.ErrInvalidInput)
	}
	if err := p.Rates.Validate(); err != nil {
		return fmt.Errorf("profile %q: %w", p.Name, err)
	}

	seen := make(map[string]struct{}, len(p.Scenarios))
	for _, sc := range p.Scenarios {
		if sc.Name == "" {
			return fmt.Errorf("%w: profile %q: scenario name is required", pricing.ErrInvalidInput, p.Name)
		}
		if _, dup := seen[sc.Name]; dup {
			return fmt.Errorf("%w: profile %q: duplicate scenario %q", pricing.ErrInvalidInput, p.Name, sc.Name)
		}
		seen[sc.Name] = struct{}{}
		if sc.PriceOverride != nil || sc.CostOverride != nil || sc.AdsOverride != nil {
			return fmt.Errorf("%w: profile %q: scenario %q: presets support multipliers only",
				pricing.ErrInvalidInput, p.Name, sc.Name)
		}
	}
	return nil
}
