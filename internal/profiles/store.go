package profiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Simplici0/fbaunit/internal/pricing"
)

// Store persists profiles in the rate_profiles and scenario_presets tables.
type Store struct {
	db *sql.DB
}

// NewStore returns a Store backed by db.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const selectProfile = `
	SELECT
		name,
		COALESCE(description, ''),
		currency,
		tax_rate,
		commission_rate,
		tacos_rate,
		return_loss_rate,
		fulfillment_fee,
		inbound_freight,
		storage_fee,
		misc_fixed,
		low_price_fixed_fee,
		low_price_threshold
	FROM rate_profiles
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (Profile, error) {
	var p Profile
	err := row.Scan(
		&p.Name,
		&p.Description,
		&p.Currency,
		&p.Rates.TaxRate,
		&p.Rates.CommissionRate,
		&p.Rates.TacosRate,
		&p.Rates.ReturnLossRate,
		&p.Rates.FulfillmentFee,
		&p.Rates.InboundFreight,
		&p.Rates.StorageFee,
		&p.Rates.MiscFixed,
		&p.Rates.LowPriceFixedFee,
		&p.Rates.LowPriceThreshold,
	)
	return p, err
}

// List returns every profile ordered by name.
func (s *Store) List(ctx context.Context) ([]Profile, error) {
	rows, err := s.db.QueryContext(ctx, selectProfile+` ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query rate profiles: %w", err)
	}
	defer rows.Close()

	list := make([]Profile, 0)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rate profile: %w", err)
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rate profiles: %w", err)
	}

	for i := range list {
		scenarios, err := listScenarios(ctx, s.db, list[i].Name)
		if err != nil {
			return nil, err
		}
		list[i].Scenarios = scenarios
	}

	return list, nil
}

// Get returns the profile called name or ErrNotFound.
func (s *Store) Get(ctx context.Context, name string) (Profile, error) {
	p, err := scanProfile(s.db.QueryRowContext(ctx, selectProfile+` WHERE name = ?`, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Profile{}, fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		return Profile{}, fmt.Errorf("query rate profile %q: %w", name, err)
	}

	p.Scenarios, err = listScenarios(ctx, s.db, name)
	if err != nil {
		return Profile{}, err
	}
	return p, nil
}

// Upsert validates p and creates or replaces it, including its scenario presets.
func (s *Store) Upsert(ctx context.Context, p Profile) error {
	p = p.Normalize()
	if err := p.Validate(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert transaction: %w", err)
	}
	if err := upsert(ctx, tx, p); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert transaction: %w", err)
	}
	return nil
}

// EnsureAll inserts each profile that does not exist yet, leaving existing
// ones untouched, and returns how many were inserted.
func (s *Store) EnsureAll(ctx context.Context, list []Profile) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin ensure transaction: %w", err)
	}

	inserted := 0
	for _, p := range list {
		p = p.Normalize()
		if err := p.Validate(); err != nil {
			_ = tx.Rollback()
			return 0, err
		}

		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM rate_profiles WHERE name = ? LIMIT 1)`, p.Name).Scan(&exists); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("check rate profile existence: %w", err)
		}
		if exists {
			continue
		}

		if err := upsert(ctx, tx, p); err != nil {
			_ = tx.Rollback()
			return 0, err
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit ensure transaction: %w", err)
	}
	return inserted, nil
}

// Delete removes the profile called name and its presets, or returns ErrNotFound.
func (s *Store) Delete(ctx context.Context, name string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM scenario_presets WHERE profile_name = ?`, name); err != nil {
		return fmt.Errorf("delete scenario presets of %q: %w", name, err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM rate_profiles WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete rate profile %q: %w", name, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete rate profile %q: %w", name, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete transaction: %w", err)
	}
	return nil
}

func upsert(ctx context.Context, q queryer, p Profile) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO rate_profiles (
			name,
			description,
			currency,
			tax_rate,
			commission_rate,
			tacos_rate,
			return_loss_rate,
			fulfillment_fee,
			inbound_freight,
			storage_fee,
			misc_fixed,
			low_price_fixed_fee,
			low_price_threshold
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			description = excluded.description,
			currency = excluded.currency,
			tax_rate = excluded.tax_rate,
			commission_rate = excluded.commission_rate,
			tacos_rate = excluded.tacos_rate,
			return_loss_rate = excluded.return_loss_rate,
			fulfillment_fee = excluded.fulfillment_fee,
			inbound_freight = excluded.inbound_freight,
			storage_fee = excluded.storage_fee,
			misc_fixed = excluded.misc_fixed,
			low_price_fixed_fee = excluded.low_price_fixed_fee,
			low_price_threshold = excluded.low_price_threshold,
			updated_at = CURRENT_TIMESTAMP
	`,
		p.Name,
		p.Description,
		p.Currency,
		p.Rates.TaxRate,
		p.Rates.CommissionRate,
		p.Rates.TacosRate,
		p.Rates.ReturnLossRate,
		p.Rates.FulfillmentFee,
		p.Rates.InboundFreight,
		p.Rates.StorageFee,
		p.Rates.MiscFixed,
		p.Rates.LowPriceFixedFee,
		p.Rates.LowPriceThreshold,
	)
	if err != nil {
		return fmt.Errorf("upsert rate profile %q: %w", p.Name, err)
	}

	if _, err := q.ExecContext(ctx, `DELETE FROM scenario_presets WHERE profile_name = ?`, p.Name); err != nil {
		return fmt.Errorf("clear scenario presets of %q: %w", p.Name, err)
	}
	for i, sc := range p.Scenarios {
		if _, err := q.ExecContext(ctx, `
			INSERT INTO scenario_presets (profile_name, position, name, price_multiplier, cost_multiplier, ads_multiplier)
			VALUES (?, ?, ?, ?, ?, ?)
		`, p.Name, i, sc.Name, sc.PriceMultiplier, sc.CostMultiplier, sc.AdsMultiplier); err != nil {
			return fmt.Errorf("insert scenario preset %q of %q: %w", sc.Name, p.Name, err)
		}
	}
	return nil
}

func listScenarios(ctx context.Context, q queryer, profile string) ([]pricing.Scenario, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT name, price_multiplier, cost_multiplier, ads_multiplier
		FROM scenario_presets
		WHERE profile_name = ?
		ORDER BY position
	`, profile)
	if err != nil {
		return nil, fmt.Errorf("query scenario presets of %q: %w", profile, err)
	}
	defer rows.Close()

	scenarios := make([]pricing.Scenario, 0)
	for rows.Next() {
		var sc pricing.Scenario
		if err := rows.Scan(&sc.Name, &sc.PriceMultiplier, &sc.CostMultiplier, &sc.AdsMultiplier); err != nil {
			return nil, fmt.Errorf("scan scenario preset: %w", err)
		}
		scenarios = append(scenarios, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scenario presets: %w", err)
	}
	return scenarios, nil
}
