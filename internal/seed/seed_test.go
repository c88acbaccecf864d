package seed

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Simplici0/fbaunit/internal/db"
	"github.com/Simplici0/fbaunit/internal/migrations"
	"github.com/Simplici0/fbaunit/internal/profiles"
)

func openMigrated(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	dbPath := filepath.Join(t.TempDir(), "seed-test.db")
	database, err := db.Open(ctx, dbPath)
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	if _, err := migrations.Up(ctx, database); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return database
}

func TestRunIsIdempotent(t *testing.T) {
	t.Parallel()
	database := openMigrated(t)

	for i := 0; i < 10; i++ {
		stats, err := Run(context.Background(), database, Config{})
		if err != nil {
			t.Fatalf("run seed (iteration=%d): %v", i, err)
		}
		if i == 0 {
			if stats.Inserts != 1 {
				t.Fatalf("expected 1 insert in first run, got %d", stats.Inserts)
			}
			continue
		}
		if stats.Inserts != 0 || stats.Skipped != 1 {
			t.Fatalf("expected 0 inserts in iteration %d, got %+v", i, stats)
		}
	}

	assertCount(t, database, `SELECT COUNT(*) FROM rate_profiles WHERE name = ?`, "default", 1)
	assertCount(t, database, `SELECT COUNT(*) FROM scenario_presets WHERE profile_name = ?`, "default", 3)
}

func TestRunImportsRatesFile(t *testing.T) {
	t.Parallel()
	database := openMigrated(t)

	path := filepath.Join(t.TempDir(), "rates.yaml")
	content := []byte(`
profiles:
  - name: default
    rates:
      tax_rate: 0.11
  - name: us-fba
    currency: usd
    rates:
      commission_rate: 0.15
      fulfillment_fee: 5.40
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write rates file: %v", err)
	}

	stats, err := Run(context.Background(), database, Config{RatesFile: path})
	if err != nil {
		t.Fatalf("run seed: %v", err)
	}
	if stats.Inserts != 2 {
		t.Fatalf("expected 2 inserts, got %+v", stats)
	}

	p, err := profiles.NewStore(database).Get(context.Background(), "default")
	if err != nil {
		t.Fatalf("get default profile: %v", err)
	}
	if p.Rates.TaxRate != 0.11 {
		t.Fatalf("expected file default to win, got tax rate %v", p.Rates.TaxRate)
	}
	assertCount(t, database, `SELECT COUNT(*) FROM rate_profiles WHERE currency = ?`, "USD", 1)
}

func TestRunChecksDefaultProfile(t *testing.T) {
	t.Parallel()
	database := openMigrated(t)

	_, err := Run(context.Background(), database, Config{DefaultProfile: "us-fba"})
	if !errors.Is(err, profiles.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for undefined default profile, got %v", err)
	}

	path := filepath.Join(t.TempDir(), "rates.yaml")
	content := []byte("profiles:\n  - name: us-fba\n    rates:\n      commission_rate: 0.15\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write rates file: %v", err)
	}
	if _, err := Run(context.Background(), database, Config{RatesFile: path, DefaultProfile: "us-fba"}); err != nil {
		t.Fatalf("run seed with defined default profile: %v", err)
	}
}

func TestRunFailsOnBrokenRatesFile(t *testing.T) {
	t.Parallel()
	database := openMigrated(t)

	if _, err := Run(context.Background(), database, Config{RatesFile: filepath.Join(t.TempDir(), "missing.yaml")}); err == nil {
		t.Fatalf("expected error for missing rates file")
	}
	assertCount(t, database, `SELECT COUNT(*) FROM rate_profiles`, nil, 0)
}

func assertCount(t *testing.T, database *sql.DB, query string, args any, expected int) {
	t.Helper()

	var count int
	var err error
	switch v := args.(type) {
	case nil:
		err = database.QueryRow(query).Scan(&count)
	case []any:
		err = database.QueryRow(query, v...).Scan(&count)
	default:
		err = database.QueryRow(query, v).Scan(&count)
	}
	if err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != expected {
		t.Fatalf("expected count %d, got %d", expected, count)
	}
}
