package seed

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Simplici0/fbaunit/internal/profiles"
)

// Config contains the values required by startup seed.
type Config struct {
	// RatesFile optionally names a YAML file of extra profiles to import.
	RatesFile string
	// DefaultProfile, when set, must exist once seeding is done.
	DefaultProfile string
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
	Skipped int
}

// Run executes the startup seed in an idempotent way: the built-in profile and
// any profiles from cfg.RatesFile are inserted unless a profile with the same
// name already exists.
func Run(ctx context.Context, db *sql.DB, cfg Config) (Stats, error) {
	list := []profiles.Profile{profiles.Default()}

	if cfg.RatesFile != "" {
		fromFile, err := profiles.LoadFile(cfg.RatesFile)
		if err != nil {
			return Stats{}, fmt.Errorf("load seed profiles: %w", err)
		}
		for _, p := range fromFile {
			if p.Name == profiles.DefaultName {
				// The file wins over the built-in defaults.
				list[0] = p
				continue
			}
			list = append(list, p)
		}
	}

	store := profiles.NewStore(db)
	inserted, err := store.EnsureAll(ctx, list)
	if err != nil {
		return Stats{}, fmt.Errorf("seed rate profiles: %w", err)
	}

	if cfg.DefaultProfile != "" {
		if _, err := store.Get(ctx, cfg.DefaultProfile); err != nil {
			return Stats{}, fmt.Errorf("check default profile: %w", err)
		}
	}

	return Stats{Inserts: inserted, Skipped: len(list) - inserted}, nil
}
