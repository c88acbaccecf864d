package profiles

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/fbaunit/internal/db"
	"github.com/Simplici0/fbaunit/internal/migrations"
	"github.com/Simplici0/fbaunit/internal/pricing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	database, err := db.Open(ctx, db.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	_, err = migrations.Up(ctx, database)
	require.NoError(t, err)

	return NewStore(database)
}

func TestStore_UpsertAndGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	want := Default()
	require.NoError(t, store.Upsert(ctx, want))

	got, err := store.Get(ctx, DefaultName)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestStore_UpsertReplacesRatesAndPresets(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.Upsert(ctx, Default()))

	updated := Default()
	updated.Rates.CommissionRate = 0.12
	updated.Scenarios = []pricing.Scenario{{Name: "only", PriceMultiplier: 0.3}}
	require.NoError(t, store.Upsert(ctx, updated))

	got, err := store.Get(ctx, DefaultName)
	require.NoError(t, err)
	assert.Equal(t, 0.12, got.Rates.CommissionRate)
	assert.Equal(t, updated.Scenarios, got.Scenarios)
}

func TestStore_UpsertRejectsInvalidProfile(t *testing.T) {
	store := newTestStore(t)

	bad := Default()
	bad.Rates.TacosRate = 1
	err := store.Upsert(context.Background(), bad)
	require.ErrorIs(t, err, pricing.ErrInvalidInput)
}

func TestStore_ListOrdersByName(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	for _, name := range []string{"zeta", "alpha", "mid"} {
		p := Default()
		p.Name = name
		require.NoError(t, store.Upsert(ctx, p))
	}

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "alpha", list[0].Name)
	assert.Equal(t, "mid", list[1].Name)
	assert.Equal(t, "zeta", list[2].Name)
	assert.Len(t, list[2].Scenarios, 3)
}

func TestStore_EnsureAllKeepsExistingProfiles(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	custom := Default()
	custom.Rates.TaxRate = 0.2
	require.NoError(t, store.Upsert(ctx, custom))

	other := Default()
	other.Name = "other"

	inserted, err := store.EnsureAll(ctx, []Profile{Default(), other})
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)

	got, err := store.Get(ctx, DefaultName)
	require.NoError(t, err)
	assert.Equal(t, 0.2, got.Rates.TaxRate, "existing profile must not be overwritten")

	inserted, err = store.EnsureAll(ctx, []Profile{Default(), other})
	require.NoError(t, err)
	assert.Zero(t, inserted)
}

func TestStore_DeleteAndNotFound(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.Upsert(ctx, Default()))

	require.NoError(t, store.Delete(ctx, DefaultName))

	_, err := store.Get(ctx, DefaultName)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, store.Delete(ctx, DefaultName), ErrNotFound)

	var presets int
	require.NoError(t, store.db.QueryRow(`SELECT COUNT(*) FROM scenario_presets`).Scan(&presets))
	assert.Zero(t, presets)
}
