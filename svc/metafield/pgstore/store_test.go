package pgstore_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/metafields/pkg/pg"
	"github.com/dmitrymomot/metafields/svc/metafield"
	"github.com/dmitrymomot/metafields/svc/metafield/pgstore"
)

// connect returns a migrated pool, or skips when PG_CONN_URL is not set.
func connect(t *testing.T) *pgxpool.Pool {
	t.Helper()

	url := os.Getenv("PG_CONN_URL")
	if url == "" || testing.Short() {
		t.Skip("PG_CONN_URL not set; skipping postgres integration test")
	}

	ctx := context.Background()
	cfg := pg.Config{
		ConnectionString: url,
		MaxOpenConns:     4,
		MaxIdleConns:     1,
		RetryAttempts:    1,
		RetryInterval:    time.Second,
		MigrationsPath:   "migrations",
		MigrationsTable:  "metafields_schema_migrations",
	}
	pool, err := pg.Connect(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, pg.Migrate(ctx, pool, pgstore.Migrations, cfg, slog.Default()))
	return pool
}

func TestStore(t *testing.T) {
	pool := connect(t)
	ctx := context.Background()
	store := pgstore.New(pool)
	storeID := uuid.New()
	now := time.Now().UTC().Truncate(time.Microsecond)

	def, err := store.CreateDefinition(ctx, metafield.Definition{
		StoreID: storeID, Name: "Color", Key: "color", Namespace: "custom",
		Type: metafield.TypeSingleLineText, OwnerResource: metafield.OwnerProduct,
		ValidationStatus: metafield.ValidationStatusActive,
		Rules:            metafield.Rules{{Name: metafield.RuleMax, Value: "10"}, {Name: metafield.RuleMin, Value: "1"}},
		CreatedAt:        now, UpdatedAt: now,
	})
	require.NoError(t, err)

	_, err = store.CreateDefinition(ctx, def)
	assert.ErrorIs(t, err, metafield.ErrDefinitionTaken)

	got, err := store.FindDefinition(ctx, storeID, def.DefinitionKey())
	require.NoError(t, err)
	assert.Equal(t, def.Rules, got.Rules)

	def.Rules = metafield.Rules{{Name: metafield.RuleChoices, Value: `["a"]`}}
	_, err = store.UpdateDefinition(ctx, def)
	require.NoError(t, err)
	got, err = store.GetDefinition(ctx, storeID, def.ID)
	require.NoError(t, err)
	assert.Equal(t, def.Rules, got.Rules)

	var saved []metafield.Metafield
	err = store.InTx(ctx, func(tx metafield.Storage) error {
		var err error
		saved, err = tx.SaveMetafields(ctx, storeID, []metafield.Metafield{
			{Key: "color", Namespace: "custom", OwnerID: 1, OwnerResource: metafield.OwnerProduct, Value: "a", ValueType: metafield.TypeSingleLineText},
			{Key: "color", Namespace: "custom", OwnerID: 2, OwnerResource: metafield.OwnerProduct, Value: "a", ValueType: metafield.TypeSingleLineText},
		})
		return err
	})
	require.NoError(t, err)
	require.Len(t, saved, 2)

	_, err = store.SaveMetafields(ctx, storeID, []metafield.Metafield{
		{Key: "color", Namespace: "custom", OwnerID: 1, OwnerResource: metafield.OwnerProduct, Value: "b", ValueType: metafield.TypeSingleLineText},
	})
	assert.ErrorIs(t, err, metafield.ErrMetafieldTaken)

	require.NoError(t, store.AddInvalidMarker(ctx, storeID, metafield.InvalidMarker{DefinitionID: def.ID, MetafieldID: saved[0].ID}))
	invalid, err := store.CountInvalidByDefinitions(ctx, storeID, []int64{def.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, invalid[def.ID])

	counts, err := store.CountMetafieldsByDefinitionKeys(ctx, storeID, []metafield.DefinitionKey{def.DefinitionKey()})
	require.NoError(t, err)
	assert.EqualValues(t, 2, counts[def.DefinitionKey()])

	n, err := store.DeleteMetafieldsByDefinition(ctx, storeID, def.DefinitionKey())
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	require.NoError(t, store.DeleteDefinition(ctx, storeID, def.ID))
	_, err = store.GetDefinition(ctx, storeID, def.ID)
	assert.ErrorIs(t, err, metafield.ErrDefinitionNotFound)
}
