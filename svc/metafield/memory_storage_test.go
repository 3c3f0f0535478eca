package metafield_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/metafields/svc/metafield"
)

func TestMemoryStorage_InTx(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	storeID := uuid.New()

	t.Run("rolls back on error", func(t *testing.T) {
		t.Parallel()
		s := metafield.NewMemoryStorage()
		boom := errors.New("boom")

		err := s.InTx(ctx, func(tx metafield.Storage) error {
			_, err := tx.CreateDefinition(ctx, metafield.Definition{StoreID: storeID, Key: "a", Namespace: "n", OwnerResource: metafield.OwnerProduct})
			require.NoError(t, err)
			return boom
		})
		assert.ErrorIs(t, err, boom)

		n, err := s.CountDefinitions(ctx, storeID, metafield.DefinitionFilter{})
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("commits on success", func(t *testing.T) {
		t.Parallel()
		s := metafield.NewMemoryStorage()

		err := s.InTx(ctx, func(tx metafield.Storage) error {
			_, err := tx.SaveMetafields(ctx, storeID, []metafield.Metafield{
				{Key: "a", Namespace: "n", OwnerID: 1, OwnerResource: metafield.OwnerProduct, Value: "x", ValueType: metafield.TypeSingleLineText},
			})
			return err
		})
		require.NoError(t, err)

		list, err := s.ListMetafields(ctx, storeID, metafield.OwnerProduct, 1)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})

	t.Run("natural key conflict leaves no partial writes", func(t *testing.T) {
		t.Parallel()
		s := metafield.NewMemoryStorage()
		item := metafield.Metafield{Key: "a", Namespace: "n", OwnerID: 1, OwnerResource: metafield.OwnerProduct, Value: "x"}

		_, err := s.SaveMetafields(ctx, storeID, []metafield.Metafield{
			{Key: "b", Namespace: "n", OwnerID: 1, OwnerResource: metafield.OwnerProduct, Value: "y"},
			item,
			item,
		})
		assert.ErrorIs(t, err, metafield.ErrMetafieldTaken)

		list, err := s.ListMetafields(ctx, storeID, metafield.OwnerProduct, 1)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("definition key conflict", func(t *testing.T) {
		t.Parallel()
		s := metafield.NewMemoryStorage()
		def := metafield.Definition{StoreID: storeID, Key: "a", Namespace: "n", OwnerResource: metafield.OwnerProduct}

		_, err := s.CreateDefinition(ctx, def)
		require.NoError(t, err)
		_, err = s.CreateDefinition(ctx, def)
		assert.ErrorIs(t, err, metafield.ErrDefinitionTaken)
	})

	t.Run("returned rules are copies", func(t *testing.T) {
		t.Parallel()
		s := metafield.NewMemoryStorage()
		def, err := s.CreateDefinition(ctx, metafield.Definition{
			StoreID: storeID, Key: "a", Namespace: "n", OwnerResource: metafield.OwnerProduct,
			Rules: metafield.Rules{{Name: metafield.RuleMin, Value: "1"}},
		})
		require.NoError(t, err)

		def.Rules[0].Value = "2"
		got, err := s.GetDefinition(ctx, storeID, def.ID)
		require.NoError(t, err)
		assert.Equal(t, "1", got.Rules[0].Value)
	})
}
