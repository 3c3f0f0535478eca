package metafield_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/metafields/pkg/optional"
	"github.com/dmitrymomot/metafields/pkg/validator"
	"github.com/dmitrymomot/metafields/svc/metafield"
)

type fixture struct {
	storeID uuid.UUID
	store   *metafield.MemoryStorage
	defs    *metafield.DefinitionService
	fields  *metafield.MetafieldService
}

// newFixture wires both services over one in-memory store. Owners 1 to 9 exist.
func newFixture(t *testing.T, opts ...metafield.Option) fixture {
	t.Helper()

	store := metafield.NewMemoryStorage()
	opts = append([]metafield.Option{metafield.WithOwnerChecker(existingOwners(1, 2, 3, 4, 5, 6, 7, 8, 9))}, opts...)

	defs, err := metafield.NewDefinitionService(store, opts...)
	require.NoError(t, err)

	return fixture{
		storeID: uuid.New(),
		store:   store,
		defs:    defs,
		fields:  metafield.NewMetafieldService(store, opts...),
	}
}

func (f fixture) addDefinition(t *testing.T, key string, typ metafield.ValueType, rules ...metafield.ValidationRule) metafield.Definition {
	t.Helper()

	def, err := f.defs.Add(context.Background(), f.storeID, metafield.CreateDefinitionRequest{
		Name:          key,
		Key:           key,
		Namespace:     "custom",
		Type:          typ,
		OwnerResource: metafield.OwnerProduct,
		Rules:         rules,
	})
	require.NoError(t, err)
	return def
}

func field(key, value string) metafield.FieldRequest {
	return metafield.FieldRequest{
		Namespace: optional.Of("custom"),
		Key:       optional.Of(key),
		Value:     optional.Of(value),
	}
}

func typedField(key string, typ metafield.ValueType, value string) metafield.FieldRequest {
	req := field(key, value)
	req.ValueType = optional.Of(typ)
	return req
}

func validationErrors(t *testing.T, err error) validator.ValidationErrors {
	t.Helper()
	require.Error(t, err)
	errs := validator.ExtractValidationErrors(err)
	require.NotEmpty(t, errs, "expected validation errors, got %v", err)
	return errs
}
