package pgstore

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/metafields/pkg/optional"
	"github.com/dmitrymomot/metafields/svc/metafield"
)

func TestDefinitionWhere(t *testing.T) {
	t.Parallel()
	storeID := uuid.New()

	where, args := definitionWhere(storeID, metafield.DefinitionFilter{})
	assert.Equal(t, "store_id = $1", where)
	assert.Equal(t, []any{storeID}, args)

	where, args = definitionWhere(storeID, metafield.DefinitionFilter{
		OwnerResource: metafield.OwnerOrder,
		Type:          metafield.TypeBoolean,
		Pinned:        optional.Of(true),
	})
	assert.Equal(t, "store_id = $1 AND owner_resource = $2 AND type = $3 AND pin = $4", where)
	assert.Equal(t, []any{storeID, "order", "boolean", true}, args)
}

func TestNewOwnerChecker_Queries(t *testing.T) {
	t.Parallel()

	c := NewOwnerChecker(nil, WithOwnerTable(metafield.OwnerProduct, "shop.items"))
	assert.Equal(t, `SELECT EXISTS (SELECT 1 FROM "shop"."items" WHERE id = $1 AND store_id = $2)`, c.queries[metafield.OwnerProduct])
	assert.Equal(t, `SELECT EXISTS (SELECT 1 FROM "orders" WHERE id = $1 AND store_id = $2)`, c.queries[metafield.OwnerOrder])
}
