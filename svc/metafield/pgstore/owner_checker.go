package pgstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/metafields/pkg/pg"
	"github.com/dmitrymomot/metafields/svc/metafield"
)

// ErrUnknownOwnerResource is returned for resources without a configured table.
var ErrUnknownOwnerResource = errors.New("no table configured for owner resource")

// OwnerChecker looks owners up in their own tables. Each table needs
// id and store_id columns.
type OwnerChecker struct {
	db      pg.DBTX
	queries map[metafield.OwnerResource]string
}

var _ metafield.OwnerChecker = (*OwnerChecker)(nil)

// OwnerCheckerOption configures an OwnerChecker.
type OwnerCheckerOption func(tables map[metafield.OwnerResource]string)

// WithOwnerTable maps resource to table, optionally schema-qualified ("shop.products").
func WithOwnerTable(resource metafield.OwnerResource, table string) OwnerCheckerOption {
	return func(tables map[metafield.OwnerResource]string) {
		tables[resource] = table
	}
}

// NewOwnerChecker defaults to the products, customers and orders tables.
func NewOwnerChecker(db pg.DBTX, opts ...OwnerCheckerOption) *OwnerChecker {
	tables := map[metafield.OwnerResource]string{
		metafield.OwnerProduct:  "products",
		metafield.OwnerCustomer: "customers",
		metafield.OwnerOrder:    "orders",
	}
	for _, opt := range opts {
		opt(tables)
	}

	queries := make(map[metafield.OwnerResource]string, len(tables))
	for resource, table := range tables {
		ident := pgx.Identifier(strings.Split(table, ".")).Sanitize()
		queries[resource] = fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1 AND store_id = $2)", ident)
	}
	return &OwnerChecker{db: db, queries: queries}
}

func (c *OwnerChecker) Exists(ctx context.Context, resource metafield.OwnerResource, id int64, storeID uuid.UUID) (bool, error) {
	query, ok := c.queries[resource]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownOwnerResource, resource)
	}
	var exists bool
	if err := c.db.QueryRow(ctx, query, id, storeID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}
