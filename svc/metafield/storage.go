package metafield

import (
	"context"

	"github.com/google/uuid"
)

// DefinitionStorage persists definitions, their rules and invalid markers.
type DefinitionStorage interface {
	// ListDefinitions returns definitions matching filter. Limit <= 0 returns all.
	ListDefinitions(ctx context.Context, storeID uuid.UUID, filter DefinitionFilter) ([]Definition, error)
	CountDefinitions(ctx context.Context, storeID uuid.UUID, filter DefinitionFilter) (int64, error)
	// GetDefinition returns ErrDefinitionNotFound when id is absent from the store.
	GetDefinition(ctx context.Context, storeID uuid.UUID, id int64) (Definition, error)
	// FindDefinition returns ErrDefinitionNotFound when no definition has key.
	FindDefinition(ctx context.Context, storeID uuid.UUID, key DefinitionKey) (Definition, error)
	// CreateDefinition returns ErrDefinitionTaken on a key conflict.
	CreateDefinition(ctx context.Context, def Definition) (Definition, error)
	// UpdateDefinition overwrites the row and replaces the whole rule set.
	UpdateDefinition(ctx context.Context, def Definition) (Definition, error)
	DeleteDefinition(ctx context.Context, storeID uuid.UUID, id int64) error

	DeleteInvalidMarkers(ctx context.Context, storeID uuid.UUID, definitionID int64) (int64, error)
	CountInvalidByDefinitions(ctx context.Context, storeID uuid.UUID, ids []int64) (map[int64]int64, error)
}

// MetafieldStorage persists metafield values.
type MetafieldStorage interface {
	// GetMetafield returns ErrMetafieldNotFound when id is absent from the store.
	GetMetafield(ctx context.Context, storeID uuid.UUID, id int64) (Metafield, error)
	// FindMetafield returns ErrMetafieldNotFound when no metafield has key.
	FindMetafield(ctx context.Context, storeID uuid.UUID, key NaturalKey) (Metafield, error)
	ListMetafields(ctx context.Context, storeID uuid.UUID, owner OwnerResource, ownerID int64) ([]Metafield, error)
	// SaveMetafields inserts items with a zero ID and updates the rest.
	// It returns ErrMetafieldTaken on a natural key conflict.
	SaveMetafields(ctx context.Context, storeID uuid.UUID, items []Metafield) ([]Metafield, error)
	DeleteMetafield(ctx context.Context, storeID uuid.UUID, id int64) error
	DeleteMetafieldsByDefinition(ctx context.Context, storeID uuid.UUID, key DefinitionKey) (int64, error)
	CountMetafieldsByDefinitionKeys(ctx context.Context, storeID uuid.UUID, keys []DefinitionKey) (map[DefinitionKey]int64, error)
}

// Storage is the full persistence contract. InTx runs fn atomically; the
// Storage passed to fn is bound to the transaction.
type Storage interface {
	DefinitionStorage
	MetafieldStorage
	InTx(ctx context.Context, fn func(tx Storage) error) error
}
