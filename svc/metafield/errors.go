package metafield

import (
	"errors"

	"github.com/dmitrymomot/metafields/pkg/validator"
)

var (
	ErrDefinitionNotFound = errors.New("metafield definition not found")
	ErrMetafieldNotFound  = errors.New("metafield not found")
	ErrForbidden          = errors.New("metafield operation forbidden")

	// Storage reports natural key conflicts with these.
	ErrDefinitionTaken = errors.New("metafield definition already exists")
	ErrMetafieldTaken  = errors.New("metafield already exists")

	// ErrUnsupportedValueType is returned by Provider.Validate for types
	// without a registered validator.
	ErrUnsupportedValueType = errors.New("unsupported metafield value type")

	ErrFailedToCheckOwner       = errors.New("failed to check owner existence")
	ErrFailedToLoadDefinitions  = errors.New("failed to load metafield definitions")
	ErrFailedToSaveDefinition   = errors.New("failed to save metafield definition")
	ErrFailedToRemoveDefinition = errors.New("failed to remove metafield definition")
	ErrFailedToLoadMetafields   = errors.New("failed to load metafields")
	ErrFailedToSaveMetafields   = errors.New("failed to save metafields")
	ErrFailedToRemoveMetafields = errors.New("failed to remove metafields")
	ErrFailedToPublishEvent     = errors.New("failed to publish definition deleted event")
	ErrFailedToCountUsage       = errors.New("failed to count metafield usage")
	ErrFailedToAcquireLock      = errors.New("failed to acquire owner lock")
)

// ValidationErrors is the structured error collection returned by the services.
type ValidationErrors = validator.ValidationErrors

// Field names used in error paths.
const (
	fieldMetafields    = "metafields"
	fieldValidations   = "validations"
	fieldDefinitions   = "definitions"
	fieldID            = "id"
	fieldKey           = "key"
	fieldNamespace     = "namespace"
	fieldValue         = "value"
	fieldValueType     = "value_type"
	fieldOwner         = "owner"
	fieldOwnerResource = "owner_resource"
	fieldName          = "name"
	fieldDescription   = "description"
	fieldType          = "type"
)
