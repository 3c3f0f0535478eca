package metafield

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/metafields/pkg/optional"
)

// OwnerResource is the kind of domain object a metafield attaches to.
type OwnerResource string

const (
	OwnerProduct  OwnerResource = "product"
	OwnerCustomer OwnerResource = "customer"
	OwnerOrder    OwnerResource = "order"
)

// OwnerResources lists every supported owner resource.
var OwnerResources = []OwnerResource{OwnerProduct, OwnerCustomer, OwnerOrder}

func (r OwnerResource) Valid() bool {
	return slices.Contains(OwnerResources, r)
}

// Plural returns the collection name used in permission scopes, e.g. "products".
func (r OwnerResource) Plural() string {
	return string(r) + "s"
}

// ValueType is the declared type of a metafield value.
type ValueType string

const (
	TypeBoolean        ValueType = "boolean"
	TypeDateTime       ValueType = "date_time"
	TypeNumberDecimal  ValueType = "number_decimal"
	TypeSingleLineText ValueType = "single_line_text_field"
)

const referenceSuffix = "_reference"

// BaseTypes lists the non-reference value types.
var BaseTypes = []ValueType{TypeBoolean, TypeDateTime, TypeNumberDecimal, TypeSingleLineText}

// ReferenceType returns the reference type pointing at owner, e.g. "product_reference".
func ReferenceType(owner OwnerResource) ValueType {
	return ValueType(string(owner) + referenceSuffix)
}

// Reference reports the referenced resource for reference types.
func (t ValueType) Reference() (OwnerResource, bool) {
	name, ok := strings.CutSuffix(string(t), referenceSuffix)
	if !ok {
		return "", false
	}
	owner := OwnerResource(name)
	return owner, owner.Valid()
}

// Known reports whether t is a base type or a reference to a supported resource.
func (t ValueType) Known() bool {
	if slices.Contains(BaseTypes, t) {
		return true
	}
	_, ok := t.Reference()
	return ok
}

// RuleName names a validation rule.
type RuleName string

const (
	RuleMin          RuleName = "min"
	RuleMax          RuleName = "max"
	RuleRegex        RuleName = "regex"
	RuleChoices      RuleName = "choices"
	RuleMaxPrecision RuleName = "max_precision"
)

// ValidationRule is a named constraint attached to a definition.
type ValidationRule struct {
	Name  RuleName `json:"name"`
	Value string   `json:"value"`
}

// Rules is an ordered rule set. A definition's rules are replaced as a whole, never patched.
type Rules []ValidationRule

// Get returns the value of the first rule called name.
func (r Rules) Get(name RuleName) (string, bool) {
	for _, rule := range r {
		if rule.Name == name {
			return rule.Value, true
		}
	}
	return "", false
}

// ValidationStatus tracks whether existing values were checked against the current rules.
type ValidationStatus string

const (
	ValidationStatusActive     ValidationStatus = "active"
	ValidationStatusInProgress ValidationStatus = "in_progress"
)

// Definition is a store-scoped schema for metafields sharing a namespace,
// key and owner resource.
type Definition struct {
	ID               int64            `json:"id"`
	StoreID          uuid.UUID        `json:"store_id"`
	Name             string           `json:"name"`
	Description      string           `json:"description"`
	Key              string           `json:"key"`
	Namespace        string           `json:"namespace"`
	Type             ValueType        `json:"type"`
	OwnerResource    OwnerResource    `json:"owner_resource"`
	Pin              bool             `json:"pin"`
	ValidationStatus ValidationStatus `json:"validation_status"`
	Rules            Rules            `json:"validations"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// DefinitionKey is the loose link between definitions and metafields.
type DefinitionKey struct {
	Namespace     string        `json:"namespace"`
	Key           string        `json:"key"`
	OwnerResource OwnerResource `json:"owner_resource"`
}

func (d Definition) DefinitionKey() DefinitionKey {
	return DefinitionKey{Namespace: d.Namespace, Key: d.Key, OwnerResource: d.OwnerResource}
}

// Metafield is a stored value on one owner object.
type Metafield struct {
	ID            int64         `json:"id"`
	StoreID       uuid.UUID     `json:"store_id"`
	Key           string        `json:"key"`
	Namespace     string        `json:"namespace"`
	OwnerID       int64         `json:"owner_id"`
	OwnerResource OwnerResource `json:"owner_resource"`
	Value         string        `json:"value"`
	ValueType     ValueType     `json:"value_type"`
	CreatedOn     time.Time     `json:"created_on"`
	ModifiedOn    time.Time     `json:"modified_on"`
}

// NaturalKey identifies at most one metafield per store.
type NaturalKey struct {
	Namespace     string
	Key           string
	OwnerResource OwnerResource
	OwnerID       int64
}

func (m Metafield) NaturalKey() NaturalKey {
	return NaturalKey{Namespace: m.Namespace, Key: m.Key, OwnerResource: m.OwnerResource, OwnerID: m.OwnerID}
}

func (m Metafield) DefinitionKey() DefinitionKey {
	return DefinitionKey{Namespace: m.Namespace, Key: m.Key, OwnerResource: m.OwnerResource}
}

// InvalidMarker records that a metafield currently fails its definition's rules.
// Markers are written by an external revalidation job; this package reads and deletes them.
type InvalidMarker struct {
	DefinitionID int64 `json:"definition_id"`
	MetafieldID  int64 `json:"metafield_id"`
}

// FieldRequest sets one metafield on an owner. Unset fields keep the stored value.
type FieldRequest struct {
	ID        optional.Value[int64]     `json:"id"`
	Key       optional.Value[string]    `json:"key"`
	Namespace optional.Value[string]    `json:"namespace"`
	Value     optional.Value[string]    `json:"value"`
	ValueType optional.Value[ValueType] `json:"value_type"`
}

// SetRequest is a FieldRequest that names its owner, for batches spanning owners.
type SetRequest struct {
	FieldRequest
	OwnerID       int64         `json:"owner_id"`
	OwnerResource OwnerResource `json:"owner_resource"`
}

// SetsResult reports the persisted subset of a Sets batch and the per-item
// errors of the rest.
type SetsResult struct {
	Saved  []Metafield
	Errors ValidationErrors
}

// CreateDefinitionRequest describes a new definition.
type CreateDefinitionRequest struct {
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	Key           string        `json:"key"`
	Namespace     string        `json:"namespace"`
	Type          ValueType     `json:"type"`
	OwnerResource OwnerResource `json:"owner_resource"`
	Pin           bool          `json:"pin"`
	Rules         Rules         `json:"validations"`
}

// UpdateDefinitionRequest patches a definition. Only set fields are applied;
// Rules, when set, replaces the whole rule set. Key, Namespace, Type and
// OwnerResource may only repeat the stored value.
type UpdateDefinitionRequest struct {
	ID            int64                         `json:"id"`
	Name          optional.Value[string]        `json:"name"`
	Description   optional.Value[string]        `json:"description"`
	Pin           optional.Value[bool]          `json:"pin"`
	Rules         optional.Value[Rules]         `json:"validations"`
	Key           optional.Value[string]        `json:"key"`
	Namespace     optional.Value[string]        `json:"namespace"`
	Type          optional.Value[ValueType]     `json:"type"`
	OwnerResource optional.Value[OwnerResource] `json:"owner_resource"`
}

// DefinitionFilter selects definitions with equality filters.
// Zero values mean "any". Limit <= 0 uses the default page size.
type DefinitionFilter struct {
	OwnerResource OwnerResource
	Namespace     string
	Key           string
	Type          ValueType
	Pinned        optional.Value[bool]
	Reverse       bool
	Limit         int
	Offset        int
}

// DefinitionPage is one page of Filter results.
type DefinitionPage struct {
	Items  []Definition `json:"items"`
	Total  int64        `json:"total"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}

// DefinitionResponse is a definition enriched with usage counts.
type DefinitionResponse struct {
	Definition
	MetafieldsCount int64 `json:"metafields_count"`
	InvalidCount    int64 `json:"invalid_count"`
}

// NewDefinitionResponses wraps defs for enrichment.
func NewDefinitionResponses(defs []Definition) []DefinitionResponse {
	out := make([]DefinitionResponse, len(defs))
	for i, d := range defs {
		out[i] = DefinitionResponse{Definition: d}
	}
	return out
}

// Filter UI widgets.
const (
	FilterListChoice          = "list_choice_filter"
	FilterPaginatedListChoice = "paginated_list_choice_filter"
)

// FilterValue describes how a definition can be filtered on in list views.
type FilterValue struct {
	DefinitionID  int64     `json:"definition_id"`
	Name          string    `json:"name"`
	FilterParam   string    `json:"filter_param"`
	TypeFilter    string    `json:"type_filter"`
	AllowMultiple bool      `json:"allow_multiple"`
	ValueType     ValueType `json:"value_type"`
}
