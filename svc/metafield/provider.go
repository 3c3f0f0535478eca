package metafield

import (
	"context"
	"errors"
	"regexp"

	"github.com/google/uuid"

	"github.com/dmitrymomot/metafields/pkg/cache"
	"github.com/dmitrymomot/metafields/pkg/validator"
)

// OwnerChecker reports whether an owner object exists in a store.
type OwnerChecker interface {
	Exists(ctx context.Context, resource OwnerResource, id int64, storeID uuid.UUID) (bool, error)
}

// OwnerCheckerFunc adapts a function to OwnerChecker.
type OwnerCheckerFunc func(ctx context.Context, resource OwnerResource, id int64, storeID uuid.UUID) (bool, error)

func (f OwnerCheckerFunc) Exists(ctx context.Context, resource OwnerResource, id int64, storeID uuid.UUID) (bool, error) {
	return f(ctx, resource, id, storeID)
}

// ValueInput is everything a type validator may look at.
type ValueInput struct {
	Type    ValueType
	Value   string
	Rules   Rules
	StoreID uuid.UUID
}

// TypeValidator returns a user-facing message, or "" when the value is valid.
// A non-nil error means the check itself could not run.
type TypeValidator func(ctx context.Context, in ValueInput) (string, error)

// Provider dispatches value validation by type.
type Provider struct {
	validators map[ValueType]TypeValidator
	owners     OwnerChecker
	patterns   *cache.LRUCache[string, *regexp.Regexp]
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithTypeValidator registers or replaces the validator for t.
func WithTypeValidator(t ValueType, fn TypeValidator) ProviderOption {
	return func(p *Provider) {
		p.validators[t] = fn
	}
}

// NewProvider builds the default dispatch table. owners backs the reference types;
// when nil every reference value is rejected.
func NewProvider(owners OwnerChecker, cfg Config, opts ...ProviderOption) *Provider {
	cfg = cfg.withDefaults()
	p := &Provider{
		validators: make(map[ValueType]TypeValidator),
		owners:     owners,
		patterns:   cache.NewLRUCache[string, *regexp.Regexp](cfg.RegexCacheSize),
	}

	text := textValidator{maxBytes: cfg.MaxValueBytes, compile: p.compile}

	p.validators[TypeBoolean] = func(_ context.Context, in ValueInput) (string, error) {
		return validateBoolean(in.Value), nil
	}
	p.validators[TypeDateTime] = func(_ context.Context, in ValueInput) (string, error) {
		return validateDateTime(in.Value, in.Rules), nil
	}
	p.validators[TypeNumberDecimal] = func(_ context.Context, in ValueInput) (string, error) {
		return validateDecimal(in.Value, in.Rules), nil
	}
	p.validators[TypeSingleLineText] = func(_ context.Context, in ValueInput) (string, error) {
		return text.validate(in.Value, in.Rules), nil
	}
	for _, owner := range OwnerResources {
		p.validators[ReferenceType(owner)] = p.reference(owner)
	}

	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Validate checks value against type t and rules. It returns ErrUnsupportedValueType
// when t has no validator.
func (p *Provider) Validate(ctx context.Context, t ValueType, value string, rules Rules, storeID uuid.UUID) (string, error) {
	fn, ok := p.validators[t]
	if !ok {
		return "", ErrUnsupportedValueType
	}
	return fn(ctx, ValueInput{Type: t, Value: value, Rules: rules, StoreID: storeID})
}

// Supports reports whether t has a registered validator.
func (p *Provider) Supports(t ValueType) bool {
	_, ok := p.validators[t]
	return ok
}

func (p *Provider) reference(owner OwnerResource) TypeValidator {
	return func(ctx context.Context, in ValueInput) (string, error) {
		id, ok := parseReference(in.Value)
		if !ok || p.owners == nil {
			return referenceMessage(owner), nil
		}
		exists, err := p.owners.Exists(ctx, owner, id, in.StoreID)
		if err != nil {
			return "", errors.Join(ErrFailedToCheckOwner, err)
		}
		if !exists {
			return referenceMessage(owner), nil
		}
		return "", nil
	}
}

func (p *Provider) compile(pattern string) (*regexp.Regexp, error) {
	return p.patterns.GetOrCreate(pattern, func() (*regexp.Regexp, error) {
		return validator.CompileFull(pattern)
	})
}
