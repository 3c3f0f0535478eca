package metafield

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/metafields/pkg/limits"
	"github.com/dmitrymomot/metafields/pkg/logger"
	"github.com/dmitrymomot/metafields/pkg/optional"
	"github.com/dmitrymomot/metafields/pkg/rbac"
	"github.com/dmitrymomot/metafields/pkg/validator"
)

// Page size bounds for Filter.
const (
	DefaultPageSize = 50
	MaxPageSize     = 250
)

// Field length limits shared by definitions and metafields.
const (
	maxNameLength        = 255
	maxDescriptionLength = 1024
	maxKeyLength         = 64
	maxNamespaceLength   = 255
)

// DefinitionService manages metafield definitions.
type DefinitionService struct {
	store     Storage
	limits    limits.LimitsService
	authz     rbac.Authorizer
	publisher EventPublisher
	rules     RuleSetValidator
	cfg       Config
	logger    *slog.Logger
	metrics   *Metrics
	now       func() time.Time
}

// NewDefinitionService creates a DefinitionService. Without WithLimits every
// store gets one plan capped at Config.MaxDefinitions.
func NewDefinitionService(store Storage, opts ...Option) (*DefinitionService, error) {
	o := newOptions(opts)

	lim := o.limits
	if lim == nil {
		counters := limits.NewRegistry()
		counters.Register(limits.ResourceDefinitions, func(ctx context.Context, storeID uuid.UUID) (int64, error) {
			return store.CountDefinitions(ctx, storeID, DefinitionFilter{})
		})
		var err error
		lim, err = limits.NewLimitsService(context.Background(),
			limits.NewInMemSource(limits.DefaultPlan(o.cfg.MaxDefinitions)),
			counters,
			limits.PlanIDContextResolver,
		)
		if err != nil {
			return nil, err
		}
	}

	return &DefinitionService{
		store:     store,
		limits:    lim,
		authz:     o.authz,
		publisher: o.publisher,
		rules:     NewRuleSetValidator(o.cfg),
		cfg:       o.cfg,
		logger:    o.logger,
		metrics:   o.metrics,
		now:       o.now,
	}, nil
}

// Filter returns one page of definitions and the total matching count.
func (s *DefinitionService) Filter(ctx context.Context, storeID uuid.UUID, filter DefinitionFilter) (DefinitionPage, error) {
	if filter.OwnerResource != "" {
		if err := authorize(ctx, s.authz, ActionRead, filter.OwnerResource); err != nil {
			return DefinitionPage{}, err
		}
	}

	switch {
	case filter.Limit <= 0:
		filter.Limit = DefaultPageSize
	case filter.Limit > MaxPageSize:
		filter.Limit = MaxPageSize
	}
	filter.Offset = max(filter.Offset, 0)

	items, err := s.store.ListDefinitions(ctx, storeID, filter)
	if err != nil {
		return DefinitionPage{}, errors.Join(ErrFailedToLoadDefinitions, err)
	}
	total, err := s.store.CountDefinitions(ctx, storeID, filter)
	if err != nil {
		return DefinitionPage{}, errors.Join(ErrFailedToLoadDefinitions, err)
	}
	return DefinitionPage{Items: items, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

// Count returns the number of definitions matching filter.
func (s *DefinitionService) Count(ctx context.Context, storeID uuid.UUID, filter DefinitionFilter) (int64, error) {
	n, err := s.store.CountDefinitions(ctx, storeID, filter)
	if err != nil {
		return 0, errors.Join(ErrFailedToLoadDefinitions, err)
	}
	return n, nil
}

// Get returns ErrDefinitionNotFound when id does not belong to the store.
func (s *DefinitionService) Get(ctx context.Context, storeID uuid.UUID, id int64) (Definition, error) {
	def, err := s.store.GetDefinition(ctx, storeID, id)
	if err != nil {
		if errors.Is(err, ErrDefinitionNotFound) {
			return Definition{}, err
		}
		return Definition{}, errors.Join(ErrFailedToLoadDefinitions, err)
	}
	if err := authorize(ctx, s.authz, ActionRead, def.OwnerResource); err != nil {
		return Definition{}, err
	}
	return def, nil
}

// Add creates a definition. Field problems are returned together; the
// store ceiling and key uniqueness are reported on their own.
func (s *DefinitionService) Add(ctx context.Context, storeID uuid.UUID, req CreateDefinitionRequest) (Definition, error) {
	if err := authorize(ctx, s.authz, ActionWrite, req.OwnerResource); err != nil {
		return Definition{}, err
	}

	if errs := validateDefinitionFields(req.Name, req.Description, req.Namespace, req.Key, req.Type, req.OwnerResource); !errs.IsEmpty() {
		return Definition{}, s.reject(errs)
	}

	if err := s.limits.CanCreate(ctx, storeID, limits.ResourceDefinitions); err != nil {
		if errors.Is(err, limits.ErrLimitExceeded) {
			_, limit, _ := s.limits.GetUsage(ctx, storeID, limits.ResourceDefinitions)
			return Definition{}, s.reject(ValidationErrors{validator.NewError(validator.CodeLimitExceeded,
				fmt.Sprintf("Store can't have more than %d definitions.", limit), fieldDefinitions)})
		}
		return Definition{}, errors.Join(ErrFailedToSaveDefinition, err)
	}

	key := DefinitionKey{Namespace: req.Namespace, Key: req.Key, OwnerResource: req.OwnerResource}
	if _, err := s.store.FindDefinition(ctx, storeID, key); err == nil {
		return Definition{}, s.reject(takenDefinition())
	} else if !errors.Is(err, ErrDefinitionNotFound) {
		return Definition{}, errors.Join(ErrFailedToLoadDefinitions, err)
	}

	if errs := s.rules.Validate(req.Type, req.Rules); !errs.IsEmpty() {
		return Definition{}, s.reject(errs)
	}

	now := s.now()
	def := Definition{
		StoreID:          storeID,
		Name:             req.Name,
		Description:      req.Description,
		Key:              req.Key,
		Namespace:        req.Namespace,
		Type:             req.Type,
		OwnerResource:    req.OwnerResource,
		Pin:              req.Pin,
		ValidationStatus: ValidationStatusActive,
		Rules:            req.Rules,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	err := s.store.InTx(ctx, func(tx Storage) error {
		var err error
		def, err = tx.CreateDefinition(ctx, def)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrDefinitionTaken) {
			return Definition{}, s.reject(takenDefinition())
		}
		return Definition{}, errors.Join(ErrFailedToSaveDefinition, err)
	}

	s.metrics.definitionChanged("create", def.OwnerResource)
	s.logger.InfoContext(ctx, "metafield definition created",
		logger.StoreID(storeID),
		logger.DefinitionID(def.ID),
		logger.OwnerResource(string(def.OwnerResource)),
	)
	return def, nil
}

// Update applies the set fields of req. Identity fields may only repeat the stored value.
func (s *DefinitionService) Update(ctx context.Context, storeID uuid.UUID, req UpdateDefinitionRequest) (Definition, error) {
	def, err := s.Get(ctx, storeID, req.ID)
	if err != nil {
		return Definition{}, err
	}
	if err := authorize(ctx, s.authz, ActionWrite, def.OwnerResource); err != nil {
		return Definition{}, err
	}

	var errs ValidationErrors
	errs.Merge(immutable(fieldKey, req.Key, def.Key))
	errs.Merge(immutable(fieldNamespace, req.Namespace, def.Namespace))
	errs.Merge(immutable(fieldType, req.Type, def.Type))
	errs.Merge(immutable(fieldOwnerResource, req.OwnerResource, def.OwnerResource))
	if !errs.IsEmpty() {
		return Definition{}, s.reject(errs)
	}

	req.Name.Apply(&def.Name)
	req.Description.Apply(&def.Description)
	req.Pin.Apply(&def.Pin)
	if rules, ok := req.Rules.Get(); ok {
		def.Rules = rules
	}

	errs = validateDefinitionFields(def.Name, def.Description, def.Namespace, def.Key, def.Type, def.OwnerResource)
	errs.Merge(s.rules.Validate(def.Type, def.Rules))
	if !errs.IsEmpty() {
		return Definition{}, s.reject(errs)
	}

	def.UpdatedAt = s.now()
	err = s.store.InTx(ctx, func(tx Storage) error {
		var err error
		def, err = tx.UpdateDefinition(ctx, def)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrDefinitionNotFound) {
			return Definition{}, err
		}
		return Definition{}, errors.Join(ErrFailedToSaveDefinition, err)
	}

	s.metrics.definitionChanged("update", def.OwnerResource)
	s.logger.InfoContext(ctx, "metafield definition updated",
		logger.StoreID(storeID),
		logger.DefinitionID(def.ID),
	)
	return def, nil
}

// Remove deletes a definition and its invalid markers, then publishes
// DefinitionDeleted. With cascade the event triggers removal of the
// definition's metafields; without it they are kept.
func (s *DefinitionService) Remove(ctx context.Context, storeID uuid.UUID, id int64, cascade bool) error {
	var def Definition
	err := s.store.InTx(ctx, func(tx Storage) error {
		var err error
		def, err = tx.GetDefinition(ctx, storeID, id)
		if err != nil {
			return err
		}
		if err := authorize(ctx, s.authz, ActionDelete, def.OwnerResource); err != nil {
			return err
		}
		if _, err := tx.DeleteInvalidMarkers(ctx, storeID, id); err != nil {
			return err
		}
		return tx.DeleteDefinition(ctx, storeID, id)
	})
	if err != nil {
		if errors.Is(err, ErrDefinitionNotFound) || errors.Is(err, ErrForbidden) {
			return err
		}
		return errors.Join(ErrFailedToRemoveDefinition, err)
	}

	s.metrics.definitionChanged("delete", def.OwnerResource)
	s.logger.InfoContext(ctx, "metafield definition removed",
		logger.StoreID(storeID),
		logger.DefinitionID(id),
		slog.Bool("cascade", cascade),
	)

	if s.publisher == nil {
		return nil
	}
	event := DefinitionDeleted{
		ID:            def.ID,
		StoreID:       storeID,
		Name:          def.Name,
		Namespace:     def.Namespace,
		Key:           def.Key,
		Type:          def.Type,
		OwnerResource: def.OwnerResource,
		Cascade:       cascade,
	}
	if err := s.publisher.PublishDefinitionDeleted(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish definition deleted event",
			logger.StoreID(storeID),
			logger.DefinitionID(id),
			logger.Error(err),
		)
		return errors.Join(ErrFailedToPublishEvent, err)
	}
	if cascade {
		s.logger.InfoContext(ctx, "metafield cascade scheduled",
			logger.StoreID(storeID),
			logger.DefinitionID(id),
		)
	}
	return nil
}

// EnrichMetafieldDataCount fills MetafieldsCount and InvalidCount on each response in place.
func (s *DefinitionService) EnrichMetafieldDataCount(ctx context.Context, storeID uuid.UUID, defs []DefinitionResponse) error {
	if len(defs) == 0 {
		return nil
	}
	keys := make([]DefinitionKey, len(defs))
	ids := make([]int64, len(defs))
	for i, d := range defs {
		keys[i] = d.DefinitionKey()
		ids[i] = d.ID
	}

	counts, err := s.store.CountMetafieldsByDefinitionKeys(ctx, storeID, keys)
	if err != nil {
		return errors.Join(ErrFailedToCountUsage, err)
	}
	invalid, err := s.store.CountInvalidByDefinitions(ctx, storeID, ids)
	if err != nil {
		return errors.Join(ErrFailedToCountUsage, err)
	}
	for i := range defs {
		defs[i].MetafieldsCount = counts[defs[i].DefinitionKey()]
		defs[i].InvalidCount = invalid[defs[i].ID]
	}
	return nil
}

// MetafieldFilterValues describes how list views can filter owner objects
// by each of the owner resource's definitions.
func (s *DefinitionService) MetafieldFilterValues(ctx context.Context, storeID uuid.UUID, owner OwnerResource) ([]FilterValue, error) {
	if err := authorize(ctx, s.authz, ActionRead, owner); err != nil {
		return nil, err
	}
	defs, err := s.store.ListDefinitions(ctx, storeID, DefinitionFilter{OwnerResource: owner})
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadDefinitions, err)
	}

	out := make([]FilterValue, 0, len(defs))
	for _, d := range defs {
		typeFilter := FilterListChoice
		if _, ok := d.Type.Reference(); ok {
			typeFilter = FilterPaginatedListChoice
		}
		out = append(out, FilterValue{
			DefinitionID:  d.ID,
			Name:          d.Name,
			FilterParam:   fmt.Sprintf("metafields.%s.%s", d.Namespace, d.Key),
			TypeFilter:    typeFilter,
			AllowMultiple: d.Type != TypeBoolean,
			ValueType:     d.Type,
		})
	}
	return out, nil
}

// reject records errs in metrics and returns them as an error.
func (s *DefinitionService) reject(errs ValidationErrors) error {
	s.metrics.rejected(errs)
	return errs
}

func takenDefinition() ValidationErrors {
	return ValidationErrors{validator.NewError(validator.CodeTaken, "Key is in use for this owner type.", fieldKey)}
}

func validateDefinitionFields(name, description, namespace, key string, t ValueType, owner OwnerResource) ValidationErrors {
	errs := validator.Collect(
		validator.Required(fieldName, name),
		validator.MaxLen(fieldName, name, maxNameLength),
		validator.MaxLen(fieldDescription, description, maxDescriptionLength),
		validator.InList(fieldOwnerResource, owner, OwnerResources),
	)
	errs.Merge(validateIdentity(namespace, key))
	if !t.Known() {
		errs.Add(validator.NewError(validator.CodeInvalid, "is not a supported type", fieldType))
	}
	return errs
}

// identifierPattern restricts namespaces and keys to URL and filter-param safe characters.
var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// validateIdentity checks the namespace and key shared by definitions and metafields.
func validateIdentity(namespace, key string) ValidationErrors {
	var errs ValidationErrors
	for _, f := range []struct {
		name, value string
		max         int
	}{
		{fieldNamespace, namespace, maxNamespaceLength},
		{fieldKey, key, maxKeyLength},
	} {
		if e, ok := validator.First(
			validator.Required(f.name, f.value),
			validator.MaxLen(f.name, f.value, f.max),
			validator.Matches(f.name, f.value, identifierPattern, "letters, digits, underscores and hyphens"),
		); !ok {
			errs.Add(e)
		}
	}
	return errs
}

// immutable fails when v is set to something other than current.
func immutable[T comparable](field string, v optional.Value[T], current T) ValidationErrors {
	if next, ok := v.Get(); ok && next != current {
		return ValidationErrors{validator.NewError(validator.CodeImmutable, "can't be changed", field)}
	}
	return nil
}
