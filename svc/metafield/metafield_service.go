package metafield

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/metafields/pkg/async"
	"github.com/dmitrymomot/metafields/pkg/logger"
	"github.com/dmitrymomot/metafields/pkg/optional"
	"github.com/dmitrymomot/metafields/pkg/rbac"
	"github.com/dmitrymomot/metafields/pkg/validator"
)

// User-facing messages for metafield writes.
const (
	msgOwnerMissing     = "Owner does not exist."
	msgMetafieldMissing = "Metafield does not exist."
	msgTypeMismatch     = "Type must match definition."
	msgKeyTaken         = "Key is in use for this owner."
	msgKeyDuplicated    = "Key is duplicated in this request."
)

// MetafieldService validates and persists metafield values.
type MetafieldService struct {
	store    Storage
	provider *Provider
	owners   OwnerChecker
	locker   Locker
	authz    rbac.Authorizer
	cfg      Config
	logger   *slog.Logger
	metrics  *Metrics
	now      func() time.Time
}

// NewMetafieldService creates a MetafieldService.
func NewMetafieldService(store Storage, opts ...Option) *MetafieldService {
	o := newOptions(opts)

	provider := o.provider
	if provider == nil {
		provider = NewProvider(o.owners, o.cfg)
	}
	locker := o.locker
	if locker == nil {
		locker = NewLocalLocker()
	}

	return &MetafieldService{
		store:    store,
		provider: provider,
		owners:   o.owners,
		locker:   locker,
		authz:    o.authz,
		cfg:      o.cfg,
		logger:   o.logger,
		metrics:  o.metrics,
		now:      o.now,
	}
}

// ValidateAndGenerate resolves each request into a metafield ready to save.
// Requests with an id update that metafield; the rest create new ones.
// Errors are indexed by request position under "metafields".
func (s *MetafieldService) ValidateAndGenerate(ctx context.Context, storeID uuid.UUID, ownerID int64, owner OwnerResource, reqs []FieldRequest) ([]Metafield, error) {
	if errs := validateOwner(owner); !errs.IsEmpty() {
		return nil, s.reject(errs)
	}

	var errs ValidationErrors
	items := make([]Metafield, 0, len(reqs))
	seen := make(map[NaturalKey]bool, len(reqs))
	for i, req := range reqs {
		m, itemErrs, err := s.prepare(ctx, storeID, ownerID, owner, req)
		if err != nil {
			return nil, err
		}
		if itemErrs.IsEmpty() && seen[m.NaturalKey()] {
			itemErrs.Add(validator.NewError(validator.CodeTaken, msgKeyDuplicated, fieldKey))
		}
		if !itemErrs.IsEmpty() {
			errs.Merge(itemErrs.Prefixed(fieldMetafields, strconv.Itoa(i)))
			continue
		}
		seen[m.NaturalKey()] = true
		items = append(items, m)
	}
	if !errs.IsEmpty() {
		return nil, s.reject(errs)
	}
	return items, nil
}

// ValidateByTypeAndDefinition checks values against their effective type and,
// when a definition shares the key, its rules. Nothing is loaded beyond the
// metafield named by id and the matching definition.
func (s *MetafieldService) ValidateByTypeAndDefinition(ctx context.Context, storeID uuid.UUID, owner OwnerResource, reqs []FieldRequest) error {
	if errs := validateOwner(owner); !errs.IsEmpty() {
		return s.reject(errs)
	}

	var errs ValidationErrors
	for i, req := range reqs {
		m := Metafield{StoreID: storeID, OwnerResource: owner}
		if id, ok := req.ID.Get(); ok {
			cur, err := s.store.GetMetafield(ctx, storeID, id)
			switch {
			case err == nil:
				m = cur
			case !errors.Is(err, ErrMetafieldNotFound):
				return errors.Join(ErrFailedToLoadMetafields, err)
			}
		}
		req.Key.Apply(&m.Key)
		req.Namespace.Apply(&m.Namespace)
		req.Value.Apply(&m.Value)
		req.ValueType.Apply(&m.ValueType)

		itemErrs, err := s.validateValue(ctx, storeID, &m, req)
		if err != nil {
			return err
		}
		errs.Merge(itemErrs.Prefixed(fieldMetafields, strconv.Itoa(i)))
	}
	if !errs.IsEmpty() {
		return s.reject(errs)
	}
	return nil
}

// Upsert saves reqs on one owner. A request without id whose namespace and
// key already exist on the owner updates that metafield instead of failing.
func (s *MetafieldService) Upsert(ctx context.Context, storeID uuid.UUID, ownerID int64, owner OwnerResource, reqs []FieldRequest) ([]Metafield, error) {
	if errs := validateOwner(owner); !errs.IsEmpty() {
		return nil, s.reject(errs)
	}
	if err := authorize(ctx, s.authz, ActionWrite, owner); err != nil {
		return nil, err
	}

	unlock, err := s.lock(ctx, storeID, []ownerRef{{owner, ownerID}})
	if err != nil {
		return nil, err
	}
	defer unlock()

	reqs = slices.Clone(reqs)
	for i, req := range reqs {
		if req.ID.IsSet() {
			continue
		}
		ns, nsOK := req.Namespace.Get()
		key, keyOK := req.Key.Get()
		if !nsOK || !keyOK {
			continue
		}
		cur, err := s.store.FindMetafield(ctx, storeID, NaturalKey{Namespace: ns, Key: key, OwnerResource: owner, OwnerID: ownerID})
		switch {
		case err == nil:
			reqs[i].ID = optional.Of(cur.ID)
		case !errors.Is(err, ErrMetafieldNotFound):
			return nil, errors.Join(ErrFailedToLoadMetafields, err)
		}
	}

	items, err := s.ValidateAndGenerate(ctx, storeID, ownerID, owner, reqs)
	if err != nil {
		return nil, err
	}

	var saved []Metafield
	err = s.store.InTx(ctx, func(tx Storage) error {
		var err error
		saved, err = tx.SaveMetafields(ctx, storeID, items)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrMetafieldTaken) {
			return nil, s.reject(ValidationErrors{validator.NewError(validator.CodeTaken, msgKeyTaken, fieldMetafields)})
		}
		return nil, errors.Join(ErrFailedToSaveMetafields, err)
	}

	s.metrics.valuesPersisted(saved)
	s.logger.DebugContext(ctx, "metafields upserted",
		logger.StoreID(storeID),
		logger.OwnerResource(string(owner)),
		slog.Int64("owner_id", ownerID),
		logger.Count(int64(len(saved))),
	)
	return saved, nil
}

// Sets saves a batch spanning owners. Each item fails on its own: invalid
// items are reported in SetsResult.Errors under "metafields.<index>" and the
// valid ones are still persisted. The returned error is for failures that
// stop the whole batch, such as a missing permission.
func (s *MetafieldService) Sets(ctx context.Context, storeID uuid.UUID, items []SetRequest) (SetsResult, error) {
	var result SetsResult

	refs := make([]ownerRef, 0, len(items))
	for _, it := range items {
		if it.OwnerResource.Valid() {
			refs = append(refs, ownerRef{it.OwnerResource, it.OwnerID})
		}
	}
	refs = uniqueRefs(refs)
	for _, owner := range OwnerResources {
		if slices.ContainsFunc(refs, func(r ownerRef) bool { return r.resource == owner }) {
			if err := authorize(ctx, s.authz, ActionWrite, owner); err != nil {
				return result, err
			}
		}
	}

	exists, err := async.Map(ctx, items, s.cfg.OwnerCheckConcurrency, func(ctx context.Context, _ int, it SetRequest) (bool, error) {
		if !it.OwnerResource.Valid() || it.OwnerID <= 0 {
			return false, nil
		}
		if s.owners == nil {
			return true, nil
		}
		return s.owners.Exists(ctx, it.OwnerResource, it.OwnerID, storeID)
	})
	if err != nil {
		return result, errors.Join(ErrFailedToCheckOwner, err)
	}

	unlock, err := s.lock(ctx, storeID, refs)
	if err != nil {
		return result, err
	}
	defer unlock()

	var (
		valid   []Metafield
		indexes []int
		seen    = make(map[NaturalKey]bool, len(items))
	)
	for i, it := range items {
		path := []string{fieldMetafields, strconv.Itoa(i)}
		if errs := validateOwner(it.OwnerResource); !errs.IsEmpty() {
			result.Errors.Merge(errs.Prefixed(path...))
			continue
		}
		if !exists[i] {
			result.Errors.Add(validator.NewError(validator.CodeInvalid, msgOwnerMissing, append(path, fieldOwner)...))
			continue
		}

		m, itemErrs, err := s.prepare(ctx, storeID, it.OwnerID, it.OwnerResource, it.FieldRequest)
		if err != nil {
			return result, err
		}
		if itemErrs.IsEmpty() && seen[m.NaturalKey()] {
			itemErrs.Add(validator.NewError(validator.CodeTaken, msgKeyDuplicated, fieldKey))
		}
		if !itemErrs.IsEmpty() {
			result.Errors.Merge(itemErrs.Prefixed(path...))
			continue
		}
		seen[m.NaturalKey()] = true
		valid = append(valid, m)
		indexes = append(indexes, i)
	}

	if len(valid) > 0 {
		saved, saveErrs, err := s.saveBatch(ctx, storeID, valid, indexes)
		if err != nil {
			return result, err
		}
		result.Saved = saved
		result.Errors.Merge(saveErrs)
	}

	s.metrics.rejected(result.Errors)
	s.metrics.valuesPersisted(result.Saved)
	if !result.Errors.IsEmpty() {
		s.logger.WarnContext(ctx, "metafield sets partially failed",
			logger.StoreID(storeID),
			logger.Count(int64(len(result.Saved))),
			slog.Int("failed_items", failedItems(result.Errors)),
		)
	}
	return result, nil
}

// saveBatch writes items in one transaction. If a concurrent writer took a
// key meanwhile, items are retried one by one so the conflict lands on its index.
func (s *MetafieldService) saveBatch(ctx context.Context, storeID uuid.UUID, items []Metafield, indexes []int) ([]Metafield, ValidationErrors, error) {
	var saved []Metafield
	err := s.store.InTx(ctx, func(tx Storage) error {
		var err error
		saved, err = tx.SaveMetafields(ctx, storeID, items)
		return err
	})
	if err == nil {
		return saved, nil, nil
	}
	if !errors.Is(err, ErrMetafieldTaken) {
		return nil, nil, errors.Join(ErrFailedToSaveMetafields, err)
	}

	var errs ValidationErrors
	saved = saved[:0]
	for i, item := range items {
		var out []Metafield
		err := s.store.InTx(ctx, func(tx Storage) error {
			var err error
			out, err = tx.SaveMetafields(ctx, storeID, []Metafield{item})
			return err
		})
		switch {
		case err == nil:
			saved = append(saved, out...)
		case errors.Is(err, ErrMetafieldTaken):
			errs.Add(validator.NewError(validator.CodeTaken, msgKeyTaken,
				fieldMetafields, strconv.Itoa(indexes[i]), fieldKey))
		default:
			return nil, nil, errors.Join(ErrFailedToSaveMetafields, err)
		}
	}
	return saved, errs, nil
}

// Get returns ErrMetafieldNotFound when id does not belong to the store.
func (s *MetafieldService) Get(ctx context.Context, storeID uuid.UUID, id int64) (Metafield, error) {
	m, err := s.store.GetMetafield(ctx, storeID, id)
	if err != nil {
		if errors.Is(err, ErrMetafieldNotFound) {
			return Metafield{}, err
		}
		return Metafield{}, errors.Join(ErrFailedToLoadMetafields, err)
	}
	if err := authorize(ctx, s.authz, ActionRead, m.OwnerResource); err != nil {
		return Metafield{}, err
	}
	return m, nil
}

// ListByOwner returns every metafield on one owner ordered by id.
func (s *MetafieldService) ListByOwner(ctx context.Context, storeID uuid.UUID, owner OwnerResource, ownerID int64) ([]Metafield, error) {
	if err := authorize(ctx, s.authz, ActionRead, owner); err != nil {
		return nil, err
	}
	items, err := s.store.ListMetafields(ctx, storeID, owner, ownerID)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadMetafields, err)
	}
	return items, nil
}

// Remove deletes one metafield.
func (s *MetafieldService) Remove(ctx context.Context, storeID uuid.UUID, id int64) error {
	m, err := s.store.GetMetafield(ctx, storeID, id)
	if err != nil {
		if errors.Is(err, ErrMetafieldNotFound) {
			return err
		}
		return errors.Join(ErrFailedToLoadMetafields, err)
	}
	if err := authorize(ctx, s.authz, ActionDelete, m.OwnerResource); err != nil {
		return err
	}

	unlock, err := s.lock(ctx, storeID, []ownerRef{{m.OwnerResource, m.OwnerID}})
	if err != nil {
		return err
	}
	defer unlock()

	err = s.store.InTx(ctx, func(tx Storage) error {
		return tx.DeleteMetafield(ctx, storeID, id)
	})
	if err != nil {
		if errors.Is(err, ErrMetafieldNotFound) {
			return err
		}
		return errors.Join(ErrFailedToRemoveMetafields, err)
	}
	s.logger.DebugContext(ctx, "metafield removed", logger.StoreID(storeID), logger.MetafieldID(id))
	return nil
}

// RemoveByDefinition deletes every metafield sharing key and returns how many were removed.
func (s *MetafieldService) RemoveByDefinition(ctx context.Context, storeID uuid.UUID, key DefinitionKey) (int64, error) {
	if err := authorize(ctx, s.authz, ActionDelete, key.OwnerResource); err != nil {
		return 0, err
	}
	n, err := s.removeByDefinition(ctx, storeID, key)
	if err != nil {
		return 0, errors.Join(ErrFailedToRemoveMetafields, err)
	}
	return n, nil
}

func (s *MetafieldService) removeByDefinition(ctx context.Context, storeID uuid.UUID, key DefinitionKey) (int64, error) {
	var n int64
	err := s.store.InTx(ctx, func(tx Storage) error {
		var err error
		n, err = tx.DeleteMetafieldsByDefinition(ctx, storeID, key)
		return err
	})
	if err != nil {
		return 0, err
	}
	s.metrics.cascaded(n)
	return n, nil
}

// CountByDefinitionKey returns how many metafields share key.
func (s *MetafieldService) CountByDefinitionKey(ctx context.Context, storeID uuid.UUID, key DefinitionKey) (int64, error) {
	counts, err := s.CountsByDefinitionKeys(ctx, storeID, []DefinitionKey{key})
	if err != nil {
		return 0, err
	}
	return counts[key], nil
}

// CountsByDefinitionKeys returns per-key metafield counts. Keys with no metafields are absent.
func (s *MetafieldService) CountsByDefinitionKeys(ctx context.Context, storeID uuid.UUID, keys []DefinitionKey) (map[DefinitionKey]int64, error) {
	counts, err := s.store.CountMetafieldsByDefinitionKeys(ctx, storeID, keys)
	if err != nil {
		return nil, errors.Join(ErrFailedToCountUsage, err)
	}
	return counts, nil
}

// prepare generates the metafield for req and validates its value.
func (s *MetafieldService) prepare(ctx context.Context, storeID uuid.UUID, ownerID int64, owner OwnerResource, req FieldRequest) (Metafield, ValidationErrors, error) {
	m, errs, err := s.generate(ctx, storeID, ownerID, owner, req)
	if err != nil || !errs.IsEmpty() {
		return m, errs, err
	}
	errs, err = s.validateValue(ctx, storeID, &m, req)
	return m, errs, err
}

// generate loads the metafield named by req.ID or builds a new one,
// enforcing identity rules. Values are applied but not validated.
func (s *MetafieldService) generate(ctx context.Context, storeID uuid.UUID, ownerID int64, owner OwnerResource, req FieldRequest) (Metafield, ValidationErrors, error) {
	var errs ValidationErrors
	now := s.now()

	var m Metafield
	if id, ok := req.ID.Get(); ok {
		cur, err := s.store.GetMetafield(ctx, storeID, id)
		switch {
		case errors.Is(err, ErrMetafieldNotFound):
			errs.Add(validator.NewError(validator.CodeInvalid, msgMetafieldMissing, fieldID))
			return m, errs, nil
		case err != nil:
			return m, nil, errors.Join(ErrFailedToLoadMetafields, err)
		case cur.OwnerResource != owner || cur.OwnerID != ownerID:
			errs.Add(validator.NewError(validator.CodeInvalid, msgMetafieldMissing, fieldID))
			return m, errs, nil
		}
		errs.Merge(immutable(fieldKey, req.Key, cur.Key))
		errs.Merge(immutable(fieldNamespace, req.Namespace, cur.Namespace))
		m = cur
	} else {
		m = Metafield{
			StoreID:       storeID,
			Key:           req.Key.Or(""),
			Namespace:     req.Namespace.Or(""),
			OwnerID:       ownerID,
			OwnerResource: owner,
			CreatedOn:     now,
		}
		errs = validateIdentity(m.Namespace, m.Key)
		if errs.IsEmpty() {
			_, err := s.store.FindMetafield(ctx, storeID, m.NaturalKey())
			switch {
			case err == nil:
				errs.Add(validator.NewError(validator.CodeTaken, msgKeyTaken, fieldKey))
			case !errors.Is(err, ErrMetafieldNotFound):
				return m, nil, errors.Join(ErrFailedToLoadMetafields, err)
			}
		}
	}
	if !errs.IsEmpty() {
		return m, errs, nil
	}

	req.Value.Apply(&m.Value)
	req.ValueType.Apply(&m.ValueType)
	m.ModifiedOn = now
	return m, nil, nil
}

// validateValue resolves the effective type of m (request, then definition,
// then stored) and checks the value against it and the definition's rules.
func (s *MetafieldService) validateValue(ctx context.Context, storeID uuid.UUID, m *Metafield, req FieldRequest) (ValidationErrors, error) {
	var errs ValidationErrors

	var rules Rules
	def, err := s.store.FindDefinition(ctx, storeID, m.DefinitionKey())
	switch {
	case err == nil:
		if t, ok := req.ValueType.Get(); ok && t != def.Type {
			errs.Add(validator.NewError(validator.CodeInvalid, msgTypeMismatch, fieldValueType))
			return errs, nil
		}
		m.ValueType = def.Type
		rules = def.Rules
	case !errors.Is(err, ErrDefinitionNotFound):
		return nil, errors.Join(ErrFailedToLoadDefinitions, err)
	}

	errs = validator.Collect(
		validator.Required(fieldValueType, string(m.ValueType)),
		validator.Required(fieldValue, m.Value),
	)
	if !errs.IsEmpty() {
		return errs, nil
	}

	msg, err := s.provider.Validate(ctx, m.ValueType, m.Value, rules, storeID)
	switch {
	case errors.Is(err, ErrUnsupportedValueType):
		errs.Add(validator.NewError(validator.CodeInvalid, "is not a supported type", fieldValueType))
	case err != nil:
		return nil, err
	case msg != "":
		errs.Add(validator.NewError(validator.CodeInvalid, msg, fieldValue))
	}
	return errs, nil
}

type ownerRef struct {
	resource OwnerResource
	id       int64
}

func uniqueRefs(refs []ownerRef) []ownerRef {
	slices.SortFunc(refs, func(a, b ownerRef) int {
		return cmp.Or(cmp.Compare(a.resource, b.resource), cmp.Compare(a.id, b.id))
	})
	return slices.Compact(refs)
}

// lock takes the owner locks in sorted order and returns a release func.
func (s *MetafieldService) lock(ctx context.Context, storeID uuid.UUID, refs []ownerRef) (func(), error) {
	refs = uniqueRefs(slices.Clone(refs))
	releases := make([]func(context.Context) error, 0, len(refs))
	release := func() {
		rctx := context.WithoutCancel(ctx)
		for i := len(releases) - 1; i >= 0; i-- {
			if err := releases[i](rctx); err != nil {
				s.logger.WarnContext(ctx, "failed to release owner lock", logger.Error(err))
			}
		}
	}
	start := time.Now()
	for _, r := range refs {
		unlock, err := s.locker.Lock(ctx, ownerLockKey(storeID, r.resource, r.id), s.cfg.LockTTL)
		if err != nil {
			release()
			return nil, errors.Join(ErrFailedToAcquireLock, err)
		}
		releases = append(releases, unlock)
	}
	s.logger.DebugContext(ctx, "owner locks acquired",
		logger.StoreID(storeID),
		logger.Count(int64(len(refs))),
		logger.Duration(time.Since(start)),
	)
	return release, nil
}

func (s *MetafieldService) reject(errs ValidationErrors) error {
	s.metrics.rejected(errs)
	return errs
}

// failedItems counts distinct item indexes in errs.
func failedItems(errs ValidationErrors) int {
	seen := make(map[string]bool)
	for _, e := range errs {
		if len(e.Fields) > 1 {
			seen[e.Fields[1]] = true
		}
	}
	return len(seen)
}

func validateOwner(owner OwnerResource) ValidationErrors {
	return validator.Collect(validator.InList(fieldOwnerResource, owner, OwnerResources))
}
