package metafield

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"
)

type storedMarker struct {
	storeID uuid.UUID
	InvalidMarker
}

type memState struct {
	definitions     map[int64]Definition
	metafields      map[int64]Metafield
	markers         []storedMarker
	nextDefinition  int64
	nextMetafieldID int64
}

func (s *memState) clone() *memState {
	c := &memState{
		definitions:     make(map[int64]Definition, len(s.definitions)),
		metafields:      maps.Clone(s.metafields),
		markers:         slices.Clone(s.markers),
		nextDefinition:  s.nextDefinition,
		nextMetafieldID: s.nextMetafieldID,
	}
	for id, d := range s.definitions {
		d.Rules = slices.Clone(d.Rules)
		c.definitions[id] = d
	}
	return c
}

// MemoryStorage is an in-memory Storage for tests and local development.
// Transactions work on a copy that replaces the live state on commit;
// they are serialized with each other.
type MemoryStorage struct {
	mu    *sync.RWMutex
	txMu  *sync.Mutex
	state *memState
	inTx  bool
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		mu:   &sync.RWMutex{},
		txMu: &sync.Mutex{},
		state: &memState{
			definitions: make(map[int64]Definition),
			metafields:  make(map[int64]Metafield),
		},
	}
}

func (ms *MemoryStorage) InTx(ctx context.Context, fn func(tx Storage) error) error {
	if ms.inTx {
		return fn(ms)
	}

	ms.txMu.Lock()
	defer ms.txMu.Unlock()

	ms.mu.RLock()
	tx := &MemoryStorage{
		mu:    &sync.RWMutex{},
		txMu:  ms.txMu,
		state: ms.state.clone(),
		inTx:  true,
	}
	ms.mu.RUnlock()

	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	ms.mu.Lock()
	ms.state = tx.state
	ms.mu.Unlock()
	return nil
}

// AddInvalidMarker flags a metafield as failing its definition's rules.
func (ms *MemoryStorage) AddInvalidMarker(storeID uuid.UUID, marker InvalidMarker) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.state.markers = append(ms.state.markers, storedMarker{storeID: storeID, InvalidMarker: marker})
}

func definitionMatches(d Definition, storeID uuid.UUID, f DefinitionFilter) bool {
	if d.StoreID != storeID {
		return false
	}
	if f.OwnerResource != "" && d.OwnerResource != f.OwnerResource {
		return false
	}
	if f.Namespace != "" && d.Namespace != f.Namespace {
		return false
	}
	if f.Key != "" && d.Key != f.Key {
		return false
	}
	if f.Type != "" && d.Type != f.Type {
		return false
	}
	if pin, ok := f.Pinned.Get(); ok && d.Pin != pin {
		return false
	}
	return true
}

func (ms *MemoryStorage) ListDefinitions(_ context.Context, storeID uuid.UUID, filter DefinitionFilter) ([]Definition, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	var out []Definition
	for _, d := range ms.state.definitions {
		if definitionMatches(d, storeID, filter) {
			d.Rules = slices.Clone(d.Rules)
			out = append(out, d)
		}
	}
	slices.SortFunc(out, func(a, b Definition) int {
		if filter.Reverse {
			return cmp.Compare(b.ID, a.ID)
		}
		return cmp.Compare(a.ID, b.ID)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (ms *MemoryStorage) CountDefinitions(_ context.Context, storeID uuid.UUID, filter DefinitionFilter) (int64, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	var n int64
	for _, d := range ms.state.definitions {
		if definitionMatches(d, storeID, filter) {
			n++
		}
	}
	return n, nil
}

func (ms *MemoryStorage) GetDefinition(_ context.Context, storeID uuid.UUID, id int64) (Definition, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	d, ok := ms.state.definitions[id]
	if !ok || d.StoreID != storeID {
		return Definition{}, ErrDefinitionNotFound
	}
	d.Rules = slices.Clone(d.Rules)
	return d, nil
}

func (ms *MemoryStorage) FindDefinition(_ context.Context, storeID uuid.UUID, key DefinitionKey) (Definition, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	for _, d := range ms.state.definitions {
		if d.StoreID == storeID && d.DefinitionKey() == key {
			d.Rules = slices.Clone(d.Rules)
			return d, nil
		}
	}
	return Definition{}, ErrDefinitionNotFound
}

func (ms *MemoryStorage) CreateDefinition(_ context.Context, def Definition) (Definition, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	for _, d := range ms.state.definitions {
		if d.StoreID == def.StoreID && d.DefinitionKey() == def.DefinitionKey() {
			return Definition{}, ErrDefinitionTaken
		}
	}
	ms.state.nextDefinition++
	def.ID = ms.state.nextDefinition
	def.Rules = slices.Clone(def.Rules)
	ms.state.definitions[def.ID] = def
	return def, nil
}

func (ms *MemoryStorage) UpdateDefinition(_ context.Context, def Definition) (Definition, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	cur, ok := ms.state.definitions[def.ID]
	if !ok || cur.StoreID != def.StoreID {
		return Definition{}, ErrDefinitionNotFound
	}
	def.Rules = slices.Clone(def.Rules)
	ms.state.definitions[def.ID] = def
	return def, nil
}

func (ms *MemoryStorage) DeleteDefinition(_ context.Context, storeID uuid.UUID, id int64) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	d, ok := ms.state.definitions[id]
	if !ok || d.StoreID != storeID {
		return ErrDefinitionNotFound
	}
	delete(ms.state.definitions, id)
	return nil
}

func (ms *MemoryStorage) DeleteInvalidMarkers(_ context.Context, storeID uuid.UUID, definitionID int64) (int64, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	before := len(ms.state.markers)
	ms.state.markers = slices.DeleteFunc(ms.state.markers, func(m storedMarker) bool {
		return m.storeID == storeID && m.DefinitionID == definitionID
	})
	return int64(before - len(ms.state.markers)), nil
}

func (ms *MemoryStorage) CountInvalidByDefinitions(_ context.Context, storeID uuid.UUID, ids []int64) (map[int64]int64, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	counts := make(map[int64]int64, len(ids))
	for _, m := range ms.state.markers {
		if m.storeID == storeID && slices.Contains(ids, m.DefinitionID) {
			counts[m.DefinitionID]++
		}
	}
	return counts, nil
}

func (ms *MemoryStorage) GetMetafield(_ context.Context, storeID uuid.UUID, id int64) (Metafield, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	m, ok := ms.state.metafields[id]
	if !ok || m.StoreID != storeID {
		return Metafield{}, ErrMetafieldNotFound
	}
	return m, nil
}

func (ms *MemoryStorage) FindMetafield(_ context.Context, storeID uuid.UUID, key NaturalKey) (Metafield, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	for _, m := range ms.state.metafields {
		if m.StoreID == storeID && m.NaturalKey() == key {
			return m, nil
		}
	}
	return Metafield{}, ErrMetafieldNotFound
}

func (ms *MemoryStorage) ListMetafields(_ context.Context, storeID uuid.UUID, owner OwnerResource, ownerID int64) ([]Metafield, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	var out []Metafield
	for _, m := range ms.state.metafields {
		if m.StoreID == storeID && m.OwnerResource == owner && m.OwnerID == ownerID {
			out = append(out, m)
		}
	}
	slices.SortFunc(out, func(a, b Metafield) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (ms *MemoryStorage) SaveMetafields(_ context.Context, storeID uuid.UUID, items []Metafield) ([]Metafield, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	// Stage into a copy so a conflict leaves no partial writes.
	staged := maps.Clone(ms.state.metafields)
	next := ms.state.nextMetafieldID
	out := make([]Metafield, len(items))
	for i, m := range items {
		m.StoreID = storeID
		for id, other := range staged {
			if id != m.ID && other.StoreID == storeID && other.NaturalKey() == m.NaturalKey() {
				return nil, ErrMetafieldTaken
			}
		}
		if m.ID == 0 {
			next++
			m.ID = next
		} else if cur, ok := staged[m.ID]; !ok || cur.StoreID != storeID {
			return nil, ErrMetafieldNotFound
		}
		staged[m.ID] = m
		out[i] = m
	}
	ms.state.metafields = staged
	ms.state.nextMetafieldID = next
	return out, nil
}

func (ms *MemoryStorage) DeleteMetafield(_ context.Context, storeID uuid.UUID, id int64) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	m, ok := ms.state.metafields[id]
	if !ok || m.StoreID != storeID {
		return ErrMetafieldNotFound
	}
	delete(ms.state.metafields, id)
	ms.dropMarkers(func(mfID int64) bool { return mfID == id })
	return nil
}

// dropMarkers removes markers of deleted metafields. Caller holds mu.
func (ms *MemoryStorage) dropMarkers(deleted func(metafieldID int64) bool) {
	ms.state.markers = slices.DeleteFunc(ms.state.markers, func(m storedMarker) bool {
		return deleted(m.MetafieldID)
	})
}

func (ms *MemoryStorage) DeleteMetafieldsByDefinition(_ context.Context, storeID uuid.UUID, key DefinitionKey) (int64, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	removed := make(map[int64]bool)
	for id, m := range ms.state.metafields {
		if m.StoreID == storeID && m.DefinitionKey() == key {
			delete(ms.state.metafields, id)
			removed[id] = true
		}
	}
	ms.dropMarkers(func(mfID int64) bool { return removed[mfID] })
	return int64(len(removed)), nil
}

func (ms *MemoryStorage) CountMetafieldsByDefinitionKeys(_ context.Context, storeID uuid.UUID, keys []DefinitionKey) (map[DefinitionKey]int64, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	counts := make(map[DefinitionKey]int64, len(keys))
	for _, m := range ms.state.metafields {
		if m.StoreID == storeID && slices.Contains(keys, m.DefinitionKey()) {
			counts[m.DefinitionKey()]++
		}
	}
	return counts, nil
}
