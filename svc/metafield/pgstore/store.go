package pgstore

import (
	"context"
	"embed"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/metafields/pkg/pg"
	"github.com/dmitrymomot/metafields/svc/metafield"
)

// Migrations holds the goose migrations for the metafield tables.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// DB is satisfied by *pgxpool.Pool and pgx.Tx.
type DB interface {
	pg.DBTX
	pg.TxBeginner
}

// Store implements metafield.Storage on PostgreSQL.
type Store struct {
	db DB
}

var _ metafield.Storage = (*Store)(nil)

func New(db DB) *Store {
	return &Store{db: db}
}

// InTx runs fn in a transaction. Nested calls use savepoints.
func (s *Store) InTx(ctx context.Context, fn func(tx metafield.Storage) error) error {
	return pg.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		return fn(&Store{db: tx})
	})
}

const definitionColumns = `id, store_id, name, description, key, namespace, type, owner_resource,
	pin, validation_status, created_at, updated_at`

func scanDefinition(row pgx.Row) (metafield.Definition, error) {
	var (
		d                       metafield.Definition
		typ, owner, validStatus string
	)
	err := row.Scan(&d.ID, &d.StoreID, &d.Name, &d.Description, &d.Key, &d.Namespace, &typ, &owner,
		&d.Pin, &validStatus, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return metafield.Definition{}, err
	}
	d.Type = metafield.ValueType(typ)
	d.OwnerResource = metafield.OwnerResource(owner)
	d.ValidationStatus = metafield.ValidationStatus(validStatus)
	return d, nil
}

// definitionWhere renders the filter as a WHERE clause starting at $1 = store id.
func definitionWhere(storeID uuid.UUID, f metafield.DefinitionFilter) (string, []any) {
	conds := []string{"store_id = $1"}
	args := []any{storeID}
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.OwnerResource != "" {
		add("owner_resource = $%d", string(f.OwnerResource))
	}
	if f.Namespace != "" {
		add("namespace = $%d", f.Namespace)
	}
	if f.Key != "" {
		add("key = $%d", f.Key)
	}
	if f.Type != "" {
		add("type = $%d", string(f.Type))
	}
	if pin, ok := f.Pinned.Get(); ok {
		add("pin = $%d", pin)
	}
	return strings.Join(conds, " AND "), args
}

func (s *Store) ListDefinitions(ctx context.Context, storeID uuid.UUID, filter metafield.DefinitionFilter) ([]metafield.Definition, error) {
	where, args := definitionWhere(storeID, filter)
	order := "ASC"
	if filter.Reverse {
		order = "DESC"
	}
	query := fmt.Sprintf("SELECT %s FROM metafield_definitions WHERE %s ORDER BY id %s", definitionColumns, where, order)
	if filter.Limit > 0 {
		args = append(args, filter.Limit, max(filter.Offset, 0))
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (metafield.Definition, error) {
		return scanDefinition(row)
	})
	if err != nil {
		return nil, err
	}
	if err := s.loadRules(ctx, defs); err != nil {
		return nil, err
	}
	return defs, nil
}

func (s *Store) CountDefinitions(ctx context.Context, storeID uuid.UUID, filter metafield.DefinitionFilter) (int64, error) {
	where, args := definitionWhere(storeID, filter)
	var n int64
	err := s.db.QueryRow(ctx, "SELECT count(*) FROM metafield_definitions WHERE "+where, args...).Scan(&n)
	return n, err
}

func (s *Store) GetDefinition(ctx context.Context, storeID uuid.UUID, id int64) (metafield.Definition, error) {
	return s.getDefinition(ctx,
		"SELECT "+definitionColumns+" FROM metafield_definitions WHERE store_id = $1 AND id = $2",
		storeID, id)
}

func (s *Store) FindDefinition(ctx context.Context, storeID uuid.UUID, key metafield.DefinitionKey) (metafield.Definition, error) {
	return s.getDefinition(ctx,
		"SELECT "+definitionColumns+` FROM metafield_definitions
		WHERE store_id = $1 AND owner_resource = $2 AND namespace = $3 AND key = $4`,
		storeID, string(key.OwnerResource), key.Namespace, key.Key)
}

func (s *Store) getDefinition(ctx context.Context, query string, args ...any) (metafield.Definition, error) {
	d, err := scanDefinition(s.db.QueryRow(ctx, query, args...))
	if pg.IsNotFoundError(err) {
		return metafield.Definition{}, metafield.ErrDefinitionNotFound
	}
	if err != nil {
		return metafield.Definition{}, err
	}
	defs := []metafield.Definition{d}
	if err := s.loadRules(ctx, defs); err != nil {
		return metafield.Definition{}, err
	}
	return defs[0], nil
}

// loadRules fills Rules of every definition in defs with one query.
func (s *Store) loadRules(ctx context.Context, defs []metafield.Definition) error {
	if len(defs) == 0 {
		return nil
	}
	ids := make([]int64, len(defs))
	index := make(map[int64]int, len(defs))
	for i, d := range defs {
		ids[i] = d.ID
		index[d.ID] = i
	}

	rows, err := s.db.Query(ctx, `
		SELECT definition_id, name, value FROM metafield_definition_rules
		WHERE definition_id = ANY($1)
		ORDER BY definition_id, position`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id          int64
			name, value string
		)
		if err := rows.Scan(&id, &name, &value); err != nil {
			return err
		}
		i := index[id]
		defs[i].Rules = append(defs[i].Rules, metafield.ValidationRule{Name: metafield.RuleName(name), Value: value})
	}
	return rows.Err()
}

func (s *Store) CreateDefinition(ctx context.Context, def metafield.Definition) (metafield.Definition, error) {
	err := s.db.QueryRow(ctx, `
		INSERT INTO metafield_definitions (store_id, name, description, key, namespace, type,
			owner_resource, pin, validation_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`,
		def.StoreID, def.Name, def.Description, def.Key, def.Namespace, string(def.Type),
		string(def.OwnerResource), def.Pin, string(def.ValidationStatus), def.CreatedAt, def.UpdatedAt,
	).Scan(&def.ID)
	if pg.IsDuplicateKeyError(err) {
		return metafield.Definition{}, metafield.ErrDefinitionTaken
	}
	if err != nil {
		return metafield.Definition{}, err
	}
	if err := s.insertRules(ctx, def.ID, def.Rules); err != nil {
		return metafield.Definition{}, err
	}
	return def, nil
}

func (s *Store) UpdateDefinition(ctx context.Context, def metafield.Definition) (metafield.Definition, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE metafield_definitions
		SET name = $3, description = $4, pin = $5, validation_status = $6, updated_at = $7
		WHERE store_id = $1 AND id = $2`,
		def.StoreID, def.ID, def.Name, def.Description, def.Pin, string(def.ValidationStatus), def.UpdatedAt,
	)
	if err != nil {
		return metafield.Definition{}, err
	}
	if tag.RowsAffected() == 0 {
		return metafield.Definition{}, metafield.ErrDefinitionNotFound
	}

	if _, err := s.db.Exec(ctx, "DELETE FROM metafield_definition_rules WHERE definition_id = $1", def.ID); err != nil {
		return metafield.Definition{}, err
	}
	if err := s.insertRules(ctx, def.ID, def.Rules); err != nil {
		return metafield.Definition{}, err
	}
	return def, nil
}

func (s *Store) insertRules(ctx context.Context, definitionID int64, rules metafield.Rules) error {
	if len(rules) == 0 {
		return nil
	}
	positions := make([]int32, len(rules))
	names := make([]string, len(rules))
	values := make([]string, len(rules))
	for i, r := range rules {
		positions[i] = int32(i)
		names[i] = string(r.Name)
		values[i] = r.Value
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO metafield_definition_rules (definition_id, position, name, value)
		SELECT $1, t.position, t.name, t.value
		FROM unnest($2::int[], $3::text[], $4::text[]) AS t(position, name, value)`,
		definitionID, positions, names, values,
	)
	return err
}

func (s *Store) DeleteDefinition(ctx context.Context, storeID uuid.UUID, id int64) error {
	tag, err := s.db.Exec(ctx, "DELETE FROM metafield_definitions WHERE store_id = $1 AND id = $2", storeID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return metafield.ErrDefinitionNotFound
	}
	return nil
}

func (s *Store) DeleteInvalidMarkers(ctx context.Context, storeID uuid.UUID, definitionID int64) (int64, error) {
	tag, err := s.db.Exec(ctx,
		"DELETE FROM metafield_invalid_markers WHERE store_id = $1 AND definition_id = $2",
		storeID, definitionID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *Store) CountInvalidByDefinitions(ctx context.Context, storeID uuid.UUID, ids []int64) (map[int64]int64, error) {
	rows, err := s.db.Query(ctx, `
		SELECT definition_id, count(*) FROM metafield_invalid_markers
		WHERE store_id = $1 AND definition_id = ANY($2)
		GROUP BY definition_id`, storeID, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int64]int64, len(ids))
	for rows.Next() {
		var id, n int64
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

// AddInvalidMarker flags a metafield as failing its definition's rules.
// Existing markers are left untouched.
func (s *Store) AddInvalidMarker(ctx context.Context, storeID uuid.UUID, marker metafield.InvalidMarker) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO metafield_invalid_markers (store_id, definition_id, metafield_id)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING`, storeID, marker.DefinitionID, marker.MetafieldID)
	return err
}

const metafieldColumns = `id, store_id, key, namespace, owner_id, owner_resource, value, value_type,
	created_on, modified_on`

func scanMetafield(row pgx.Row) (metafield.Metafield, error) {
	var (
		m                metafield.Metafield
		owner, valueType string
	)
	err := row.Scan(&m.ID, &m.StoreID, &m.Key, &m.Namespace, &m.OwnerID, &owner, &m.Value, &valueType,
		&m.CreatedOn, &m.ModifiedOn)
	if err != nil {
		return metafield.Metafield{}, err
	}
	m.OwnerResource = metafield.OwnerResource(owner)
	m.ValueType = metafield.ValueType(valueType)
	return m, nil
}

func (s *Store) getMetafield(ctx context.Context, query string, args ...any) (metafield.Metafield, error) {
	m, err := scanMetafield(s.db.QueryRow(ctx, query, args...))
	if pg.IsNotFoundError(err) {
		return metafield.Metafield{}, metafield.ErrMetafieldNotFound
	}
	return m, err
}

func (s *Store) GetMetafield(ctx context.Context, storeID uuid.UUID, id int64) (metafield.Metafield, error) {
	return s.getMetafield(ctx,
		"SELECT "+metafieldColumns+" FROM metafields WHERE store_id = $1 AND id = $2",
		storeID, id)
}

func (s *Store) FindMetafield(ctx context.Context, storeID uuid.UUID, key metafield.NaturalKey) (metafield.Metafield, error) {
	return s.getMetafield(ctx,
		"SELECT "+metafieldColumns+` FROM metafields
		WHERE store_id = $1 AND owner_resource = $2 AND owner_id = $3 AND namespace = $4 AND key = $5`,
		storeID, string(key.OwnerResource), key.OwnerID, key.Namespace, key.Key)
}

func (s *Store) ListMetafields(ctx context.Context, storeID uuid.UUID, owner metafield.OwnerResource, ownerID int64) ([]metafield.Metafield, error) {
	rows, err := s.db.Query(ctx,
		"SELECT "+metafieldColumns+` FROM metafields
		WHERE store_id = $1 AND owner_resource = $2 AND owner_id = $3
		ORDER BY id`,
		storeID, string(owner), ownerID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (metafield.Metafield, error) {
		return scanMetafield(row)
	})
}

func (s *Store) SaveMetafields(ctx context.Context, storeID uuid.UUID, items []metafield.Metafield) ([]metafield.Metafield, error) {
	out := make([]metafield.Metafield, len(items))
	for i, m := range items {
		m.StoreID = storeID
		var err error
		if m.ID == 0 {
			err = s.insertMetafield(ctx, &m)
		} else {
			err = s.updateMetafield(ctx, &m)
		}
		if pg.IsDuplicateKeyError(err) {
			return nil, metafield.ErrMetafieldTaken
		}
		if err != nil {
			return nil, err
		}
		out[i] = m
	}
	return out, nil
}

func (s *Store) insertMetafield(ctx context.Context, m *metafield.Metafield) error {
	if m.CreatedOn.IsZero() {
		m.CreatedOn = time.Now().UTC()
	}
	if m.ModifiedOn.IsZero() {
		m.ModifiedOn = m.CreatedOn
	}
	return s.db.QueryRow(ctx, `
		INSERT INTO metafields (store_id, key, namespace, owner_id, owner_resource, value, value_type,
			created_on, modified_on)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		m.StoreID, m.Key, m.Namespace, m.OwnerID, string(m.OwnerResource), m.Value, string(m.ValueType),
		m.CreatedOn, m.ModifiedOn,
	).Scan(&m.ID)
}

func (s *Store) updateMetafield(ctx context.Context, m *metafield.Metafield) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE metafields SET value = $3, value_type = $4, modified_on = $5
		WHERE store_id = $1 AND id = $2`,
		m.StoreID, m.ID, m.Value, string(m.ValueType), m.ModifiedOn,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return metafield.ErrMetafieldNotFound
	}
	return nil
}

func (s *Store) DeleteMetafield(ctx context.Context, storeID uuid.UUID, id int64) error {
	tag, err := s.db.Exec(ctx, "DELETE FROM metafields WHERE store_id = $1 AND id = $2", storeID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return metafield.ErrMetafieldNotFound
	}
	return nil
}

func (s *Store) DeleteMetafieldsByDefinition(ctx context.Context, storeID uuid.UUID, key metafield.DefinitionKey) (int64, error) {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM metafields
		WHERE store_id = $1 AND owner_resource = $2 AND namespace = $3 AND key = $4`,
		storeID, string(key.OwnerResource), key.Namespace, key.Key)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *Store) CountMetafieldsByDefinitionKeys(ctx context.Context, storeID uuid.UUID, keys []metafield.DefinitionKey) (map[metafield.DefinitionKey]int64, error) {
	counts := make(map[metafield.DefinitionKey]int64, len(keys))
	if len(keys) == 0 {
		return counts, nil
	}
	namespaces := make([]string, len(keys))
	names := make([]string, len(keys))
	owners := make([]string, len(keys))
	for i, k := range keys {
		namespaces[i], names[i], owners[i] = k.Namespace, k.Key, string(k.OwnerResource)
	}

	rows, err := s.db.Query(ctx, `
		SELECT k.namespace, k.key, k.owner_resource, count(m.id)
		FROM unnest($2::text[], $3::text[], $4::text[]) AS k(namespace, key, owner_resource)
		JOIN metafields m ON m.store_id = $1
			AND m.namespace = k.namespace AND m.key = k.key AND m.owner_resource = k.owner_resource
		GROUP BY k.namespace, k.key, k.owner_resource`,
		storeID, namespaces, names, owners)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			k     metafield.DefinitionKey
			owner string
			n     int64
		)
		if err := rows.Scan(&k.Namespace, &k.Key, &owner, &n); err != nil {
			return nil, err
		}
		k.OwnerResource = metafield.OwnerResource(owner)
		counts[k] = n
	}
	return counts, rows.Err()
}
