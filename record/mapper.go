// Copyright (c) 2026 MatBedoyan
// Rowkeeper - active record data layer for the ranking application
// This source code is licensed under the MIT license found in the LICENSE file.

package record

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// Mapper provides generic CRUD operations for a single model type. The
// database handle is an explicit constructor argument; mappers hold no
// ambient global state. Statement text is assembled from the declared
// schema only, and every value travels as a bound argument formatted by
// Bun's dialect-aware escaper.
type Mapper[T Model] struct {
	db     *bun.DB
	schema Schema

	// Comma-separated declared column list, precomputed once since the
	// set of columns for a given model is constant.
	columns string
}

// NewMapper builds a mapper for the model type T against the given
// database handle. Acting without a handle or with broken schema metadata
// is a configuration error and panics rather than producing undefined
// behavior on the first query.
func NewMapper[T Model](db *bun.DB) *Mapper[T] {
	if db == nil {
		panic("record: NewMapper called without a database handle")
	}
	s := newModel[T]().Schema()
	if err := s.validate(); err != nil {
		panic(err)
	}
	cols := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		cols = append(cols, f.Name)
	}
	return &Mapper[T]{db: db, schema: s, columns: strings.Join(cols, ", ")}
}

// newModel instantiates a concrete value for T. Direct instantiation is not
// possible where T is a pointer type, so it goes through reflection.
func newModel[T Model]() T {
	rt := reflect.TypeFor[T]()
	if rt.Kind() == reflect.Pointer {
		return reflect.New(rt.Elem()).Interface().(T)
	}
	var zero T
	return zero
}

// Schema returns the declared schema for the mapped model type.
func (r *Mapper[T]) Schema() Schema {
	return r.schema
}

func (r *Mapper[T]) selectList() string {
	return "SELECT " + r.columns + " FROM " + r.schema.Table
}

// All returns every row of the table mapped to model instances, in the
// database's default return order.
func (r *Mapper[T]) All(ctx context.Context) ([]T, error) {
	return r.queryModels(ctx, r.selectList())
}

// Get returns up to limit rows, with no ordering guarantee beyond the
// provider's default.
func (r *Mapper[T]) Get(ctx context.Context, limit int) ([]T, error) {
	return r.queryModels(ctx, r.selectList()+" LIMIT ?", limit)
}

// Find returns the row whose primary key equals id, or the zero value of T
// and a nil error when no such row exists. If several rows share the id
// (which uniqueness should prevent) only the first is returned.
func (r *Mapper[T]) Find(ctx context.Context, id int64) (T, error) {
	pk, _ := r.schema.PrimaryKey()
	return r.queryOne(ctx, r.selectList()+" WHERE "+pk.Name+" = ? LIMIT 1", id)
}

// FindBy returns the single row where column equals value, or the zero
// value of T and a nil error when nothing matches. The column is validated
// against the declared schema and the value is bound, never spliced into
// the statement text.
func (r *Mapper[T]) FindBy(ctx context.Context, column string, value any) (T, error) {
	var zero T
	arg, err := r.filterArg(column, value)
	if err != nil {
		return zero, err
	}
	return r.queryOne(ctx, r.selectList()+" WHERE "+column+" = ? LIMIT 1", arg)
}

// WhereAll returns every row where column equals value, with the same
// column whitelisting and binding as FindBy.
func (r *Mapper[T]) WhereAll(ctx context.Context, column string, value any) ([]T, error) {
	arg, err := r.filterArg(column, value)
	if err != nil {
		return nil, err
	}
	return r.queryModels(ctx, r.selectList()+" WHERE "+column+" = ?", arg)
}

// WhereLikeMultiple returns rows where ANY of the given columns contains
// the corresponding value as a substring; the predicates are combined with
// OR. Case sensitivity follows the provider default. Pattern
// metacharacters in the values are escaped so they match literally.
func (r *Mapper[T]) WhereLikeMultiple(ctx context.Context, contains map[string]string) ([]T, error) {
	if len(contains) == 0 {
		return nil, fmt.Errorf("record: WhereLikeMultiple requires at least one column")
	}
	columns := make([]string, 0, len(contains))
	for column := range contains {
		if _, ok := r.schema.Field(column); !ok {
			return nil, fmt.Errorf("%w: %q in table %q", ErrUnknownColumn, column, r.schema.Table)
		}
		columns = append(columns, column)
	}
	sort.Strings(columns)

	preds := make([]string, 0, len(columns))
	args := make([]any, 0, len(columns)*2)
	for _, column := range columns {
		preds = append(preds, column+" LIKE ? ESCAPE ?")
		args = append(args, "%"+escapeLike(contains[column])+"%", `\`)
	}
	query := r.selectList() + " WHERE " + strings.Join(preds, " OR ")
	return r.queryModels(ctx, query, args...)
}

// RawQuery executes a fully-formed read statement with optional bound
// arguments and maps the results. The caller owns the statement text.
func (r *Mapper[T]) RawQuery(ctx context.Context, query string, args ...any) ([]T, error) {
	return r.queryModels(ctx, query, args...)
}

// Save persists the instance: insert when the primary key is absent,
// update when it is present. This is the only entry point callers should
// use for persistence.
func (r *Mapper[T]) Save(ctx context.Context, m T) error {
	if m.PrimaryKey() == 0 {
		return r.create(ctx, m)
	}
	return r.update(ctx, m)
}

// create builds an INSERT from all non-null declared attributes. A fresh
// instance with nothing set fails locally without contacting the database.
// A declared created-at column left unset is stamped with the current time,
// but only once the instance carries real attributes. On success the
// instance's primary key holds the server-assigned id.
func (r *Mapper[T]) create(ctx context.Context, m T) error {
	attrs := m.Attributes()
	cols := make([]string, 0, len(r.schema.Fields))
	args := make([]any, 0, len(r.schema.Fields))
	for _, f := range r.schema.Fields {
		if f.PrimaryKey {
			continue
		}
		v, ok := attrs[f.Name]
		if !ok || v == nil {
			continue
		}
		cols = append(cols, f.Name)
		args = append(args, v)
	}
	if len(cols) == 0 {
		return ErrNoAttributes
	}

	now := time.Now().UTC()
	for _, f := range r.schema.Fields {
		if !f.CreatedAt || attrs[f.Name] != nil {
			continue
		}
		if err := m.Assign(f.Name, now); err != nil {
			return fmt.Errorf("record: stamp %s: %w", f.Name, err)
		}
		cols = append(cols, f.Name)
		args = append(args, now)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		r.schema.Table, strings.Join(cols, ", "), placeholders(len(cols)))
	debugf("record: %s", query)

	pk, _ := r.schema.PrimaryKey()
	if r.db.Dialect().Name() == dialect.PG {
		// LastInsertId is not supported by the pgx driver; ask the
		// statement to hand the id back instead.
		var id int64
		if err := r.db.NewRaw(query+" RETURNING "+pk.Name, args...).Scan(ctx, &id); err != nil {
			return MapDBError(err)
		}
		m.SetPrimaryKey(id)
		return nil
	}

	res, err := r.db.NewRaw(query, args...).Exec(ctx)
	if err != nil {
		return MapDBError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("record: read inserted id: %w", err)
	}
	m.SetPrimaryKey(id)
	return nil
}

// update builds an UPDATE over all declared attributes except the
// created-at column, which is never modified after insert. A declared
// updated-at column is stamped with the current time before the statement
// is built. The statement is scoped to the single row matched by the
// primary key.
func (r *Mapper[T]) update(ctx context.Context, m T) error {
	now := time.Now().UTC()
	for _, f := range r.schema.Fields {
		if f.UpdatedAt {
			if err := m.Assign(f.Name, now); err != nil {
				return fmt.Errorf("record: stamp %s: %w", f.Name, err)
			}
		}
	}

	attrs := m.Attributes()
	sets := make([]string, 0, len(r.schema.Fields))
	args := make([]any, 0, len(r.schema.Fields)+1)
	for _, f := range r.schema.Fields {
		if f.PrimaryKey || f.CreatedAt {
			continue
		}
		sets = append(sets, f.Name+" = ?")
		args = append(args, attrs[f.Name])
	}
	if len(sets) == 0 {
		return ErrNoColumns
	}

	pk, _ := r.schema.PrimaryKey()
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?%s",
		r.schema.Table, strings.Join(sets, ", "), pk.Name, r.limitOne())
	args = append(args, m.PrimaryKey())
	debugf("record: %s", query)

	if _, err := r.db.NewRaw(query, args...).Exec(ctx); err != nil {
		return MapDBError(err)
	}
	return nil
}

// Delete removes the row matching the instance's primary key, scoped to
// exactly one row.
func (r *Mapper[T]) Delete(ctx context.Context, m T) error {
	if m.PrimaryKey() == 0 {
		return ErrNoPrimaryKey
	}
	pk, _ := r.schema.PrimaryKey()
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?%s", r.schema.Table, pk.Name, r.limitOne())
	debugf("record: %s", query)
	if _, err := r.db.NewRaw(query, m.PrimaryKey()).Exec(ctx); err != nil {
		return MapDBError(err)
	}
	return nil
}

// filterArg whitelists a caller-supplied filter column against the schema
// and coerces the value to the column's declared kind, so that
// integer-looking input binds as an integer and everything else binds as
// its declared type.
func (r *Mapper[T]) filterArg(column string, value any) (any, error) {
	f, ok := r.schema.Field(column)
	if !ok {
		return nil, fmt.Errorf("%w: %q in table %q", ErrUnknownColumn, column, r.schema.Table)
	}
	arg, err := Coerce(f.Kind, value)
	if err != nil {
		return nil, fmt.Errorf("record: filter on %q: %w", column, err)
	}
	return arg, nil
}

// queryOne runs a single-row lookup. A missing row is a normal outcome and
// returns the zero value of T with a nil error.
func (r *Mapper[T]) queryOne(ctx context.Context, query string, args ...any) (T, error) {
	var zero T
	models, err := r.queryModels(ctx, query, args...)
	if err != nil {
		return zero, err
	}
	if len(models) == 0 {
		return zero, nil
	}
	return models[0], nil
}

// queryModels executes a read statement and eagerly materializes every row
// into a model instance via the checked decode.
func (r *Mapper[T]) queryModels(ctx context.Context, query string, args ...any) ([]T, error) {
	debugf("record: %s", query)
	var rows []map[string]any
	if err := r.db.NewRaw(query, args...).Scan(ctx, &rows); err != nil {
		return nil, MapDBError(err)
	}
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		m := newModel[T]()
		if err := Bind(m, row); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// limitOne returns the literal LIMIT clause for single-row writes on the
// engines that accept one; elsewhere primary-key equality already scopes
// the statement to a single row.
func (r *Mapper[T]) limitOne() string {
	if r.db.Dialect().Name() == dialect.MySQL {
		return " LIMIT 1"
	}
	return ""
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
