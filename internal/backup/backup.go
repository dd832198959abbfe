// Copyright (c) 2026 MatBedoyan
// Rowkeeper - active record data layer for the ranking application
// This source code is licensed under the MIT license found in the LICENSE file.

// Package backup exports and restores the mapped tables as
// zstd-compressed JSON.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"

	"github.com/MatBedoyan/rowkeeper/model"
	"github.com/MatBedoyan/rowkeeper/record"
)

// Version identifies the backup payload layout.
const Version = 1

// Data holds every mapped table as plain column/value rows, so a backup
// stays readable and independent of the Go types.
type Data struct {
	Version   int              `json:"version"`
	CreatedAt time.Time        `json:"created_at"`
	Users     []map[string]any `json:"users"`
	Scores    []map[string]any `json:"scores"`
}

// Export reads all rows of every mapped table through the record mappers.
func Export(ctx context.Context, bdb *bun.DB) (*Data, error) {
	d := &Data{Version: Version, CreatedAt: time.Now().UTC()}

	users, err := record.NewMapper[*model.User](bdb).All(ctx)
	if err != nil {
		return nil, fmt.Errorf("export users: %w", err)
	}
	for _, u := range users {
		d.Users = append(d.Users, rowOf(u))
	}

	scores, err := record.NewMapper[*model.Score](bdb).All(ctx)
	if err != nil {
		return nil, fmt.Errorf("export scores: %w", err)
	}
	for _, s := range scores {
		d.Scores = append(d.Scores, rowOf(s))
	}

	return d, nil
}

// Import replaces the contents of the mapped tables with the backup rows,
// preserving the original primary keys. The target is wiped first, child
// tables before parents.
func Import(ctx context.Context, bdb *bun.DB, d *Data) error {
	if d.Version != Version {
		return fmt.Errorf("unsupported backup version %d", d.Version)
	}
	if _, err := bdb.NewRaw("DELETE FROM scores").Exec(ctx); err != nil {
		return fmt.Errorf("clear scores: %w", err)
	}
	if _, err := bdb.NewRaw("DELETE FROM users").Exec(ctx); err != nil {
		return fmt.Errorf("clear users: %w", err)
	}

	if err := insertRows(ctx, bdb, (&model.User{}).Schema(), d.Users); err != nil {
		return fmt.Errorf("restore users: %w", err)
	}
	if err := insertRows(ctx, bdb, (&model.Score{}).Schema(), d.Scores); err != nil {
		return fmt.Errorf("restore scores: %w", err)
	}

	// Explicit-id inserts leave Postgres sequences behind the data.
	if bdb.Dialect().Name() == dialect.PG {
		for _, table := range []string{"users", "scores"} {
			q := fmt.Sprintf("SELECT setval(pg_get_serial_sequence('%s', 'id'), COALESCE(MAX(id), 1)) FROM %s", table, table)
			if _, err := bdb.NewRaw(q).Exec(ctx); err != nil {
				return fmt.Errorf("reset %s sequence: %w", table, err)
			}
		}
	}
	return nil
}

// WriteBackup writes compressed JSON backup data to writer.
func WriteBackup(data *Data, w io.Writer) error {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("create zstd writer: %w", err)
	}
	defer func() { _ = zw.Close() }()
	enc := json.NewEncoder(zw)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("encode backup: %w", err)
	}
	return zw.Close()
}

// ReadBackup reads a zstd-compressed JSON backup written by WriteBackup.
func ReadBackup(r io.Reader) (*Data, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("create zstd reader: %w", err)
	}
	defer zr.Close()
	var d Data
	if err := json.NewDecoder(zr).Decode(&d); err != nil {
		return nil, fmt.Errorf("decode backup: %w", err)
	}
	return &d, nil
}

// rowOf flattens a model instance into a column/value map including the
// primary key.
func rowOf(m record.Model) map[string]any {
	row := m.Attributes()
	if pk, ok := m.Schema().PrimaryKey(); ok {
		row[pk.Name] = m.PrimaryKey()
	}
	return row
}

// insertRows writes raw rows back, coercing each value to its declared
// column kind first (JSON round-trips turn integers into floats and times
// into strings).
func insertRows(ctx context.Context, bdb *bun.DB, schema record.Schema, rows []map[string]any) error {
	for _, row := range rows {
		cols := make([]string, 0, len(schema.Fields))
		args := make([]any, 0, len(schema.Fields))
		for _, f := range schema.Fields {
			raw, ok := row[f.Name]
			if !ok || raw == nil {
				continue
			}
			v, err := record.Coerce(f.Kind, raw)
			if err != nil {
				return fmt.Errorf("column %q: %w", f.Name, err)
			}
			cols = append(cols, f.Name)
			args = append(args, v)
		}
		if len(cols) == 0 {
			continue
		}
		query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			schema.Table, strings.Join(cols, ", "), placeholders(len(cols)))
		if _, err := bdb.NewRaw(query, args...).Exec(ctx); err != nil {
			return record.MapDBError(err)
		}
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
