// Copyright (c) 2026 MatBedoyan
// Rowkeeper - active record data layer for the ranking application
// This source code is licensed under the MIT license found in the LICENSE file.

// Package record implements a minimal active-record style mapper over a
// relational database. A concrete model declares its table and columns
// through an explicit schema; the mapper translates method calls into
// parameterized SQL statements executed through Bun and maps result rows
// back onto model instances.
package record // import "github.com/MatBedoyan/rowkeeper/record"

import "fmt"

// Kind identifies the declared type of a column. It drives both parameter
// binding and the checked decode of row or form values onto a model.
type Kind int

const (
	Text Kind = iota
	Int
	Float
	Bool
	Time
)

// String returns the human-readable name of the kind.
func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Int:
		return "int"
	case Float:
		return "float"
	case Bool:
		return "bool"
	case Time:
		return "time"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Field describes a single declared column of a model's table.
type Field struct {
	Name string
	Kind Kind
	// PrimaryKey marks the server-assigned integer key. Exactly one field
	// per schema must carry it.
	PrimaryKey bool
	// CreatedAt marks a column that is written on insert and never
	// modified by updates afterwards.
	CreatedAt bool
	// UpdatedAt marks a column stamped with the current time on every
	// update.
	UpdatedAt bool
}

// Schema declares a model's table name and its ordered columns, primary
// key first by convention.
type Schema struct {
	Table  string
	Fields []Field
}

// Field returns the declared field with the given column name.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// PrimaryKey returns the declared primary key field.
func (s Schema) PrimaryKey() (Field, bool) {
	for _, f := range s.Fields {
		if f.PrimaryKey {
			return f, true
		}
	}
	return Field{}, false
}

// validate reports schema declarations the mapper cannot work with.
// Missing metadata is a configuration error and is surfaced loudly rather
// than producing undefined behavior at query time.
func (s Schema) validate() error {
	if s.Table == "" {
		return fmt.Errorf("record: schema declares no table name")
	}
	if len(s.Fields) == 0 {
		return fmt.Errorf("record: schema for table %q declares no columns", s.Table)
	}
	pks := 0
	seen := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		if f.Name == "" {
			return fmt.Errorf("record: schema for table %q declares an unnamed column", s.Table)
		}
		if seen[f.Name] {
			return fmt.Errorf("record: schema for table %q declares column %q twice", s.Table, f.Name)
		}
		seen[f.Name] = true
		if f.PrimaryKey {
			pks++
			if f.Kind != Int {
				return fmt.Errorf("record: primary key %q of table %q must be an integer column", f.Name, s.Table)
			}
		}
	}
	if pks != 1 {
		return fmt.Errorf("record: schema for table %q must declare exactly one primary key, has %d", s.Table, pks)
	}
	return nil
}

// Model is the contract a concrete row type fulfills to be handled by a
// Mapper. Only declared columns are ever read or written; values passed to
// Assign are pre-coerced to the Go type matching the column kind (int64,
// string, float64, bool, time.Time) or nil for SQL NULL.
type Model interface {
	// Schema declares the table name and the ordered set of columns,
	// including the primary key.
	Schema() Schema

	// PrimaryKey returns the current primary key value, 0 when the row
	// has not been persisted yet.
	PrimaryKey() int64

	// SetPrimaryKey records the server-assigned identifier after insert.
	SetPrimaryKey(id int64)

	// Attributes returns the current column values keyed by column name,
	// excluding the primary key. A nil value means SQL NULL / unset.
	Attributes() map[string]any

	// Assign sets a single declared column to a pre-coerced value or nil.
	// Unknown columns are rejected.
	Assign(column string, value any) error
}
