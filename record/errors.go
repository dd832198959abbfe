// Copyright (c) 2026 MatBedoyan
// Rowkeeper - active record data layer for the ranking application
// This source code is licensed under the MIT license found in the LICENSE file.

// This file contains shared mapper errors and helpers.
package record

import (
	"errors"
	"strings"
)

// ErrDuplicate is returned when attempting to insert a record that already exists.
var ErrDuplicate = errors.New("duplicate record")

// ErrNoAttributes is returned by Save when a fresh instance carries no
// non-null attributes. The database is not contacted in that case.
var ErrNoAttributes = errors.New("record has no attributes to insert")

// ErrNoColumns is returned by Save when an update would have nothing to set.
var ErrNoColumns = errors.New("record has no columns to update")

// ErrNoPrimaryKey is returned by Delete when the instance has no primary key.
var ErrNoPrimaryKey = errors.New("record has no primary key")

// ErrUnknownColumn is returned when a filter names a column the schema does
// not declare. Filter columns are whitelisted against the schema so column
// names never reach statement text unchecked.
var ErrUnknownColumn = errors.New("unknown column")

// MapDBError inspects low-level driver errors and maps common constraint
// violations to package-level sentinel errors (like ErrDuplicate). This is a
// conservative, string-based mapping to avoid importing SQL driver packages
// into this package.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}
	le := strings.ToLower(err.Error())
	// MySQL duplicate entry, Postgres unique violation (23505), SQLite unique constraint
	if strings.Contains(le, "duplicate") || strings.Contains(le, "unique") || strings.Contains(le, "23505") || strings.Contains(le, "1062") {
		return ErrDuplicate
	}
	return err
}
