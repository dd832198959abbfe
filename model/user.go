// Copyright (c) 2026 MatBedoyan
// Rowkeeper - active record data layer for the ranking application
// This source code is licensed under the MIT license found in the LICENSE file.

// Package model declares the ranking application's persisted entities and
// their record schemas.
package model

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/MatBedoyan/rowkeeper/record"
)

// User represents one row of the users table. The primary key is
// server-assigned; created_at/updated_at are stamped by the mapper.
type User struct {
	ID        int64
	Name      sql.NullString
	Email     sql.NullString
	CreatedAt sql.NullTime
	UpdatedAt sql.NullTime
}

// Schema declares the users table and its columns.
func (u *User) Schema() record.Schema {
	return record.Schema{
		Table: "users",
		Fields: []record.Field{
			{Name: "id", Kind: record.Int, PrimaryKey: true},
			{Name: "name", Kind: record.Text},
			{Name: "email", Kind: record.Text},
			{Name: "created_at", Kind: record.Time, CreatedAt: true},
			{Name: "updated_at", Kind: record.Time, UpdatedAt: true},
		},
	}
}

// PrimaryKey returns the row id, 0 when not yet persisted.
func (u *User) PrimaryKey() int64 { return u.ID }

// SetPrimaryKey records the server-assigned id.
func (u *User) SetPrimaryKey(id int64) { u.ID = id }

// Attributes returns the current column values, nil for SQL NULL.
func (u *User) Attributes() map[string]any {
	return map[string]any{
		"name":       nullString(u.Name),
		"email":      nullString(u.Email),
		"created_at": nullTime(u.CreatedAt),
		"updated_at": nullTime(u.UpdatedAt),
	}
}

// Assign sets a single declared column from a pre-coerced value.
func (u *User) Assign(column string, value any) error {
	switch column {
	case "name":
		return assignString(&u.Name, column, value)
	case "email":
		return assignString(&u.Email, column, value)
	case "created_at":
		return assignTime(&u.CreatedAt, column, value)
	case "updated_at":
		return assignTime(&u.UpdatedAt, column, value)
	default:
		return fmt.Errorf("users: %w: %q", record.ErrUnknownColumn, column)
	}
}

// String returns a short identification of the user for logs.
func (u *User) String() string {
	return fmt.Sprintf("user#%d %s", u.ID, u.Name.String)
}

func nullString(v sql.NullString) any {
	if !v.Valid {
		return nil
	}
	return v.String
}

func nullInt(v sql.NullInt64) any {
	if !v.Valid {
		return nil
	}
	return v.Int64
}

func nullTime(v sql.NullTime) any {
	if !v.Valid {
		return nil
	}
	return v.Time
}

func assignString(dst *sql.NullString, column string, value any) error {
	if value == nil {
		*dst = sql.NullString{}
		return nil
	}
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("column %q expects text, got %T", column, value)
	}
	*dst = sql.NullString{String: s, Valid: true}
	return nil
}

func assignInt(dst *sql.NullInt64, column string, value any) error {
	if value == nil {
		*dst = sql.NullInt64{}
		return nil
	}
	n, ok := value.(int64)
	if !ok {
		return fmt.Errorf("column %q expects an integer, got %T", column, value)
	}
	*dst = sql.NullInt64{Int64: n, Valid: true}
	return nil
}

func assignTime(dst *sql.NullTime, column string, value any) error {
	if value == nil {
		*dst = sql.NullTime{}
		return nil
	}
	t, ok := value.(time.Time)
	if !ok {
		return fmt.Errorf("column %q expects a timestamp, got %T", column, value)
	}
	*dst = sql.NullTime{Time: t, Valid: true}
	return nil
}
