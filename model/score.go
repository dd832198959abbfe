// Copyright (c) 2026 MatBedoyan
// Rowkeeper - active record data layer for the ranking application
// This source code is licensed under the MIT license found in the LICENSE file.

package model

import (
	"database/sql"
	"fmt"

	"github.com/MatBedoyan/rowkeeper/record"
)

// Score represents one ranking entry for a user.
type Score struct {
	ID        int64
	UserID    sql.NullInt64
	Points    sql.NullInt64
	CreatedAt sql.NullTime
}

// Schema declares the scores table and its columns.
func (s *Score) Schema() record.Schema {
	return record.Schema{
		Table: "scores",
		Fields: []record.Field{
			{Name: "id", Kind: record.Int, PrimaryKey: true},
			{Name: "user_id", Kind: record.Int},
			{Name: "points", Kind: record.Int},
			{Name: "created_at", Kind: record.Time, CreatedAt: true},
		},
	}
}

// PrimaryKey returns the row id, 0 when not yet persisted.
func (s *Score) PrimaryKey() int64 { return s.ID }

// SetPrimaryKey records the server-assigned id.
func (s *Score) SetPrimaryKey(id int64) { s.ID = id }

// Attributes returns the current column values, nil for SQL NULL.
func (s *Score) Attributes() map[string]any {
	return map[string]any{
		"user_id":    nullInt(s.UserID),
		"points":     nullInt(s.Points),
		"created_at": nullTime(s.CreatedAt),
	}
}

// Assign sets a single declared column from a pre-coerced value.
func (s *Score) Assign(column string, value any) error {
	switch column {
	case "user_id":
		return assignInt(&s.UserID, column, value)
	case "points":
		return assignInt(&s.Points, column, value)
	case "created_at":
		return assignTime(&s.CreatedAt, column, value)
	default:
		return fmt.Errorf("scores: %w: %q", record.ErrUnknownColumn, column)
	}
}

// String returns a short identification of the score for logs.
func (s *Score) String() string {
	return fmt.Sprintf("score#%d user:%d points:%d", s.ID, s.UserID.Int64, s.Points.Int64)
}
