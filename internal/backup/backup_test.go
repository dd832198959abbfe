// Copyright (c) 2026 MatBedoyan
// Rowkeeper - active record data layer for the ranking application
// This source code is licensed under the MIT license found in the LICENSE file.

package backup

import (
	"bytes"
	"context"
	"database/sql"
	"testing"

	"github.com/uptrace/bun"

	"github.com/MatBedoyan/rowkeeper/internal/db"
	"github.com/MatBedoyan/rowkeeper/model"
	"github.com/MatBedoyan/rowkeeper/record"
)

func newTestDB(t *testing.T, name string) *bun.DB {
	t.Helper()
	bdb, err := db.NewFromDSN("sqlite", "file:test_backup_"+name+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("NewFromDSN failed: %v", err)
	}
	t.Cleanup(func() { _ = bdb.Close() })
	return bdb
}

func TestBackup_RoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newTestDB(t, "src")

	users := record.NewMapper[*model.User](src)
	scores := record.NewMapper[*model.Score](src)

	u := &model.User{
		Name:  sql.NullString{String: "Ada", Valid: true},
		Email: sql.NullString{String: "ada@example.com", Valid: true},
	}
	if err := users.Save(ctx, u); err != nil {
		t.Fatalf("seed user failed: %v", err)
	}
	s := &model.Score{
		UserID: sql.NullInt64{Int64: u.ID, Valid: true},
		Points: sql.NullInt64{Int64: 1200, Valid: true},
	}
	if err := scores.Save(ctx, s); err != nil {
		t.Fatalf("seed score failed: %v", err)
	}

	data, err := Export(ctx, src)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if data.Version != Version {
		t.Fatalf("unexpected backup version %d", data.Version)
	}
	if len(data.Users) != 1 || len(data.Scores) != 1 {
		t.Fatalf("unexpected export sizes: users=%d scores=%d", len(data.Users), len(data.Scores))
	}

	var buf bytes.Buffer
	if err := WriteBackup(data, &buf); err != nil {
		t.Fatalf("WriteBackup failed: %v", err)
	}
	restoredData, err := ReadBackup(&buf)
	if err != nil {
		t.Fatalf("ReadBackup failed: %v", err)
	}

	dst := newTestDB(t, "dst")
	if err := Import(ctx, dst, restoredData); err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	restoredUsers := record.NewMapper[*model.User](dst)
	got, err := restoredUsers.Find(ctx, u.ID)
	if err != nil {
		t.Fatalf("Find after import failed: %v", err)
	}
	if got == nil {
		t.Fatalf("imported user keeps its original id")
	}
	if got.Name.String != "Ada" || got.Email.String != "ada@example.com" {
		t.Errorf("imported user attributes differ: %+v", got)
	}

	restoredScores := record.NewMapper[*model.Score](dst)
	gotScore, err := restoredScores.Find(ctx, s.ID)
	if err != nil {
		t.Fatalf("Find score after import failed: %v", err)
	}
	if gotScore == nil || gotScore.Points.Int64 != 1200 || gotScore.UserID.Int64 != u.ID {
		t.Errorf("imported score differs: %+v", gotScore)
	}
}

func TestImport_ReplacesExistingRows(t *testing.T) {
	ctx := context.Background()
	bdb := newTestDB(t, "replace")

	users := record.NewMapper[*model.User](bdb)
	stale := &model.User{Name: sql.NullString{String: "Stale", Valid: true}}
	if err := users.Save(ctx, stale); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	data := &Data{
		Version: Version,
		Users: []map[string]any{
			{"id": int64(42), "name": "Fresh", "email": "fresh@example.com"},
		},
	}
	if err := Import(ctx, bdb, data); err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	all, err := users.All(ctx)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(all) != 1 || all[0].ID != 42 || all[0].Name.String != "Fresh" {
		t.Fatalf("expected import to replace table contents, got %+v", all)
	}
}

func TestImport_RejectsUnknownVersion(t *testing.T) {
	bdb := newTestDB(t, "version")

	var buf bytes.Buffer
	if err := WriteBackup(&Data{Version: Version + 1}, &buf); err != nil {
		t.Fatalf("WriteBackup failed: %v", err)
	}
	restored, err := ReadBackup(&buf)
	if err != nil {
		t.Fatalf("ReadBackup failed: %v", err)
	}
	if err := Import(context.Background(), bdb, restored); err == nil {
		t.Fatalf("expected error for unsupported backup version")
	}
}
