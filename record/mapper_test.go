// Copyright (c) 2026 MatBedoyan
// Rowkeeper - active record data layer for the ranking application
// This source code is licensed under the MIT license found in the LICENSE file.

package record_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/uptrace/bun"

	"github.com/MatBedoyan/rowkeeper/internal/db"
	"github.com/MatBedoyan/rowkeeper/model"
	"github.com/MatBedoyan/rowkeeper/record"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	dsn := "file:test_" + t.Name() + "?mode=memory&cache=shared"
	bdb, err := db.NewFromDSN("sqlite", dsn)
	if err != nil {
		t.Fatalf("NewFromDSN failed: %v", err)
	}
	t.Cleanup(func() { _ = bdb.Close() })
	return bdb
}

func mustSaveUser(t *testing.T, users *record.Mapper[*model.User], name, email string) *model.User {
	t.Helper()
	u := &model.User{
		Name:  sql.NullString{String: name, Valid: true},
		Email: sql.NullString{String: email, Valid: true},
	}
	if err := users.Save(context.Background(), u); err != nil {
		t.Fatalf("Save(%s) failed: %v", name, err)
	}
	return u
}

func TestSave_InsertAssignsServerID(t *testing.T) {
	bdb := newTestDB(t)
	users := record.NewMapper[*model.User](bdb)

	u := mustSaveUser(t, users, "Ada", "ada@example.com")
	if u.ID == 0 {
		t.Fatalf("expected server-assigned id after insert, got 0")
	}

	got, err := users.Find(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if got == nil {
		t.Fatalf("expected to find inserted user")
	}
	if got.Name.String != "Ada" || got.Email.String != "ada@example.com" {
		t.Errorf("unexpected attributes after reload: %+v", got)
	}
}

func TestSave_AllNullAttributesFailsLocally(t *testing.T) {
	bdb := newTestDB(t)
	users := record.NewMapper[*model.User](bdb)

	err := users.Save(context.Background(), &model.User{})
	if !errors.Is(err, record.ErrNoAttributes) {
		t.Fatalf("expected ErrNoAttributes, got %v", err)
	}

	all, err := users.All(context.Background())
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected no rows after failed save, got %d", len(all))
	}
}

func TestSave_InsertStampsCreatedAt(t *testing.T) {
	bdb := newTestDB(t)
	users := record.NewMapper[*model.User](bdb)

	u := mustSaveUser(t, users, "Ada", "ada@example.com")

	got, err := users.Find(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if !got.CreatedAt.Valid {
		t.Fatalf("expected created_at to be stamped on insert")
	}
	if time.Since(got.CreatedAt.Time) > time.Minute {
		t.Errorf("created_at stamp is not recent: %v", got.CreatedAt.Time)
	}
}

func TestFind_MissingIsNotAnError(t *testing.T) {
	bdb := newTestDB(t)
	users := record.NewMapper[*model.User](bdb)

	got, err := users.Find(context.Background(), 12345)
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing row, got %+v", got)
	}
}

func TestUpdate_NeverTouchesCreatedAt(t *testing.T) {
	bdb := newTestDB(t)
	users := record.NewMapper[*model.User](bdb)
	ctx := context.Background()

	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	u := &model.User{
		Name:      sql.NullString{String: "Ada", Valid: true},
		Email:     sql.NullString{String: "ada@example.com", Valid: true},
		CreatedAt: sql.NullTime{Time: created, Valid: true},
	}
	if err := users.Save(ctx, u); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	// Even a tampered in-memory created_at must never reach the database.
	u.Name = sql.NullString{String: "Ada L.", Valid: true}
	u.CreatedAt = sql.NullTime{Time: created.AddDate(1, 0, 0), Valid: true}
	if err := users.Save(ctx, u); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	got, err := users.Find(ctx, u.ID)
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if got.Name.String != "Ada L." {
		t.Errorf("expected updated name, got %q", got.Name.String)
	}
	if !got.CreatedAt.Valid || got.CreatedAt.Time.Unix() != created.Unix() {
		t.Errorf("created_at changed by update: %v", got.CreatedAt)
	}
	if !got.UpdatedAt.Valid {
		t.Errorf("expected updated_at to be stamped on update")
	}
}

func TestDelete_ThenFindReturnsNil(t *testing.T) {
	bdb := newTestDB(t)
	users := record.NewMapper[*model.User](bdb)
	ctx := context.Background()

	u := mustSaveUser(t, users, "Ada", "ada@example.com")
	if err := users.Delete(ctx, u); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	got, err := users.Find(ctx, u.ID)
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if got != nil {
		t.Fatalf("expected row to be gone, got %+v", got)
	}
}

func TestDelete_WithoutPrimaryKey(t *testing.T) {
	bdb := newTestDB(t)
	users := record.NewMapper[*model.User](bdb)

	err := users.Delete(context.Background(), &model.User{})
	if !errors.Is(err, record.ErrNoPrimaryKey) {
		t.Fatalf("expected ErrNoPrimaryKey, got %v", err)
	}
}

func TestGet_AppliesLimit(t *testing.T) {
	bdb := newTestDB(t)
	users := record.NewMapper[*model.User](bdb)

	mustSaveUser(t, users, "Ada", "ada@example.com")
	mustSaveUser(t, users, "Linus", "linus@example.com")
	mustSaveUser(t, users, "Grace", "grace@example.com")

	got, err := users.Get(context.Background(), 2)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
}

func TestFindBy_MatchesAndWhitelistsColumns(t *testing.T) {
	bdb := newTestDB(t)
	users := record.NewMapper[*model.User](bdb)
	ctx := context.Background()

	want := mustSaveUser(t, users, "Ada", "ada@example.com")
	mustSaveUser(t, users, "Linus", "linus@example.com")

	got, err := users.FindBy(ctx, "email", "ada@example.com")
	if err != nil {
		t.Fatalf("FindBy failed: %v", err)
	}
	if got == nil || got.ID != want.ID {
		t.Fatalf("FindBy returned wrong row: %+v", got)
	}

	if _, err := users.FindBy(ctx, "password", "x"); !errors.Is(err, record.ErrUnknownColumn) {
		t.Fatalf("expected ErrUnknownColumn for undeclared column, got %v", err)
	}
}

func TestFindBy_CoercesIntegerStrings(t *testing.T) {
	bdb := newTestDB(t)
	users := record.NewMapper[*model.User](bdb)
	scores := record.NewMapper[*model.Score](bdb)
	ctx := context.Background()

	u := mustSaveUser(t, users, "Ada", "ada@example.com")
	s := &model.Score{
		UserID: sql.NullInt64{Int64: u.ID, Valid: true},
		Points: sql.NullInt64{Int64: 950, Valid: true},
	}
	if err := scores.Save(ctx, s); err != nil {
		t.Fatalf("Save score failed: %v", err)
	}

	// A whole-number string binds as an integer against an int column.
	got, err := scores.FindBy(ctx, "points", "950")
	if err != nil {
		t.Fatalf("FindBy failed: %v", err)
	}
	if got == nil || got.ID != s.ID {
		t.Fatalf("expected score row, got %+v", got)
	}
}

func TestWhereAll_ReturnsEveryMatch(t *testing.T) {
	bdb := newTestDB(t)
	users := record.NewMapper[*model.User](bdb)
	scores := record.NewMapper[*model.Score](bdb)
	ctx := context.Background()

	u := mustSaveUser(t, users, "Ada", "ada@example.com")
	for _, pts := range []int64{100, 100, 200} {
		s := &model.Score{
			UserID: sql.NullInt64{Int64: u.ID, Valid: true},
			Points: sql.NullInt64{Int64: pts, Valid: true},
		}
		if err := scores.Save(ctx, s); err != nil {
			t.Fatalf("Save score failed: %v", err)
		}
	}

	got, err := scores.WhereAll(ctx, "points", int64(100))
	if err != nil {
		t.Fatalf("WhereAll failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 matching rows, got %d", len(got))
	}
}

func TestWhereLikeMultiple_CombinesWithOR(t *testing.T) {
	bdb := newTestDB(t)
	users := record.NewMapper[*model.User](bdb)
	ctx := context.Background()

	mustSaveUser(t, users, "Ada", "ada@example.com")
	mustSaveUser(t, users, "Adam", "adam@example.com")
	mustSaveUser(t, users, "Grace", "grace@example.com")

	got, err := users.WhereLikeMultiple(ctx, map[string]string{"name": "Ada"})
	if err != nil {
		t.Fatalf("WhereLikeMultiple failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected Ada and Adam, got %d rows", len(got))
	}

	got, err = users.WhereLikeMultiple(ctx, map[string]string{
		"name":  "no-such-name",
		"email": "grace@",
	})
	if err != nil {
		t.Fatalf("WhereLikeMultiple failed: %v", err)
	}
	if len(got) != 1 || got[0].Name.String != "Grace" {
		t.Fatalf("expected only Grace via email predicate, got %d rows", len(got))
	}

	if _, err := users.WhereLikeMultiple(ctx, map[string]string{"secret": "x"}); !errors.Is(err, record.ErrUnknownColumn) {
		t.Fatalf("expected ErrUnknownColumn, got %v", err)
	}
}

func TestWhereLikeMultiple_EscapesPatternMetacharacters(t *testing.T) {
	bdb := newTestDB(t)
	users := record.NewMapper[*model.User](bdb)
	ctx := context.Background()

	mustSaveUser(t, users, "100% done", "done@example.com")
	mustSaveUser(t, users, "100x done", "other@example.com")

	got, err := users.WhereLikeMultiple(ctx, map[string]string{"name": "100%"})
	if err != nil {
		t.Fatalf("WhereLikeMultiple failed: %v", err)
	}
	if len(got) != 1 || got[0].Name.String != "100% done" {
		t.Fatalf("expected literal %% match only, got %d rows", len(got))
	}
}

func TestRawQuery_MapsRows(t *testing.T) {
	bdb := newTestDB(t)
	users := record.NewMapper[*model.User](bdb)
	ctx := context.Background()

	mustSaveUser(t, users, "Ada", "ada@example.com")
	mustSaveUser(t, users, "Grace", "grace@example.com")

	got, err := users.RawQuery(ctx, "SELECT id, name, email, created_at, updated_at FROM users WHERE name = ?", "Grace")
	if err != nil {
		t.Fatalf("RawQuery failed: %v", err)
	}
	if len(got) != 1 || got[0].Name.String != "Grace" {
		t.Fatalf("unexpected RawQuery result: %+v", got)
	}
}

func TestSave_DuplicateEmailMapsToErrDuplicate(t *testing.T) {
	bdb := newTestDB(t)
	users := record.NewMapper[*model.User](bdb)

	mustSaveUser(t, users, "Ada", "ada@example.com")
	u := &model.User{
		Name:  sql.NullString{String: "Imposter", Valid: true},
		Email: sql.NullString{String: "ada@example.com", Valid: true},
	}
	if err := users.Save(context.Background(), u); !errors.Is(err, record.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestNewMapper_WithoutHandlePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for nil database handle")
		}
	}()
	record.NewMapper[*model.User](nil)
}
