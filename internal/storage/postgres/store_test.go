package postgres

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"

	"github.com/vportes/financas/internal/errs"
	"github.com/vportes/financas/internal/finance"
)

func getTestDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping Postgres store tests")
	}
	return dsn
}

func mustOpen(t *testing.T, dsn string) *Store {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return s
}

func applyInitSQL(t *testing.T, s *Store) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	// Resolve init SQL path relative to this test file so CWD doesn't matter
	_, thisFile, _, _ := runtime.Caller(0)
	repoRoot := filepath.Clean(filepath.Join(filepath.Dir(thisFile), "../../../"))
	path := filepath.Join(repoRoot, "db", "migrations", "0001_init.sql")
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read init sql: %v", err)
	}
	if _, err := s.pool.Exec(ctx, string(b)); err != nil {
		t.Fatalf("apply init sql: %v", err)
	}
}

func truncateAll(t *testing.T, s *Store) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, _ = s.pool.Exec(ctx, `truncate table entries, users cascade`)
}

func seedTestUser(t *testing.T, ctx context.Context, s *Store) finance.User {
	t.Helper()
	u, err := s.SaveUser(ctx, finance.User{
		Name:     "Ana",
		Email:    uuid.NewString() + "@example.com",
		Password: "hash",
	})
	if err != nil {
		t.Fatalf("save user: %v", err)
	}
	return u
}

func TestStore_Entries(t *testing.T) {
	dsn := getTestDSN(t)
	s := mustOpen(t, dsn)
	defer s.Close()
	applyInitSQL(t, s)
	truncateAll(t, s)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Ready(ctx); err != nil {
		t.Fatalf("ready: %v", err)
	}

	u := seedTestUser(t, ctx, s)

	e, err := s.SaveEntry(ctx, finance.Entry{
		UserID:           u.ID,
		Description:      "Aluguel",
		Month:            5,
		Year:             2024,
		Amount:           decimal.MustParse("1200.00"),
		Kind:             finance.KindExpense,
		Status:           finance.StatusPending,
		RegistrationDate: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("save entry: %v", err)
	}
	if e.ID == uuid.Nil {
		t.Fatalf("expected an assigned id")
	}

	got, err := s.EntryByID(ctx, e.ID)
	if err != nil {
		t.Fatalf("entry by id: %v", err)
	}
	if got.Description != "Aluguel" || got.Amount.String() != "1200.00" {
		t.Fatalf("unexpected entry: %+v", got)
	}

	// upsert
	got.Status = finance.StatusConfirmed
	if _, err := s.SaveEntry(ctx, got); err != nil {
		t.Fatalf("update entry: %v", err)
	}
	again, err := s.EntryByID(ctx, e.ID)
	if err != nil {
		t.Fatalf("entry by id: %v", err)
	}
	if again.Status != finance.StatusConfirmed {
		t.Fatalf("expected confirmed, got %s", again.Status)
	}

	// filter
	list, err := s.EntriesByFilter(ctx, finance.EntryFilter{UserID: u.ID, Description: "ALUG"})
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if len(list) != 1 || list[0].ID != e.ID {
		t.Fatalf("unexpected filter result: %+v", list)
	}

	// sum
	sum, err := s.SumAmount(ctx, u.ID, finance.KindExpense, finance.StatusConfirmed)
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	if sum.String() != "1200.00" {
		t.Fatalf("expected 1200.00, got %s", sum.String())
	}
	sum, err = s.SumAmount(ctx, u.ID, finance.KindIncome, finance.StatusConfirmed)
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	if !sum.IsZero() {
		t.Fatalf("expected zero, got %s", sum.String())
	}

	// delete
	if err := s.DeleteEntry(ctx, e); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteEntry(ctx, e); err != errs.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.EntryByID(ctx, e.ID); err != errs.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_Users(t *testing.T) {
	dsn := getTestDSN(t)
	s := mustOpen(t, dsn)
	defer s.Close()
	applyInitSQL(t, s)
	truncateAll(t, s)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	u, err := s.SaveUser(ctx, finance.User{Name: "Ana", Email: "ana@example.com", Password: "hash"})
	if err != nil {
		t.Fatalf("save user: %v", err)
	}

	got, err := s.UserByEmail(ctx, "ana@example.com")
	if err != nil {
		t.Fatalf("user by email: %v", err)
	}
	if got.ID != u.ID {
		t.Fatalf("unexpected user: %+v", got)
	}

	if _, err := s.UserByID(ctx, u.ID); err != nil {
		t.Fatalf("user by id: %v", err)
	}

	ok, err := s.EmailExists(ctx, "ana@example.com")
	if err != nil || !ok {
		t.Fatalf("email exists: %v %v", ok, err)
	}

	if _, err := s.SaveUser(ctx, finance.User{Name: "Bia", Email: "ana@example.com", Password: "hash"}); err != errs.ErrConflict {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}
