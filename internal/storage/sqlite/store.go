// Package sqlite provides a file-backed store for single-user local
// deployments. Amounts are stored as decimal text and summed in Go so no
// float arithmetic touches money.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"

	// Import sqlite driver
	_ "modernc.org/sqlite"

	"github.com/vportes/financas/internal/errs"
	"github.com/vportes/financas/internal/finance"
)

// Store wraps a sql.DB connection over a sqlite file.
type Store struct {
	conn *sql.DB
}

// Open opens the database at path (":memory:" for tests) and creates the
// schema when missing.
func Open(path string) (*Store, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(); err != nil {
		return nil, err
	}
	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error { return s.conn.Close() }

// Ready pings the connection to verify it is usable.
func (s *Store) Ready(ctx context.Context) error { return s.conn.PingContext(ctx) }

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT UNIQUE NOT NULL,
			password TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS entries (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id),
			description TEXT NOT NULL,
			month INTEGER NOT NULL,
			year INTEGER NOT NULL,
			amount TEXT NOT NULL,
			kind TEXT NOT NULL,
			status TEXT NOT NULL,
			registration_date DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS entries_user_id_idx ON entries(user_id)`,
	}
	for _, m := range migrations {
		if _, err := s.conn.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

// --- Entry reads ---

// EntryByID returns a single entry.
func (s *Store) EntryByID(ctx context.Context, id uuid.UUID) (finance.Entry, error) {
	row := s.conn.QueryRowContext(ctx, `
		SELECT id, user_id, description, month, year, amount, kind, status, registration_date
		FROM entries WHERE id = ?
	`, id.String())
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return finance.Entry{}, errs.ErrNotFound
	}
	return e, err
}

// EntriesByFilter returns the entries matching the filter, ordered asc by
// (registration_date, id).
func (s *Store) EntriesByFilter(ctx context.Context, filter finance.EntryFilter) ([]finance.Entry, error) {
	where := []string{"user_id = ?"}
	args := []any{filter.UserID.String()}
	if filter.Description != "" {
		where = append(where, "LOWER(description) LIKE '%' || LOWER(?) || '%'")
		args = append(args, filter.Description)
	}
	if filter.Month != nil {
		where = append(where, "month = ?")
		args = append(args, *filter.Month)
	}
	if filter.Year != nil {
		where = append(where, "year = ?")
		args = append(args, *filter.Year)
	}
	if filter.Kind != nil {
		where = append(where, "kind = ?")
		args = append(args, string(*filter.Kind))
	}
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, user_id, description, month, year, amount, kind, status, registration_date
		FROM entries WHERE `+strings.Join(where, " AND ")+`
		ORDER BY registration_date ASC, id ASC
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]finance.Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// SumAmount totals matching amounts. The text-stored decimals are added in
// Go to avoid sqlite's float SUM.
func (s *Store) SumAmount(ctx context.Context, userID uuid.UUID, kind finance.Kind, status finance.Status) (decimal.Decimal, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT amount FROM entries WHERE user_id = ? AND kind = ? AND status = ?
	`, userID.String(), string(kind), string(status))
	if err != nil {
		return decimal.Decimal{}, err
	}
	defer rows.Close()
	sum := decimal.Decimal{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return decimal.Decimal{}, err
		}
		d, err := decimal.Parse(raw)
		if err != nil {
			return decimal.Decimal{}, err
		}
		v, err := sum.Add(d)
		if err != nil {
			return decimal.Decimal{}, err
		}
		sum = v
	}
	return sum, rows.Err()
}

// --- Entry writes ---

// SaveEntry inserts or updates the entry, assigning an ID on insert.
func (s *Store) SaveEntry(ctx context.Context, e finance.Entry) (finance.Entry, error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO entries (id, user_id, description, month, year, amount, kind, status, registration_date)
		VALUES (?,?,?,?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			description = excluded.description,
			month = excluded.month,
			year = excluded.year,
			amount = excluded.amount,
			kind = excluded.kind,
			status = excluded.status,
			registration_date = excluded.registration_date
	`, e.ID.String(), e.UserID.String(), e.Description, e.Month, e.Year, e.Amount.String(),
		string(e.Kind), string(e.Status), e.RegistrationDate.UTC())
	if err != nil {
		return finance.Entry{}, err
	}
	return e, nil
}

// DeleteEntry removes the entry by ID.
func (s *Store) DeleteEntry(ctx context.Context, e finance.Entry) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, e.ID.String())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// --- User reads ---

// UserByID returns a user by ID.
func (s *Store) UserByID(ctx context.Context, id uuid.UUID) (finance.User, error) {
	return s.userBy(ctx, `id = ?`, id.String())
}

// UserByEmail returns a user by exact email match.
func (s *Store) UserByEmail(ctx context.Context, email string) (finance.User, error) {
	return s.userBy(ctx, `email = ?`, email)
}

func (s *Store) userBy(ctx context.Context, cond string, arg any) (finance.User, error) {
	var u finance.User
	var id string
	err := s.conn.QueryRowContext(ctx, `
		SELECT id, name, email, password FROM users WHERE `+cond, arg,
	).Scan(&id, &u.Name, &u.Email, &u.Password)
	if errors.Is(err, sql.ErrNoRows) {
		return finance.User{}, errs.ErrNotFound
	}
	if err != nil {
		return finance.User{}, err
	}
	u.ID, err = uuid.Parse(id)
	if err != nil {
		return finance.User{}, err
	}
	return u, nil
}

// EmailExists reports whether a user holds the email.
func (s *Store) EmailExists(ctx context.Context, email string) (bool, error) {
	var n int
	err := s.conn.QueryRowContext(ctx, `SELECT COUNT(1) FROM users WHERE email = ?`, email).Scan(&n)
	return n > 0, err
}

// --- User writes ---

// SaveUser inserts the user. The unique email column turns a concurrent
// duplicate registration into ErrConflict.
func (s *Store) SaveUser(ctx context.Context, u finance.User) (finance.User, error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password) VALUES (?,?,?,?)
	`, u.ID.String(), u.Name, u.Email, u.Password)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return finance.User{}, errs.ErrConflict
		}
		return finance.User{}, err
	}
	return u, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanEntry maps one row onto a domain entry.
func scanEntry(row rowScanner) (finance.Entry, error) {
	var e finance.Entry
	var id, userID, amount, kind, status string
	var reg time.Time
	if err := row.Scan(&id, &userID, &e.Description, &e.Month, &e.Year, &amount, &kind, &status, &reg); err != nil {
		return finance.Entry{}, err
	}
	var err error
	if e.ID, err = uuid.Parse(id); err != nil {
		return finance.Entry{}, err
	}
	if e.UserID, err = uuid.Parse(userID); err != nil {
		return finance.Entry{}, err
	}
	if e.Amount, err = decimal.Parse(amount); err != nil {
		return finance.Entry{}, err
	}
	e.Kind = finance.Kind(kind)
	e.Status = finance.Status(status)
	e.RegistrationDate = reg
	return e, nil
}
