package postgres

// Package postgres provides a pgx-backed storage implementation that
// satisfies the repository and writer interfaces used by the services.
//
// It is intentionally small and explicit. The schema lives under
// db/migrations. This package focuses on mapping between the domain entities
// and SQL rows. Monetary amounts travel as numeric in SQL and as decimal
// strings at the driver boundary so no float conversion ever happens.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vportes/financas/internal/errs"
	"github.com/vportes/financas/internal/finance"
)

// Store holds a pgx connection pool and implements the read/write interfaces
// used across the service layer. All methods are safe for concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// Open establishes a pgx pool using the provided connection string.
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Close releases the underlying pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ready pings the pool to verify connectivity.
func (s *Store) Ready(ctx context.Context) error { return s.pool.Ping(ctx) }

// --- Entry reads ---

// EntryByID returns a single entry.
func (s *Store) EntryByID(ctx context.Context, id uuid.UUID) (finance.Entry, error) {
	row := s.pool.QueryRow(ctx, `
		select id, user_id, description, month, year, amount::text, kind, status, registration_date
		from entries
		where id = $1
	`, id)
	e, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return finance.Entry{}, errs.ErrNotFound
	}
	return e, err
}

// EntriesByFilter returns the entries matching the filter, ordered asc by
// (registration_date, id).
func (s *Store) EntriesByFilter(ctx context.Context, filter finance.EntryFilter) ([]finance.Entry, error) {
	where := []string{"user_id = $1"}
	args := []any{filter.UserID}
	if filter.Description != "" {
		args = append(args, filter.Description)
		where = append(where, fmt.Sprintf("description ilike '%%' || $%d || '%%'", len(args)))
	}
	if filter.Month != nil {
		args = append(args, *filter.Month)
		where = append(where, fmt.Sprintf("month = $%d", len(args)))
	}
	if filter.Year != nil {
		args = append(args, *filter.Year)
		where = append(where, fmt.Sprintf("year = $%d", len(args)))
	}
	if filter.Kind != nil {
		args = append(args, string(*filter.Kind))
		where = append(where, fmt.Sprintf("kind = $%d", len(args)))
	}
	rows, err := s.pool.Query(ctx, `
		select id, user_id, description, month, year, amount::text, kind, status, registration_date
		from entries
		where `+strings.Join(where, " and ")+`
		order by registration_date asc, id asc
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

// SumAmount totals the amounts of the user's entries with the given kind and
// status. No matching rows yields zero.
func (s *Store) SumAmount(ctx context.Context, userID uuid.UUID, kind finance.Kind, status finance.Status) (decimal.Decimal, error) {
	var raw string
	err := s.pool.QueryRow(ctx, `
		select coalesce(sum(amount), 0)::text
		from entries
		where user_id = $1 and kind = $2 and status = $3
	`, userID, string(kind), string(status)).Scan(&raw)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return decimal.Parse(raw)
}

// --- Entry writes ---

// SaveEntry inserts or updates the entry, assigning an ID on insert.
func (s *Store) SaveEntry(ctx context.Context, e finance.Entry) (finance.Entry, error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	_, err := s.pool.Exec(ctx, `
		insert into entries (id, user_id, description, month, year, amount, kind, status, registration_date)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		on conflict (id) do update set
			user_id = excluded.user_id,
			description = excluded.description,
			month = excluded.month,
			year = excluded.year,
			amount = excluded.amount,
			kind = excluded.kind,
			status = excluded.status,
			registration_date = excluded.registration_date
	`, e.ID, e.UserID, e.Description, e.Month, e.Year, e.Amount.String(), string(e.Kind), string(e.Status), e.RegistrationDate)
	if err != nil {
		return finance.Entry{}, err
	}
	return e, nil
}

// DeleteEntry removes the entry by ID.
func (s *Store) DeleteEntry(ctx context.Context, e finance.Entry) error {
	ct, err := s.pool.Exec(ctx, `delete from entries where id = $1`, e.ID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// --- User reads ---

// UserByID returns a user by ID.
func (s *Store) UserByID(ctx context.Context, id uuid.UUID) (finance.User, error) {
	var u finance.User
	err := s.pool.QueryRow(ctx, `
		select id, name, email, password from users where id = $1
	`, id).Scan(&u.ID, &u.Name, &u.Email, &u.Password)
	if errors.Is(err, pgx.ErrNoRows) {
		return finance.User{}, errs.ErrNotFound
	}
	if err != nil {
		return finance.User{}, err
	}
	return u, nil
}

// UserByEmail returns a user by exact email match.
func (s *Store) UserByEmail(ctx context.Context, email string) (finance.User, error) {
	var u finance.User
	err := s.pool.QueryRow(ctx, `
		select id, name, email, password from users where email = $1
	`, email).Scan(&u.ID, &u.Name, &u.Email, &u.Password)
	if errors.Is(err, pgx.ErrNoRows) {
		return finance.User{}, errs.ErrNotFound
	}
	if err != nil {
		return finance.User{}, err
	}
	return u, nil
}

// EmailExists reports whether a user holds the email.
func (s *Store) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		select exists(select 1 from users where email = $1)
	`, email).Scan(&exists)
	return exists, err
}

// --- User writes ---

// SaveUser inserts the user. The unique index on email turns a concurrent
// duplicate registration into ErrConflict instead of a second row.
func (s *Store) SaveUser(ctx context.Context, u finance.User) (finance.User, error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	_, err := s.pool.Exec(ctx, `
		insert into users (id, name, email, password) values ($1,$2,$3,$4)
	`, u.ID, u.Name, u.Email, u.Password)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return finance.User{}, errs.ErrConflict
	}
	if err != nil {
		return finance.User{}, err
	}
	return u, nil
}

// scanEntry maps one row onto a domain entry.
func scanEntry(row pgx.Row) (finance.Entry, error) {
	var e finance.Entry
	var amount, kind, status string
	if err := row.Scan(&e.ID, &e.UserID, &e.Description, &e.Month, &e.Year, &amount, &kind, &status, &e.RegistrationDate); err != nil {
		return finance.Entry{}, err
	}
	d, err := decimal.Parse(amount)
	if err != nil {
		return finance.Entry{}, err
	}
	e.Amount = d
	e.Kind = finance.Kind(kind)
	e.Status = finance.Status(status)
	return e, nil
}
