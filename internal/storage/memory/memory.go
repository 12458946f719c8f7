package memory

// Package memory provides a simple in-memory implementation used for
// development and tests. It keeps code paths easy to follow while allowing
// us to plug in a real DB later.
import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/govalues/decimal"

	"github.com/vportes/financas/internal/errs"
	"github.com/vportes/financas/internal/finance"
)

// Store is an in-memory implementation of the repository+writer interfaces
// used by the services. It is guarded by an RWMutex for concurrent use.
type Store struct {
	mu      sync.RWMutex
	users   map[uuid.UUID]finance.User
	emails  map[string]uuid.UUID
	entries map[uuid.UUID]finance.Entry
}

// New constructs an empty in-memory store.
func New() *Store {
	return &Store{
		users:   make(map[uuid.UUID]finance.User),
		emails:  make(map[string]uuid.UUID),
		entries: make(map[uuid.UUID]finance.Entry),
	}
}

// Seed helpers for local dev/tests.
func (s *Store) SeedUser(u finance.User) {
	s.mu.Lock()
	s.users[u.ID] = u
	s.emails[u.Email] = u.ID
	s.mu.Unlock()
}

func (s *Store) SeedEntry(e finance.Entry) {
	s.mu.Lock()
	s.entries[e.ID] = e
	s.mu.Unlock()
}

func (s *Store) Reset() {
	s.mu.Lock()
	s.users = map[uuid.UUID]finance.User{}
	s.emails = map[string]uuid.UUID{}
	s.entries = map[uuid.UUID]finance.Entry{}
	s.mu.Unlock()
}

// --- Entry reads ---

// EntryByID returns a single entry.
func (s *Store) EntryByID(_ context.Context, id uuid.UUID) (finance.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok {
		return finance.Entry{}, errs.ErrNotFound
	}
	return e, nil
}

// EntriesByFilter returns the entries matching the filter, ordered asc by
// (RegistrationDate, ID) for deterministic listings.
func (s *Store) EntriesByFilter(_ context.Context, filter finance.EntryFilter) ([]finance.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]finance.Entry, 0)
	for _, e := range s.entries {
		if filter.Matches(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].RegistrationDate.Equal(out[j].RegistrationDate) {
			return out[i].RegistrationDate.Before(out[j].RegistrationDate)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

// SumAmount totals the amounts of the user's entries with the given kind and
// status. No matching entries yields zero, never an error.
func (s *Store) SumAmount(_ context.Context, userID uuid.UUID, kind finance.Kind, status finance.Status) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sum := decimal.Decimal{}
	for _, e := range s.entries {
		if e.UserID != userID || e.Kind != kind || e.Status != status {
			continue
		}
		v, err := sum.Add(e.Amount)
		if err != nil {
			return decimal.Decimal{}, err
		}
		sum = v
	}
	return sum, nil
}

// --- Entry writes ---

// SaveEntry inserts or updates the entry, assigning an ID on insert.
func (s *Store) SaveEntry(_ context.Context, e finance.Entry) (finance.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	s.entries[e.ID] = e
	return e, nil
}

// DeleteEntry removes the entry by ID.
func (s *Store) DeleteEntry(_ context.Context, e finance.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[e.ID]; !ok {
		return errs.ErrNotFound
	}
	delete(s.entries, e.ID)
	return nil
}

// --- User reads ---

// UserByID returns a user by ID.
func (s *Store) UserByID(_ context.Context, id uuid.UUID) (finance.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return finance.User{}, errs.ErrNotFound
	}
	return u, nil
}

// UserByEmail returns a user by exact email match.
func (s *Store) UserByEmail(_ context.Context, email string) (finance.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emails[email]
	if !ok {
		return finance.User{}, errs.ErrNotFound
	}
	return s.users[id], nil
}

// EmailExists reports whether a user holds the email.
func (s *Store) EmailExists(_ context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.emails[email]
	return ok, nil
}

// --- User writes ---

// SaveUser inserts the user, assigning an ID when absent. A duplicate email
// yields ErrConflict, mirroring the unique index of the SQL stores.
func (s *Store) SaveUser(_ context.Context, u finance.User) (finance.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if other, ok := s.emails[u.Email]; ok && other != u.ID {
		return finance.User{}, errs.ErrConflict
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	s.users[u.ID] = u
	s.emails[u.Email] = u.ID
	return u, nil
}
