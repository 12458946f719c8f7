package finance

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
)

// Kind classifies a financial entry as money coming in or going out.
type Kind string

const (
	// KindIncome marks an entry that adds to the user's balance once confirmed.
	KindIncome Kind = "income"
	// KindExpense marks an entry that subtracts from the user's balance once confirmed.
	KindExpense Kind = "expense"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

// Status is the workflow state of an entry. Only confirmed entries count
// toward the user's balance.
type Status string

const (
	// StatusPending is the state every entry is created in.
	StatusPending Status = "pending"
	// StatusConfirmed marks an entry as effective for balance purposes.
	StatusConfirmed Status = "confirmed"
	// StatusCancelled excludes an entry from the balance without deleting it.
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusConfirmed || s == StatusCancelled
}

// User owns entries. Password holds credential material, never the clear
// text (a bcrypt hash once the user service has persisted it).
type User struct {
	ID       uuid.UUID
	Name     string
	Email    string
	Password string
}

// Entry is a single income or expense record belonging to a user.
type Entry struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Description string
	Month       int
	Year        int
	Amount      decimal.Decimal
	Kind        Kind
	Status      Status
	// RegistrationDate is stamped on create and overwritten on every update,
	// including status changes.
	RegistrationDate time.Time
}

// EntryFilter is a partial-match filter over entry fields. Description
// matches by case-insensitive substring containment; the pointer fields match
// exactly and are ignored when nil. UserID is required: results are always
// scoped to a single user.
type EntryFilter struct {
	UserID      uuid.UUID
	Description string
	Month       *int
	Year        *int
	Kind        *Kind
}

// Matches reports whether e satisfies every constraint set on the filter.
func (f EntryFilter) Matches(e Entry) bool {
	if e.UserID != f.UserID {
		return false
	}
	if f.Description != "" && !strings.Contains(strings.ToLower(e.Description), strings.ToLower(f.Description)) {
		return false
	}
	if f.Month != nil && e.Month != *f.Month {
		return false
	}
	if f.Year != nil && e.Year != *f.Year {
		return false
	}
	if f.Kind != nil && e.Kind != *f.Kind {
		return false
	}
	return true
}
