// Package entry implements the financial-entry rules: field validation,
// lifecycle stamping (status and registration date), the status workflow,
// filtered search, and the per-user balance aggregation.
package entry

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"

	"github.com/vportes/financas/internal/errs"
	"github.com/vportes/financas/internal/finance"
)

// Validation messages, surfaced verbatim to callers.
const (
	MsgInvalidDescription = "Informe uma Descrição válida."
	MsgInvalidMonth       = "Informe um Mês válido."
	MsgInvalidYear        = "Informe um Ano válido."
	MsgMissingUser        = "Informe um Usuário."
	MsgInvalidAmount      = "Informe um Valor válido."
	MsgMissingKind        = "Informe um tipo de Lançamento."
)

// Repo defines read operations needed by the service.
type Repo interface {
	EntryByID(ctx context.Context, id uuid.UUID) (finance.Entry, error)
	EntriesByFilter(ctx context.Context, filter finance.EntryFilter) ([]finance.Entry, error)
	SumAmount(ctx context.Context, userID uuid.UUID, kind finance.Kind, status finance.Status) (decimal.Decimal, error)
}

// Writer defines write operations needed by the service.
type Writer interface {
	// SaveEntry inserts or updates the entry, assigning an identifier on insert.
	SaveEntry(ctx context.Context, e finance.Entry) (finance.Entry, error)
	DeleteEntry(ctx context.Context, e finance.Entry) error
}

// Service exposes validation, the entry lifecycle, search, and balance.
type Service interface {
	Validate(e finance.Entry) error
	Create(ctx context.Context, e finance.Entry) (finance.Entry, error)
	Update(ctx context.Context, e finance.Entry) (finance.Entry, error)
	Delete(ctx context.Context, e finance.Entry) error
	GetByID(ctx context.Context, id uuid.UUID) (finance.Entry, bool, error)
	Search(ctx context.Context, filter finance.EntryFilter) ([]finance.Entry, error)
	SetStatus(ctx context.Context, e finance.Entry, status finance.Status) (finance.Entry, error)
	BalanceForUser(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
}

type service struct {
	repo   Repo
	writer Writer
	now    func() time.Time
}

// New constructs the service. The clock is injected so lifecycle stamps are
// testable; a nil clock falls back to time.Now.
func New(repo Repo, writer Writer, now func() time.Time) Service {
	if now == nil {
		now = time.Now
	}
	return &service{repo: repo, writer: writer, now: now}
}

// Validate checks the entry's field invariants in a fixed order and returns
// the first failure. It has no side effects.
func (s *service) Validate(e finance.Entry) error {
	if strings.TrimSpace(e.Description) == "" {
		return errs.Validation(MsgInvalidDescription)
	}
	if e.Month < 1 || e.Month > 12 {
		return errs.Validation(MsgInvalidMonth)
	}
	// A valid year renders as exactly four digits, which also rejects
	// negative and zero values.
	if len(strconv.Itoa(e.Year)) != 4 || e.Year < 0 {
		return errs.Validation(MsgInvalidYear)
	}
	if e.UserID == uuid.Nil {
		return errs.Validation(MsgMissingUser)
	}
	if !e.Amount.IsPos() {
		return errs.Validation(MsgInvalidAmount)
	}
	if !e.Kind.Valid() {
		return errs.Validation(MsgMissingKind)
	}
	return nil
}

// Create validates the entry, forces it into the pending state with a fresh
// registration date, and persists it. Caller-supplied status and date are
// discarded.
func (s *service) Create(ctx context.Context, e finance.Entry) (finance.Entry, error) {
	if err := s.Validate(e); err != nil {
		return finance.Entry{}, err
	}
	e.Status = finance.StatusPending
	e.RegistrationDate = s.now()
	return s.writer.SaveEntry(ctx, e)
}

// Update re-validates the entry and re-stamps its registration date before
// persisting. An entry without an identifier is a precondition violation,
// not a business error.
func (s *service) Update(ctx context.Context, e finance.Entry) (finance.Entry, error) {
	if e.ID == uuid.Nil {
		return finance.Entry{}, errs.NewFault("update requires an entry id")
	}
	if err := s.Validate(e); err != nil {
		return finance.Entry{}, err
	}
	e.RegistrationDate = s.now()
	return s.writer.SaveEntry(ctx, e)
}

// Delete removes the entry. Same identifier precondition as Update.
func (s *service) Delete(ctx context.Context, e finance.Entry) error {
	if e.ID == uuid.Nil {
		return errs.NewFault("delete requires an entry id")
	}
	return s.writer.DeleteEntry(ctx, e)
}

// GetByID looks the entry up. Absence is a normal outcome, reported through
// the boolean, never as an error.
func (s *service) GetByID(ctx context.Context, id uuid.UUID) (finance.Entry, bool, error) {
	e, err := s.repo.EntryByID(ctx, id)
	if errors.Is(err, errs.ErrNotFound) {
		return finance.Entry{}, false, nil
	}
	if err != nil {
		return finance.Entry{}, false, err
	}
	return e, true, nil
}

// Search returns the entries matching the filter. The filter must be scoped
// to a user by the caller.
func (s *service) Search(ctx context.Context, filter finance.EntryFilter) ([]finance.Entry, error) {
	if filter.UserID == uuid.Nil {
		return nil, errs.ErrInvalid
	}
	return s.repo.EntriesByFilter(ctx, filter)
}

// SetStatus moves the entry to the given status and delegates to Update,
// which re-validates the whole entry and refreshes its registration date.
func (s *service) SetStatus(ctx context.Context, e finance.Entry, status finance.Status) (finance.Entry, error) {
	e.Status = status
	return s.Update(ctx, e)
}

// BalanceForUser returns confirmed income minus confirmed expense for the
// user. Pending and cancelled entries never contribute; either sum defaults
// to zero when no rows match, so the result may be negative.
func (s *service) BalanceForUser(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	if userID == uuid.Nil {
		return decimal.Decimal{}, errs.ErrInvalid
	}
	income, err := s.repo.SumAmount(ctx, userID, finance.KindIncome, finance.StatusConfirmed)
	if err != nil {
		return decimal.Decimal{}, err
	}
	expense, err := s.repo.SumAmount(ctx, userID, finance.KindExpense, finance.StatusConfirmed)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return income.Sub(expense)
}
