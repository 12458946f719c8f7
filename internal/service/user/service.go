// Package user implements registration and credential checks: the
// unique-email rule at registration and email/password authentication.
package user

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/vportes/financas/internal/errs"
	"github.com/vportes/financas/internal/finance"
)

// Messages surfaced verbatim to callers.
const (
	MsgEmailTaken      = "Já existe um usuario cadastrado com esse email"
	MsgUserNotFound    = "Usuario não encontrado para o email informado"
	MsgInvalidPassword = "Senha inválida"
)

// Repo defines read operations needed by the service.
type Repo interface {
	UserByID(ctx context.Context, id uuid.UUID) (finance.User, error)
	UserByEmail(ctx context.Context, email string) (finance.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}

// Writer defines write operations needed by the service.
type Writer interface {
	SaveUser(ctx context.Context, u finance.User) (finance.User, error)
}

// Service exposes registration, authentication, and lookups.
type Service interface {
	Register(ctx context.Context, u finance.User) (finance.User, error)
	Authenticate(ctx context.Context, email, password string) (finance.User, error)
	CheckEmailAvailable(ctx context.Context, email string) error
	GetByID(ctx context.Context, id uuid.UUID) (finance.User, bool, error)
}

type service struct {
	repo   Repo
	writer Writer
}

// New constructs the service.
func New(repo Repo, writer Writer) Service { return &service{repo: repo, writer: writer} }

// Register stores a new user after checking that no user holds the email.
// The password is stored as a bcrypt hash, never in clear text. The
// check-then-save pair is not atomic here; the storage layer backs it with a
// uniqueness constraint.
func (s *service) Register(ctx context.Context, u finance.User) (finance.User, error) {
	if err := s.CheckEmailAvailable(ctx, u.Email); err != nil {
		return finance.User{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return finance.User{}, err
	}
	u.Password = string(hash)
	saved, err := s.writer.SaveUser(ctx, u)
	if errors.Is(err, errs.ErrConflict) {
		return finance.User{}, errs.Business(MsgEmailTaken)
	}
	if err != nil {
		return finance.User{}, err
	}
	return saved, nil
}

// Authenticate returns the user for the email when the password matches its
// stored hash. The two failure messages stay distinct internally even though
// the transport layer answers both the same way.
func (s *service) Authenticate(ctx context.Context, email, password string) (finance.User, error) {
	u, err := s.repo.UserByEmail(ctx, email)
	if errors.Is(err, errs.ErrNotFound) {
		return finance.User{}, errs.Auth(MsgUserNotFound)
	}
	if err != nil {
		return finance.User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return finance.User{}, errs.Auth(MsgInvalidPassword)
	}
	return u, nil
}

// CheckEmailAvailable fails with the duplicate-email rule when a user
// already holds the address.
func (s *service) CheckEmailAvailable(ctx context.Context, email string) error {
	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return err
	}
	if exists {
		return errs.Business(MsgEmailTaken)
	}
	return nil
}

// GetByID looks the user up. Absence is a normal outcome reported through
// the boolean.
func (s *service) GetByID(ctx context.Context, id uuid.UUID) (finance.User, bool, error) {
	u, err := s.repo.UserByID(ctx, id)
	if errors.Is(err, errs.ErrNotFound) {
		return finance.User{}, false, nil
	}
	if err != nil {
		return finance.User{}, false, err
	}
	return u, true, nil
}
