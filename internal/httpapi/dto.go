package httpapi

import (
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"

	"github.com/vportes/financas/internal/finance"
)

type registerUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

type authRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	userResponse
	Token string `json:"token,omitempty"`
}

// entryRequest carries a caller-supplied entry. Amount travels as a decimal
// string. Status and registration_date are accepted but overwritten by the
// lifecycle rules on create.
type entryRequest struct {
	Description      string         `json:"description"`
	Month            int            `json:"month"`
	Year             int            `json:"year"`
	UserID           uuid.UUID      `json:"user_id"`
	Amount           string         `json:"amount"`
	Kind             finance.Kind   `json:"kind"`
	Status           finance.Status `json:"status,omitempty"`
	RegistrationDate time.Time      `json:"registration_date,omitempty"`
}

type entryResponse struct {
	ID               uuid.UUID      `json:"id"`
	Description      string         `json:"description"`
	Month            int            `json:"month"`
	Year             int            `json:"year"`
	UserID           uuid.UUID      `json:"user_id"`
	Amount           string         `json:"amount"`
	Kind             finance.Kind   `json:"kind"`
	Status           finance.Status `json:"status"`
	RegistrationDate time.Time      `json:"registration_date"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type balanceResponse struct {
	UserID  uuid.UUID `json:"user_id"`
	Balance string    `json:"balance"`
}

func toUserDomain(req registerUserRequest) finance.User {
	return finance.User{Name: req.Name, Email: req.Email, Password: req.Password}
}

func toUserResponse(u finance.User) userResponse {
	return userResponse{ID: u.ID, Name: u.Name, Email: u.Email}
}

func toEntryResponse(e finance.Entry) entryResponse {
	return entryResponse{
		ID:               e.ID,
		Description:      e.Description,
		Month:            e.Month,
		Year:             e.Year,
		UserID:           e.UserID,
		Amount:           e.Amount.String(),
		Kind:             e.Kind,
		Status:           e.Status,
		RegistrationDate: e.RegistrationDate,
	}
}

// toEntryDomain converts the request to a domain entry. An unparsable amount
// is left at zero so the validator reports failures in its fixed order.
func toEntryDomain(req entryRequest) finance.Entry {
	e := finance.Entry{
		Description:      req.Description,
		Month:            req.Month,
		Year:             req.Year,
		UserID:           req.UserID,
		Kind:             req.Kind,
		Status:           req.Status,
		RegistrationDate: req.RegistrationDate,
	}
	if req.Amount != "" {
		if d, err := decimal.Parse(req.Amount); err == nil {
			e.Amount = d
		}
	}
	return e
}
