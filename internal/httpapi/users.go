package httpapi

import (
	"encoding/json"
	"net/http"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// registerUser handles POST /api/users.
func (s *Server) registerUser(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	var req registerUserRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	saved, err := s.users.Register(r.Context(), toUserDomain(req))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	toJSON(w, http.StatusCreated, toUserResponse(saved))
}

// authenticateUser handles POST /api/users/auth. When JWT auth is
// configured the response also carries a signed bearer token.
func (s *Server) authenticateUser(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	var req authRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	u, err := s.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	resp := authResponse{userResponse: toUserResponse(u)}
	if s.tokens != nil {
		tok, err := s.tokens.issue(u)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		resp.Token = tok
	}
	toJSON(w, http.StatusOK, resp)
}

// userBalance handles GET /api/users/{id}/balance.
func (s *Server) userBalance(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid id")
		return
	}
	_, found, err := s.users.GetByID(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if !found {
		badRequest(w, msgUserNotFound)
		return
	}
	balance, err := s.entries.BalanceForUser(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	toJSON(w, http.StatusOK, balanceResponse{UserID: id, Balance: balance.String()})
}
