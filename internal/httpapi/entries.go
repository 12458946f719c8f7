package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vportes/financas/internal/finance"
)

// postEntry handles POST /api/entries. The lifecycle rules force the saved
// entry into the pending state regardless of the body.
func (s *Server) postEntry(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeEntry(w, r)
	if !ok {
		return
	}
	if !s.resolveUser(w, r, req.UserID, msgUserNotFoundByID) {
		return
	}
	saved, err := s.entries.Create(r.Context(), toEntryDomain(req))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	toJSON(w, http.StatusCreated, toEntryResponse(saved))
}

// updateEntry handles PUT /api/entries/{id}.
func (s *Server) updateEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := s.entryID(w, r)
	if !ok {
		return
	}
	if _, found := s.lookupEntry(w, r, id); !found {
		return
	}
	req, ok := s.decodeEntry(w, r)
	if !ok {
		return
	}
	if !s.resolveUser(w, r, req.UserID, msgUserNotFoundByID) {
		return
	}
	e := toEntryDomain(req)
	e.ID = id
	saved, err := s.entries.Update(r.Context(), e)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	toJSON(w, http.StatusOK, toEntryResponse(saved))
}

// updateEntryStatus handles PUT /api/entries/{id}/status. The status change
// goes through the full update path, so the entry is re-validated and its
// registration date refreshed.
func (s *Server) updateEntryStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := s.entryID(w, r)
	if !ok {
		return
	}
	if !requireJSON(w, r) {
		return
	}
	var req statusRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	status := finance.Status(req.Status)
	if !status.Valid() {
		badRequest(w, msgInvalidStatus)
		return
	}
	e, found := s.lookupEntry(w, r, id)
	if !found {
		return
	}
	saved, err := s.entries.SetStatus(r.Context(), e, status)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	toJSON(w, http.StatusOK, toEntryResponse(saved))
}

// deleteEntry handles DELETE /api/entries/{id}.
func (s *Server) deleteEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := s.entryID(w, r)
	if !ok {
		return
	}
	e, found := s.lookupEntry(w, r, id)
	if !found {
		return
	}
	if err := s.entries.Delete(r.Context(), e); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// searchEntries handles GET /api/entries. The filter is always scoped to
// the user given in the query.
func (s *Server) searchEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	raw := q.Get("user_id")
	if raw == "" {
		badRequest(w, "user_id is required")
		return
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		badRequest(w, "invalid user_id")
		return
	}
	if !s.resolveUser(w, r, userID, msgSearchUserNotFound) {
		return
	}
	filter := finance.EntryFilter{UserID: userID, Description: q.Get("description")}
	if v := q.Get("month"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			badRequest(w, "invalid month")
			return
		}
		filter.Month = &m
	}
	if v := q.Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			badRequest(w, "invalid year")
			return
		}
		filter.Year = &y
	}
	if v := q.Get("kind"); v != "" {
		kind := finance.Kind(v)
		if !kind.Valid() {
			badRequest(w, "invalid kind")
			return
		}
		filter.Kind = &kind
	}
	entries, err := s.entries.Search(r.Context(), filter)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryResponse(e))
	}
	toJSON(w, http.StatusOK, out)
}

// --- shared handler helpers ---

func (s *Server) entryID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

func (s *Server) decodeEntry(w http.ResponseWriter, r *http.Request) (entryRequest, bool) {
	if !requireJSON(w, r) {
		return entryRequest{}, false
	}
	var req entryRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return entryRequest{}, false
	}
	return req, true
}

// resolveUser confirms the referenced user exists, answering 400 with the
// given message otherwise.
func (s *Server) resolveUser(w http.ResponseWriter, r *http.Request, id uuid.UUID, msg string) bool {
	if id == uuid.Nil {
		badRequest(w, msg)
		return false
	}
	_, found, err := s.users.GetByID(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return false
	}
	if !found {
		badRequest(w, msg)
		return false
	}
	return true
}

// lookupEntry fetches the entry or answers 400 with the not-found message.
func (s *Server) lookupEntry(w http.ResponseWriter, r *http.Request, id uuid.UUID) (finance.Entry, bool) {
	e, found, err := s.entries.GetByID(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return finance.Entry{}, false
	}
	if !found {
		badRequest(w, msgEntryNotFound)
		return finance.Entry{}, false
	}
	return e, true
}
