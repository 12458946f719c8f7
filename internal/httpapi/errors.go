package httpapi

import (
	"errors"
	"net/http"

	"github.com/vportes/financas/internal/errs"
)

// Messages the HTTP layer itself resolves before touching the services.
const (
	msgEntryNotFound      = "Lancamento não encontrado na base de dados"
	msgUserNotFoundByID   = "Usuário não encontrado para o Id informado"
	msgSearchUserNotFound = "Não foi possível realizar a consulta. Usuário não encontrado para o Id informado"
	msgInvalidStatus      = "Status inválido"
	msgUserNotFound       = "Usuário não encontrado"
)

// errorResponse is the standard error payload for the API.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeErr(w http.ResponseWriter, status int, msg, code string) {
	toJSON(w, status, errorResponse{Error: msg, Code: code})
}

func badRequest(w http.ResponseWriter, msg string) { writeErr(w, http.StatusBadRequest, msg, "") }

// writeServiceError maps a service failure onto a response. Recoverable
// kinds surface their message verbatim as 400; faults and everything else
// become 500 so programming errors are never mistaken for user input.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	if kind, ok := errs.KindOf(err); ok {
		writeErr(w, http.StatusBadRequest, err.Error(), string(kind))
		return
	}
	if errors.Is(err, errs.ErrNotFound) {
		writeErr(w, http.StatusNotFound, "not_found", "not_found")
		return
	}
	if errs.IsFault(err) {
		s.log.Error("precondition fault", "err", err)
	} else {
		s.log.Error("internal error", "err", err)
	}
	writeErr(w, http.StatusInternalServerError, "internal error", "internal")
}
