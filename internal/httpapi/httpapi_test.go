package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/vportes/financas/internal/finance"
	"github.com/vportes/financas/internal/storage/memory"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

type userResp struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Token string `json:"token"`
}

type entryResp struct {
	ID               string    `json:"id"`
	Description      string    `json:"description"`
	Month            int       `json:"month"`
	Year             int       `json:"year"`
	UserID           string    `json:"user_id"`
	Amount           string    `json:"amount"`
	Kind             string    `json:"kind"`
	Status           string    `json:"status"`
	RegistrationDate time.Time `json:"registration_date"`
}

type balanceResp struct {
	UserID  string `json:"user_id"`
	Balance string `json:"balance"`
}

type errResp struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func setup(t *testing.T) (*memory.Store, http.Handler, finance.User) {
	t.Helper()
	store := memory.New()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := finance.User{ID: uuid.New(), Name: "Ana", Email: "ana@example.com", Password: string(hash)}
	store.SeedUser(u)
	h := New(store, store, store, store, testLogger()).Handler()
	return store, h, u
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeErr(t *testing.T, rec *httptest.ResponseRecorder) errResp {
	t.Helper()
	var er errResp
	if err := json.Unmarshal(rec.Body.Bytes(), &er); err != nil {
		t.Fatalf("decode error body: %v: %s", err, rec.Body.String())
	}
	return er
}

func entryBody(userID uuid.UUID) map[string]any {
	return map[string]any{
		"description": "Aluguel",
		"month":       5,
		"year":        2024,
		"user_id":     userID.String(),
		"amount":      "1200.00",
		"kind":        "expense",
	}
}

func TestRegisterUser(t *testing.T) {
	_, h, _ := setup(t)

	rec := doJSON(t, h, http.MethodPost, "/api/users", map[string]any{
		"name": "Bia", "email": "bia@example.com", "password": "pw",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var ur userResp
	if err := json.Unmarshal(rec.Body.Bytes(), &ur); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ur.ID == "" || ur.Email != "bia@example.com" {
		t.Fatalf("unexpected response: %+v", ur)
	}
	if bytes.Contains(rec.Body.Bytes(), []byte("password")) {
		t.Fatalf("password leaked in response: %s", rec.Body.String())
	}

	// same email again
	rec = doJSON(t, h, http.MethodPost, "/api/users", map[string]any{
		"name": "Bia 2", "email": "bia@example.com", "password": "pw",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if er := decodeErr(t, rec); er.Error != "Já existe um usuario cadastrado com esse email" {
		t.Fatalf("unexpected message: %q", er.Error)
	}
}

func TestAuthenticateUser(t *testing.T) {
	_, h, u := setup(t)

	rec := doJSON(t, h, http.MethodPost, "/api/users/auth", map[string]any{
		"email": u.Email, "password": "s3cret",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var ur userResp
	if err := json.Unmarshal(rec.Body.Bytes(), &ur); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ur.ID != u.ID.String() {
		t.Fatalf("unexpected user: %+v", ur)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/users/auth", map[string]any{
		"email": u.Email, "password": "wrong",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if er := decodeErr(t, rec); er.Error != "Senha inválida" {
		t.Fatalf("unexpected message: %q", er.Error)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/users/auth", map[string]any{
		"email": "nobody@example.com", "password": "s3cret",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if er := decodeErr(t, rec); er.Error != "Usuario não encontrado para o email informado" {
		t.Fatalf("unexpected message: %q", er.Error)
	}
}

func TestPostEntry(t *testing.T) {
	_, h, u := setup(t)

	// Caller-supplied status must not survive creation.
	body := entryBody(u.ID)
	body["status"] = "confirmed"
	rec := doJSON(t, h, http.MethodPost, "/api/entries", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var er entryResp
	if err := json.Unmarshal(rec.Body.Bytes(), &er); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if er.Status != "pending" {
		t.Fatalf("expected pending status, got %q", er.Status)
	}
	if er.RegistrationDate.IsZero() {
		t.Fatalf("registration date not stamped")
	}
	if er.Amount != "1200.00" {
		t.Fatalf("unexpected amount: %q", er.Amount)
	}

	// validation messages surface verbatim
	cases := []struct {
		name string
		edit func(map[string]any)
		msg  string
	}{
		{"blank description", func(m map[string]any) { m["description"] = "  " }, "Informe uma Descrição válida."},
		{"month out of range", func(m map[string]any) { m["month"] = 13 }, "Informe um Mês válido."},
		{"short year", func(m map[string]any) { m["year"] = 999 }, "Informe um Ano válido."},
		{"zero amount", func(m map[string]any) { m["amount"] = "0" }, "Informe um Valor válido."},
		{"garbled amount", func(m map[string]any) { m["amount"] = "abc" }, "Informe um Valor válido."},
		{"missing kind", func(m map[string]any) { delete(m, "kind") }, "Informe um tipo de Lançamento."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := entryBody(u.ID)
			tc.edit(b)
			rec := doJSON(t, h, http.MethodPost, "/api/entries", b)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
			if er := decodeErr(t, rec); er.Error != tc.msg {
				t.Fatalf("expected %q, got %q", tc.msg, er.Error)
			}
		})
	}

	t.Run("unknown user", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/api/entries", entryBody(uuid.New()))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		if er := decodeErr(t, rec); er.Error != "Usuário não encontrado para o Id informado" {
			t.Fatalf("unexpected message: %q", er.Error)
		}
	})
}

func TestUpdateEntry(t *testing.T) {
	_, h, u := setup(t)

	rec := doJSON(t, h, http.MethodPost, "/api/entries", entryBody(u.ID))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d: %s", rec.Code, rec.Body.String())
	}
	var created entryResp
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	body := entryBody(u.ID)
	body["description"] = "Aluguel reajustado"
	body["amount"] = "1300.00"
	rec = doJSON(t, h, http.MethodPut, "/api/entries/"+created.ID, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var updated entryResp
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if updated.ID != created.ID || updated.Description != "Aluguel reajustado" || updated.Amount != "1300.00" {
		t.Fatalf("unexpected response: %+v", updated)
	}
	if updated.RegistrationDate.Before(created.RegistrationDate) {
		t.Fatalf("registration date went backwards")
	}

	t.Run("unknown id", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPut, "/api/entries/"+uuid.NewString(), entryBody(u.ID))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		if er := decodeErr(t, rec); er.Error != "Lancamento não encontrado na base de dados" {
			t.Fatalf("unexpected message: %q", er.Error)
		}
	})
}

func TestUpdateEntryStatus(t *testing.T) {
	_, h, u := setup(t)

	rec := doJSON(t, h, http.MethodPost, "/api/entries", entryBody(u.ID))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d", rec.Code)
	}
	var created entryResp
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	rec = doJSON(t, h, http.MethodPut, "/api/entries/"+created.ID+"/status", map[string]any{"status": "confirmed"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var updated entryResp
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if updated.Status != "confirmed" {
		t.Fatalf("expected confirmed, got %q", updated.Status)
	}

	t.Run("invalid status", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPut, "/api/entries/"+created.ID+"/status", map[string]any{"status": "done"})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		if er := decodeErr(t, rec); er.Error != "Status inválido" {
			t.Fatalf("unexpected message: %q", er.Error)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPut, "/api/entries/"+uuid.NewString()+"/status", map[string]any{"status": "cancelled"})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		if er := decodeErr(t, rec); er.Error != "Lancamento não encontrado na base de dados" {
			t.Fatalf("unexpected message: %q", er.Error)
		}
	})
}

func TestDeleteEntry(t *testing.T) {
	_, h, u := setup(t)

	rec := doJSON(t, h, http.MethodPost, "/api/entries", entryBody(u.ID))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d", rec.Code)
	}
	var created entryResp
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	rec = doJSON(t, h, http.MethodDelete, "/api/entries/"+created.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("expected empty body, got %s", rec.Body.String())
	}

	// gone now
	rec = doJSON(t, h, http.MethodDelete, "/api/entries/"+created.ID, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if er := decodeErr(t, rec); er.Error != "Lancamento não encontrado na base de dados" {
		t.Fatalf("unexpected message: %q", er.Error)
	}
}

func TestSearchEntries(t *testing.T) {
	store, h, u := setup(t)

	store.SeedEntry(finance.Entry{
		ID: uuid.New(), UserID: u.ID, Description: "Aluguel", Month: 1, Year: 2024,
		Amount: decimal.MustParse("1200.00"), Kind: finance.KindExpense,
		Status: finance.StatusConfirmed, RegistrationDate: time.Now().UTC(),
	})
	store.SeedEntry(finance.Entry{
		ID: uuid.New(), UserID: u.ID, Description: "Salário", Month: 2, Year: 2024,
		Amount: decimal.MustParse("5000.00"), Kind: finance.KindIncome,
		Status: finance.StatusConfirmed, RegistrationDate: time.Now().UTC(),
	})

	list := func(t *testing.T, query string) []entryResp {
		t.Helper()
		rec := doJSON(t, h, http.MethodGet, "/api/entries?"+query, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var out []entryResp
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return out
	}

	if got := list(t, "user_id="+u.ID.String()); len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got := list(t, "user_id="+u.ID.String()+"&description=alug"); len(got) != 1 || got[0].Description != "Aluguel" {
		t.Fatalf("unexpected result: %+v", got)
	}
	if got := list(t, "user_id="+u.ID.String()+"&month=2&kind=income"); len(got) != 1 || got[0].Kind != "income" {
		t.Fatalf("unexpected result: %+v", got)
	}
	if got := list(t, "user_id="+u.ID.String()+"&year=1999"); len(got) != 0 {
		t.Fatalf("expected no entries, got %d", len(got))
	}

	t.Run("missing user_id", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/api/entries", nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/api/entries?user_id="+uuid.NewString(), nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		if er := decodeErr(t, rec); er.Error != "Não foi possível realizar a consulta. Usuário não encontrado para o Id informado" {
			t.Fatalf("unexpected message: %q", er.Error)
		}
	})
}

func TestUserBalance(t *testing.T) {
	store, h, u := setup(t)

	seed := func(amount string, kind finance.Kind, status finance.Status) {
		store.SeedEntry(finance.Entry{
			ID: uuid.New(), UserID: u.ID, Description: "x", Month: 1, Year: 2024,
			Amount: decimal.MustParse(amount), Kind: kind, Status: status,
			RegistrationDate: time.Now().UTC(),
		})
	}
	seed("150.00", finance.KindIncome, finance.StatusConfirmed)
	seed("10.00", finance.KindExpense, finance.StatusConfirmed)
	seed("999.00", finance.KindIncome, finance.StatusPending)
	seed("999.00", finance.KindExpense, finance.StatusCancelled)

	rec := doJSON(t, h, http.MethodGet, "/api/users/"+u.ID.String()+"/balance", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var br balanceResp
	if err := json.Unmarshal(rec.Body.Bytes(), &br); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if br.Balance != "140.00" {
		t.Fatalf("expected 140.00, got %q", br.Balance)
	}

	t.Run("unknown user", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/api/users/"+uuid.NewString()+"/balance", nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		if er := decodeErr(t, rec); er.Error != "Usuário não encontrado" {
			t.Fatalf("unexpected message: %q", er.Error)
		}
	})
}

func TestHealthz(t *testing.T) {
	_, h, _ := setup(t)
	rec := doJSON(t, h, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestJWTProtectedRoutes(t *testing.T) {
	t.Setenv("JWT_HS256_SECRET", "test-secret")

	store := memory.New()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := finance.User{ID: uuid.New(), Name: "Ana", Email: "ana@example.com", Password: string(hash)}
	store.SeedUser(u)
	h := New(store, store, store, store, testLogger()).Handler()

	// no token
	rec := doJSON(t, h, http.MethodPost, "/api/entries", entryBody(u.ID))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body.String())
	}

	// authenticate to get a token
	rec = doJSON(t, h, http.MethodPost, "/api/users/auth", map[string]any{
		"email": u.Email, "password": "s3cret",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("auth: %d: %s", rec.Code, rec.Body.String())
	}
	var ur userResp
	if err := json.Unmarshal(rec.Body.Bytes(), &ur); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ur.Token == "" {
		t.Fatalf("expected a token in the auth response")
	}

	b, _ := json.Marshal(entryBody(u.ID))
	req := httptest.NewRequest(http.MethodPost, "/api/entries", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+ur.Token)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 with token, got %d: %s", rr.Code, rr.Body.String())
	}
}
