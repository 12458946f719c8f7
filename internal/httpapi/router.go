// Package httpapi wires the HTTP surface of the finance service.
// It keeps handlers thin, delegating business rules to the service layer.
package httpapi

import (
	"context"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"log/slog"

	"github.com/vportes/financas/internal/service/entry"
	"github.com/vportes/financas/internal/service/user"
)

// Server wires handlers and middleware using Chi.
// It composes read (repo) and write (writer) dependencies through services.
type Server struct {
	entries entry.Service
	users   user.Service
	tokens  *tokenIssuer
	ready   readyChecker
	log     *slog.Logger
	rt      *chi.Mux
}

type readyChecker interface {
	Ready(ctx context.Context) error
}

// New constructs the HTTP server with routes and middleware. The logger is
// used by request/response logging and panic recovery. Token issuance and
// the bearer requirement on entry routes activate only when
// JWT_HS256_SECRET is set.
func New(erepo entry.Repo, ewriter entry.Writer, urepo user.Repo, uwriter user.Writer, logger *slog.Logger) *Server {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(requestLogger(logger))
	r.Use(recoverer(logger))
	r.Use(metricsMiddleware)

	s := &Server{
		entries: entry.New(erepo, ewriter, time.Now),
		users:   user.New(urepo, uwriter),
		tokens:  tokenIssuerFromEnv(),
		rt:      r,
		log:     logger,
	}
	if rc, ok := any(erepo).(readyChecker); ok {
		s.ready = rc
	}
	s.routes()
	return s
}

// Handler exposes the configured http.Handler.
func (s *Server) Handler() http.Handler { return s.rt }

// routes declares the public HTTP API endpoints and attaches any per-route middleware.
func (s *Server) routes() {
	// Users
	s.rt.Post("/api/users", s.registerUser)
	s.rt.Post("/api/users/auth", s.authenticateUser)

	// Entries and balance require a bearer token when JWT auth is enabled.
	s.rt.Group(func(r chi.Router) {
		if mw := s.tokens.middleware(); mw != nil {
			r.Use(mw)
		}
		r.Get("/api/users/{id}/balance", s.userBalance)
		r.Post("/api/entries", s.postEntry)
		r.Get("/api/entries", s.searchEntries)
		r.Put("/api/entries/{id}", s.updateEntry)
		r.Delete("/api/entries/{id}", s.deleteEntry)
		r.Put("/api/entries/{id}/status", s.updateEntryStatus)
	})

	// Health and metrics (unversioned)
	s.rt.Get("/healthz", s.healthz)
	s.rt.Get("/readyz", s.readyz)
	s.rt.Handle("/metrics", metricsHandler())
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 800*time.Millisecond)
		defer cancel()
		if err := s.ready.Ready(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
}
