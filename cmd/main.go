package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"github.com/vportes/financas/internal/finance"
	"github.com/vportes/financas/internal/httpapi"
	"github.com/vportes/financas/internal/storage/memory"
	pgstore "github.com/vportes/financas/internal/storage/postgres"
	sqlitestore "github.com/vportes/financas/internal/storage/sqlite"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Logger (slog to stdout). Level via LOG_LEVEL; format via LOG_FORMAT (json|text, default json)
	logger := buildLoggerFromEnv()
	slog.SetDefault(logger)

	var srvMux http.Handler
	var closeFn func()

	switch {
	case strings.TrimSpace(os.Getenv("DATABASE_URL")) != "":
		pg, err := pgstore.Open(ctx, strings.TrimSpace(os.Getenv("DATABASE_URL")))
		if err != nil {
			logger.Error("failed to connect to postgres", "err", err)
			os.Exit(1)
		}
		closeFn = func() { pg.Close() }
		srvMux = httpapi.New(pg, pg, pg, pg, logger).Handler()
		logger.Info("storage backend: postgres")
	case strings.TrimSpace(os.Getenv("SQLITE_PATH")) != "":
		st, err := sqlitestore.Open(strings.TrimSpace(os.Getenv("SQLITE_PATH")))
		if err != nil {
			logger.Error("failed to open sqlite database", "err", err)
			os.Exit(1)
		}
		closeFn = func() { _ = st.Close() }
		srvMux = httpapi.New(st, st, st, st, logger).Handler()
		logger.Info("storage backend: sqlite", "path", os.Getenv("SQLITE_PATH"))
	default:
		store := memory.New()
		user := seedDevUser(store)
		logger.Info("DEV seed (memory)", "user_id", user.ID.String(), "email", user.Email)
		printDevSeedBanner(user)
		srvMux = httpapi.New(store, store, store, store, logger).Handler()
		logger.Info("storage backend: memory")
	}

	srv := &http.Server{
		Addr:              ":8080",
		Handler:           srvMux,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("finance service listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctxShutdown); err != nil {
			logger.Error("server shutdown error", "err", err)
		}
	case err := <-errCh:
		logger.Error("server error", "err", err)
	}
	if closeFn != nil {
		closeFn()
	}
}

const devSeedPassword = "financas"

// seedDevUser inserts a demo user so the API is usable immediately in
// memory mode.
func seedDevUser(store *memory.Store) finance.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(devSeedPassword), bcrypt.DefaultCost)
	user := finance.User{
		ID:       uuid.New(),
		Name:     "Dev User",
		Email:    "dev@financas.local",
		Password: string(hash),
	}
	store.SeedUser(user)
	return user
}

// printDevSeedBanner prints a simple banner to stdout for easy copy/paste of credentials.
func printDevSeedBanner(user finance.User) {
	fmt.Println("==================== DEV SEED ====================")
	fmt.Printf("user_id: %s\n", user.ID.String())
	fmt.Printf("email: %s\n", user.Email)
	fmt.Printf("password: %s\n", devSeedPassword)
	fmt.Println("==================================================")
}

// parseLogLevel maps env values to slog.Leveler
func parseLogLevel(s string) slog.Leveler {
	switch s {
	case "DEBUG", "debug":
		return slog.LevelDebug
	case "WARN", "WARNING", "warn", "warning":
		return slog.LevelWarn
	case "ERROR", "ERR", "error", "err":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func buildLoggerFromEnv() *slog.Logger {
	level := parseLogLevel(os.Getenv("LOG_LEVEL"))
	format := strings.ToLower(strings.TrimSpace(os.Getenv("LOG_FORMAT")))
	if format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	}
	// default to JSON
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
