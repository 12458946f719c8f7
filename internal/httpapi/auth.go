package httpapi

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vportes/financas/internal/finance"
)

// tokenIssuer signs and verifies HS256 bearer tokens. A nil issuer means
// JWT auth is disabled and the API stays open, matching the original
// deployment mode.
type tokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// tokenIssuerFromEnv builds an issuer from JWT_HS256_SECRET, with optional
// JWT_ISSUER and JWT_TTL (Go duration, default 24h). Returns nil when the
// secret is unset.
func tokenIssuerFromEnv() *tokenIssuer {
	secret := strings.TrimSpace(os.Getenv("JWT_HS256_SECRET"))
	if secret == "" {
		return nil
	}
	ttl := 24 * time.Hour
	if raw := strings.TrimSpace(os.Getenv("JWT_TTL")); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			ttl = d
		}
	}
	return &tokenIssuer{
		secret: []byte(secret),
		issuer: strings.TrimSpace(os.Getenv("JWT_ISSUER")),
		ttl:    ttl,
	}
}

// issue signs a token whose subject is the user's id.
func (t *tokenIssuer) issue(u finance.User) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   u.ID.String(),
		Issuer:    t.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

func parseBearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", false
	}
	if !strings.HasPrefix(h, "Bearer ") && !strings.HasPrefix(h, "bearer ") {
		return "", false
	}
	return strings.TrimSpace(h[len("Bearer "):]), true
}

// middleware enforces Authorization: Bearer on the wrapped routes. Safe to
// call on a nil issuer, in which case it returns nil and no check applies.
func (t *tokenIssuer) middleware() func(http.Handler) http.Handler {
	if t == nil {
		return nil
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := parseBearerToken(r)
			if !ok {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
			if t.issuer != "" {
				opts = append(opts, jwt.WithIssuer(t.issuer))
			}
			_, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(tok *jwt.Token) (any, error) {
				return t.secret, nil
			}, opts...)
			if err != nil {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
