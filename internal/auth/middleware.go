package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/faridz/amlak/internal/api"
	"github.com/faridz/amlak/internal/config"
)

// Define a custom type for context keys
type contextKey string

const (
	// ClaimsContextKey is the key used to store verified claims in the context
	ClaimsContextKey contextKey = "claims"
)

type Middleware struct {
	config *config.AuthConfig
}

func NewMiddleware(config *config.AuthConfig) *Middleware {
	return &Middleware{config: config}
}

// Authenticate rejects requests without a bearer token (401) and requests
// with an invalid or expired one (403), and stores the verified claims in
// the request context otherwise.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			api.Error(w, http.StatusUnauthorized, "access token required")
			return
		}

		claims, err := validateToken(token, m.config.JWTSecret)
		if err != nil {
			api.Error(w, http.StatusForbidden, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin must run after Authenticate.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := ClaimsFromContext(r.Context())
		if err != nil || claims.Role != RoleAdmin {
			api.Error(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClaimsFromContext returns the verified claims stored by Authenticate.
func ClaimsFromContext(ctx context.Context) (*Claims, error) {
	claims, ok := ctx.Value(ClaimsContextKey).(*Claims)
	if !ok || claims == nil {
		return nil, errors.New("claims not found in context")
	}
	return claims, nil
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

func validateToken(tokenString string, secretKey string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secretKey), nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	// Refresh tokens are only redeemable at the refresh endpoint, which
	// re-checks account standing; they are never a bearer credential.
	if claims.Subject == "refresh" {
		return nil, errors.New("refresh token used as access token")
	}

	return claims, nil
}
