package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"certreg/pkg/domain"
)

// TokenValidator validates a bearer token and resolves the caller principal.
type TokenValidator interface {
	ValidateToken(tokenString string) (*TokenClaims, error)
}

// TokenClaims represents the claims we expect from the token validator.
type TokenClaims struct {
	Principal domain.Principal
	TokenID   string
}

type contextKeyPrincipal struct{}

// ContextKeyPrincipal is exported for use in handlers.
var ContextKeyPrincipal = contextKeyPrincipal{}

// GetPrincipal retrieves the authenticated caller principal from the context.
// The zero principal means the request was not authenticated.
func GetPrincipal(ctx context.Context) domain.Principal {
	p, ok := ctx.Value(ContextKeyPrincipal).(domain.Principal)
	if !ok {
		return domain.Principal{}
	}
	return p
}

// RequireAuth rejects requests without a valid bearer token and stores the
// resolved principal in the request context. Read-only routes stay outside
// this middleware; every mutating route goes through it.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				unauthorized(w)
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", GetRequestID(ctx),
				)
				unauthorized(w)
				return
			}

			ctx = context.WithValue(ctx, ContextKeyPrincipal, claims.Principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"Invalid or missing bearer token"}`))
}
