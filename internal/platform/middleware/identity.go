package middleware

import (
	"context"
	"log/slog"
	"net/http"
)

// TokenValidator verifies a bearer token and returns the identity it binds.
type TokenValidator interface {
	ValidateToken(tokenString string) (string, error)
}

type contextKeyTokenIdentity struct{}

// ContextKeyTokenIdentity is exported for use in handlers and tests.
var ContextKeyTokenIdentity = contextKeyTokenIdentity{}

// GetTokenIdentity retrieves the token-bound identity from the context.
// Empty when the request carried no (valid) token.
func GetTokenIdentity(ctx context.Context) string {
	identity, ok := ctx.Value(ContextKeyTokenIdentity).(string)
	if !ok {
		return ""
	}
	return identity
}

// BindIdentity validates an Authorization bearer token when present and
// stores the bound identity in the request context. When required is true,
// requests without a valid token are rejected; otherwise the caller-supplied
// sender identity is trusted as-is, for deployments where authentication
// sits in front of the service.
func BindIdentity(validator TokenValidator, required bool, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const bearerPrefix = "Bearer "
			authHeader := r.Header.Get("Authorization")

			if len(authHeader) > len(bearerPrefix) && authHeader[:len(bearerPrefix)] == bearerPrefix {
				identity, err := validator.ValidateToken(authHeader[len(bearerPrefix):])
				if err != nil {
					logger.WarnContext(r.Context(), "invalid identity token",
						"error", err,
						"request_id", GetRequestID(r.Context()),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusUnauthorized)
					_, _ = w.Write([]byte(`{"message":"invalid or expired token"}`))
					return
				}
				ctx := context.WithValue(r.Context(), ContextKeyTokenIdentity, identity)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			if required {
				logger.WarnContext(r.Context(), "missing identity token",
					"request_id", GetRequestID(r.Context()),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"message":"missing or invalid Authorization header"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
