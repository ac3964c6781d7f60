package testutil

import (
	"context"
	"net/http"

	"firledger/internal/platform/middleware"
)

// WithTokenIdentity adds a verified token identity to the request context.
// This simulates what the identity-binding middleware does after validating
// a bearer token.
func WithTokenIdentity(req *http.Request, identity string) *http.Request {
	if identity == "" {
		return req
	}
	ctx := context.WithValue(req.Context(), middleware.ContextKeyTokenIdentity, identity)
	return req.WithContext(ctx)
}

// WithBearerToken sets the Authorization header for a request.
func WithBearerToken(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}
