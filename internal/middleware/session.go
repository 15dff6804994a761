// Package middleware provides HTTP middlewares for session resolution and
// request logging.
package middleware

import (
	"context"
	"net/http"

	"github.com/atinyakov/storefront/internal/session"
	"go.uber.org/zap"
)

type ctxKey string

const userKey ctxKey = "user"

// TokenVerifier validates a session token and returns the user id it carries.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// SessionAuth resolves the session cookie on every request.
//
// A missing cookie leaves the request anonymous. A token that fails
// verification is logged and also treated as anonymous: the middleware never
// rejects a request, so operations that require a user must check
// UserIDFromContext themselves.
func SessionAuth(verifier TokenVerifier, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := session.TokenFromRequest(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			userID, err := verifier.Verify(token)
			if err != nil {
				log.Debug("ignoring invalid session token", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// WithUserID returns a copy of ctx carrying the authenticated user id.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey, userID)
}

// UserIDFromContext extracts the authenticated user id from the request
// context. Returns an empty string for anonymous requests.
func UserIDFromContext(ctx context.Context) string {
	val := ctx.Value(userKey)
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}
