package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pliu/blog/internal/auth"
	"github.com/pliu/blog/internal/logging"
)

type contextKey string

const identityKey contextKey = "identity"

// WithIdentity returns a copy of ctx carrying the verified caller.
func WithIdentity(ctx context.Context, id auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the identity attached by Auth.
func IdentityFromContext(ctx context.Context) (auth.Identity, bool) {
	id, ok := ctx.Value(identityKey).(auth.Identity)
	return id, ok
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]any{
		"authenticated": false,
		"message":       message,
	})
}

// Auth admits only requests carrying a valid, unrevoked session token
// cookie and attaches the caller's Identity to the request context.
func Auth(issuer *auth.Issuer, revoker auth.Revoker, logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(auth.TokenCookie)
			if err != nil || cookie.Value == "" {
				unauthorized(w, "No token")
				return
			}

			claims, err := issuer.Verify(cookie.Value)
			if err != nil {
				if errors.Is(err, auth.ErrTokenExpired) {
					unauthorized(w, "Token expired")
					return
				}
				unauthorized(w, "Invalid token")
				return
			}

			revoked, err := revoker.IsRevoked(r.Context(), claims.ID)
			if err != nil {
				logger.Error(r.Context(), "revocation check failed", "error", err)
				unauthorized(w, "Invalid token")
				return
			}
			if revoked {
				unauthorized(w, "Invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), claims.Identity())))
		})
	}
}
