package httpx

import (
	"context"
	"net/http"
	"strings"
)

type ctxKey int

const userIDKey ctxKey = iota

// UserID returns the authenticated caller id placed by Authenticate.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok
}

// TokenVerifier resolves a bearer credential to a caller identity.
type TokenVerifier interface {
	Verify(raw string) (string, error)
}

// Authenticate guards a route with a bearer token: no token is 403, a bad or
// expired token is 401. The resolved user id is trusted as-is downstream.
func Authenticate(tokens TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			userID, err := tokens.Verify(raw)
			if err != nil {
				writeMessage(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	return parts[1]
}
