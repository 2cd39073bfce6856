package middleware

import (
	"context"
	"net/http"

	"github.com/lowkeylabs/authgate/internal/auth"
)

type contextKey string

const claimsKey contextKey = "session_claims"

// AuthContext extracts the session cookie, verifies it, and stores the
// claims in the request context. Invalid or absent tokens are not an
// error here; downstream components treat such requests as guests.
func AuthContext(tokens *auth.TokenManager, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token := auth.TokenFromRequest(r); token != "" {
			if claims, err := tokens.Verify(token); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), claimsKey, claims))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// ClaimsFromContext returns the verified session claims, if any.
func ClaimsFromContext(ctx context.Context) (auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(auth.Claims)
	return claims, ok
}
