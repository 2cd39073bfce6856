package auth

import (
	"net/http"
	"time"
)

// TokenCookieName is the session cookie carrying the signed token.
const TokenCookieName = "token"

// AttachToken sets the session cookie on w. The cookie is HTTP-only and
// same-site restricted so the token never reaches script-accessible
// storage.
func AttachToken(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearToken expires the session cookie immediately. Idempotent.
func ClearToken(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// TokenFromRequest extracts the raw session token from the request
// cookie, returning the empty string when absent.
func TokenFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(TokenCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
