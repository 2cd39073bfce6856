package middleware

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/lowkeylabs/authgate/internal/admission"
	"github.com/lowkeylabs/authgate/internal/http/respond"
)

// denialResponse maps each denial reason to its client-facing status and
// message. Quota exhaustion deliberately shares 403 with the policy
// denials for compatibility with existing clients; this table is the one
// place to change that.
var denialResponse = map[admission.Reason]struct {
	status  int
	message string
}{
	admission.ReasonBot:       {http.StatusForbidden, "Bot access denied"},
	admission.ReasonShield:    {http.StatusForbidden, "Request blocked by security policy"},
	admission.ReasonRateLimit: {http.StatusForbidden, "Too many requests"},
}

// Admission runs the gateway ahead of every handler, short-circuiting
// denied requests. Evaluation failures fail closed with a generic 500.
func Admission(gateway *admission.Gateway, logger *zap.Logger, next http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := admission.RequestContext{
			IP:        clientIP(r),
			UserAgent: r.UserAgent(),
			Path:      r.URL.Path,
			Method:    r.Method,
		}
		if claims, ok := ClaimsFromContext(r.Context()); ok {
			req.Role = claims.Role
		}

		decision, err := gateway.Check(r.Context(), req)
		if err != nil {
			logger.Error("admission evaluation failed",
				zap.String("ip", req.IP),
				zap.String("path", req.Path),
				zap.Error(err),
			)
			respond.Error(w, http.StatusInternalServerError, "Security check failed")
			return
		}
		if !decision.Allowed {
			resp, ok := denialResponse[decision.Reason]
			if !ok {
				respond.Error(w, http.StatusForbidden, "Forbidden")
				return
			}
			respond.Error(w, resp.status, resp.message)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP resolves the caller address, preferring proxy headers.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if parts := strings.Split(xff, ","); len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return strings.Trim(ip, "[]")
}
