package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowkeylabs/authgate/internal/admission"
	"github.com/lowkeylabs/authgate/internal/auth"
	"github.com/lowkeylabs/authgate/internal/ratelimit/store"
)

type fixedEvaluator struct {
	decision admission.Decision
	err      error
}

func (f *fixedEvaluator) Evaluate(context.Context, admission.RequestContext, admission.QuotaRule) (admission.Decision, error) {
	return f.decision, f.err
}

func admissionHandler(t *testing.T, evaluator admission.Evaluator) http.Handler {
	t.Helper()
	counters := store.NewMemoryStore()
	t.Cleanup(func() { _ = counters.Close() })

	gw := admission.NewGateway(admission.Config{DefaultLimit: 100}, counters, evaluator, nil)
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return Admission(gw, nil, next)
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body["error"]
}

func TestAdmission_DenialMapping(t *testing.T) {
	tests := []struct {
		reason  admission.Reason
		status  int
		message string
	}{
		{admission.ReasonBot, http.StatusForbidden, "Bot access denied"},
		{admission.ReasonShield, http.StatusForbidden, "Request blocked by security policy"},
		{admission.ReasonRateLimit, http.StatusForbidden, "Too many requests"},
	}

	for _, tt := range tests {
		t.Run(string(tt.reason), func(t *testing.T) {
			handler := admissionHandler(t, &fixedEvaluator{
				decision: admission.Decision{Allowed: false, Reason: tt.reason},
			})

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/sign-in", nil)
			req.Header.Set("User-Agent", "Mozilla/5.0")
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.message, errorBody(t, rec))
		})
	}
}

func TestAdmission_AllowedPassesThrough(t *testing.T) {
	handler := admissionHandler(t, &fixedEvaluator{
		decision: admission.Decision{Allowed: true, Reason: admission.ReasonNone},
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/sign-in", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0")
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdmission_EvaluationErrorFailsClosed(t *testing.T) {
	handler := admissionHandler(t, &fixedEvaluator{err: errors.New("provider down")})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/sign-in", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0")
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Security check failed", errorBody(t, rec))
}

func TestAdmission_RoleFromClaims(t *testing.T) {
	counters := store.NewMemoryStore()
	t.Cleanup(func() { _ = counters.Close() })

	// Admin gets 2/window; everyone else 1.
	gw := admission.NewGateway(admission.Config{
		Window:       time.Minute,
		RoleLimits:   map[string]int{"admin": 2},
		DefaultLimit: 1,
	}, counters, &fixedEvaluator{decision: admission.Decision{Allowed: true}}, nil)

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	tokens := auth.NewTokenManager("test-secret", "authgate-test", time.Minute)
	handler := AuthContext(tokens, Admission(gw, nil, next))

	token, err := tokens.Issue(1, "admin@x.com", "admin")
	require.NoError(t, err)

	send := func(withToken bool) int {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("User-Agent", "Mozilla/5.0")
		if withToken {
			req.AddCookie(&http.Cookie{Name: auth.TokenCookieName, Value: token})
		}
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	// The admin window admits two requests; the guest window only one.
	assert.Equal(t, http.StatusOK, send(true))
	assert.Equal(t, http.StatusOK, send(true))
	assert.Equal(t, http.StatusForbidden, send(true))

	assert.Equal(t, http.StatusOK, send(false))
	assert.Equal(t, http.StatusForbidden, send(false))
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		remote  string
		headers map[string]string
		want    string
	}{
		{name: "remote addr", remote: "203.0.113.7:51234", want: "203.0.113.7"},
		{name: "forwarded for", remote: "10.0.0.1:80", headers: map[string]string{"X-Forwarded-For": "198.51.100.4, 10.0.0.1"}, want: "198.51.100.4"},
		{name: "real ip", remote: "10.0.0.1:80", headers: map[string]string{"X-Real-IP": "198.51.100.9"}, want: "198.51.100.9"},
		{name: "ipv6", remote: "[::1]:80", want: "::1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientIP(req))
		})
	}
}
