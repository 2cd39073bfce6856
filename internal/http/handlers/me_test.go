package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowkeylabs/authgate/internal/auth"
	"github.com/lowkeylabs/authgate/internal/middleware"
	"github.com/lowkeylabs/authgate/internal/models"
	"github.com/lowkeylabs/authgate/internal/models/dto"
)

func TestMeHandler(t *testing.T) {
	mux, tokens := newTestMux(t)
	handler := middleware.AuthContext(tokens, mux)

	rec := postJSON(t, mux, "/sign-up", dto.SignUpRequest{
		Name: "A", Email: "a@x.com", Password: "secret1!",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	session := tokenCookie(t, rec)

	t.Run("authenticated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.AddCookie(session)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var user models.User
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&user))
		assert.Equal(t, "a@x.com", user.Email)
		assert.Equal(t, "A", user.Name)
	})

	t.Run("no session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("stale session for a deleted row", func(t *testing.T) {
		stale, err := tokens.Issue(9999, "ghost@x.com", models.RoleUser)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.AddCookie(&http.Cookie{Name: auth.TokenCookieName, Value: stale})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
