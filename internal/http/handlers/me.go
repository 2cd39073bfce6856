package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/lowkeylabs/authgate/internal/http/respond"
	"github.com/lowkeylabs/authgate/internal/middleware"
	"github.com/lowkeylabs/authgate/internal/storage"
)

// MeHandler serves the authenticated caller's own profile.
type MeHandler struct {
	store  storage.UserStore
	logger *zap.Logger
}

// NewMeHandler constructs the handler.
func NewMeHandler(store storage.UserStore, logger *zap.Logger) *MeHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MeHandler{store: store, logger: logger}
}

// Register attaches the profile route to the mux.
func (h *MeHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/me", h.handle)
}

func (h *MeHandler) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respond.Error(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	user, err := h.store.FindByID(r.Context(), claims.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Valid token for a row that no longer exists.
			respond.Error(w, http.StatusUnauthorized, "authentication required")
			return
		}
		h.logger.Error("fetch profile failed", zap.Int64("id", claims.ID), zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "failed to fetch profile")
		return
	}

	respond.JSON(w, http.StatusOK, user)
}
