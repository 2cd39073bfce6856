package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"github.com/lowkeylabs/authgate/internal/account"
	"github.com/lowkeylabs/authgate/internal/auth"
	"github.com/lowkeylabs/authgate/internal/http/respond"
	"github.com/lowkeylabs/authgate/internal/models"
	"github.com/lowkeylabs/authgate/internal/models/dto"
)

const minPasswordLength = 8

// AuthHandler owns the sign-up, sign-in, and sign-out endpoints.
type AuthHandler struct {
	accounts *account.Service
	tokens   *auth.TokenManager
	logger   *zap.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(accounts *account.Service, tokens *auth.TokenManager, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{accounts: accounts, tokens: tokens, logger: logger}
}

// Register attaches auth routes to the mux.
func (h *AuthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/sign-up", h.handleSignUp)
	mux.HandleFunc("/sign-in", h.handleSignIn)
	mux.HandleFunc("/sign-out", h.handleSignOut)
}

func (h *AuthHandler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respond.Error(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req dto.SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if err := validateSignUp(req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	user, token, err := h.accounts.SignUp(r.Context(), req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, account.ErrEmailExists):
			respond.Error(w, http.StatusConflict, "email already exists")
		default:
			h.logger.Error("signup failed", zap.String("email", req.Email), zap.Error(err))
			respond.Error(w, http.StatusInternalServerError, "failed to create user")
		}
		return
	}

	auth.AttachToken(w, token, h.tokens.TTL())
	respond.JSON(w, http.StatusCreated, dto.AuthResponse{
		Message: "User created successfully",
		User:    user,
	})
}

func (h *AuthHandler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respond.Error(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req dto.SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		respond.Error(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, token, err := h.accounts.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, account.ErrInvalidCredentials) {
			respond.Error(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		h.logger.Error("signin failed", zap.String("email", req.Email), zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "failed to sign in")
		return
	}

	auth.AttachToken(w, token, h.tokens.TTL())
	respond.JSON(w, http.StatusOK, dto.AuthResponse{
		Message: "Signed in successfully",
		User:    user,
	})
}

func (h *AuthHandler) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respond.Error(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	auth.ClearToken(w)
	respond.JSON(w, http.StatusOK, map[string]string{"message": "Signed out successfully"})
}

func validateSignUp(req dto.SignUpRequest) error {
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return errors.New("name, email, and password are required")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return errors.New("email is invalid")
	}
	if len(req.Password) < minPasswordLength {
		return errors.New("password must be at least 8 characters")
	}
	if req.Role != "" && !models.ValidRole(req.Role) {
		return errors.New("role must be one of: user, admin")
	}
	return nil
}
