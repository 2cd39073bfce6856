// Package account orchestrates signup and signin on top of the credential
// service, the token issuer, and the user directory.
package account

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/lowkeylabs/authgate/internal/auth"
	"github.com/lowkeylabs/authgate/internal/models"
	"github.com/lowkeylabs/authgate/internal/storage"
)

// ErrEmailExists indicates signup was attempted with an email that is
// already registered, whether caught by the pre-check or by the
// persistence constraint at insert time.
var ErrEmailExists = errors.New("email already exists")

// ErrInvalidCredentials is the single signin failure visible to callers.
// Unknown email and wrong password both map here so responses cannot be
// used to enumerate accounts; the distinction survives only in logs.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Service owns the signup and signin flows.
type Service struct {
	store  storage.UserStore
	tokens *auth.TokenManager
	logger *zap.Logger
}

// NewService constructs the account service.
func NewService(store storage.UserStore, tokens *auth.TokenManager, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, tokens: tokens, logger: logger}
}

// SignUp creates a new account and issues a session token for it.
// Concurrent signups with the same email resolve through the store's
// uniqueness constraint: exactly one wins, the rest get ErrEmailExists.
func (s *Service) SignUp(ctx context.Context, name, email, password, role string) (models.User, string, error) {
	if role == "" {
		role = models.RoleUser
	}

	if _, err := s.store.FindByEmail(ctx, email); err == nil {
		return models.User{}, "", ErrEmailExists
	} else if !errors.Is(err, storage.ErrNotFound) {
		return models.User{}, "", fmt.Errorf("check existing email: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return models.User{}, "", err
	}

	user, err := s.store.CreateUser(ctx, models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	})
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateEmail) {
			// Lost the race between pre-check and insert; same outcome
			// as the pre-check hit.
			return models.User{}, "", ErrEmailExists
		}
		return models.User{}, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokens.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		return models.User{}, "", fmt.Errorf("issue token: %w", err)
	}

	s.logger.Info("user signed up", zap.String("email", user.Email), zap.Int64("id", user.ID))
	return user, token, nil
}

// SignIn authenticates an existing account and issues a fresh session
// token.
func (s *Service) SignIn(ctx context.Context, email, password string) (models.User, string, error) {
	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("signin failed: unknown email", zap.String("email", email))
			return models.User{}, "", ErrInvalidCredentials
		}
		return models.User{}, "", fmt.Errorf("fetch user: %w", err)
	}

	ok, err := auth.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return models.User{}, "", fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		s.logger.Warn("signin failed: password mismatch", zap.String("email", email))
		return models.User{}, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		return models.User{}, "", fmt.Errorf("issue token: %w", err)
	}

	s.logger.Info("user signed in", zap.String("email", user.Email), zap.Int64("id", user.ID))
	return user, token, nil
}
