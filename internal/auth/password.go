package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Work factor for password hashing. Roughly 100ms per hash on current
// server hardware; raising it invalidates no existing hashes.
const bcryptCost = bcrypt.DefaultCost

// ErrHashing indicates the hashing primitive itself failed.
var ErrHashing = errors.New("failed to hash password")

// ErrVerification indicates a verification call was malformed (missing
// password or hash). A plain mismatch is not an error.
var ErrVerification = errors.New("password and hash are required")

// HashPassword derives a salted one-way hash of password. Empty passwords
// are expected to be rejected by request validation before this point.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrHashing, err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches hash. It returns
// false with a nil error for a well-formed mismatch, and ErrVerification
// when either argument is absent. bcrypt's own constant-time comparison
// is the only comparison performed.
func VerifyPassword(password, hash string) (bool, error) {
	if password == "" || hash == "" {
		return false, ErrVerification
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", ErrVerification, err)
	}
}
