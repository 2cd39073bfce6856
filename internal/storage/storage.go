package storage

import (
	"context"
	"errors"

	"github.com/lowkeylabs/authgate/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrDuplicateEmail indicates the email uniqueness constraint rejected an
// insert. Callers must treat it exactly like a pre-check hit: the
// constraint, not the pre-check, is the source of truth under concurrency.
var ErrDuplicateEmail = errors.New("email already exists")

// UserStore is the persistence contract the security core needs from the
// user directory.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id int64) (models.User, error)
}
