package user

import (
	"context"

	"github.com/mkrupp/homecase-blog/internal/domain"
)

// Repository defines the interface for user data persistence.
type Repository interface {
	// CreateUser stores u and sets its ID.
	// Returns ErrUserAlreadyExists if the username is already taken.
	CreateUser(ctx context.Context, u *domain.User) error

	// GetUserByUsername retrieves a user by their username.
	// Returns the user and true if found, or nil and false if not found.
	GetUserByUsername(ctx context.Context, username string) (*domain.User, bool, error)

	// GetUserByID retrieves a user by their ID with the same semantics as GetUserByUsername.
	GetUserByID(ctx context.Context, id int64) (*domain.User, bool, error)
}
