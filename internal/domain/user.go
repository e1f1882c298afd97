package domain

import (
	"errors"
	"time"
)

var (
	// ErrUserAlreadyExists is returned when trying to create a user with an existing username.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrUserNotFound is returned when looking up a non-existent user.
	ErrUserNotFound = errors.New("user not found")
	// ErrIncorrectUsername is returned by login when no user has the given username.
	ErrIncorrectUsername = errors.New("incorrect username")
	// ErrIncorrectPassword is returned by login when the password does not match.
	ErrIncorrectPassword = errors.New("incorrect password")
)

// User is a registered blog author.
type User struct {
	ID           int64     // Unique identifier
	Username     string    // Login username
	Email        string    // Contact address given at registration
	PasswordHash string    // Salted password hash
	CreatedAt    time.Time // Time of registration
}
