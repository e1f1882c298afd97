package authsvc

import (
	"errors"
	"fmt"

	"github.com/mkrupp/homecase-blog/internal/domain"
	"github.com/mkrupp/homecase-blog/internal/util/password"
)

// Registration input errors, checked in this order.
var (
	ErrUsernameRequired   = errors.New("username required")
	ErrPasswordRequired   = errors.New("password required")
	ErrRePasswordRequired = errors.New("password confirmation required")
	ErrEmailRequired      = errors.New("email required")
	ErrPasswordTooLong    = errors.New("password too long")
	ErrPasswordMismatch   = errors.New("passwords do not match")
)

// RegisterForm is the submitted registration form.
type RegisterForm struct {
	Username   string
	Password   string
	RePassword string
	Email      string
}

// Validate returns the first input error of f, or nil.
func (f RegisterForm) Validate() error {
	switch {
	case f.Username == "":
		return ErrUsernameRequired
	case f.Password == "":
		return ErrPasswordRequired
	case f.RePassword == "":
		return ErrRePasswordRequired
	case f.Email == "":
		return ErrEmailRequired
	case len(f.Password) > password.MaxLength:
		return ErrPasswordTooLong
	case f.Password != f.RePassword:
		return ErrPasswordMismatch
	}

	return nil
}

// IsInputError reports whether err was caused by what the user submitted
// rather than by a failure of the service.
func IsInputError(err error) bool {
	for _, target := range []error{
		ErrUsernameRequired,
		ErrPasswordRequired,
		ErrRePasswordRequired,
		ErrEmailRequired,
		ErrPasswordTooLong,
		ErrPasswordMismatch,
		domain.ErrUserAlreadyExists,
		domain.ErrIncorrectUsername,
		domain.ErrIncorrectPassword,
	} {
		if errors.Is(err, target) {
			return true
		}
	}

	return false
}

// Message returns the text shown to the user for an input error of the
// registration or login form. ok is false for other errors.
func Message(err error, username string) (msg string, ok bool) {
	switch {
	case errors.Is(err, ErrUsernameRequired):
		return "Nombre de usuario requerido.", true
	case errors.Is(err, ErrPasswordRequired):
		return "Contraseña requerida", true
	case errors.Is(err, ErrRePasswordRequired):
		return "Verificacion requerida", true
	case errors.Is(err, ErrEmailRequired):
		return "Email requerido", true
	case errors.Is(err, ErrPasswordTooLong):
		return "La contraseña es demasiado larga", true
	case errors.Is(err, ErrPasswordMismatch):
		return "Las contraseñas no coinciden", true
	case errors.Is(err, domain.ErrUserAlreadyExists):
		return fmt.Sprintf("Ya esta registrado el usuario %s.", username), true
	case errors.Is(err, domain.ErrIncorrectUsername):
		return "Incorrect username.", true
	case errors.Is(err, domain.ErrIncorrectPassword):
		return "Incorrect password.", true
	}

	return "", false
}
