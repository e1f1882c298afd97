package authsvc

import (
	"context"
	"fmt"

	"github.com/mkrupp/homecase-blog/internal/domain"
	"github.com/mkrupp/homecase-blog/internal/infra/logging"
	"github.com/mkrupp/homecase-blog/internal/repo/user"
	"github.com/mkrupp/homecase-blog/internal/util/password"
)

// AuthConfig contains configuration parameters for the authentication service.
type AuthConfig struct {
	// PasswordCost is the bcrypt work factor for new password hashes
	PasswordCost int `env:"PASSWORD_COST" default:"10"`
}

// AuthService registers users and checks their credentials.
type AuthService struct {
	Config   AuthConfig
	UserRepo user.Repository
	Hasher   password.Hasher
	Log      logging.Logger
}

// NewAuthService creates a new AuthService on top of userRepo.
func NewAuthService(userRepo user.Repository, cfg AuthConfig) *AuthService {
	return &AuthService{
		Config:   cfg,
		UserRepo: userRepo,
		Hasher:   password.Hasher{Cost: cfg.PasswordCost},
		Log:      logging.GetLogger("svc.authsvc.auth_service"),
	}
}

func logResult(ctx context.Context, log logging.Logger, err error, failed, succeeded string) {
	switch {
	case err == nil:
		log.DebugContext(ctx, succeeded)
	case IsInputError(err):
		log.InfoContext(ctx, failed, "reason", err)
	default:
		log.ErrorContext(ctx, failed, "error", err)
	}
}

// RegisterUser validates form, hashes the password and stores the new user.
// Input problems are reported as the Err*Required, ErrPasswordMismatch and
// domain.ErrUserAlreadyExists errors.
func (s *AuthService) RegisterUser(ctx context.Context, form RegisterForm) (_ *domain.User, err error) {
	log := s.Log.With(logging.Group("user", "username", form.Username))

	defer func() {
		logResult(ctx, log, err, "register user failed", "user registered")
	}()

	if err := form.Validate(); err != nil {
		return nil, err
	}

	hash, err := s.Hasher.Hash(form.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &domain.User{
		Username:     form.Username,
		Email:        form.Email,
		PasswordHash: hash,
	}

	if err := s.UserRepo.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	return u, nil
}

// Login returns the user whose credentials match.
// Returns domain.ErrIncorrectUsername or domain.ErrIncorrectPassword otherwise.
func (s *AuthService) Login(ctx context.Context, username, plain string) (_ *domain.User, err error) {
	log := s.Log.With(logging.Group("user", "username", username))

	defer func() {
		logResult(ctx, log, err, "login failed", "login successful")
	}()

	u, ok, err := s.UserRepo.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	} else if !ok {
		return nil, domain.ErrIncorrectUsername
	}

	if !password.Check(u.PasswordHash, plain) {
		return nil, domain.ErrIncorrectPassword
	}

	return u, nil
}

// LoadUser resolves the user ID stored in a session.
// A user that no longer exists is reported as not found, not as an error.
func (s *AuthService) LoadUser(ctx context.Context, id int64) (*domain.User, bool, error) {
	u, ok, err := s.UserRepo.GetUserByID(ctx, id)
	if err != nil {
		return nil, false, fmt.Errorf("get user: %w", err)
	}

	return u, ok, nil
}
