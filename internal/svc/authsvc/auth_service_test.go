package authsvc_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mkrupp/homecase-blog/internal/domain"
	"github.com/mkrupp/homecase-blog/internal/infra/logging"
	"github.com/mkrupp/homecase-blog/internal/svc/authsvc"
	"github.com/mkrupp/homecase-blog/internal/util/password"
)

// mockUserRepository implements user.Repository for testing.
type mockUserRepository struct {
	users map[string]*domain.User
	err   error
	m     sync.Mutex
}

func (m *mockUserRepository) CreateUser(_ context.Context, u *domain.User) error {
	m.m.Lock()
	defer m.m.Unlock()

	if m.err != nil {
		return m.err
	}

	if _, exists := m.users[u.Username]; exists {
		return domain.ErrUserAlreadyExists
	}

	u.ID = int64(len(m.users) + 1)
	m.users[u.Username] = u

	return nil
}

func (m *mockUserRepository) GetUserByUsername(_ context.Context, username string) (*domain.User, bool, error) {
	m.m.Lock()
	defer m.m.Unlock()

	if m.err != nil {
		return nil, false, m.err
	}

	u, ok := m.users[username]

	return u, ok, nil
}

func (m *mockUserRepository) GetUserByID(_ context.Context, id int64) (*domain.User, bool, error) {
	m.m.Lock()
	defer m.m.Unlock()

	if m.err != nil {
		return nil, false, m.err
	}

	for _, u := range m.users {
		if u.ID == id {
			return u, true, nil
		}
	}

	return nil, false, nil
}

func newMockUserRepo() *mockUserRepository {
	return &mockUserRepository{
		users: make(map[string]*domain.User),
	}
}

var ErrRepoError = errors.New("repository error")

func setupTestService(t *testing.T) (*authsvc.AuthService, *mockUserRepository) {
	t.Helper()

	mockRepo := newMockUserRepo()

	svc := &authsvc.AuthService{
		Config:   authsvc.AuthConfig{PasswordCost: bcrypt.MinCost},
		UserRepo: mockRepo,
		Hasher:   password.Hasher{Cost: bcrypt.MinCost},
		Log:      logging.GetLogger("test.authsvc"),
	}

	return svc, mockRepo
}

func validForm(username string) authsvc.RegisterForm {
	return authsvc.RegisterForm{
		Username:   username,
		Password:   "password123",
		RePassword: "password123",
		Email:      username + "@example.com",
	}
}

func TestAuthService_RegisterUser(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		form    authsvc.RegisterForm
		setup   func(*authsvc.AuthService, *mockUserRepository)
		wantErr error
	}{
		{
			name: "successful registration",
			form: validForm("newuser"),
		},
		{
			name: "duplicate username",
			form: validForm("existinguser"),
			setup: func(svc *authsvc.AuthService, _ *mockUserRepository) {
				_, _ = svc.RegisterUser(context.Background(), validForm("existinguser"))
			},
			wantErr: domain.ErrUserAlreadyExists,
		},
		{
			name:    "invalid form",
			form:    authsvc.RegisterForm{Username: "x"},
			wantErr: authsvc.ErrPasswordRequired,
		},
		{
			name: "repository error",
			form: validForm("erroruser"),
			setup: func(_ *authsvc.AuthService, repo *mockUserRepository) {
				repo.err = ErrRepoError
			},
			wantErr: ErrRepoError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc, repo := setupTestService(t)
			if tt.setup != nil {
				tt.setup(svc, repo)
			}

			u, err := svc.RegisterUser(context.Background(), tt.form)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, u)

				return
			}

			require.NoError(t, err)
			assert.NotZero(t, u.ID)
			assert.Equal(t, tt.form.Email, u.Email)
			assert.NotEqual(t, tt.form.Password, u.PasswordHash)
			assert.True(t, password.Check(u.PasswordHash, tt.form.Password))
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	t.Parallel()

	svc, mockRepo := setupTestService(t)

	registered, err := svc.RegisterUser(context.Background(), validForm("testuser"))
	require.NoError(t, err)

	tests := []struct {
		name     string
		username string
		password string
		repoErr  error
		wantErr  error
	}{
		{
			name:     "successful login",
			username: "testuser",
			password: "password123",
		},
		{
			name:     "unknown user",
			username: "nobody",
			password: "password123",
			wantErr:  domain.ErrIncorrectUsername,
		},
		{
			name:     "wrong password",
			username: "testuser",
			password: "wrong",
			wantErr:  domain.ErrIncorrectPassword,
		},
		{
			name:     "repository error",
			username: "testuser",
			password: "password123",
			repoErr:  ErrRepoError,
			wantErr:  ErrRepoError,
		},
	}

	//nolint:paralleltest
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo.m.Lock()
			mockRepo.err = tt.repoErr
			mockRepo.m.Unlock()

			u, err := svc.Login(context.Background(), tt.username, tt.password)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, u)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, registered.ID, u.ID)
		})
	}
}

func TestAuthService_LoadUser(t *testing.T) {
	t.Parallel()

	svc, mockRepo := setupTestService(t)

	registered, err := svc.RegisterUser(context.Background(), validForm("testuser"))
	require.NoError(t, err)

	u, ok, err := svc.LoadUser(context.Background(), registered.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "testuser", u.Username)

	_, ok, err = svc.LoadUser(context.Background(), 42)
	require.NoError(t, err)
	assert.False(t, ok)

	mockRepo.m.Lock()
	mockRepo.err = ErrRepoError
	mockRepo.m.Unlock()

	_, _, err = svc.LoadUser(context.Background(), registered.ID)
	require.ErrorIs(t, err, ErrRepoError)
}
