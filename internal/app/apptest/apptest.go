// Package apptest runs a complete blog against a throwaway database for
// end-to-end HTTP tests.
package apptest

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mkrupp/homecase-blog/internal/app"
	"github.com/mkrupp/homecase-blog/internal/domain"
	context_ "github.com/mkrupp/homecase-blog/internal/infra/context"
	"github.com/mkrupp/homecase-blog/internal/infra/database"
	"github.com/mkrupp/homecase-blog/internal/infra/session"
	"github.com/mkrupp/homecase-blog/internal/svc/authsvc"
	"github.com/mkrupp/homecase-blog/internal/util/password"
)

// Seeded accounts and content. Passwords equal the usernames.
const (
	TestUsername  = "test"
	OtherUsername = "other"
	SeedPostTitle = "test title"
	SeedPostBody  = "test\nbody"

	// RequestUserPath reports the user loaded for the request, see RequestUser.
	RequestUserPath = "/apptest/request-user"
)

// Fixture is a running blog plus a client talking to it.
type Fixture struct {
	Config app.Config
	App    *app.App
	Server *httptest.Server
	// Client keeps cookies and does not follow redirects.
	Client *http.Client
	Auth   *Auth
	// Redis is set by WithRedisSessions.
	Redis *miniredis.Miniredis

	t testing.TB

	mu          sync.Mutex
	requestUser *domain.User
}

// Option adjusts the fixture before the app is built.
type Option func(f *Fixture)

// WithRedisSessions keeps sessions in an in-memory redis server.
func WithRedisSessions() Option {
	return func(f *Fixture) {
		f.Redis = miniredis.RunT(f.t)
		f.Config.Session.Backend = session.BackendRedis
		f.Config.Session.Redis.Addr = f.Redis.Addr()
	}
}

// New starts a blog with the seed data loaded. Everything is torn down
// when the test ends.
func New(t testing.TB, opts ...Option) *Fixture {
	t.Helper()

	ctx := context.Background()

	f := &Fixture{
		Config: app.Config{
			DB: database.Config{
				Driver: database.DriverSQLite,
				DSN:    filepath.Join(t.TempDir(), "blog.db"),
			},
			Session: session.Config{
				Backend:    session.BackendCookie,
				CookieName: "session",
				SecretKey:  "test",
				MaxAge:     time.Hour,
				Redis:      session.RedisConfig{KeyPrefix: "session:"},
			},
			Auth: authsvc.AuthConfig{PasswordCost: bcrypt.MinCost},
		},
		t: t,
	}

	for _, opt := range opts {
		opt(f)
	}

	a, err := app.New(ctx, f.Config)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	f.App = a
	f.seed(ctx)

	a.Router().Get(RequestUserPath, f.recordRequestUser)

	f.Server = httptest.NewServer(a.Handler())
	t.Cleanup(f.Server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	f.Client = &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	f.Auth = &Auth{f: f}

	return f
}

func (f *Fixture) seed(ctx context.Context) {
	hasher := password.Hasher{Cost: bcrypt.MinCost}

	var author *domain.User

	for _, name := range []string{TestUsername, OtherUsername} {
		hash, err := hasher.Hash(name)
		require.NoError(f.t, err)

		u := &domain.User{Username: name, Email: name + "@example.com", PasswordHash: hash}
		require.NoError(f.t, f.App.Users().CreateUser(ctx, u))

		if author == nil {
			author = u
		}
	}

	require.NoError(f.t, f.App.Posts().CreatePost(ctx, &domain.Post{
		AuthorID:  author.ID,
		Title:     SeedPostTitle,
		Body:      SeedPostBody,
		CreatedAt: time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC),
	}))
}

// Response is a fully read response.
type Response struct {
	*http.Response

	Text string
}

// Location returns the redirect target.
func (r *Response) Location() string {
	return r.Header.Get("Location")
}

func (f *Fixture) do(req *http.Request) *Response {
	f.t.Helper()

	resp, err := f.Client.Do(req)
	require.NoError(f.t, err)

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(f.t, err)

	return &Response{Response: resp, Text: string(body)}
}

// Get requests path.
func (f *Fixture) Get(path string) *Response {
	f.t.Helper()

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, f.Server.URL+path, nil)
	require.NoError(f.t, err)

	return f.do(req)
}

// PostForm submits form to path.
func (f *Fixture) PostForm(path string, form url.Values) *Response {
	f.t.Helper()

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, f.Server.URL+path,
		strings.NewReader(form.Encode()))
	require.NoError(f.t, err)

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return f.do(req)
}

// Session loads the session the client currently holds.
func (f *Fixture) Session() *session.Session {
	f.t.Helper()

	u, err := url.Parse(f.Server.URL)
	require.NoError(f.t, err)

	req := httptest.NewRequest(http.MethodGet, f.Server.URL+"/", nil)
	for _, c := range f.Client.Jar.Cookies(u) {
		req.AddCookie(c)
	}

	sess, err := f.App.Sessions().Load(req.Context(), req)
	require.NoError(f.t, err)

	return sess
}

func (f *Fixture) recordRequestUser(w http.ResponseWriter, r *http.Request) {
	u, _ := context_.UserFromContext(r.Context())

	f.mu.Lock()
	f.requestUser = u
	f.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

// RequestUser sends a request with the client's cookies and returns the user
// the app's middleware attached to that request's context.
func (f *Fixture) RequestUser() (*domain.User, bool) {
	f.t.Helper()

	resp := f.Get(RequestUserPath)
	require.Equal(f.t, http.StatusNoContent, resp.StatusCode)

	f.mu.Lock()
	defer f.mu.Unlock()

	return f.requestUser, f.requestUser != nil
}

// CurrentUser looks the session's user ID up in the repository directly,
// without going through a request. See RequestUser for the request-scoped user.
func (f *Fixture) CurrentUser() (*domain.User, bool) {
	f.t.Helper()

	id, ok := f.Session().UserID()
	if !ok {
		return nil, false
	}

	u, found, err := f.App.Users().GetUserByID(context.Background(), id)
	require.NoError(f.t, err)

	return u, found
}

// Auth logs the fixture client in and out.
type Auth struct {
	f *Fixture
}

// Login logs in as the seeded test user.
func (a *Auth) Login() *Response {
	return a.LoginAs(TestUsername, TestUsername)
}

// LoginAs submits the login form.
func (a *Auth) LoginAs(username, pass string) *Response {
	a.f.t.Helper()

	return a.f.PostForm(authsvc.LoginURL, url.Values{
		"username": {username},
		"password": {pass},
	})
}

// Logout requests the logout page.
func (a *Auth) Logout() *Response {
	a.f.t.Helper()

	return a.f.Get(authsvc.LogoutURL)
}
