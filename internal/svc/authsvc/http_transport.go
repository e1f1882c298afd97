package authsvc

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mkrupp/homecase-blog/internal/infra/logging"
	"github.com/mkrupp/homecase-blog/internal/infra/session"
	http_ "github.com/mkrupp/homecase-blog/internal/infra/transport/http"
	"github.com/mkrupp/homecase-blog/internal/web"
)

// ErrNoSession is returned when a handler runs without session.Middleware.
var ErrNoSession = errors.New("no session in context")

// Routes and redirect targets of the auth pages.
const (
	RegisterURL = "/auth/register"
	LoginURL    = "/auth/login"
	LogoutURL   = "/auth/logout"
	IndexURL    = "/"
)

// LoginForm is the submitted login form.
type LoginForm struct {
	Username string
	Password string
}

// HTTPTransport serves the register, login and logout pages.
type HTTPTransport struct {
	authSvc *AuthService
	render  *web.Renderer
	log     logging.Logger
}

var _ http_.HTTPTransport = (*HTTPTransport)(nil)

// NewHTTPTransport creates a new HTTPTransport rendering through render.
func NewHTTPTransport(authSvc *AuthService, render *web.Renderer) *HTTPTransport {
	return &HTTPTransport{
		authSvc: authSvc,
		render:  render,
		log:     logging.GetLogger("svc.authsvc.http_transport"),
	}
}

// Routes implements http_.HTTPTransport:
// - GET, POST /auth/register: registration form
// - GET, POST /auth/login: login form
// - GET, POST /auth/logout: forget the logged in user.
func (ht *HTTPTransport) Routes(r chi.Router) {
	r.Get(RegisterURL, ht.HandleRegisterForm)
	r.Post(RegisterURL, ht.HandleRegister)
	r.Get(LoginURL, ht.HandleLoginForm)
	r.Post(LoginURL, ht.HandleLogin)
	r.Get(LogoutURL, ht.HandleLogout)
	r.Post(LogoutURL, ht.HandleLogout)
}

func (ht *HTTPTransport) serve(w http.ResponseWriter, r *http.Request, what string, fn func() error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))

	err := fn()
	if err != nil {
		log.ErrorContext(r.Context(), what+" failed", "error", err)
		ht.render.Error(w, r, http.StatusInternalServerError, "")

		return
	}

	log.DebugContext(r.Context(), what+" done")
}

func sessionFrom(ctx context.Context) (*session.Session, error) {
	sess, ok := session.FromContext(ctx)
	if !ok {
		return nil, ErrNoSession
	}

	return sess, nil
}

// HandleRegisterForm shows the empty registration form.
func (ht *HTTPTransport) HandleRegisterForm(w http.ResponseWriter, r *http.Request) {
	ht.serve(w, r, "register form", func() error {
		return ht.render.Render(w, r, http.StatusOK, "auth/register", RegisterForm{})
	})
}

// HandleRegister creates the account and redirects to the login page.
// Expects form parameters: username, password, repassword, email.
// Invalid input re-renders the form with a flashed message.
func (ht *HTTPTransport) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ht.serve(w, r, "register", func() error {
		return ht.handleRegister(w, r)
	})
}

func (ht *HTTPTransport) handleRegister(w http.ResponseWriter, r *http.Request) error {
	sess, err := sessionFrom(r.Context())
	if err != nil {
		return err
	}

	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("parse form: %w", err)
	}

	form := RegisterForm{
		Username:   r.PostFormValue("username"),
		Password:   r.PostFormValue("password"),
		RePassword: r.PostFormValue("repassword"),
		Email:      r.PostFormValue("email"),
	}

	if _, err := ht.authSvc.RegisterUser(r.Context(), form); err != nil {
		msg, ok := Message(err, form.Username)
		if !ok {
			return fmt.Errorf("register user: %w", err)
		}

		sess.AddFlash(msg)

		form.Password, form.RePassword = "", ""

		return ht.render.Render(w, r, http.StatusOK, "auth/register", form)
	}

	return ht.render.Redirect(w, r, LoginURL)
}

// HandleLoginForm shows the empty login form.
func (ht *HTTPTransport) HandleLoginForm(w http.ResponseWriter, r *http.Request) {
	ht.serve(w, r, "login form", func() error {
		return ht.render.Render(w, r, http.StatusOK, "auth/login", LoginForm{})
	})
}

// HandleLogin stores the user in a fresh session and redirects to the index.
// Expects form parameters: username, password.
func (ht *HTTPTransport) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ht.serve(w, r, "login", func() error {
		return ht.handleLogin(w, r)
	})
}

func (ht *HTTPTransport) handleLogin(w http.ResponseWriter, r *http.Request) error {
	sess, err := sessionFrom(r.Context())
	if err != nil {
		return err
	}

	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("parse form: %w", err)
	}

	form := LoginForm{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}

	u, err := ht.authSvc.Login(r.Context(), form.Username, form.Password)
	if err != nil {
		msg, ok := Message(err, form.Username)
		if !ok {
			return fmt.Errorf("login user: %w", err)
		}

		sess.AddFlash(msg)

		form.Password = ""

		return ht.render.Render(w, r, http.StatusOK, "auth/login", form)
	}

	sess.Clear()
	sess.SetUserID(u.ID)

	return ht.render.Redirect(w, r, IndexURL)
}

// HandleLogout clears the session and redirects to the index.
func (ht *HTTPTransport) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ht.serve(w, r, "logout", func() error {
		sess, err := sessionFrom(r.Context())
		if err != nil {
			return err
		}

		sess.Clear()

		return ht.render.Redirect(w, r, IndexURL)
	})
}
