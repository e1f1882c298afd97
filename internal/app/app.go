// Package app wires the blog together: database, sessions, services and routes.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mkrupp/homecase-blog/internal/infra/config"
	"github.com/mkrupp/homecase-blog/internal/infra/database"
	"github.com/mkrupp/homecase-blog/internal/infra/logging"
	"github.com/mkrupp/homecase-blog/internal/infra/session"
	http_ "github.com/mkrupp/homecase-blog/internal/infra/transport/http"
	"github.com/mkrupp/homecase-blog/internal/repo/post"
	"github.com/mkrupp/homecase-blog/internal/repo/user"
	"github.com/mkrupp/homecase-blog/internal/svc/authsvc"
	"github.com/mkrupp/homecase-blog/internal/svc/blogsvc"
	"github.com/mkrupp/homecase-blog/internal/web"
)

// Config is the complete configuration of the blog.
type Config struct {
	config.EnvConfig

	Log     logging.LoggerConfig      `envPrefix:"LOG_"`
	DB      database.Config           `envPrefix:"DB_"`
	Session session.Config            `envPrefix:"SESSION_"`
	Auth    authsvc.AuthConfig        `envPrefix:"AUTH_"`
	HTTP    http_.HTTPTransportConfig `envPrefix:"HTTP_"`
}

// App owns every long-lived component of a running blog.
type App struct {
	db       *database.DB
	sessions session.Store
	users    *user.SQLUserRepository
	posts    *post.SQLPostRepository
	authSvc  *authsvc.AuthService
	blogSvc  *blogsvc.BlogService
	router   *chi.Mux
	log      logging.Logger
}

// New opens the database, brings its schema up to date and builds the router.
func New(ctx context.Context, cfg Config) (_ *App, err error) {
	a := &App{log: logging.GetLogger("app")}

	defer func() {
		if err != nil {
			err = errors.Join(err, a.Close())
		}
	}()

	if a.db, err = database.Open(ctx, cfg.DB); err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err = a.db.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	if a.sessions, err = session.NewStore(ctx, cfg.Session); err != nil {
		return nil, fmt.Errorf("new session store: %w", err)
	}

	a.users = user.NewSQLUserRepository(a.db)
	a.posts = post.NewSQLPostRepository(a.db)
	a.authSvc = authsvc.NewAuthService(a.users, cfg.Auth)
	a.blogSvc = blogsvc.NewBlogService(a.posts)

	render, err := web.NewRenderer(a.sessions)
	if err != nil {
		return nil, fmt.Errorf("new renderer: %w", err)
	}

	a.router = a.routes(render)

	return a, nil
}

func (a *App) routes(render *web.Renderer) *chi.Mux {
	r := chi.NewRouter()

	r.Use(http_.Middleware(a.log)...)
	r.Use(
		func(next http.Handler) http.Handler { return session.Middleware(next, a.sessions, a.log) },
		func(next http.Handler) http.Handler { return authsvc.LoadLoggedInUserMiddleware(next, a.authSvc, a.log) },
	)

	r.Handle("/static/*", web.StaticHandler())

	for _, t := range []http_.HTTPTransport{
		authsvc.NewHTTPTransport(a.authSvc, render),
		blogsvc.NewHTTPTransport(a.blogSvc, render, authsvc.LoginURL),
	} {
		t.Routes(r)
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		render.Error(w, req, http.StatusNotFound, "")
	})

	return r
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler { return a.router }

// Router returns the root router. Routes added to it run behind the full
// middleware chain, including session and current user loading.
func (a *App) Router() chi.Router { return a.router }

// DB returns the database connection pool.
func (a *App) DB() *database.DB { return a.db }

// Sessions returns the session store.
func (a *App) Sessions() session.Store { return a.sessions }

// Users returns the user repository.
func (a *App) Users() *user.SQLUserRepository { return a.users }

// Posts returns the post repository.
func (a *App) Posts() *post.SQLPostRepository { return a.posts }

// Close releases the session store and the database.
func (a *App) Close() error {
	var errs []error

	if a.sessions != nil {
		if err := a.sessions.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close session store: %w", err))
		}
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}

	return errors.Join(errs...)
}
