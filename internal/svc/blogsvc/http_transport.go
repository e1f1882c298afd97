package blogsvc

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mkrupp/homecase-blog/internal/domain"
	context_ "github.com/mkrupp/homecase-blog/internal/infra/context"
	"github.com/mkrupp/homecase-blog/internal/infra/logging"
	"github.com/mkrupp/homecase-blog/internal/infra/session"
	http_ "github.com/mkrupp/homecase-blog/internal/infra/transport/http"
	"github.com/mkrupp/homecase-blog/internal/web"
)

const titleRequiredMessage = "Title is required."

// IndexData is the Data of the index page.
type IndexData struct {
	Posts []domain.Post
}

// HTTPTransport serves the post list and the post editing pages.
type HTTPTransport struct {
	blogSvc  *BlogService
	render   *web.Renderer
	loginURL string
	log      logging.Logger
}

var _ http_.HTTPTransport = (*HTTPTransport)(nil)

// NewHTTPTransport creates a new HTTPTransport. Anonymous visitors of the
// editing pages are sent to loginURL.
func NewHTTPTransport(blogSvc *BlogService, render *web.Renderer, loginURL string) *HTTPTransport {
	return &HTTPTransport{
		blogSvc:  blogSvc,
		render:   render,
		loginURL: loginURL,
		log:      logging.GetLogger("svc.blogsvc.http_transport"),
	}
}

// Routes implements http_.HTTPTransport:
// - GET /: all posts
// - GET, POST /create: new post (login required)
// - GET, POST /{id}/update: edit own post (login required)
// - POST /{id}/delete: delete own post (login required).
func (ht *HTTPTransport) Routes(r chi.Router) {
	r.Get("/", ht.HandleIndex)

	r.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http_.LoginRequiredMiddleware(next, ht.loginURL, ht.log)
		})

		r.Get("/create", ht.HandleCreateForm)
		r.Post("/create", ht.HandleCreate)
		r.Get("/{id}/update", ht.HandleUpdateForm)
		r.Post("/{id}/update", ht.HandleUpdate)
		r.Post("/{id}/delete", ht.HandleDelete)
	})
}

// serve runs fn and turns its error into the matching error page.
func (ht *HTTPTransport) serve(w http.ResponseWriter, r *http.Request, what string, fn func() error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))

	err := fn()

	var notFound postNotFoundError

	switch {
	case err == nil:
		log.DebugContext(r.Context(), what+" done")
	case errors.As(err, &notFound):
		ht.render.Error(w, r, http.StatusNotFound, fmt.Sprintf("Post id %d doesn't exist.", notFound.id))
	case errors.Is(err, domain.ErrForbidden):
		log.WarnContext(r.Context(), what+" forbidden")
		ht.render.Error(w, r, http.StatusForbidden, "")
	default:
		log.ErrorContext(r.Context(), what+" failed", "error", err)
		ht.render.Error(w, r, http.StatusInternalServerError, "")
	}
}

type postNotFoundError struct {
	id  int64
	err error
}

func (e postNotFoundError) Error() string { return fmt.Sprintf("post %d: %v", e.id, e.err) }

func (e postNotFoundError) Unwrap() error { return e.err }

// postID parses the {id} URL parameter. Malformed IDs are reported as missing posts.
func postID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, postNotFoundError{id: 0, err: domain.ErrPostNotFound}
	}

	return id, nil
}

func notFoundAware(id int64, err error) error {
	if errors.Is(err, domain.ErrPostNotFound) {
		return postNotFoundError{id: id, err: err}
	}

	return err
}

// HandleIndex lists all posts.
func (ht *HTTPTransport) HandleIndex(w http.ResponseWriter, r *http.Request) {
	ht.serve(w, r, "index", func() error {
		posts, err := ht.blogSvc.ListPosts(r.Context())
		if err != nil {
			return err
		}

		return ht.render.Render(w, r, http.StatusOK, "blog/index", IndexData{Posts: posts})
	})
}

// HandleCreateForm shows the empty post form.
func (ht *HTTPTransport) HandleCreateForm(w http.ResponseWriter, r *http.Request) {
	ht.serve(w, r, "create form", func() error {
		return ht.render.Render(w, r, http.StatusOK, "blog/create", PostForm{})
	})
}

// HandleCreate stores a new post and redirects to the index.
// Expects form parameters: title, body.
func (ht *HTTPTransport) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ht.serve(w, r, "create", func() error {
		author, _ := context_.UserFromContext(r.Context())

		form := PostForm{
			Title: r.PostFormValue("title"),
			Body:  r.PostFormValue("body"),
		}

		if _, err := ht.blogSvc.CreatePost(r.Context(), author, form); err != nil {
			if errors.Is(err, ErrTitleRequired) {
				return ht.flashAndRender(w, r, "blog/create", form)
			}

			return err
		}

		return ht.render.Redirect(w, r, "/")
	})
}

// HandleUpdateForm shows the form for one of the user's own posts.
func (ht *HTTPTransport) HandleUpdateForm(w http.ResponseWriter, r *http.Request) {
	ht.serve(w, r, "update form", func() error {
		id, err := postID(r)
		if err != nil {
			return err
		}

		author, _ := context_.UserFromContext(r.Context())

		p, err := ht.blogSvc.GetPost(r.Context(), id, author)
		if err != nil {
			return notFoundAware(id, err)
		}

		return ht.render.Render(w, r, http.StatusOK, "blog/update", PostForm{ID: p.ID, Title: p.Title, Body: p.Body})
	})
}

// HandleUpdate changes one of the user's own posts and redirects to the index.
// Expects form parameters: title, body.
func (ht *HTTPTransport) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ht.serve(w, r, "update", func() error {
		id, err := postID(r)
		if err != nil {
			return err
		}

		author, _ := context_.UserFromContext(r.Context())

		form := PostForm{
			ID:    id,
			Title: r.PostFormValue("title"),
			Body:  r.PostFormValue("body"),
		}

		if err := ht.blogSvc.UpdatePost(r.Context(), author, form); err != nil {
			if errors.Is(err, ErrTitleRequired) {
				return ht.flashAndRender(w, r, "blog/update", form)
			}

			return notFoundAware(id, err)
		}

		return ht.render.Redirect(w, r, "/")
	})
}

// HandleDelete removes one of the user's own posts and redirects to the index.
func (ht *HTTPTransport) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ht.serve(w, r, "delete", func() error {
		id, err := postID(r)
		if err != nil {
			return err
		}

		author, _ := context_.UserFromContext(r.Context())

		if err := ht.blogSvc.DeletePost(r.Context(), author, id); err != nil {
			return notFoundAware(id, err)
		}

		return ht.render.Redirect(w, r, "/")
	})
}

func (ht *HTTPTransport) flashAndRender(w http.ResponseWriter, r *http.Request, page string, form PostForm) error {
	if sess, ok := session.FromContext(r.Context()); ok {
		sess.AddFlash(titleRequiredMessage)
	}

	return ht.render.Render(w, r, http.StatusOK, page, form)
}
