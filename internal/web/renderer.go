// Package web renders the HTML pages of the blog.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/mkrupp/homecase-blog/internal/domain"
	context_ "github.com/mkrupp/homecase-blog/internal/infra/context"
	"github.com/mkrupp/homecase-blog/internal/infra/logging"
	"github.com/mkrupp/homecase-blog/internal/infra/session"
)

//go:embed templates static
var assets embed.FS

// PageData is the root object of every template.
type PageData struct {
	User    *domain.User // nil for anonymous visitors
	Flashes []string
	Data    any
}

// ErrorData is the Data of the error page.
type ErrorData struct {
	Status     int
	StatusText string
	Message    string
}

// Renderer executes page templates and finishes the response, saving the
// session before the first byte is written.
type Renderer struct {
	pages    map[string]*template.Template
	sessions session.Store
	log      logging.Logger
}

// NewRenderer parses every page under templates/ together with the base layout.
func NewRenderer(sessions session.Store) (*Renderer, error) {
	base, err := template.ParseFS(assets, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parse base template: %w", err)
	}

	pages := make(map[string]*template.Template)

	err = fs.WalkDir(assets, "templates", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || p == "templates/base.html" {
			return err
		}

		layout, err := base.Clone()
		if err != nil {
			return fmt.Errorf("clone base template: %w", err)
		}

		page, err := layout.ParseFS(assets, p)
		if err != nil {
			return fmt.Errorf("parse %s: %w", p, err)
		}

		name := strings.TrimSuffix(strings.TrimPrefix(p, "templates/"), path.Ext(p))
		pages[name] = page

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk templates: %w", err)
	}

	return &Renderer{
		pages:    pages,
		sessions: sessions,
		log:      logging.GetLogger("web.renderer"),
	}, nil
}

// Render writes page name with status. Queued flashes are consumed.
func (rd *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, name string, data any) error {
	ctx := r.Context()

	page, ok := rd.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}

	pd := PageData{Data: data}
	pd.User, _ = context_.UserFromContext(ctx)

	sess, hasSession := session.FromContext(ctx)
	if hasSession {
		pd.Flashes = sess.PopFlashes()
	}

	var buf bytes.Buffer
	if err := page.ExecuteTemplate(&buf, "base", pd); err != nil {
		return fmt.Errorf("execute %s: %w", name, err)
	}

	if hasSession {
		if err := rd.sessions.Save(ctx, w, sess); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)

	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("write: %w", err)
	}

	return nil
}

// Redirect saves the session and sends a 302 to url.
func (rd *Renderer) Redirect(w http.ResponseWriter, r *http.Request, url string) error {
	if sess, ok := session.FromContext(r.Context()); ok {
		if err := rd.sessions.Save(r.Context(), w, sess); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
	}

	http.Redirect(w, r, url, http.StatusFound)

	return nil
}

// Error renders the error page. If that fails a plain text error is sent.
func (rd *Renderer) Error(w http.ResponseWriter, r *http.Request, status int, msg string) {
	err := rd.Render(w, r, status, "error", ErrorData{
		Status:     status,
		StatusText: http.StatusText(status),
		Message:    msg,
	})
	if err != nil {
		rd.log.ErrorContext(r.Context(), "render error page failed", "error", err)
		http.Error(w, http.StatusText(status), status)
	}
}

// StaticHandler serves the embedded stylesheet and friends under /static/.
func StaticHandler() http.Handler {
	static, err := fs.Sub(assets, "static")
	if err != nil {
		panic(err)
	}

	return http.StripPrefix("/static/", http.FileServerFS(static))
}
