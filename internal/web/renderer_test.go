package web_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/homecase-blog/internal/domain"
	context_ "github.com/mkrupp/homecase-blog/internal/infra/context"
	"github.com/mkrupp/homecase-blog/internal/infra/session"
	"github.com/mkrupp/homecase-blog/internal/web"
)

func setupRenderer(t *testing.T) (*web.Renderer, session.Store) {
	t.Helper()

	store, err := session.NewCookieStore(session.Config{
		CookieName: "session",
		SecretKey:  "test",
		MaxAge:     time.Hour,
	})
	require.NoError(t, err)

	render, err := web.NewRenderer(store)
	require.NoError(t, err)

	return render, store
}

func TestRenderer_Render(t *testing.T) {
	t.Parallel()

	render, _ := setupRenderer(t)

	t.Run("anonymous", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/auth/login", nil)
		rec := httptest.NewRecorder()

		require.NoError(t, render.Render(rec, req, http.StatusOK, "auth/login", struct{ Username string }{"someone"}))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Body.String(), "<title>Log In - Blog</title>")
		assert.Contains(t, rec.Body.String(), `value="someone"`)
		assert.Contains(t, rec.Body.String(), `href="/auth/register"`)
	})

	t.Run("logged in user in nav", func(t *testing.T) {
		t.Parallel()

		user := &domain.User{ID: 1, Username: "test"}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(context_.WithUser(req.Context(), user))
		rec := httptest.NewRecorder()

		posts := struct{ Posts []domain.Post }{[]domain.Post{{
			ID: 7, AuthorID: 1, AuthorUsername: "test", Title: "hello <b>", Body: "text",
			CreatedAt: time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC),
		}}}

		require.NoError(t, render.Render(rec, req, http.StatusOK, "blog/index", posts))

		body := rec.Body.String()
		assert.Contains(t, body, "<span>test</span>")
		assert.Contains(t, body, `href="/auth/logout"`)
		assert.Contains(t, body, "hello &lt;b&gt;")
		assert.Contains(t, body, "by test on 2018-01-01")
		assert.Contains(t, body, `href="/7/update"`)
	})

	t.Run("unknown page", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		require.Error(t, render.Render(rec, req, http.StatusOK, "nope", nil))
	})
}

func TestRenderer_RenderConsumesFlashes(t *testing.T) {
	t.Parallel()

	render, store := setupRenderer(t)

	sess := session.New()
	sess.AddFlash("Incorrect username.")

	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req = req.WithContext(session.WithSession(req.Context(), sess))
	rec := httptest.NewRecorder()

	require.NoError(t, render.Render(rec, req, http.StatusOK, "auth/login", struct{ Username string }{}))

	assert.Contains(t, rec.Body.String(), `<div class="flash">Incorrect username.</div>`)
	assert.Empty(t, sess.PopFlashes())

	// The consumed flash must not come back with the next request.
	next := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		next.AddCookie(c)
	}

	loaded, err := store.Load(next.Context(), next)
	require.NoError(t, err)
	assert.Empty(t, loaded.PopFlashes())
}

func TestRenderer_Redirect(t *testing.T) {
	t.Parallel()

	render, store := setupRenderer(t)

	sess := session.New()
	sess.SetUserID(42)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req = req.WithContext(session.WithSession(req.Context(), sess))
	rec := httptest.NewRecorder()

	require.NoError(t, render.Redirect(rec, req, "/"))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		next.AddCookie(c)
	}

	loaded, err := store.Load(next.Context(), next)
	require.NoError(t, err)

	id, ok := loaded.UserID()
	require.True(t, ok)
	assert.Equal(t, int64(42), id)
}

func TestRenderer_Error(t *testing.T) {
	t.Parallel()

	render, _ := setupRenderer(t)

	req := httptest.NewRequest(http.MethodGet, "/99/update", nil)
	rec := httptest.NewRecorder()

	render.Error(rec, req, http.StatusNotFound, "Post id 99 doesn't exist.")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "<h1>Not Found</h1>")
	assert.Contains(t, rec.Body.String(), "Post id 99")
}

func TestStaticHandler(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	web.StaticHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/style.css", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/css")
}
