package session

import (
	"context"
	"net/http"

	"github.com/mkrupp/homecase-blog/internal/infra/logging"
)

type contextKey struct{}

// FromContext returns the session loaded by Middleware.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(contextKey{}).(*Session)

	return s, ok
}

// WithSession attaches s to ctx.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// Middleware loads the session of every request into its context.
// Handlers save it through the store before writing their response.
func Middleware(next http.Handler, store Store, log logging.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := store.Load(r.Context(), r)
		if err != nil {
			log.ErrorContext(r.Context(), "load session failed", "error", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)

			return
		}

		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
	})
}
