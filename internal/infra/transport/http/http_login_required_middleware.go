package http

import (
	"net/http"

	context_ "github.com/mkrupp/homecase-blog/internal/infra/context"
	"github.com/mkrupp/homecase-blog/internal/infra/logging"
)

// LoginRequiredMiddleware lets only requests with a logged in user through.
// Anonymous requests are redirected to loginURL.
func LoginRequiredMiddleware(next http.Handler, loginURL string, log logging.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := context_.UserFromContext(r.Context()); !ok {
			log.DebugContext(r.Context(), "login required", "uri", r.RequestURI)
			http.Redirect(w, r, loginURL, http.StatusFound)

			return
		}

		next.ServeHTTP(w, r)
	})
}
