package authsvc

import (
	"net/http"

	context_ "github.com/mkrupp/homecase-blog/internal/infra/context"
	"github.com/mkrupp/homecase-blog/internal/infra/logging"
	"github.com/mkrupp/homecase-blog/internal/infra/session"
)

// LoadLoggedInUserMiddleware resolves the session's user ID and stores the
// user in the request context. Sessions pointing at a deleted user are
// treated as anonymous.
func LoadLoggedInUserMiddleware(next http.Handler, authSvc *AuthService, log logging.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := session.FromContext(r.Context())
		if !ok {
			next.ServeHTTP(w, r)

			return
		}

		userID, ok := sess.UserID()
		if !ok {
			next.ServeHTTP(w, r)

			return
		}

		u, found, err := authSvc.LoadUser(r.Context(), userID)
		if err != nil {
			log.ErrorContext(r.Context(), "load logged in user failed", "error", err, "user_id", userID)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)

			return
		}

		if !found {
			log.WarnContext(r.Context(), "session user vanished", "user_id", userID)
			next.ServeHTTP(w, r)

			return
		}

		next.ServeHTTP(w, r.WithContext(context_.WithUser(r.Context(), u)))
	})
}
