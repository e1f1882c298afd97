package context

import (
	"context"

	"github.com/mkrupp/homecase-blog/internal/domain"
)

const contextKeyUser = contextKey("user")

// UserFromContext returns the logged in user of the current request.
// Returns nil and false for anonymous requests.
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(contextKeyUser).(*domain.User)

	return user, ok && user != nil
}

// WithUser stores the logged in user for the rest of the request.
func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, contextKeyUser, user)
}
