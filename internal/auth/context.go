package auth

import (
	"context"

	"github.com/quizforge/quizforge/internal/identity"
)

type ctxKey struct{}

var ctxKeyUser = ctxKey{}

func WithUser(ctx context.Context, u identity.User) context.Context {
	return context.WithValue(ctx, ctxKeyUser, u)
}

// UserFromContext returns the authenticated user attached by the middleware.
func UserFromContext(ctx context.Context) (identity.User, bool) {
	u, ok := ctx.Value(ctxKeyUser).(identity.User)
	return u, ok
}
