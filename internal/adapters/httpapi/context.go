package httpapi

import (
	"context"

	"github.com/tripsync/tripsync-api/internal/domain"
)

type userKey struct{}

func WithUser(ctx context.Context, u domain.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

func UserFromContext(ctx context.Context) (domain.User, bool) {
	u, ok := ctx.Value(userKey{}).(domain.User)
	return u, ok && u.ID != ""
}
