package auth

import (
	"context"

	"github.com/clipstream/backend/internal/models"
)

type ctxKey string

const identityKey ctxKey = "identity"

// WithIdentity stores the authenticated user on the context.
func WithIdentity(ctx context.Context, user models.PublicUser) context.Context {
	return context.WithValue(ctx, identityKey, user)
}

// IdentityFromContext returns the authenticated user and whether one is
// present. Handlers behind the required gate may assume presence; handlers
// behind the optional gate must check.
func IdentityFromContext(ctx context.Context) (models.PublicUser, bool) {
	if ctx == nil {
		return models.PublicUser{}, false
	}
	user, ok := ctx.Value(identityKey).(models.PublicUser)
	return user, ok
}
