package api

import (
	"context"

	"github.com/rpupo63/blog-backend/models"
)

type keyType string

const (
	identityKey keyType = "identity"
)

// ctxWithIdentity adds the resolved user (nil for anonymous) to the context
func ctxWithIdentity(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, identityKey, user)
}

// ctxGetIdentity retrieves the resolved user from the context, nil when anonymous
func ctxGetIdentity(ctx context.Context) *models.User {
	user, _ := ctx.Value(identityKey).(*models.User)
	return user
}
