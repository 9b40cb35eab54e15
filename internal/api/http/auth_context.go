package httpapi

import (
	"context"

	"github.com/google/uuid"

	domainUser "github.com/mdm-gateway/mdm-gateway/internal/domain/user"
)

// AuthUser is the authenticated principal behind a management request.
type AuthUser struct {
	UserID   uuid.UUID
	Username string
	Role     domainUser.Role
	Tenant   string
}

type authUserKeyType struct{}

var authUserKey authUserKeyType

func withAuthUser(ctx context.Context, u *AuthUser) context.Context {
	return context.WithValue(ctx, authUserKey, u)
}

func authUserFromContext(ctx context.Context) *AuthUser {
	u, _ := ctx.Value(authUserKey).(*AuthUser)
	return u
}
