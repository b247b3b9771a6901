package middleware

import (
	"context"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/google/uuid"
)

type contextKey string

const (
	ctxUserID contextKey = "user_id"
	ctxRole   contextKey = "actor_role"
)

func UserIDFromContext(ctx context.Context) string {
	if id, ok := UserUUIDFromContext(ctx); ok {
		return id.String()
	}
	return ""
}

// UserUUIDFromContext returns the authenticated user id set by Auth.
func UserUUIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	if ctx == nil {
		return uuid.Nil, false
	}
	id, ok := ctx.Value(ctxUserID).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

func RoleFromContext(ctx context.Context) enums.UserRole {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(enums.UserRole); ok {
		return v
	}
	return ""
}

// WithIdentity injects the authenticated user into the context.
func WithIdentity(ctx context.Context, userID uuid.UUID, role enums.UserRole) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxUserID, userID)
	return context.WithValue(ctx, ctxRole, role)
}
