package httpserver

import (
	"context"

	"github.com/and161185/chunkhub/internal/model"
)

type ctxKey string

const (
	userKey      ctxKey = "ch.user"
	requestIDKey ctxKey = "ch.requestID"
)

// WithUser stores the authenticated user in context.
func WithUser(ctx context.Context, u *model.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromCtx fetches the authenticated user from context.
func UserFromCtx(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(userKey).(*model.User)
	return u, ok && u != nil
}

// callerID is the authenticated user id, or 0 for anonymous requests.
func callerID(ctx context.Context) int64 {
	if u, ok := UserFromCtx(ctx); ok {
		return u.ID
	}
	return 0
}

// RequestIDFromCtx returns the id assigned by the RequestID middleware.
func RequestIDFromCtx(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
