package ctxutil

import (
	"context"

	"github.com/rs/xid"
)

type ctxKey string

const (
	userIDKey    ctxKey = "user_id"
	requestIDKey ctxKey = "request_id"
)

// WithUserID stores the acting user's id in the context.
func WithUserID(ctx context.Context, id xid.ID) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserIDFromCtx extracts the acting user's id from the context.
// Returns a nil id and false if the value is missing, nil, or of the wrong type.
func UserIDFromCtx(ctx context.Context) (xid.ID, bool) {
	id, ok := ctx.Value(userIDKey).(xid.ID)
	if !ok || id.IsNil() {
		return xid.NilID(), false
	}
	return id, true
}

// WithRequestID stores the request ID in the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromCtx extracts the request ID from the context.
// Returns an empty string if absent.
func RequestIDFromCtx(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
