package ctxutil

import (
	"context"
	"testing"

	"github.com/rs/xid"
)

func TestWithUserID_And_UserIDFromCtx(t *testing.T) {
	t.Parallel()

	id := xid.New()
	got, ok := UserIDFromCtx(WithUserID(context.Background(), id))
	if !ok {
		t.Fatal("expected ok=true for valid id")
	}
	if got != id {
		t.Fatalf("expected %s, got %s", id, got)
	}
}

func TestUserIDFromCtx_Missing(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ctx  context.Context
	}{
		{"empty context", context.Background()},
		{"nil id", WithUserID(context.Background(), xid.NilID())},
		{"wrong type", context.WithValue(context.Background(), ctxKey("user_id"), "not-an-id")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := UserIDFromCtx(tt.ctx)
			if ok {
				t.Fatal("expected ok=false")
			}
			if !got.IsNil() {
				t.Fatalf("expected nil id, got %s", got)
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	if got := RequestIDFromCtx(WithRequestID(context.Background(), "req-123")); got != "req-123" {
		t.Fatalf("expected req-123, got %s", got)
	}
	if got := RequestIDFromCtx(context.Background()); got != "" {
		t.Fatalf("expected empty string, got %s", got)
	}
	ctx := context.WithValue(context.Background(), ctxKey("request_id"), 12345)
	if got := RequestIDFromCtx(ctx); got != "" {
		t.Fatalf("expected empty string for wrong type, got %s", got)
	}
}
