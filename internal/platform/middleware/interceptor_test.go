package middleware

import (
	"context"
	"testing"

	"github.com/fekuna/omnipos-inventory-service/internal/auth"
	"github.com/fekuna/omnipos-inventory-service/internal/platform/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

func TestContextInterceptorCopiesUserID(t *testing.T) {
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-user-id", "clerk-7"))
	info := &grpc.UnaryServerInfo{FullMethod: "/svc/Method"}

	var got string
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		got = auth.GetUserID(ctx)
		return nil, nil
	}
	chain := func(ctx context.Context) {
		LoggingInterceptor(logger.NewNop())(ctx, nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
			return ContextInterceptor()(ctx, req, info, handler)
		})
	}

	chain(ctx)
	if got != "clerk-7" {
		t.Errorf("expected clerk-7, got %q", got)
	}

	chain(context.Background())
	if got != "" {
		t.Errorf("expected no user without metadata, got %q", got)
	}
}
