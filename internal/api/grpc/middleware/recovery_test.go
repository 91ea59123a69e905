package middleware

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dtroode/userhub/internal/testutil"
)

func TestRecovery_Unary(t *testing.T) {
	lg, buf := testutil.MakeCapturingLogger()
	interceptor := NewRecovery(lg).Unary()

	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}
	_, err := interceptor(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
		panic("probe exploded")
	})

	assert.Equal(t, codes.Internal, status.Code(err))
	assert.Contains(t, buf.String(), "gRPC: handler panicked")
	assert.Contains(t, buf.String(), "probe exploded")
}

func TestRecovery_Unary_NoPanic(t *testing.T) {
	interceptor := NewRecovery(testutil.MakeNoopLogger()).Unary()

	resp, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{}, func(ctx context.Context, req any) (any, error) {
		return "ok", nil
	})

	assert.NoError(t, err)
	assert.Equal(t, "ok", resp)
}
