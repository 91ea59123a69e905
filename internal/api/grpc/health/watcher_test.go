package health

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/dtroode/userhub/internal/mocks"
	"github.com/dtroode/userhub/internal/model"
	"github.com/dtroode/userhub/internal/testutil"
)

func servingStatus(t *testing.T, server *grpchealth.Server, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := server.Check(context.Background(), &healthpb.HealthCheckRequest{Service: service})
	require.NoError(t, err)
	return resp.GetStatus()
}

func TestWatcher_Check(t *testing.T) {
	tests := []struct {
		name   string
		report model.HealthReport
		want   healthpb.HealthCheckResponse_ServingStatus
	}{
		{
			name:   "all probes pass",
			report: model.HealthReport{Healthy: true, Checks: map[string]string{"database": "ok"}},
			want:   healthpb.HealthCheckResponse_SERVING,
		},
		{
			name:   "storage down",
			report: model.HealthReport{Healthy: false, Checks: map[string]string{"storage": "bucket missing"}},
			want:   healthpb.HealthCheckResponse_NOT_SERVING,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := mocks.NewHealthChecker(t)
			checker.On("Ready", mock.Anything).Return(tt.report).Once()
			server := grpchealth.NewServer()

			w := NewWatcher(checker, server, time.Minute, testutil.MakeNoopLogger())

			assert.Equal(t, tt.want, w.Check(context.Background()))
			assert.Equal(t, tt.want, servingStatus(t, server, ""))
			assert.Equal(t, tt.want, servingStatus(t, server, ServiceName))
		})
	}
}

func TestWatcher_Run(t *testing.T) {
	checker := mocks.NewHealthChecker(t)
	var calls atomic.Int32
	checker.On("Ready", mock.Anything).Return(model.HealthReport{Healthy: true}).
		Run(func(mock.Arguments) { calls.Add(1) })
	server := grpchealth.NewServer()

	w := NewWatcher(checker, server, 5*time.Millisecond, testutil.MakeNoopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return calls.Load() >= 2
	}, time.Second, 5*time.Millisecond, "probes rerun every period")
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, servingStatus(t, server, ServiceName))

	cancel()
	<-done

	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, servingStatus(t, server, ServiceName))
}
