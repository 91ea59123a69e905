package health

import (
	"context"
	"time"

	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/dtroode/userhub/internal/logger"
	"github.com/dtroode/userhub/internal/model"
)

// ServiceName is the name health clients query besides the empty overall name.
const ServiceName = "userhub"

// HealthChecker runs readiness probes.
type HealthChecker interface {
	Ready(ctx context.Context) model.HealthReport
}

// Watcher periodically mirrors readiness probes into a gRPC health server.
type Watcher struct {
	checker HealthChecker
	server  *grpchealth.Server
	period  time.Duration
	logger  *logger.Logger
}

func NewWatcher(checker HealthChecker, server *grpchealth.Server, period time.Duration, logger *logger.Logger) *Watcher {
	return &Watcher{
		checker: checker,
		server:  server,
		period:  period,
		logger:  logger,
	}
}

// Run checks immediately and then every period until ctx is done.
// On return every service reports NOT_SERVING.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.period)
	defer ticker.Stop()
	defer w.server.Shutdown()

	w.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Check(ctx)
		}
	}
}

// Check runs the probes once and publishes the result.
func (w *Watcher) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	report := w.checker.Ready(ctx)

	status := healthpb.HealthCheckResponse_SERVING
	if !report.Healthy {
		status = healthpb.HealthCheckResponse_NOT_SERVING
		w.logger.Warn("Health watcher: not serving", "checks", report.Checks)
	}

	w.server.SetServingStatus("", status)
	w.server.SetServingStatus(ServiceName, status)

	return status
}
