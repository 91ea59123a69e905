package router

import (
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/dtroode/userhub/internal/api/grpc/middleware"
	"github.com/dtroode/userhub/internal/logger"
)

// Router represents a gRPC router for userhub operational services.
// Only the standard health service is exposed, fed by a health watcher.
type Router struct {
	healthServer *grpchealth.Server
	logger       *logger.Logger
}

// New creates new gRPC Router instance.
func New(healthServer *grpchealth.Server, logger *logger.Logger) *Router {
	return &Router{
		healthServer: healthServer,
		logger:       logger,
	}
}

// Register builds the gRPC server with logging and recovery interceptors.
// Recovery runs innermost so a recovered panic is still logged.
func (r *Router) Register() *grpc.Server {
	logging := middleware.NewLogging(r.logger)
	recovery := middleware.NewRecovery(r.logger)

	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			logging.Unary(),
			recovery.Unary(),
		),
		grpc.ChainStreamInterceptor(
			logging.Stream(),
			recovery.Stream(),
		),
	)

	healthpb.RegisterHealthServer(s, r.healthServer)
	reflection.Register(s)

	return s
}
