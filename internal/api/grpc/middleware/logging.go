package middleware

import (
	"context"
	"log/slog"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	"google.golang.org/grpc"

	"github.com/dtroode/userhub/internal/logger"
)

// Logging logs every finished gRPC call with its method, code and duration.
type Logging struct {
	logger logging.Logger
	opts   []logging.Option
}

// NewLogging creates a new Logging middleware.
func NewLogging(logger *logger.Logger) *Logging {
	return &Logging{
		logger: interceptorLogger(logger),
		opts:   []logging.Option{logging.WithLogOnEvents(logging.FinishCall)},
	}
}

// Unary returns the unary server interceptor.
func (l *Logging) Unary() grpc.UnaryServerInterceptor {
	return logging.UnaryServerInterceptor(l.logger, l.opts...)
}

// Stream returns the stream server interceptor, used by health Watch.
func (l *Logging) Stream() grpc.StreamServerInterceptor {
	return logging.StreamServerInterceptor(l.logger, l.opts...)
}

// interceptorLogger adapts the application logger. Levels share slog's numbering.
func interceptorLogger(l *logger.Logger) logging.Logger {
	return logging.LoggerFunc(func(ctx context.Context, lvl logging.Level, msg string, fields ...any) {
		l.Log(ctx, slog.Level(lvl), "gRPC: "+msg, fields...)
	})
}
