// Package server provides gRPC server lifecycle management.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/solatis/surveyflow/internal/core/config"
)

// GRPCServer manages gRPC server lifecycle.
type GRPCServer struct {
	server   *grpc.Server
	health   *health.Server
	listener net.Listener
	config   *config.ServerConfig
	logger   *slog.Logger
}

// NewGRPCServer creates gRPC server with logging and timeout interceptors,
// the logic service and the standard health service.
func NewGRPCServer(cfg *config.ServerConfig, service LogicServer, logger *slog.Logger) (*GRPCServer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("cfg cannot be nil")
	}
	if service == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(
			loggingInterceptor(logger),
			timeoutInterceptor(cfg.RequestTimeout),
		),
	}

	server := grpc.NewServer(opts...)
	RegisterLogicServer(server, service)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(server, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(LogicServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	return &GRPCServer{
		server: server,
		health: healthServer,
		config: cfg,
		logger: logger,
	}, nil
}

// Start binds listener and serves gRPC requests.
// Blocks until Shutdown is called.
func (s *GRPCServer) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.GRPCPort))
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", addr, err)
	}
	return s.Serve(listener)
}

// Serve accepts connections on an existing listener.
func (s *GRPCServer) Serve(listener net.Listener) error {
	s.listener = listener
	s.logger.Info("grpc server listening", "component", "grpc", "addr", listener.Addr().String())
	return s.server.Serve(listener)
}

// Shutdown marks the server NOT_SERVING and stops it gracefully. In-flight
// calls get until ctx is done or the configured shutdown timeout, whichever
// comes first; then the server is stopped hard.
func (s *GRPCServer) Shutdown(ctx context.Context) error {
	s.health.Shutdown()

	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	stopped := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		s.server.Stop()
		return fmt.Errorf("graceful shutdown interrupted, forced stop: %w", ctx.Err())
	}
}
