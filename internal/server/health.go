package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthgrpc "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthServiceName is the service reported by the gRPC health endpoint.
const HealthServiceName = "signbridge.Predict"

// HealthServer exposes the standard grpc.health.v1 service.
type HealthServer struct {
	grpc   *grpc.Server
	health *health.Server
	log    *slog.Logger
}

// NewHealthServer creates a HealthServer reporting NOT_SERVING until Serve
// is called.
func NewHealthServer(logger *slog.Logger) *HealthServer {
	if logger == nil {
		logger = slog.Default()
	}
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthgrpc.RegisterHealthServer(grpcServer, healthServer)

	healthServer.SetServingStatus("", healthgrpc.HealthCheckResponse_NOT_SERVING)
	healthServer.SetServingStatus(HealthServiceName, healthgrpc.HealthCheckResponse_NOT_SERVING)

	return &HealthServer{
		grpc:   grpcServer,
		health: healthServer,
		log:    logger.With("component", "server.HealthServer"),
	}
}

// Serve marks the service SERVING and serves on lis until ctx is cancelled.
func (h *HealthServer) Serve(ctx context.Context, lis net.Listener) error {
	h.setStatus(healthgrpc.HealthCheckResponse_SERVING)

	go func() {
		<-ctx.Done()
		h.log.Info("shutdown requested, stopping gRPC server")
		h.setStatus(healthgrpc.HealthCheckResponse_NOT_SERVING)

		stopped := make(chan struct{})
		go func() {
			h.grpc.GracefulStop()
			close(stopped)
		}()

		select {
		case <-stopped:
		case <-time.After(ShutdownTimeout):
			h.log.Warn("graceful stop timed out, forcing stop")
			h.grpc.Stop()
		}
	}()

	h.log.Info("grpc health listening", "addr", lis.Addr().String())
	if err := h.grpc.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

func (h *HealthServer) setStatus(status healthgrpc.HealthCheckResponse_ServingStatus) {
	h.health.SetServingStatus("", status)
	h.health.SetServingStatus(HealthServiceName, status)
}
