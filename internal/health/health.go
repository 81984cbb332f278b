// Package health exposes the standard gRPC health service so supervisors can
// tell whether an interactive session is up.
//
// The session is registered under ServiceName and as the server-wide ("")
// status. Both report NOT_SERVING until SetServing(true).
package health

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name of a chat session.
const ServiceName = "friday.Session"

type Server struct {
	addr   string
	logger *slog.Logger
	grpc   *grpc.Server
	health *grpchealth.Server
}

func New(addr string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	hs := grpchealth.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	gs := grpc.NewServer()
	healthpb.RegisterHealthServer(gs, hs)

	return &Server{addr: addr, logger: logger, grpc: gs, health: hs}
}

// SetServing flips the reported status.
func (s *Server) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

// ListenAndServe listens on the configured address and serves until ctx is
// cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("health listen: %w", err)
	}
	return s.Serve(ctx, lis)
}

// Serve serves on lis until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	s.logger.Info("health server listening", "addr", lis.Addr().String())

	stop := context.AfterFunc(ctx, func() {
		s.health.Shutdown()
		s.grpc.GracefulStop()
	})
	defer stop()

	if err := s.grpc.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("health server: %w", err)
	}
	return nil
}

// Probe asks the health service at addr for the status of service.
func Probe(ctx context.Context, addr, service string) (healthpb.HealthCheckResponse_ServingStatus, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, fmt.Errorf("health check %s: %w", addr, err)
	}
	return resp.GetStatus(), nil
}
