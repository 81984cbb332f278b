package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/example/go-friday-voice/internal/health"
)

func newHealthCmd() *cobra.Command {
	var (
		addr    string
		service string
	)

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Probe the gRPC health endpoint of a running chat session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.GRPCAddr
			}
			if addr == "" {
				return errors.New("no address: pass --addr or set server.grpc_addr")
			}

			status, err := health.Probe(cmd.Context(), addr, service)
			if err != nil {
				return err
			}
			if status != healthpb.HealthCheckResponse_SERVING {
				return fmt.Errorf("%s: %s", addr, status)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return err
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "gRPC address to probe (defaults to --grpc-addr)")
	cmd.Flags().StringVar(&service, "service", health.ServiceName, "Health service name")

	return cmd
}
