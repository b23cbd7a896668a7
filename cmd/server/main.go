// cmd/server/main.go
package main

import (
	"log/slog"
	"os"
	"time"

	"single-instance/internal/config"
	"single-instance/internal/domain"

	"github.com/spf13/cobra"
)

func main() {
	// 1. Initialize logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := newRootCmd(logger).Execute(); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func newRootCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run a server that refuses to start while another instance holds its claim",
		Long: `Run in one terminal (the first instance claims the name and keeps running).
Run again in another terminal while the first is alive: the second instance
reports that it is not single and exits with status 1.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// 2. Load configuration
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			return runServer(cmd.Context(), cfg, cmd.OutOrStdout(), logger)
		},
	}

	f := cmd.Flags()
	f.String("claim-name", config.DefaultClaimName, "name to claim (a file path for flock and record-lock)")
	f.String("backend", string(domain.BackendAuto), "claim backend: auto, mutex, abstract-socket, flock, record-lock")
	f.Duration("hold-duration", 100*time.Second, "how long to hold the claim; 0 holds until interrupted")
	f.String("http-listen-addr", ":8080", "address for /metrics and /claim; empty disables HTTP")
	f.String("grpc-listen-addr", ":50052", "address for the gRPC health service; empty disables gRPC")
	f.String("heartbeat-schedule", "*/10 * * * * *", "six-field cron schedule for claim heartbeats; empty disables")
	f.String("service-name", "single-instance", "service name for tracing and gRPC health")
	f.Bool("tracing-enabled", false, "export spans to stderr")
	return cmd
}
