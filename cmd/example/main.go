// cmd/example/main.go
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"single-instance/internal/config"
	"single-instance/internal/domain"
	"single-instance/internal/instance"

	"github.com/spf13/cobra"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if err := newRootCmd().Execute(); err != nil {
		logger.Error("example failed", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "example",
		Short:         "Claim the same name three times and print whether each claim is single",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			acq, err := instance.Lookup(domain.Backend(cfg.Backend))
			if err != nil {
				return err
			}
			return run(cmd.OutOrStdout(), acq, cfg.ClaimName)
		},
	}
	cmd.Flags().String("claim-name", config.DefaultClaimName, "name to claim (a file path for flock and record-lock)")
	cmd.Flags().String("backend", string(domain.BackendAuto), "claim backend: auto, mutex, abstract-socket, flock, record-lock")
	return cmd
}

// run holds claims a and b at the same time, releases both, then takes c.
func run(w io.Writer, acq domain.Acquirer, name string) error {
	a, err := acq.Acquire(name)
	if err != nil {
		return fmt.Errorf("instance a: %w", err)
	}
	fmt.Fprintf(w, "instance a is single: %t\n", a.IsSingle())

	b, err := acq.Acquire(name)
	if err != nil {
		_ = a.Close()
		return fmt.Errorf("instance b: %w", err)
	}
	fmt.Fprintf(w, "instance b is single: %t\n", b.IsSingle())

	if err := b.Close(); err != nil {
		_ = a.Close()
		return fmt.Errorf("release instance b: %w", err)
	}
	if err := a.Close(); err != nil {
		return fmt.Errorf("release instance a: %w", err)
	}

	c, err := acq.Acquire(name)
	if err != nil {
		return fmt.Errorf("instance c: %w", err)
	}
	defer c.Close()
	fmt.Fprintf(w, "instance c is single: %t\n", c.IsSingle())
	return nil
}
