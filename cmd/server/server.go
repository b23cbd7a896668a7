// cmd/server/server.go
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	grpc_api "single-instance/internal/api/grpc"
	http_api "single-instance/internal/api/http"
	"single-instance/internal/config"
	"single-instance/internal/domain"
	"single-instance/internal/instance"
	"single-instance/internal/scheduler"
	"single-instance/internal/tracing"
	"single-instance/internal/usecase"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
)

var errAlreadyRunning = errors.New("another instance holds the claim")

func runServer(ctx context.Context, cfg *config.Config, out io.Writer, logger *slog.Logger) error {
	tracerShutdown, err := tracing.InitTracer(cfg.ServiceName, os.Stderr, cfg.TracingEnabled)
	if err != nil {
		return fmt.Errorf("failed to initialize tracer: %w", err)
	}
	defer func() {
		if err := tracerShutdown(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", "error", err)
		}
	}()

	instanceID := uuid.NewString()
	logger = logger.With("instance_id", instanceID, "pid", os.Getpid())

	// 1. Claim the name before opening any listener
	acquirer, err := instance.Lookup(domain.Backend(cfg.Backend))
	if err != nil {
		return err
	}
	guard := usecase.NewGuardService(acquirer, logger)
	claim, err := guard.Acquire(ctx, cfg.ClaimName)
	if err != nil {
		return fmt.Errorf("failed to determine singleness: %w", err)
	}
	fmt.Fprintf(out, "server is single: %t\n\n", claim.IsSingle())

	if !claim.IsSingle() {
		_ = guard.Release(ctx)
		return errAlreadyRunning
	}
	defer func() {
		if err := guard.Release(context.Background()); err != nil {
			logger.Error("failed to release claim", "error", err)
		}
	}()

	// 2. Lifecycle: hold until the hold duration passes or a signal arrives
	rootCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if cfg.HoldDuration > 0 {
		var holdCancel context.CancelFunc
		rootCtx, holdCancel = context.WithTimeout(rootCtx, cfg.HoldDuration)
		defer holdCancel()
		fmt.Fprintf(out, "Holding the claim for %s, press ^C to exit.\n", cfg.HoldDuration)
	} else {
		fmt.Fprintln(out, "Holding the claim until interrupted, press ^C to exit.")
	}
	fmt.Fprintln(out, "Run another instance of this program meanwhile to see it report is single: false.")
	stopSignals := setupGracefulShutdown(cancel, logger)
	defer stopSignals()

	health := grpc_api.NewHealthServer(guard, cfg.ServiceName, logger)

	var (
		wg         sync.WaitGroup
		httpServer *http.Server
		grpcServer *grpc.Server
	)
	defer func() {
		cancel()
		health.Shutdown()
		if httpServer != nil {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("HTTP server shutdown failed", "error", err)
			}
		}
		if grpcServer != nil {
			grpcServer.GracefulStop()
		}
		wg.Wait()
	}()

	// 3. HTTP: metrics and claim status
	if cfg.HttpListenAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		http_api.NewStatusHandler(guard, logger).RegisterRoutes(mux)

		lis, err := net.Listen("tcp", cfg.HttpListenAddr)
		if err != nil {
			return fmt.Errorf("failed to listen for HTTP: %w", err)
		}
		httpServer = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		logger.Info("starting HTTP server", "addr", lis.Addr().String())
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := httpServer.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP server failed", "error", err)
				cancel()
			}
		}()
	}

	// 4. gRPC health
	if cfg.GrpcListenAddr != "" {
		lis, err := net.Listen("tcp", cfg.GrpcListenAddr)
		if err != nil {
			return fmt.Errorf("failed to listen for gRPC: %w", err)
		}
		grpcServer = grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
		health.Register(grpcServer)
		logger.Info("starting gRPC server", "addr", lis.Addr().String())
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := grpcServer.Serve(lis); err != nil {
				logger.Error("gRPC server failed", "error", err)
				cancel()
			}
		}()
	}

	// 5. Heartbeat
	if cfg.HeartbeatSchedule != "" {
		hb, err := scheduler.NewHeartbeat(guard, cfg.HeartbeatSchedule, logger)
		if err != nil {
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = hb.Start(rootCtx)
		}()
	}

	// 6. Block until shutdown
	<-rootCtx.Done()
	logger.Info("shutting down", "reason", context.Cause(rootCtx))
	return nil
}

func setupGracefulShutdown(cancel context.CancelFunc, logger *slog.Logger) (stop func()) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, initiating graceful shutdown", "signal", sig.String())
			cancel()
		case <-done:
		}
	}()
	return func() {
		signal.Stop(sigChan)
		close(done)
	}
}
