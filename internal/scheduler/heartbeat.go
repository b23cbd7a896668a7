// internal/scheduler/heartbeat.go
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"single-instance/internal/config"
	"single-instance/internal/domain"
	"single-instance/internal/metrics"

	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Heartbeat periodically reports the claim held by the process.
type Heartbeat struct {
	cron   *cron.Cron
	status domain.StatusProvider
	logger *slog.Logger
	tracer trace.Tracer
	now    func() time.Time
}

// NewHeartbeat schedules a heartbeat on a six-field cron schedule (with seconds).
func NewHeartbeat(status domain.StatusProvider, schedule string, logger *slog.Logger) (*Heartbeat, error) {
	h := &Heartbeat{
		cron:   cron.New(cron.WithParser(config.CronParser)),
		status: status,
		logger: logger.With("component", "heartbeat"),
		tracer: otel.Tracer("single-instance-scheduler"),
		now:    time.Now,
	}
	if _, err := h.cron.AddFunc(schedule, h.beat); err != nil {
		return nil, fmt.Errorf("invalid heartbeat schedule %q: %w", schedule, err)
	}
	return h, nil
}

// Start runs the heartbeat until ctx is done.
func (h *Heartbeat) Start(ctx context.Context) error {
	h.logger.Info("heartbeat started")
	h.cron.Start()
	<-ctx.Done()
	h.logger.Info("heartbeat stopping...")
	stopCtx := h.cron.Stop()
	<-stopCtx.Done()
	h.logger.Info("heartbeat stopped")
	return ctx.Err()
}

func (h *Heartbeat) beat() {
	_, span := h.tracer.Start(context.Background(), "scheduler.Heartbeat")
	defer span.End()

	st := h.status.Status()
	span.SetAttributes(
		attribute.String("claim.name", st.Name),
		attribute.Bool("claim.held", st.Held),
	)

	if st.Name == "" {
		h.logger.Info("claim heartbeat", "held", false)
		return
	}
	metrics.ClaimHeartbeatsTotal.WithLabelValues(st.Name).Inc()
	metrics.ClaimHeartbeatTimestamp.WithLabelValues(st.Name).Set(float64(h.now().Unix()))
	metrics.SetOwned(st.Name, st.Held)

	var held time.Duration
	if st.Held && !st.AcquiredAt.IsZero() {
		held = h.now().Sub(st.AcquiredAt).Truncate(time.Second)
	}
	h.logger.Info("claim heartbeat", "claim_name", st.Name, "backend", st.Backend, "held", st.Held, "held_for", held.String())
}
