package usecase

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"time"

	"single-instance/internal/domain"
	"single-instance/internal/metrics"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrClaimAlreadyAcquired is returned when Acquire is called on a service
// that already holds a claim.
var ErrClaimAlreadyAcquired = errors.New("guard already holds a claim")

// GuardService owns the claim of a long-running process and reports on it.
type GuardService struct {
	acquirer domain.Acquirer
	logger   *slog.Logger
	tracer   trace.Tracer
	now      func() time.Time

	mu         sync.RWMutex
	claim      domain.Claim
	acquiredAt time.Time
}

// NewGuardService creates a GuardService around acquirer.
func NewGuardService(acquirer domain.Acquirer, logger *slog.Logger) *GuardService {
	return &GuardService{
		acquirer: acquirer,
		logger:   logger.With("component", "guard-service", "backend", acquirer.Backend()),
		tracer:   otel.Tracer("single-instance-usecase"),
		now:      time.Now,
	}
}

// Acquire claims name. Losing the claim is reported through the returned
// claim's IsSingle, not as an error; the claim is retained either way so
// Status can report it.
func (s *GuardService) Acquire(ctx context.Context, name string) (domain.Claim, error) {
	_, span := s.tracer.Start(ctx, "service.AcquireClaim")
	defer span.End()
	span.SetAttributes(
		attribute.String("claim.name", name),
		attribute.String("claim.backend", string(s.acquirer.Backend())),
	)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.claim != nil {
		span.RecordError(ErrClaimAlreadyAcquired)
		span.SetStatus(codes.Error, "claim already acquired")
		return nil, ErrClaimAlreadyAcquired
	}

	claim, err := s.acquirer.Acquire(name)
	single := err == nil && claim.IsSingle()
	metrics.ClaimAttemptsTotal.WithLabelValues(string(s.acquirer.Backend()), metrics.Outcome(single, err)).Inc()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to acquire claim")
		s.logger.Error("failed to acquire claim", "claim_name", name, "error", err)
		return nil, err
	}

	span.SetAttributes(attribute.Bool("claim.single", single))
	if single {
		metrics.SetOwned(name, true)
	}

	s.claim = claim
	s.acquiredAt = s.now()
	if single {
		s.logger.Info("claim acquired", "claim_name", name, "is_single", true)
	} else {
		s.logger.Warn("claim held by another process", "claim_name", name, "is_single", false)
	}
	return claim, nil
}

// Status returns a snapshot of the held claim.
func (s *GuardService) Status() domain.ClaimStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := domain.ClaimStatus{
		Backend: s.acquirer.Backend(),
		PID:     os.Getpid(),
	}
	if s.claim == nil {
		return st
	}
	st.Name = s.claim.Name()
	st.Single = s.claim.IsSingle()
	st.Held = st.Single
	st.AcquiredAt = s.acquiredAt
	return st
}

// Release closes the held claim. Calling it without a claim is a no-op.
func (s *GuardService) Release(ctx context.Context) error {
	_, span := s.tracer.Start(ctx, "service.ReleaseClaim")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.claim == nil {
		return nil
	}
	name := s.claim.Name()
	owned := s.claim.IsSingle()
	span.SetAttributes(attribute.String("claim.name", name))

	err := s.claim.Close()
	s.claim = nil
	s.acquiredAt = time.Time{}
	// a losing claim never set the gauge; leave the owner's value alone
	if owned {
		metrics.SetOwned(name, false)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to release claim")
		s.logger.Error("failed to release claim", "claim_name", name, "error", err)
		return err
	}
	s.logger.Info("claim released", "claim_name", name)
	return nil
}
