package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"single-instance/internal/domain"
	"single-instance/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClaim and fakeAcquirer emulate one kernel namespace in memory.
type fakeClaim struct {
	name   string
	single bool
	closed int
	owner  *fakeAcquirer
}

func (c *fakeClaim) IsSingle() bool          { return c.single }
func (c *fakeClaim) Name() string            { return c.name }
func (c *fakeClaim) Backend() domain.Backend { return domain.BackendFlock }

func (c *fakeClaim) Close() error {
	c.closed++
	if c.single && c.closed == 1 {
		delete(c.owner.held, c.name)
	}
	return c.owner.closeErr
}

type fakeAcquirer struct {
	held     map[string]bool
	err      error
	closeErr error
}

func newFakeAcquirer() *fakeAcquirer {
	return &fakeAcquirer{held: map[string]bool{}}
}

func (a *fakeAcquirer) Backend() domain.Backend { return domain.BackendFlock }

func (a *fakeAcquirer) Acquire(name string) (domain.Claim, error) {
	if a.err != nil {
		return nil, a.err
	}
	c := &fakeClaim{name: name, owner: a, single: !a.held[name]}
	a.held[name] = true
	return c, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGuardServiceAcquire(t *testing.T) {
	ctx := context.Background()
	acq := newFakeAcquirer()
	svc := NewGuardService(acq, discardLogger())
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	before := testutil.ToFloat64(metrics.ClaimAttemptsTotal.WithLabelValues("flock", metrics.OutcomeSingle))

	claim, err := svc.Acquire(ctx, "guard-owner")
	require.NoError(t, err)
	assert.True(t, claim.IsSingle())

	st := svc.Status()
	assert.Equal(t, "guard-owner", st.Name)
	assert.True(t, st.Single)
	assert.True(t, st.Held)
	assert.Equal(t, fixed, st.AcquiredAt)
	assert.Equal(t, os.Getpid(), st.PID)
	assert.Equal(t, domain.BackendFlock, st.Backend)

	assert.Equal(t, before+1, testutil.ToFloat64(metrics.ClaimAttemptsTotal.WithLabelValues("flock", metrics.OutcomeSingle)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ClaimOwned.WithLabelValues("guard-owner")))

	_, err = svc.Acquire(ctx, "guard-owner")
	assert.ErrorIs(t, err, ErrClaimAlreadyAcquired)

	require.NoError(t, svc.Release(ctx))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.ClaimOwned.WithLabelValues("guard-owner")))
	assert.False(t, svc.Status().Held)
	assert.Empty(t, svc.Status().Name)
	assert.Equal(t, 1, claim.(*fakeClaim).closed)

	require.NoError(t, svc.Release(ctx), "release without a claim is a no-op")
}

func TestGuardServiceLosingClaim(t *testing.T) {
	ctx := context.Background()
	acq := newFakeAcquirer()
	winner := NewGuardService(acq, discardLogger())
	loser := NewGuardService(acq, discardLogger())

	_, err := winner.Acquire(ctx, "guard-contended")
	require.NoError(t, err)

	before := testutil.ToFloat64(metrics.ClaimAttemptsTotal.WithLabelValues("flock", metrics.OutcomeTaken))
	claim, err := loser.Acquire(ctx, "guard-contended")
	require.NoError(t, err, "losing is not an error")
	assert.False(t, claim.IsSingle())
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.ClaimAttemptsTotal.WithLabelValues("flock", metrics.OutcomeTaken)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ClaimOwned.WithLabelValues("guard-contended")), "a losing acquire keeps the owner's gauge")

	st := loser.Status()
	assert.Equal(t, "guard-contended", st.Name)
	assert.False(t, st.Single)
	assert.False(t, st.Held)

	require.NoError(t, loser.Release(ctx))
	assert.True(t, winner.Status().Held, "releasing the loser leaves the winner untouched")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ClaimOwned.WithLabelValues("guard-contended")))
}

func TestGuardServiceAcquireError(t *testing.T) {
	acq := newFakeAcquirer()
	acq.err = domain.ResourceError(domain.BackendFlock, "x", "open", os.ErrPermission)
	svc := NewGuardService(acq, discardLogger())

	before := testutil.ToFloat64(metrics.ClaimAttemptsTotal.WithLabelValues("flock", metrics.OutcomeError))
	claim, err := svc.Acquire(context.Background(), "x")
	assert.Nil(t, claim)
	assert.ErrorIs(t, err, domain.ErrResourceCreation)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.ClaimAttemptsTotal.WithLabelValues("flock", metrics.OutcomeError)))
	assert.False(t, svc.Status().Held)
}

func TestGuardServiceReleaseError(t *testing.T) {
	acq := newFakeAcquirer()
	svc := NewGuardService(acq, discardLogger())
	_, err := svc.Acquire(context.Background(), "guard-close-error")
	require.NoError(t, err)

	acq.closeErr = errors.New("close failed")
	assert.EqualError(t, svc.Release(context.Background()), "close failed")
	assert.False(t, svc.Status().Held, "the claim is dropped even when close fails")
}
