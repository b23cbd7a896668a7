package grpc

import (
	"context"
	"io"
	"log/slog"
	"net"
	"sync"
	"testing"

	"single-instance/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

type mutableStatus struct {
	mu sync.Mutex
	st domain.ClaimStatus
}

func (m *mutableStatus) Status() domain.ClaimStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st
}

func (m *mutableStatus) set(held bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.Held = held
	m.st.Single = held
}

func dialHealth(t *testing.T, h *HealthServer) healthpb.HealthClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	h.Register(srv)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return healthpb.NewHealthClient(conn)
}

func TestHealthFollowsClaim(t *testing.T) {
	status := &mutableStatus{st: domain.ClaimStatus{Name: "app"}}
	status.set(true)
	h := NewHealthServer(status, "single-instance", slog.New(slog.NewTextHandler(io.Discard, nil)))
	client := dialHealth(t, h)
	ctx := context.Background()

	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: "single-instance"})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())

	resp, err = client.Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())

	status.set(false)
	h.Refresh()

	resp, err = client.Check(ctx, &healthpb.HealthCheckRequest{Service: "single-instance"})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())
}

func TestHealthLosingClaimIsNotServing(t *testing.T) {
	status := &mutableStatus{st: domain.ClaimStatus{Name: "app"}}
	h := NewHealthServer(status, "single-instance", slog.New(slog.NewTextHandler(io.Discard, nil)))
	client := dialHealth(t, h)

	resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: "single-instance"})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())
}
