package client

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/hamarchia/ClinicSystem/internal/logging"
	"github.com/hamarchia/ClinicSystem/internal/server/auth"
	gs "github.com/hamarchia/ClinicSystem/internal/server/grpc"
	"github.com/hamarchia/ClinicSystem/internal/server/models"
	"github.com/hamarchia/ClinicSystem/internal/server/presence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type nopLogger struct{}

func (n nopLogger) Debug(context.Context, string, ...any) {}
func (n nopLogger) Info(context.Context, string, ...any)  {}
func (n nopLogger) Warn(context.Context, string, ...any)  {}
func (n nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger            { return n }

const testSecret = "test-secret"

func startServer(t *testing.T, legacy bool) (*presence.Hub, grpc.DialOption) {
	t.Helper()

	hub := presence.NewHub(legacy, 8, nopLogger{})
	srv := gs.NewGRPCServer("bufnet", nopLogger{}, hub, testSecret)

	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, lis) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	dialer := grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	})
	return hub, dialer
}

func newClient(t *testing.T, dialer grpc.DialOption, token string) *GRPCClient {
	t.Helper()
	c, err := NewPresenceClient("passthrough:///bufnet", token, dialer)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func token(t *testing.T) string {
	t.Helper()
	tok, err := auth.GenerateToken("desk-1", auth.RoleCompounder, []byte(testSecret), time.Hour)
	require.NoError(t, err)
	return tok
}

func TestSnapshot(t *testing.T) {
	hub, dialer := startServer(t, false)
	require.NoError(t, hub.UpdateDoneSet(context.Background(), models.DoneSet{"p1", "p2"}))

	c := newClient(t, dialer, token(t))
	set, err := c.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.DoneSet{"p1", "p2"}, set)
}

func TestSnapshot_Unauthorized(t *testing.T) {
	_, dialer := startServer(t, false)

	c := newClient(t, dialer, "not-a-token")
	_, err := c.Snapshot(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestWatch_UpdateAndBroadcast(t *testing.T) {
	_, dialer := startServer(t, false)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := newClient(t, dialer, token(t)).Watch(ctx)
	require.NoError(t, err)
	b, err := newClient(t, dialer, token(t)).Watch(ctx)
	require.NoError(t, err)

	initial, err := a.Recv()
	require.NoError(t, err)
	assert.Equal(t, models.DoneSet{}, initial)
	_, err = b.Recv()
	require.NoError(t, err)

	require.NoError(t, a.Update(models.DoneSet{"p1", "p1", "p2"}))

	for _, w := range []*Watch{a, b} {
		set, err := w.Recv()
		require.NoError(t, err)
		assert.Equal(t, models.DoneSet{"p1", "p2"}, set)
	}
}

func TestWatch_HalfClosedKeepsReceiving(t *testing.T) {
	hub, dialer := startServer(t, false)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w, err := newClient(t, dialer, token(t)).Watch(ctx)
	require.NoError(t, err)
	_, err = w.Recv()
	require.NoError(t, err)

	require.NoError(t, w.CloseSend())
	require.NoError(t, hub.UpdateDoneSet(context.Background(), models.DoneSet{"p9"}))

	set, err := w.Recv()
	require.NoError(t, err)
	assert.Equal(t, models.DoneSet{"p9"}, set)
}

func TestWatch_CancelledContext(t *testing.T) {
	_, dialer := startServer(t, false)
	ctx, cancel := context.WithCancel(context.Background())

	w, err := newClient(t, dialer, token(t)).Watch(ctx)
	require.NoError(t, err)
	_, err = w.Recv()
	require.NoError(t, err)

	cancel()
	_, err = w.Recv()
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMapError(t *testing.T) {
	c := &GRPCClient{}

	tests := []struct {
		name string
		in   error
		want error
	}{
		{"unauthenticated", status.Error(codes.Unauthenticated, "x"), ErrUnauthorized},
		{"unavailable", status.Error(codes.Unavailable, "x"), ErrUnavailable},
		{"deadline", status.Error(codes.DeadlineExceeded, "x"), ErrUnavailable},
		{"evicted", status.Error(codes.ResourceExhausted, "x"), ErrEvicted},
		{"canceled", status.Error(codes.Canceled, "x"), context.Canceled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, c.mapError(tt.in), tt.want)
		})
	}

	assert.NoError(t, c.mapError(nil))

	other := c.mapError(status.Error(codes.Internal, "boom"))
	assert.ErrorContains(t, other, "rpc error")
	assert.False(t, errors.Is(other, ErrUnavailable))
}
