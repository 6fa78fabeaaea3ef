package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/hamarchia/ClinicSystem/internal/logging"
	"github.com/hamarchia/ClinicSystem/internal/presencerpc"
	"github.com/hamarchia/ClinicSystem/internal/server/auth"
	"github.com/hamarchia/ClinicSystem/internal/server/models"
	"github.com/hamarchia/ClinicSystem/internal/server/presence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
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

type harness struct {
	hub  *presence.Hub
	conn *grpc.ClientConn
}

func newHarness(t *testing.T, legacy bool) *harness {
	t.Helper()

	hub := presence.NewHub(legacy, 8, nopLogger{})
	s := NewGRPCServer("bufnet", nopLogger{}, hub, testSecret)

	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(presencerpc.CodecName)),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		cancel()
		<-done
	})
	return &harness{hub: hub, conn: conn}
}

func authCtx(t *testing.T) context.Context {
	t.Helper()
	tok, err := auth.GenerateToken("u1", auth.RoleDoctor, []byte(testSecret), time.Hour)
	require.NoError(t, err)
	return metadata.AppendToOutgoingContext(context.Background(), "access_token", tok)
}

func (h *harness) watch(t *testing.T, ctx context.Context) grpc.ClientStream {
	t.Helper()
	stream, err := h.conn.NewStream(ctx, &presencerpc.WatchStreamDesc, presencerpc.WatchMethod)
	require.NoError(t, err)
	return stream
}

func recvSet(t *testing.T, stream grpc.ClientStream) models.DoneSet {
	t.Helper()
	var msg models.PresenceMessage
	require.NoError(t, stream.RecvMsg(&msg))
	require.Equal(t, models.PresenceTypeDoneSet, msg.Type)
	return msg.PatientIDs
}

func TestWatch_BroadcastAndDisconnectReset(t *testing.T) {
	h := newHarness(t, true)
	ctx := authCtx(t)

	a := h.watch(t, ctx)
	assert.Equal(t, models.DoneSet{}, recvSet(t, a))

	bctx, bcancel := context.WithCancel(ctx)
	b := h.watch(t, bctx)
	assert.Equal(t, models.DoneSet{}, recvSet(t, b))

	require.NoError(t, a.SendMsg(&models.PresenceMessage{Type: models.PresenceTypeUpdateDoneSet, PatientIDs: models.DoneSet{"p1"}}))
	assert.Equal(t, models.DoneSet{"p1"}, recvSet(t, a))
	assert.Equal(t, models.DoneSet{"p1"}, recvSet(t, b))

	bcancel()
	assert.Equal(t, models.DoneSet{}, recvSet(t, a))
	require.Eventually(t, func() bool { return h.hub.Sessions() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestWatch_HalfClosedClientKeepsReceiving(t *testing.T) {
	h := newHarness(t, false)
	ctx := authCtx(t)

	a := h.watch(t, ctx)
	recvSet(t, a)
	require.NoError(t, a.CloseSend())

	require.NoError(t, h.hub.UpdateDoneSet(context.Background(), models.DoneSet{"p3"}))
	assert.Equal(t, models.DoneSet{"p3"}, recvSet(t, a))
}

func TestWatch_RequiresToken(t *testing.T) {
	h := newHarness(t, false)

	stream := h.watch(t, context.Background())
	var msg models.PresenceMessage
	err := stream.RecvMsg(&msg)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	bad := metadata.AppendToOutgoingContext(context.Background(), "access_token", "garbage")
	stream = h.watch(t, bad)
	err = stream.RecvMsg(&msg)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestSnapshot(t *testing.T) {
	h := newHarness(t, false)
	require.NoError(t, h.hub.UpdateDoneSet(context.Background(), models.DoneSet{"p1", "p2"}))

	var out models.PresenceMessage
	require.NoError(t, h.conn.Invoke(authCtx(t), presencerpc.SnapshotMethod, &models.PresenceMessage{}, &out))
	assert.Equal(t, models.DoneSet{"p1", "p2"}, out.PatientIDs)

	err := h.conn.Invoke(context.Background(), presencerpc.SnapshotMethod, &models.PresenceMessage{}, &out)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	srv := NewGRPCServer("127.0.0.1:0", nopLogger{}, presence.NewHub(false, 1, nopLogger{}), "secret")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx)
	}()

	select {
	case err := <-done:
		t.Fatalf("server exited too early: %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error on graceful stop: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop within timeout after context cancel")
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	t.Parallel()

	srv := NewGRPCServer("127.0.0.1:99999", nopLogger{}, presence.NewHub(false, 1, nopLogger{}), "secret")

	if err := srv.Run(context.Background()); err == nil {
		t.Fatal("expected error from Run on bad address, got nil")
	}
}
