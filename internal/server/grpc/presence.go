package grpc

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/hamarchia/ClinicSystem/internal/presencerpc"
	"github.com/hamarchia/ClinicSystem/internal/server/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// PresenceServer is the server API of clinic.presence.Presence.
type PresenceServer interface {
	// Watch streams done-set broadcasts and accepts update_done_set
	// messages from the client.
	Watch(stream grpc.ServerStream) error
	// Snapshot returns the current done-set.
	Snapshot(ctx context.Context, req *models.PresenceMessage) (*models.PresenceMessage, error)
}

var presenceServiceDesc = grpc.ServiceDesc{
	ServiceName: presencerpc.ServiceName,
	HandlerType: (*PresenceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Snapshot", Handler: snapshotHandler},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    presencerpc.WatchStreamDesc.StreamName,
			Handler:       watchHandler,
			ServerStreams: presencerpc.WatchStreamDesc.ServerStreams,
			ClientStreams: presencerpc.WatchStreamDesc.ClientStreams,
		},
	},
}

func watchHandler(srv any, stream grpc.ServerStream) error {
	return srv.(PresenceServer).Watch(stream)
}

func snapshotHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(models.PresenceMessage)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PresenceServer).Snapshot(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: presencerpc.SnapshotMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(PresenceServer).Snapshot(ctx, req.(*models.PresenceMessage))
	}
	return interceptor(ctx, in, info, handler)
}

func (s *GRPCServer) Snapshot(ctx context.Context, _ *models.PresenceMessage) (*models.PresenceMessage, error) {
	return &models.PresenceMessage{Type: models.PresenceTypeDoneSet, PatientIDs: s.hub.DoneSet()}, nil
}

// streamSubscriber ends the stream when the hub evicts it. The hub only
// closes subscribers it evicts.
type streamSubscriber struct {
	cancel  context.CancelFunc
	evicted chan struct{}
	once    sync.Once
}

func newStreamSubscriber(cancel context.CancelFunc) *streamSubscriber {
	return &streamSubscriber{cancel: cancel, evicted: make(chan struct{})}
}

func (s *streamSubscriber) Close() error {
	s.once.Do(func() {
		close(s.evicted)
		s.cancel()
	})
	return nil
}

// result reports eviction in preference to err, which after an eviction
// is usually just the cancelled context.
func (s *streamSubscriber) result(err error) error {
	select {
	case <-s.evicted:
		return errEvicted
	default:
		return err
	}
}

var errEvicted = status.Error(codes.ResourceExhausted, "presence subscriber evicted")

func (s *GRPCServer) Watch(stream grpc.ServerStream) error {
	ctx, cancel := context.WithCancel(stream.Context())
	defer cancel()

	log := s.logger
	if c, ok := claimsFromContext(ctx); ok {
		log = log.With("user", c.Subject, "role", c.Role)
	}

	sub := newStreamSubscriber(cancel)
	sess := s.hub.Connect(sub)
	defer s.hub.Disconnect(sess)

	log.Info(ctx, "presence watch opened")
	defer log.Info(ctx, "presence watch closed")

	recvErr := make(chan error, 1)
	go func() {
		for {
			var msg models.PresenceMessage
			if err := stream.RecvMsg(&msg); err != nil {
				// half-closed clients keep watching
				if !errors.Is(err, io.EOF) {
					recvErr <- err
				}
				return
			}
			if msg.Type != models.PresenceTypeUpdateDoneSet {
				log.Warn(ctx, "unexpected presence message", "type", msg.Type)
				continue
			}
			if err := s.hub.UpdateDoneSet(ctx, msg.PatientIDs); err != nil {
				log.Error(ctx, "presence update", "error", err)
			}
		}
	}()

	for {
		select {
		case set, ok := <-sess.Updates():
			if !ok {
				return errEvicted
			}
			msg := &models.PresenceMessage{Type: models.PresenceTypeDoneSet, PatientIDs: set}
			if err := stream.SendMsg(msg); err != nil {
				return sub.result(err)
			}
		case err := <-recvErr:
			return sub.result(err)
		case <-ctx.Done():
			return sub.result(status.FromContextError(ctx.Err()).Err())
		}
	}
}
