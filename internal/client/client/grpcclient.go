// Package client talks to the clinic presence service over gRPC.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hamarchia/ClinicSystem/internal/common"
	"github.com/hamarchia/ClinicSystem/internal/presencerpc"
	"github.com/hamarchia/ClinicSystem/internal/server/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	accessToken string
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	return invoker(withAccessToken(ctx, s.accessToken), method, req, reply, cc, opts...)
}

func (s *GRPCClient) accessTokenStreamInterceptor(
	ctx context.Context,
	desc *grpc.StreamDesc,
	cc *grpc.ClientConn,
	method string,
	streamer grpc.Streamer,
	opts ...grpc.CallOption,
) (grpc.ClientStream, error) {
	return streamer(withAccessToken(ctx, s.accessToken), desc, cc, method, opts...)
}

// NewPresenceClient prepares a client for endpointURL. No connection is
// made until the first call. Extra options are appended to the defaults.
func NewPresenceClient(endpointURL, accessToken string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, accessToken: accessToken}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
		grpc.WithStreamInterceptor(c.accessTokenStreamInterceptor),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(presencerpc.CodecName)),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, dialOpts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	return c, nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

// Snapshot returns the server's current done-set.
func (s *GRPCClient) Snapshot(ctx context.Context) (models.DoneSet, error) {
	var out models.PresenceMessage
	if err := s.conn.Invoke(ctx, presencerpc.SnapshotMethod, &models.PresenceMessage{}, &out); err != nil {
		return nil, s.mapError(err)
	}
	return out.PatientIDs.Normalize(), nil
}

// Watch opens the presence stream. The first Recv returns the current
// done-set.
func (s *GRPCClient) Watch(ctx context.Context) (*Watch, error) {
	stream, err := s.conn.NewStream(ctx, &presencerpc.WatchStreamDesc, presencerpc.WatchMethod)
	if err != nil {
		return nil, s.mapError(err)
	}
	return &Watch{stream: stream, mapError: s.mapError}, nil
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, io.EOF) {
		return err
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return ErrUnauthorized
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	case codes.ResourceExhausted:
		return ErrEvicted
	case codes.Canceled:
		return context.Canceled
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}

// Watch is an open presence stream. Recv and Update may be called from
// different goroutines.
type Watch struct {
	stream   grpc.ClientStream
	mapError func(error) error
}

// Recv blocks until the next done-set broadcast.
func (w *Watch) Recv() (models.DoneSet, error) {
	var msg models.PresenceMessage
	if err := w.stream.RecvMsg(&msg); err != nil {
		return nil, w.mapError(err)
	}
	return msg.PatientIDs.Normalize(), nil
}

// Update replaces the done-set on the server with ids.
func (w *Watch) Update(ids models.DoneSet) error {
	msg := &models.PresenceMessage{Type: models.PresenceTypeUpdateDoneSet, PatientIDs: ids.Normalize()}
	if err := w.stream.SendMsg(msg); err != nil {
		return w.mapError(err)
	}
	return nil
}

// CloseSend half-closes the stream; broadcasts keep arriving.
func (w *Watch) CloseSend() error {
	return w.stream.CloseSend()
}
