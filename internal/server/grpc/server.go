// Package grpc streams live presence updates over gRPC. Messages are JSON
// encoded through the presencerpc codec and the service descriptor is
// written by hand.
package grpc

import (
	"context"
	"net"

	"github.com/hamarchia/ClinicSystem/internal/logging"
	"github.com/hamarchia/ClinicSystem/internal/server/presence"
	"google.golang.org/grpc"
)

type GRPCServer struct {
	address   string
	hub       *presence.Hub
	logger    logging.Logger
	jwtSecret []byte
}

func NewGRPCServer(a string, l logging.Logger, hub *presence.Hub, secretKey string) *GRPCServer {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		hub:       hub,
		jwtSecret: []byte(secretKey),
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(s.accessTokenInterceptor),
		grpc.ChainStreamInterceptor(s.accessTokenStreamInterceptor),
	)
	srv.RegisterService(&presenceServiceDesc, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on listen until ctx is cancelled.
func (s *GRPCServer) Serve(ctx context.Context, listen net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
