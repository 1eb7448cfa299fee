// Package grpc serves the client protocol over gRPC. Methods are dispatched
// by name through an unknown-service handler; requests and responses are
// structpb lists, so no generated stubs are involved.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/reportkeeper/internal/logging"
	"github.com/dmitrijs2005/reportkeeper/internal/server/collector"
	"google.golang.org/grpc"
)

type GRPCServer struct {
	address   string
	collector *collector.Service
	logger    logging.Logger
	jwtSecret []byte
}

func NewGRPCServer(a string, l logging.Logger, c *collector.Service, secretKey string) *GRPCServer {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		collector: c,
		jwtSecret: []byte(secretKey),
	}
}

// newServer builds the grpc.Server with the dispatcher and interceptor.
func (s *GRPCServer) newServer() *grpc.Server {
	return grpc.NewServer(
		grpc.ChainStreamInterceptor(s.accountInterceptor),
		grpc.UnknownServiceHandler(s.dispatch),
	)
}

func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on listen until ctx is done, then stops
// gracefully.
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
