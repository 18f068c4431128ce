package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/userdir/internal/logging"
	"github.com/dmitrijs2005/userdir/internal/rpc"
	"github.com/dmitrijs2005/userdir/internal/server/authz"
	"github.com/dmitrijs2005/userdir/internal/server/directory"
	"github.com/dmitrijs2005/userdir/internal/server/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// DirectoryService is the part of directory.Service the transport calls.
type DirectoryService interface {
	ListUsers(ctx context.Context, p authz.Principal) ([]models.PublicUser, error)
	GetUser(ctx context.Context, p authz.Principal, id string) (models.PublicUser, error)
	CreateUser(ctx context.Context, p authz.Principal, in directory.CreateInput) (models.PublicUser, error)
	UpdateUser(ctx context.Context, p authz.Principal, id string, in directory.UpdateInput) (models.PublicUser, error)
	DeleteUser(ctx context.Context, p authz.Principal, id string) (models.Confirmation, error)
	VerifyPassword(ctx context.Context, p authz.Principal, id, candidate string) (bool, error)
}

// PrincipalResolver turns the authorization metadata value into a caller.
type PrincipalResolver interface {
	Resolve(authorization string) (authz.Principal, error)
}

type GRPCServer struct {
	address   string
	directory DirectoryService
	resolver  PrincipalResolver
	logger    logging.Logger
	health    *health.Server
}

func NewGRPCServer(a string, l logging.Logger, d DirectoryService, r PrincipalResolver) *GRPCServer {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		directory: d,
		resolver:  r,
		health:    health.NewServer(),
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.principalInterceptor))

	rpc.RegisterDirectoryServer(srv, s)
	healthpb.RegisterHealthServer(srv, s.health)
	s.health.SetServingStatus(rpc.ServiceName, healthpb.HealthCheckResponse_SERVING)

	return srv
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is cancelled, then stops
// gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}
