package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/userdir/internal/common"
	"github.com/dmitrijs2005/userdir/internal/rpc"
	"github.com/dmitrijs2005/userdir/internal/server/authz"
	"github.com/dmitrijs2005/userdir/internal/server/directory"
	"github.com/dmitrijs2005/userdir/internal/server/models"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func toRPCUser(u models.PublicUser) rpc.User {
	return rpc.User{ID: u.ID, Username: u.UserName, CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt}
}

// toStatus maps directory errors onto gRPC codes. Unexpected errors are
// logged and reported as a bare internal error.
func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, common.ErrorValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrorAccessDenied):
		return status.Error(codes.PermissionDenied, common.ErrorAccessDenied.Error())
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, common.ErrorUnauthenticated):
		return status.Error(codes.Unauthenticated, "unauthenticated")
	}
	s.logger.Error(ctx, "request failed", "error", err.Error())
	return status.Error(codes.Internal, "internal error")
}

func (s *GRPCServer) principal(ctx context.Context) (authz.Principal, error) {
	p, ok := principalFromContext(ctx)
	if !ok {
		return authz.Principal{}, status.Error(codes.Unauthenticated, "unauthenticated")
	}
	return p, nil
}

func (s *GRPCServer) ListUsers(ctx context.Context, _ *rpc.ListUsersRequest) (*rpc.ListUsersResponse, error) {
	p, err := s.principal(ctx)
	if err != nil {
		return nil, err
	}

	list, err := s.directory.ListUsers(ctx, p)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	resp := &rpc.ListUsersResponse{Users: make([]rpc.User, 0, len(list))}
	for _, u := range list {
		resp.Users = append(resp.Users, toRPCUser(u))
	}
	return resp, nil
}

func (s *GRPCServer) GetUser(ctx context.Context, req *rpc.GetUserRequest) (*rpc.UserResponse, error) {
	p, err := s.principal(ctx)
	if err != nil {
		return nil, err
	}

	u, err := s.directory.GetUser(ctx, p, req.ID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &rpc.UserResponse{User: toRPCUser(u)}, nil
}

func (s *GRPCServer) CreateUser(ctx context.Context, req *rpc.CreateUserRequest) (*rpc.UserResponse, error) {
	p, err := s.principal(ctx)
	if err != nil {
		return nil, err
	}

	u, err := s.directory.CreateUser(ctx, p, directory.CreateInput{Username: req.Username, Password: req.Password})
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return &rpc.UserResponse{User: toRPCUser(u)}, nil
}

func (s *GRPCServer) UpdateUser(ctx context.Context, req *rpc.UpdateUserRequest) (*rpc.UserResponse, error) {
	p, err := s.principal(ctx)
	if err != nil {
		return nil, err
	}

	u, err := s.directory.UpdateUser(ctx, p, req.ID, directory.UpdateInput{Username: req.Username, Password: req.Password})
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return &rpc.UserResponse{User: toRPCUser(u)}, nil
}

func (s *GRPCServer) DeleteUser(ctx context.Context, req *rpc.DeleteUserRequest) (*rpc.DeleteUserResponse, error) {
	p, err := s.principal(ctx)
	if err != nil {
		return nil, err
	}

	c, err := s.directory.DeleteUser(ctx, p, req.ID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return &rpc.DeleteUserResponse{ID: c.ID}, nil
}

func (s *GRPCServer) VerifyPassword(ctx context.Context, req *rpc.VerifyPasswordRequest) (*rpc.VerifyPasswordResponse, error) {
	p, err := s.principal(ctx)
	if err != nil {
		return nil, err
	}

	ok, err := s.directory.VerifyPassword(ctx, p, req.ID, req.Password)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &rpc.VerifyPasswordResponse{Valid: ok}, nil
}
