package client

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/userdir/internal/common"
	"github.com/dmitrijs2005/userdir/internal/rpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type GRPCClient struct {
	endpointURL   string
	conn          *grpc.ClientConn
	client        *rpc.DirectoryClient
	authorization string
}

func withAuthorization(ctx context.Context, value string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AuthorizationHeaderName, value)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) authorizationInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if s.authorization != "" {
		ctx = withAuthorization(ctx, s.authorization)
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

// NewDirectoryClient connects lazily to endpointURL. Extra dial options are
// appended after the defaults (insecure transport, credential interceptor).
func NewDirectoryClient(endpointURL string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL}

	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.authorizationInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, opts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.client = rpc.NewDirectoryClient(conn)
	return c, nil
}

// SetBasicAuth sends operator credentials with every call.
func (s *GRPCClient) SetBasicAuth(username, password string) {
	s.authorization = common.BasicAuthorization(username, password)
}

// SetBearerToken sends token with every call.
func (s *GRPCClient) SetBearerToken(token string) {
	s.authorization = common.BearerAuthorization(token)
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func (s *GRPCClient) mapError(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	switch st.Code() {
	case codes.Unavailable:
		return ErrUnavailable
	case codes.Unauthenticated:
		return ErrUnauthorized
	case codes.PermissionDenied:
		return ErrForbidden
	case codes.NotFound:
		return ErrNotFound
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", ErrInvalidInput, st.Message())
	}
	return fmt.Errorf("%s: %s", st.Code(), st.Message())
}

func (s *GRPCClient) ListUsers(ctx context.Context) ([]rpc.User, error) {
	resp, err := s.client.ListUsers(ctx, &rpc.ListUsersRequest{})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Users, nil
}

func (s *GRPCClient) GetUser(ctx context.Context, id string) (rpc.User, error) {
	resp, err := s.client.GetUser(ctx, &rpc.GetUserRequest{ID: id})
	if err != nil {
		return rpc.User{}, s.mapError(err)
	}
	return resp.User, nil
}

func (s *GRPCClient) CreateUser(ctx context.Context, username, password string) (rpc.User, error) {
	resp, err := s.client.CreateUser(ctx, &rpc.CreateUserRequest{Username: username, Password: password})
	if err != nil {
		return rpc.User{}, s.mapError(err)
	}
	return resp.User, nil
}

func (s *GRPCClient) UpdateUser(ctx context.Context, id, username, password string) (rpc.User, error) {
	resp, err := s.client.UpdateUser(ctx, &rpc.UpdateUserRequest{ID: id, Username: username, Password: password})
	if err != nil {
		return rpc.User{}, s.mapError(err)
	}
	return resp.User, nil
}

func (s *GRPCClient) DeleteUser(ctx context.Context, id string) (string, error) {
	resp, err := s.client.DeleteUser(ctx, &rpc.DeleteUserRequest{ID: id})
	if err != nil {
		return "", s.mapError(err)
	}
	return resp.ID, nil
}

func (s *GRPCClient) VerifyPassword(ctx context.Context, id, password string) (bool, error) {
	resp, err := s.client.VerifyPassword(ctx, &rpc.VerifyPasswordRequest{ID: id, Password: password})
	if err != nil {
		return false, s.mapError(err)
	}
	return resp.Valid, nil
}
