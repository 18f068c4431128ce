// Package rpc defines the userdir.v1.Directory gRPC service: its messages,
// the JSON codec they travel in, the service descriptor and a typed client.
package rpc

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "userdir.v1.Directory"

// Full method names.
const (
	ListUsersMethod      = "/" + ServiceName + "/ListUsers"
	GetUserMethod        = "/" + ServiceName + "/GetUser"
	CreateUserMethod     = "/" + ServiceName + "/CreateUser"
	UpdateUserMethod     = "/" + ServiceName + "/UpdateUser"
	DeleteUserMethod     = "/" + ServiceName + "/DeleteUser"
	VerifyPasswordMethod = "/" + ServiceName + "/VerifyPassword"
)

// DirectoryServer is implemented by the server side of the service.
type DirectoryServer interface {
	ListUsers(context.Context, *ListUsersRequest) (*ListUsersResponse, error)
	GetUser(context.Context, *GetUserRequest) (*UserResponse, error)
	CreateUser(context.Context, *CreateUserRequest) (*UserResponse, error)
	UpdateUser(context.Context, *UpdateUserRequest) (*UserResponse, error)
	DeleteUser(context.Context, *DeleteUserRequest) (*DeleteUserResponse, error)
	VerifyPassword(context.Context, *VerifyPasswordRequest) (*VerifyPasswordResponse, error)
}

func RegisterDirectoryServer(s grpc.ServiceRegistrar, srv DirectoryServer) {
	s.RegisterService(&DirectoryServiceDesc, srv)
}

// unary adapts a typed method into a grpc.MethodDesc handler.
func unary[Req any, Resp any](fullMethod string, call func(DirectoryServer, context.Context, *Req) (*Resp, error)) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(DirectoryServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(DirectoryServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var DirectoryServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DirectoryServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListUsers", Handler: unary(ListUsersMethod, DirectoryServer.ListUsers)},
		{MethodName: "GetUser", Handler: unary(GetUserMethod, DirectoryServer.GetUser)},
		{MethodName: "CreateUser", Handler: unary(CreateUserMethod, DirectoryServer.CreateUser)},
		{MethodName: "UpdateUser", Handler: unary(UpdateUserMethod, DirectoryServer.UpdateUser)},
		{MethodName: "DeleteUser", Handler: unary(DeleteUserMethod, DirectoryServer.DeleteUser)},
		{MethodName: "VerifyPassword", Handler: unary(VerifyPasswordMethod, DirectoryServer.VerifyPassword)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "userdir/v1/directory",
}
