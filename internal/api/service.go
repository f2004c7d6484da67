// Package api defines the AuthKeeper wire contract: request and response
// messages, the gRPC service description and a client stub. Messages travel
// as JSON through a registered gRPC codec.
package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "authkeeper.v1.AuthKeeper"

// Full method names, as seen by interceptors.
const (
	MethodPing             = "/" + ServiceName + "/Ping"
	MethodLogin            = "/" + ServiceName + "/Login"
	MethodLogout           = "/" + ServiceName + "/Logout"
	MethodValidateSession  = "/" + ServiceName + "/ValidateSession"
	MethodWhoAmI           = "/" + ServiceName + "/WhoAmI"
	MethodCreateUser       = "/" + ServiceName + "/CreateUser"
	MethodDeleteUser       = "/" + ServiceName + "/DeleteUser"
	MethodChangePassword   = "/" + ServiceName + "/ChangePassword"
	MethodLockUser         = "/" + ServiceName + "/LockUser"
	MethodUnlockUser       = "/" + ServiceName + "/UnlockUser"
	MethodListUsers        = "/" + ServiceName + "/ListUsers"
	MethodListLockedUsers  = "/" + ServiceName + "/ListLockedUsers"
	MethodCountLockedUsers = "/" + ServiceName + "/CountLockedUsers"
	MethodListAuditLog     = "/" + ServiceName + "/ListAuditLog"
)

// AuthKeeperServer is implemented by the gRPC transport.
type AuthKeeperServer interface {
	Ping(context.Context, *PingRequest) (*PingResponse, error)
	Login(context.Context, *LoginRequest) (*LoginResponse, error)
	Logout(context.Context, *LogoutRequest) (*LogoutResponse, error)
	ValidateSession(context.Context, *ValidateSessionRequest) (*ValidateSessionResponse, error)
	WhoAmI(context.Context, *WhoAmIRequest) (*WhoAmIResponse, error)
	CreateUser(context.Context, *CreateUserRequest) (*CreateUserResponse, error)
	DeleteUser(context.Context, *DeleteUserRequest) (*DeleteUserResponse, error)
	ChangePassword(context.Context, *ChangePasswordRequest) (*ChangePasswordResponse, error)
	LockUser(context.Context, *LockUserRequest) (*LockUserResponse, error)
	UnlockUser(context.Context, *UnlockUserRequest) (*UnlockUserResponse, error)
	ListUsers(context.Context, *ListUsersRequest) (*ListUsersResponse, error)
	ListLockedUsers(context.Context, *ListLockedUsersRequest) (*ListLockedUsersResponse, error)
	CountLockedUsers(context.Context, *CountLockedUsersRequest) (*CountLockedUsersResponse, error)
	ListAuditLog(context.Context, *ListAuditLogRequest) (*ListAuditLogResponse, error)
}

func unary[Req, Resp any](name string, call func(AuthKeeperServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(AuthKeeperServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(AuthKeeperServer), ctx, req.(*Req))
			})
		},
	}
}

// ServiceDesc describes AuthKeeper for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuthKeeperServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Ping", AuthKeeperServer.Ping),
		unary("Login", AuthKeeperServer.Login),
		unary("Logout", AuthKeeperServer.Logout),
		unary("ValidateSession", AuthKeeperServer.ValidateSession),
		unary("WhoAmI", AuthKeeperServer.WhoAmI),
		unary("CreateUser", AuthKeeperServer.CreateUser),
		unary("DeleteUser", AuthKeeperServer.DeleteUser),
		unary("ChangePassword", AuthKeeperServer.ChangePassword),
		unary("LockUser", AuthKeeperServer.LockUser),
		unary("UnlockUser", AuthKeeperServer.UnlockUser),
		unary("ListUsers", AuthKeeperServer.ListUsers),
		unary("ListLockedUsers", AuthKeeperServer.ListLockedUsers),
		unary("CountLockedUsers", AuthKeeperServer.CountLockedUsers),
		unary("ListAuditLog", AuthKeeperServer.ListAuditLog),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "authkeeper/v1/authkeeper.json",
}

func RegisterAuthKeeperServer(s grpc.ServiceRegistrar, srv AuthKeeperServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// UnimplementedAuthKeeperServer answers every method with codes.Unimplemented.
type UnimplementedAuthKeeperServer struct{}

func unimplemented(method string) error {
	return status.Errorf(codes.Unimplemented, "method %s not implemented", method)
}

func (UnimplementedAuthKeeperServer) Ping(context.Context, *PingRequest) (*PingResponse, error) {
	return nil, unimplemented("Ping")
}
func (UnimplementedAuthKeeperServer) Login(context.Context, *LoginRequest) (*LoginResponse, error) {
	return nil, unimplemented("Login")
}
func (UnimplementedAuthKeeperServer) Logout(context.Context, *LogoutRequest) (*LogoutResponse, error) {
	return nil, unimplemented("Logout")
}
func (UnimplementedAuthKeeperServer) ValidateSession(context.Context, *ValidateSessionRequest) (*ValidateSessionResponse, error) {
	return nil, unimplemented("ValidateSession")
}
func (UnimplementedAuthKeeperServer) WhoAmI(context.Context, *WhoAmIRequest) (*WhoAmIResponse, error) {
	return nil, unimplemented("WhoAmI")
}
func (UnimplementedAuthKeeperServer) CreateUser(context.Context, *CreateUserRequest) (*CreateUserResponse, error) {
	return nil, unimplemented("CreateUser")
}
func (UnimplementedAuthKeeperServer) DeleteUser(context.Context, *DeleteUserRequest) (*DeleteUserResponse, error) {
	return nil, unimplemented("DeleteUser")
}
func (UnimplementedAuthKeeperServer) ChangePassword(context.Context, *ChangePasswordRequest) (*ChangePasswordResponse, error) {
	return nil, unimplemented("ChangePassword")
}
func (UnimplementedAuthKeeperServer) LockUser(context.Context, *LockUserRequest) (*LockUserResponse, error) {
	return nil, unimplemented("LockUser")
}
func (UnimplementedAuthKeeperServer) UnlockUser(context.Context, *UnlockUserRequest) (*UnlockUserResponse, error) {
	return nil, unimplemented("UnlockUser")
}
func (UnimplementedAuthKeeperServer) ListUsers(context.Context, *ListUsersRequest) (*ListUsersResponse, error) {
	return nil, unimplemented("ListUsers")
}
func (UnimplementedAuthKeeperServer) ListLockedUsers(context.Context, *ListLockedUsersRequest) (*ListLockedUsersResponse, error) {
	return nil, unimplemented("ListLockedUsers")
}
func (UnimplementedAuthKeeperServer) CountLockedUsers(context.Context, *CountLockedUsersRequest) (*CountLockedUsersResponse, error) {
	return nil, unimplemented("CountLockedUsers")
}
func (UnimplementedAuthKeeperServer) ListAuditLog(context.Context, *ListAuditLogRequest) (*ListAuditLogResponse, error) {
	return nil, unimplemented("ListAuditLog")
}
