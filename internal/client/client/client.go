package client

import (
	"context"

	"github.com/dmitrijs2005/authkeeper/internal/api"
)

// Client is the operation set authctl needs from the server.
type Client interface {
	Ping(ctx context.Context) error
	Login(ctx context.Context, userID, password string) (*api.LoginResponse, error)
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) (*api.WhoAmIResponse, error)
	ValidateSession(ctx context.Context, requiredRole string) (*api.ValidateSessionResponse, error)
	CreateUser(ctx context.Context, userID, password, role string) error
	DeleteUser(ctx context.Context, userID string) (bool, error)
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
	LockUser(ctx context.Context, userID string) error
	UnlockUser(ctx context.Context, userID string) error
	ListUsers(ctx context.Context, req *api.ListUsersRequest) (*api.ListUsersResponse, error)
	ListLockedUsers(ctx context.Context) ([]api.User, error)
	CountLockedUsers(ctx context.Context) (int, error)
	ListAuditLog(ctx context.Context, req *api.ListAuditLogRequest) (*api.ListAuditLogResponse, error)
	LoggedIn() bool
	Identity() (userID, role string)
	Close() error
}
