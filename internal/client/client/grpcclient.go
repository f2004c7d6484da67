package client

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/authkeeper/internal/api"
	"github.com/dmitrijs2005/authkeeper/internal/common"
)

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      api.AuthKeeperClient

	mu        sync.Mutex
	sessionID string
	userID    string
	role      string
}

var _ Client = (*GRPCClient)(nil)

// NewGRPCClient creates a client for endpointURL. Extra dial options are
// appended after the defaults (insecure transport, session interceptor).
func NewGRPCClient(endpointURL string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.sessionInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, dialOpts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.client = api.NewAuthKeeperClient(conn)
	return c, nil
}

func withSessionID(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.SessionHeaderName, token)
	return metadata.NewOutgoingContext(ctx, md)
}

// sessionInterceptor attaches the current token and picks up a rolled one
// from the response header.
func (c *GRPCClient) sessionInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if token := c.token(); token != "" {
		ctx = withSessionID(ctx, token)
	}

	var header metadata.MD
	opts = append(opts, grpc.Header(&header))

	err := invoker(ctx, method, req, reply, cc, opts...)

	if values := header.Get(common.SessionHeaderName); len(values) > 0 && values[0] != "" {
		c.mu.Lock()
		c.sessionID = values[0]
		c.mu.Unlock()
	}
	return err
}

func (c *GRPCClient) token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

func (c *GRPCClient) forget() {
	c.mu.Lock()
	c.sessionID, c.userID, c.role = "", "", ""
	c.mu.Unlock()
}

// mapError converts a call error to a common sentinel. A dead session is
// forgotten so the next prompt shows the user as logged out.
func (c *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	if status.Code(err) == codes.Unavailable && api.ErrorKind(err) == common.KindInternal {
		return fmt.Errorf("%w: %s", ErrUnavailable, c.endpointURL)
	}

	mapped := api.FromStatus(err)
	switch api.ErrorKind(err) {
	case common.KindUnauthenticated, common.KindExpired:
		c.forget()
	}
	return mapped
}

func (c *GRPCClient) requireSession() error {
	if c.token() == "" {
		return ErrNotLoggedIn
	}
	return nil
}

func (c *GRPCClient) LoggedIn() bool {
	return c.token() != ""
}

func (c *GRPCClient) Identity() (string, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID, c.role
}

// SessionID returns the current token, possibly a rolled one.
func (c *GRPCClient) SessionID() string {
	return c.token()
}

func (c *GRPCClient) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func (c *GRPCClient) Ping(ctx context.Context) error {
	_, err := c.client.Ping(ctx, &api.PingRequest{})
	return c.mapError(err)
}

func (c *GRPCClient) Login(ctx context.Context, userID, password string) (*api.LoginResponse, error) {
	resp, err := c.client.Login(ctx, &api.LoginRequest{UserID: userID, Password: password})
	if err != nil {
		return nil, c.mapError(err)
	}

	c.mu.Lock()
	c.sessionID, c.userID, c.role = resp.SessionID, resp.UserID, resp.Role
	c.mu.Unlock()
	return resp, nil
}

// Logout ends the session on the server and forgets it locally even when
// the server call fails.
func (c *GRPCClient) Logout(ctx context.Context) error {
	if err := c.requireSession(); err != nil {
		return err
	}
	_, err := c.client.Logout(ctx, &api.LogoutRequest{})
	c.forget()
	return c.mapError(err)
}

func (c *GRPCClient) WhoAmI(ctx context.Context) (*api.WhoAmIResponse, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	resp, err := c.client.WhoAmI(ctx, &api.WhoAmIRequest{})
	if err != nil {
		return nil, c.mapError(err)
	}
	return resp, nil
}

func (c *GRPCClient) ValidateSession(ctx context.Context, requiredRole string) (*api.ValidateSessionResponse, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	resp, err := c.client.ValidateSession(ctx, &api.ValidateSessionRequest{RequiredRole: requiredRole})
	if err != nil {
		return nil, c.mapError(err)
	}
	return resp, nil
}

func (c *GRPCClient) CreateUser(ctx context.Context, userID, password, role string) error {
	if err := c.requireSession(); err != nil {
		return err
	}
	_, err := c.client.CreateUser(ctx, &api.CreateUserRequest{UserID: userID, Password: password, Role: role})
	return c.mapError(err)
}

func (c *GRPCClient) DeleteUser(ctx context.Context, userID string) (bool, error) {
	if err := c.requireSession(); err != nil {
		return false, err
	}
	resp, err := c.client.DeleteUser(ctx, &api.DeleteUserRequest{UserID: userID})
	if err != nil {
		return false, c.mapError(err)
	}
	return resp.Deleted, nil
}

func (c *GRPCClient) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if err := c.requireSession(); err != nil {
		return err
	}
	_, err := c.client.ChangePassword(ctx, &api.ChangePasswordRequest{
		UserID:      userID,
		OldPassword: oldPassword,
		NewPassword: newPassword,
	})
	return c.mapError(err)
}

func (c *GRPCClient) LockUser(ctx context.Context, userID string) error {
	if err := c.requireSession(); err != nil {
		return err
	}
	_, err := c.client.LockUser(ctx, &api.LockUserRequest{UserID: userID})
	return c.mapError(err)
}

func (c *GRPCClient) UnlockUser(ctx context.Context, userID string) error {
	if err := c.requireSession(); err != nil {
		return err
	}
	_, err := c.client.UnlockUser(ctx, &api.UnlockUserRequest{UserID: userID})
	return c.mapError(err)
}

func (c *GRPCClient) ListUsers(ctx context.Context, req *api.ListUsersRequest) (*api.ListUsersResponse, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	resp, err := c.client.ListUsers(ctx, req)
	if err != nil {
		return nil, c.mapError(err)
	}
	return resp, nil
}

func (c *GRPCClient) ListLockedUsers(ctx context.Context) ([]api.User, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	resp, err := c.client.ListLockedUsers(ctx, &api.ListLockedUsersRequest{})
	if err != nil {
		return nil, c.mapError(err)
	}
	return resp.Users, nil
}

func (c *GRPCClient) CountLockedUsers(ctx context.Context) (int, error) {
	if err := c.requireSession(); err != nil {
		return 0, err
	}
	resp, err := c.client.CountLockedUsers(ctx, &api.CountLockedUsersRequest{})
	if err != nil {
		return 0, c.mapError(err)
	}
	return resp.Count, nil
}

func (c *GRPCClient) ListAuditLog(ctx context.Context, req *api.ListAuditLogRequest) (*api.ListAuditLogResponse, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	resp, err := c.client.ListAuditLog(ctx, req)
	if err != nil {
		return nil, c.mapError(err)
	}
	return resp, nil
}
