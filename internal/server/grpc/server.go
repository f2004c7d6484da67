// Package grpc exposes the AuthKeeper services over gRPC: request
// handlers, the interceptor chain (rate limiting, request logging, session
// policy) and the mapping of domain errors to gRPC statuses.
package grpc

import (
	"context"
	"net"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/grpc"

	"github.com/dmitrijs2005/authkeeper/internal/api"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"
)

// UserService is the part of services.UserService used by the handlers.
type UserService interface {
	Authenticate(ctx context.Context, id, password string) (*models.User, error)
	Create(ctx context.Context, actor, id, password string, role models.Role) error
	Delete(ctx context.Context, actor, id string) (bool, error)
	ChangePassword(ctx context.Context, actor, id, oldPassword, newPassword string) error
	Lock(ctx context.Context, actor, id string) error
	Unlock(ctx context.Context, actor, id string) error
	List(ctx context.Context, f models.UserFilter) ([]*models.User, int, error)
	ListLocked(ctx context.Context) ([]*models.User, error)
	CountLocked(ctx context.Context) (int, error)
}

type SessionService interface {
	Issue(ctx context.Context, userID string, role models.Role) (*models.Session, error)
	Validate(ctx context.Context, sessionID string, required models.Role) (*services.Validation, error)
	Revoke(ctx context.Context, sessionID string) error
}

type AuditService interface {
	List(ctx context.Context, f models.AuditFilter) ([]*models.AuditEntry, int, error)
}

// RateLimiter decides whether a client key may make another request.
type RateLimiter interface {
	Allow(key string) bool
}

type GRPCServer struct {
	api.UnimplementedAuthKeeperServer
	address  string
	users    UserService
	sessions SessionService
	audit    AuditService
	limiter  RateLimiter
	logger   logging.Logger
	now      func() time.Time

	// rejections are logged a few times, then at most every 10s
	rejectLog *rate.Sometimes
}

// NewGRPCServer builds the server. limiter may be nil to disable rate
// limiting.
func NewGRPCServer(a string, l logging.Logger, us UserService, ss SessionService, as AuditService, rl RateLimiter) *GRPCServer {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		users:     us,
		sessions:  ss,
		audit:     as,
		limiter:   rl,
		now:       time.Now,
		rejectLog: &rate.Sometimes{First: 5, Interval: 10 * time.Second},
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		s.rateLimitInterceptor,
		s.loggingInterceptor,
		s.sessionInterceptor,
	))
	api.RegisterAuthKeeperServer(srv, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is done, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}
