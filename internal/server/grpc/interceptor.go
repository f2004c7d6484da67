package grpc

import (
	"context"
	"net"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/authkeeper/internal/api"
	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"
)

type ctxKey string

const (
	sessionKey   ctxKey = "session"
	requestIDKey ctxKey = "requestID"
)

// RequestIDHeader is the response header carrying the server request id.
const RequestIDHeader = "x-request-id"

type access int

const (
	accessAdmin access = iota
	accessPublic
	accessAuthenticated
)

var methodAccess = map[string]access{
	api.MethodPing:            accessPublic,
	api.MethodLogin:           accessPublic,
	api.MethodLogout:          accessPublic,
	api.MethodValidateSession: accessAuthenticated,
	api.MethodWhoAmI:          accessAuthenticated,
	api.MethodChangePassword:  accessAuthenticated,
}

// accessFor defaults to admin so that new methods are closed until listed.
func accessFor(method string) access {
	if a, ok := methodAccess[method]; ok {
		return a
	}
	return accessAdmin
}

func peerKey(ctx context.Context) string {
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return "unknown"
	}
	addr := p.Addr.String()
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

func sessionToken(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(common.SessionHeaderName); len(values) > 0 {
			return values[0]
		}
	}
	return ""
}

func sessionFromContext(ctx context.Context) (*services.Validation, bool) {
	v, ok := ctx.Value(sessionKey).(*services.Validation)
	return v, ok && v != nil
}

func (s *GRPCServer) rateLimitInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if s.limiter == nil {
		return handler(ctx, req)
	}

	key := peerKey(ctx)
	if !s.limiter.Allow(key) {
		s.rejectLog.Do(func() {
			s.logger.Warn(ctx, "rate limit exceeded", "peer", key, "method", info.FullMethod)
		})
		return nil, toStatus(common.ErrRateLimited)
	}
	return handler(ctx, req)
}

func (s *GRPCServer) loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	id := uuid.NewString()
	ctx = context.WithValue(ctx, requestIDKey, id)
	_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDHeader, id))

	start := time.Now()
	resp, err := handler(ctx, req)
	code := status.Code(err)

	args := []any{
		"request_id", id,
		"method", info.FullMethod,
		"peer", peerKey(ctx),
		"code", code.String(),
		"duration", time.Since(start).String(),
	}
	switch code {
	case codes.Internal, codes.Unavailable, codes.Unknown:
		s.logger.Error(ctx, "request failed", append(args, "error", err)...)
	default:
		s.logger.Info(ctx, "request", args...)
	}
	return resp, err
}

// sessionInterceptor enforces the access level of the method. A rolled
// session is announced to the client in the session_id response header.
func (s *GRPCServer) sessionInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	level := accessFor(info.FullMethod)
	if level == accessPublic {
		return handler(ctx, req)
	}

	var required models.Role
	if level == accessAdmin {
		required = models.RoleAdmin
	}

	v, err := s.sessions.Validate(ctx, sessionToken(ctx), required)
	if err != nil {
		return nil, toStatus(err)
	}
	if v.Rolled {
		if err := grpc.SetHeader(ctx, metadata.Pairs(common.SessionHeaderName, v.Session.ID)); err != nil {
			s.logger.Warn(ctx, "could not announce rolled session", "error", err)
		}
	}

	ctx = context.WithValue(ctx, sessionKey, v)
	return handler(ctx, req)
}
