package grpc

import (
	"context"

	"github.com/dmitrijs2005/authkeeper/internal/api"
	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

func toAPIUser(u *models.User) api.User {
	return api.User{
		ID:             u.ID,
		Role:           string(u.Role),
		IsLocked:       u.IsLocked,
		FailedAttempts: u.FailedAttempts,
		CreatedAt:      u.CreatedAt,
	}
}

func toAPIUsers(list []*models.User) []api.User {
	out := make([]api.User, 0, len(list))
	for _, u := range list {
		out = append(out, toAPIUser(u))
	}
	return out
}

// actor returns the validated session of the call. The session interceptor
// guarantees one for every non-public method.
func actor(ctx context.Context) (*models.Session, error) {
	v, ok := sessionFromContext(ctx)
	if !ok {
		return nil, toStatus(common.ErrUnauthenticated)
	}
	return v.Session, nil
}

func (s *GRPCServer) Ping(ctx context.Context, req *api.PingRequest) (*api.PingResponse, error) {
	return &api.PingResponse{Status: "OK", Time: s.now().UTC()}, nil
}

func (s *GRPCServer) Login(ctx context.Context, req *api.LoginRequest) (*api.LoginResponse, error) {
	u, err := s.users.Authenticate(ctx, req.UserID, req.Password)
	if err != nil {
		return nil, toStatus(err)
	}

	sess, err := s.sessions.Issue(ctx, u.ID, u.Role)
	if err != nil {
		s.logger.Error(ctx, "issue session failed", "user_id", u.ID, "error", err)
		return nil, toStatus(err)
	}

	s.logger.Info(ctx, "Logged in", "user_id", u.ID, "role", string(u.Role))
	return &api.LoginResponse{
		SessionID: sess.ID,
		UserID:    sess.UserID,
		Role:      string(sess.Role),
		ExpiresAt: sess.ExpiresAt,
	}, nil
}

func (s *GRPCServer) Logout(ctx context.Context, req *api.LogoutRequest) (*api.LogoutResponse, error) {
	if err := s.sessions.Revoke(ctx, sessionToken(ctx)); err != nil {
		return nil, toStatus(err)
	}
	return &api.LogoutResponse{}, nil
}

func (s *GRPCServer) ValidateSession(ctx context.Context, req *api.ValidateSessionRequest) (*api.ValidateSessionResponse, error) {
	v, ok := sessionFromContext(ctx)
	if !ok {
		return nil, toStatus(common.ErrUnauthenticated)
	}

	if req.RequiredRole != "" {
		role, err := models.ParseRole(req.RequiredRole)
		if err != nil {
			return nil, toStatus(err)
		}
		if v.Session.Role != role {
			return nil, toStatus(common.ErrForbidden)
		}
	}

	return &api.ValidateSessionResponse{
		SessionID: v.Session.ID,
		UserID:    v.Session.UserID,
		Role:      string(v.Session.Role),
		ExpiresAt: v.Session.ExpiresAt,
		Rolled:    v.Rolled,
	}, nil
}

func (s *GRPCServer) WhoAmI(ctx context.Context, req *api.WhoAmIRequest) (*api.WhoAmIResponse, error) {
	sess, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	return &api.WhoAmIResponse{UserID: sess.UserID, Role: string(sess.Role), ExpiresAt: sess.ExpiresAt}, nil
}

func (s *GRPCServer) CreateUser(ctx context.Context, req *api.CreateUserRequest) (*api.CreateUserResponse, error) {
	sess, err := actor(ctx)
	if err != nil {
		return nil, err
	}

	role, err := models.ParseRole(req.Role)
	if err != nil {
		return nil, toStatus(err)
	}

	if err := s.users.Create(ctx, sess.UserID, req.UserID, req.Password, role); err != nil {
		return nil, toStatus(err)
	}
	s.logger.Info(ctx, "User created", "user_id", req.UserID, "by", sess.UserID)
	return &api.CreateUserResponse{}, nil
}

func (s *GRPCServer) DeleteUser(ctx context.Context, req *api.DeleteUserRequest) (*api.DeleteUserResponse, error) {
	sess, err := actor(ctx)
	if err != nil {
		return nil, err
	}

	deleted, err := s.users.Delete(ctx, sess.UserID, req.UserID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &api.DeleteUserResponse{Deleted: deleted}, nil
}

// ChangePassword lets any user change their own password; changing someone
// else's requires the admin role.
func (s *GRPCServer) ChangePassword(ctx context.Context, req *api.ChangePasswordRequest) (*api.ChangePasswordResponse, error) {
	sess, err := actor(ctx)
	if err != nil {
		return nil, err
	}

	target := req.UserID
	if target == "" {
		target = sess.UserID
	}
	if target != sess.UserID && sess.Role != models.RoleAdmin {
		return nil, toStatus(common.ErrForbidden)
	}

	if err := s.users.ChangePassword(ctx, sess.UserID, target, req.OldPassword, req.NewPassword); err != nil {
		return nil, toStatus(err)
	}
	return &api.ChangePasswordResponse{}, nil
}

func (s *GRPCServer) LockUser(ctx context.Context, req *api.LockUserRequest) (*api.LockUserResponse, error) {
	sess, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.users.Lock(ctx, sess.UserID, req.UserID); err != nil {
		return nil, toStatus(err)
	}
	return &api.LockUserResponse{}, nil
}

func (s *GRPCServer) UnlockUser(ctx context.Context, req *api.UnlockUserRequest) (*api.UnlockUserResponse, error) {
	sess, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.users.Unlock(ctx, sess.UserID, req.UserID); err != nil {
		return nil, toStatus(err)
	}
	return &api.UnlockUserResponse{}, nil
}

func (s *GRPCServer) ListUsers(ctx context.Context, req *api.ListUsersRequest) (*api.ListUsersResponse, error) {
	f := models.UserFilter{
		Page:       req.Page,
		PerPage:    req.PerPage,
		IDContains: req.IDContains,
		IsLocked:   req.Locked,
		Role:       models.Role(req.Role),
	}
	list, total, err := s.users.List(ctx, f)
	if err != nil {
		return nil, toStatus(err)
	}
	return &api.ListUsersResponse{Users: toAPIUsers(list), Total: total}, nil
}

func (s *GRPCServer) ListLockedUsers(ctx context.Context, req *api.ListLockedUsersRequest) (*api.ListLockedUsersResponse, error) {
	list, err := s.users.ListLocked(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &api.ListLockedUsersResponse{Users: toAPIUsers(list)}, nil
}

func (s *GRPCServer) CountLockedUsers(ctx context.Context, req *api.CountLockedUsersRequest) (*api.CountLockedUsersResponse, error) {
	n, err := s.users.CountLocked(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &api.CountLockedUsersResponse{Count: n}, nil
}

func (s *GRPCServer) ListAuditLog(ctx context.Context, req *api.ListAuditLogRequest) (*api.ListAuditLogResponse, error) {
	f := models.AuditFilter{
		UserContains: req.UserContains,
		Action:       req.Action,
		Success:      req.Success,
		From:         req.From,
		To:           req.To,
		Page:         req.Page,
		PerPage:      req.PerPage,
	}
	list, total, err := s.audit.List(ctx, f)
	if err != nil {
		return nil, toStatus(err)
	}

	out := make([]api.AuditEntry, 0, len(list))
	for _, e := range list {
		out = append(out, api.AuditEntry{
			ID:        e.ID,
			UserID:    e.UserID,
			Action:    e.Action,
			Success:   e.Success,
			ErrorCode: e.ErrorCode,
			Details:   e.Details,
			Timestamp: e.Timestamp,
		})
	}
	return &api.ListAuditLogResponse{Entries: out, Total: total}, nil
}
