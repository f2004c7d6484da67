package api

import "time"

type PingRequest struct{}

type PingResponse struct {
	Status string    `json:"status"`
	Time   time.Time `json:"time"`
}

type LoginRequest struct {
	UserID   string `json:"user_id"`
	Password string `json:"password"`
}

type LoginResponse struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LogoutRequest ends the session carried in metadata.
type LogoutRequest struct{}

type LogoutResponse struct{}

// ValidateSessionRequest checks the session carried in metadata. When
// RequiredRole is set the session must hold that role.
type ValidateSessionRequest struct {
	RequiredRole string `json:"required_role,omitempty"`
}

// ValidateSessionResponse describes the session after validation. When
// Rolled is set SessionID is the replacement token.
type ValidateSessionResponse struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
	Rolled    bool      `json:"rolled"`
}

type WhoAmIRequest struct{}

type WhoAmIResponse struct {
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

type CreateUserRequest struct {
	UserID   string `json:"user_id"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type CreateUserResponse struct{}

type DeleteUserRequest struct {
	UserID string `json:"user_id"`
}

type DeleteUserResponse struct {
	Deleted bool `json:"deleted"`
}

// ChangePasswordRequest changes the password of UserID; an empty UserID
// means the caller's own account.
type ChangePasswordRequest struct {
	UserID      string `json:"user_id,omitempty"`
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type ChangePasswordResponse struct{}

type LockUserRequest struct {
	UserID string `json:"user_id"`
}

type LockUserResponse struct{}

type UnlockUserRequest struct {
	UserID string `json:"user_id"`
}

type UnlockUserResponse struct{}

type User struct {
	ID             string    `json:"id"`
	Role           string    `json:"role"`
	IsLocked       bool      `json:"is_locked"`
	FailedAttempts int       `json:"failed_attempts"`
	CreatedAt      time.Time `json:"created_at"`
}

type ListUsersRequest struct {
	Page       int    `json:"page"`
	PerPage    int    `json:"per_page"`
	IDContains string `json:"id_contains,omitempty"`
	Locked     *bool  `json:"locked,omitempty"`
	Role       string `json:"role,omitempty"`
}

type ListUsersResponse struct {
	Users []User `json:"users"`
	Total int    `json:"total"`
}

type ListLockedUsersRequest struct{}

type ListLockedUsersResponse struct {
	Users []User `json:"users"`
}

type CountLockedUsersRequest struct{}

type CountLockedUsersResponse struct {
	Count int `json:"count"`
}

type AuditEntry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Action    string    `json:"action"`
	Success   bool      `json:"success"`
	ErrorCode string    `json:"error_code,omitempty"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type ListAuditLogRequest struct {
	Page         int        `json:"page"`
	PerPage      int        `json:"per_page"`
	UserContains string     `json:"user_contains,omitempty"`
	Action       string     `json:"action,omitempty"`
	Success      *bool      `json:"success,omitempty"`
	From         *time.Time `json:"from,omitempty"`
	To           *time.Time `json:"to,omitempty"`
}

type ListAuditLogResponse struct {
	Entries []AuditEntry `json:"entries"`
	Total   int          `json:"total"`
}
