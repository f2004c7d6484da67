package models

import "time"

// Audit actions.
const (
	ActionLogin          = "login"
	ActionLogout         = "logout"
	ActionCreateUser     = "create_user"
	ActionDeleteUser     = "delete_user"
	ActionChangePassword = "change_password"
	ActionLockUser       = "lock_user"
	ActionUnlockUser     = "unlock_user"
	ActionAutoLock       = "auto_lock"
	ActionBootstrapRoot  = "bootstrap_root"
)

// AuditEntry is one append-only record of a security relevant action.
// UserID is the actor; the subject, if different, goes into Details.
type AuditEntry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Action    string    `json:"action"`
	Success   bool      `json:"success"`
	ErrorCode string    `json:"error_code,omitempty"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// AuditFilter narrows an audit listing. Page is 1-based; results are newest
// first.
type AuditFilter struct {
	UserContains string
	Action       string
	Success      *bool
	From         *time.Time
	To           *time.Time
	Page         int
	PerPage      int
}
