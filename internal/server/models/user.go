package models

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
)

// Role is the authorization level attached to a user and copied into each
// of their sessions.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole accepts only the known roles.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleUser, RoleAdmin:
		return r, nil
	default:
		return "", fmt.Errorf("%w: %q", common.ErrInvalidRole, s)
	}
}

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User is a stored credential record together with its lockout state.
// A locked user cannot log in whatever password is presented.
type User struct {
	ID                 string     `db:"id"`
	PasswordHash       string     `db:"password_hash"`
	Salt               string     `db:"salt"`
	Role               Role       `db:"role"`
	LoginsBeforeRehash int        `db:"logins_before_rehash"`
	FailedAttempts     int        `db:"failed_attempts"`
	LastFailedLogin    *time.Time `db:"last_failed_login"`
	IsLocked           bool       `db:"is_locked"`
	CreatedAt          time.Time  `db:"created_at"`
}

// UserFilter narrows a paginated user listing. Page is 1-based.
type UserFilter struct {
	Page       int
	PerPage    int
	IDContains string
	IsLocked   *bool
	Role       Role
}
