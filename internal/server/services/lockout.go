package services

import (
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// LockoutPolicy holds the failed-login rules. It only mutates the user value
// it is given; persisting the result is the caller's job.
type LockoutPolicy struct {
	// Window is the span within which consecutive failures accumulate.
	Window time.Duration
	// MaxFailures locks the account when reached. Zero disables locking.
	MaxFailures int
	// RehashThreshold is the number of successful logins between rehashes.
	// Zero disables counter-driven rehashing.
	RehashThreshold int
	// RootID is exempt from password-mismatch lockout.
	RootID string
}

// Exempt reports whether failures for userID are not tracked.
func (p LockoutPolicy) Exempt(userID string) bool {
	return p.RootID != "" && userID == p.RootID
}

// RegisterFailure applies a password mismatch at now and reports whether
// this failure locked the account.
func (p LockoutPolicy) RegisterFailure(u *models.User, now time.Time) bool {
	if p.Exempt(u.ID) {
		return false
	}

	locked := false
	if u.LastFailedLogin != nil && now.Sub(*u.LastFailedLogin) < p.Window {
		u.FailedAttempts++
		if p.MaxFailures > 0 && u.FailedAttempts >= p.MaxFailures && !u.IsLocked {
			u.IsLocked = true
			locked = true
		}
	} else {
		u.FailedAttempts = 1
	}

	t := now
	u.LastFailedLogin = &t
	return locked
}

// RegisterSuccess applies a successful login and reports whether the stored
// hash is due for a refresh. The rehash counter restarts when it is.
func (p LockoutPolicy) RegisterSuccess(u *models.User) bool {
	u.FailedAttempts = 0
	u.LoginsBeforeRehash++
	if p.RehashThreshold > 0 && u.LoginsBeforeRehash >= p.RehashThreshold {
		u.LoginsBeforeRehash = 0
		return true
	}
	return false
}
