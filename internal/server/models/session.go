package models

import "time"

// Session is an opaque server-side login. Role is a snapshot taken at issue
// time. ReplacedBy is set once the session has been rolled over; such a
// session is only kept alive for a short grace period.
type Session struct {
	ID         string
	UserID     string
	Role       Role
	ExpiresAt  time.Time
	CreatedAt  time.Time
	ReplacedBy string
}

// Expired reports whether s is dead at now. A session is still valid at
// the instant ExpiresAt itself.
func (s *Session) Expired(now time.Time) bool {
	return s.ExpiresAt.Before(now)
}
