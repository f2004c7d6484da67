// Package sessions declares the server-side repository contract for opaque
// login sessions and its PostgreSQL implementation.
package sessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// Repository stores sessions. FindForUpdate locks the row and must run
// inside a transaction.
type Repository interface {
	Create(ctx context.Context, s *models.Session) error

	// FindForUpdate returns common.ErrorNotFound when the session is absent.
	FindForUpdate(ctx context.Context, id string) (*models.Session, error)

	// Supersede marks id as replaced by replacedBy and moves its expiry.
	Supersede(ctx context.Context, id, replacedBy string, expiresAt time.Time) error

	// Delete removes a session. Deleting a non-existent session is not an error.
	Delete(ctx context.Context, id string) error

	// DeleteReplaced removes sessions superseded by replacedBy.
	DeleteReplaced(ctx context.Context, replacedBy string) (int64, error)

	DeleteByUser(ctx context.Context, userID string) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
