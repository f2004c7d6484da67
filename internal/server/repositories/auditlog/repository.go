// Package auditlog stores the append-only audit trail.
package auditlog

import (
	"context"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

type Repository interface {
	// Append generates ID and Timestamp when they are unset.
	Append(ctx context.Context, e *models.AuditEntry) error
	// List returns one page, newest first, and the total number of matches.
	List(ctx context.Context, f models.AuditFilter) ([]*models.AuditEntry, int, error)
	// ListBefore returns all entries older than cutoff, oldest first.
	ListBefore(ctx context.Context, cutoff time.Time) ([]*models.AuditEntry, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
