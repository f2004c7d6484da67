// Package users declares the credential store contract and its PostgreSQL
// implementation.
package users

import (
	"context"

	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// Repository persists user records. GetForUpdate must be called inside a
// transaction; it locks the row until commit so that concurrent logins for
// the same user serialize.
type Repository interface {
	// Create inserts user. An existing id yields common.ErrConflict and leaves
	// the stored record untouched.
	Create(ctx context.Context, user *models.User) error
	Get(ctx context.Context, id string) (*models.User, error)
	GetForUpdate(ctx context.Context, id string) (*models.User, error)
	// Update writes every mutable field of user.
	Update(ctx context.Context, user *models.User) error
	// Delete reports whether a row was removed.
	Delete(ctx context.Context, id string) (bool, error)
	// List returns one page ordered by id and the total number of matches.
	List(ctx context.Context, filter models.UserFilter) ([]*models.User, int, error)
	ListLocked(ctx context.Context) ([]*models.User, error)
	CountLocked(ctx context.Context) (int, error)
}
