package userrepo

import (
	"context"

	"github.com/tripsync/tripsync-api/internal/domain"
)

// Repository provides access to persisted users.
//
// Update writes the full record; callers apply field-level patches before saving.
// List returns users ordered by CreatedAt ascending, then ID.
type Repository interface {
	Create(ctx context.Context, u domain.User) error
	Update(ctx context.Context, u domain.User) error
	Delete(ctx context.Context, id domain.UserID) error

	GetByID(ctx context.Context, id domain.UserID) (domain.User, error)
	// GetByEmail matches the whole address case-insensitively.
	GetByEmail(ctx context.Context, email string) (domain.User, error)

	List(ctx context.Context) ([]domain.User, error)
	Count(ctx context.Context) (int, error)
}
