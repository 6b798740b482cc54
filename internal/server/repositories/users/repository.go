package users

import (
	"context"

	"github.com/dpavlovs/artfeed/internal/server/models"
)

// Repository persists User rows. Lookups that miss return common.ErrNotFound;
// writes that violate a uniqueness constraint (email, username, google_id)
// return common.ErrConflict — uniqueness is enforced by the store, never
// pre-checked.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByGoogleID(ctx context.Context, googleID string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	UpdatePasswordHash(ctx context.Context, id int64, hash string) error
	UpdateEmail(ctx context.Context, id int64, email string) (*models.User, error)
	UpdateUsername(ctx context.Context, id int64, username string) (*models.User, error)
	AttachGoogleID(ctx context.Context, id int64, googleID string) (*models.User, error)
	Delete(ctx context.Context, id int64) error
}
