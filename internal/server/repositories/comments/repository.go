package comments

import (
	"context"

	"github.com/dpavlovs/artfeed/internal/server/models"
)

// Repository persists comments. DeleteByAuthor exists for the
// account-deletion cascade and runs after the affected posts' comment
// counters have been repaired.
type Repository interface {
	Create(ctx context.Context, comment *models.Comment) (*models.Comment, error)
	ListByAuthor(ctx context.Context, authorID int64) ([]*models.Comment, error)
	DeleteByAuthor(ctx context.Context, authorID int64) error
}
