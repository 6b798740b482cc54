package posts

import (
	"context"

	"github.com/dpavlovs/artfeed/internal/server/models"
)

// Repository persists posts and the like/favorite join rows that back their
// denormalized counters. The Decrement*/Delete* methods exist for the
// account-deletion cascade: counter repairs on surviving posts must run
// before the dying user's rows are removed.
type Repository interface {
	Create(ctx context.Context, post *models.Post) (*models.Post, error)
	FindByID(ctx context.Context, id int64) (*models.Post, error)
	ListByAuthor(ctx context.Context, authorID int64) ([]*models.Post, error)
	ListLikedBy(ctx context.Context, userID int64) ([]*models.Post, error)
	ListFavoritedBy(ctx context.Context, userID int64) ([]*models.Post, error)

	DecrementLikeCountsForUser(ctx context.Context, userID int64) error
	DecrementCommentCountsForUser(ctx context.Context, userID int64) error
	DeleteLikesByUser(ctx context.Context, userID int64) error
	DeleteFavoritesByUser(ctx context.Context, userID int64) error
	DeleteByAuthor(ctx context.Context, authorID int64) error
}
