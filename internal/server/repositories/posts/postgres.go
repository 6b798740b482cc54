// Package posts provides a PostgreSQL-backed repository for posts and their
// like/favorite relations.
package posts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dpavlovs/artfeed/internal/common"
	"github.com/dpavlovs/artfeed/internal/dbx"
	"github.com/dpavlovs/artfeed/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const postColumns = `id, author_id, content_url, description, like_count, comment_count, created_at`

func (r *PostgresRepository) Create(ctx context.Context, post *models.Post) (*models.Post, error) {
	query := `
		INSERT INTO posts (author_id, content_url, description)
		VALUES ($1, $2, $3)
		RETURNING id, like_count, comment_count, created_at
	`
	err := r.db.QueryRowContext(ctx, query, post.AuthorID, post.ContentURL, post.Description).
		Scan(&post.ID, &post.LikeCount, &post.CommentCount, &post.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return post, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id int64) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`
	post := &models.Post{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&post.ID, &post.AuthorID, &post.ContentURL, &post.Description,
		&post.LikeCount, &post.CommentCount, &post.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return post, nil
}

func (r *PostgresRepository) ListByAuthor(ctx context.Context, authorID int64) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE author_id = $1 ORDER BY created_at`
	return r.queryPosts(ctx, query, authorID)
}

func (r *PostgresRepository) ListLikedBy(ctx context.Context, userID int64) ([]*models.Post, error) {
	query := `
		SELECT p.id, p.author_id, p.content_url, p.description, p.like_count, p.comment_count, p.created_at
		FROM posts p
		JOIN likes l ON l.post_id = p.id
		WHERE l.user_id = $1
		ORDER BY p.created_at
	`
	return r.queryPosts(ctx, query, userID)
}

func (r *PostgresRepository) ListFavoritedBy(ctx context.Context, userID int64) ([]*models.Post, error) {
	query := `
		SELECT p.id, p.author_id, p.content_url, p.description, p.like_count, p.comment_count, p.created_at
		FROM posts p
		JOIN favorites f ON f.post_id = p.id
		WHERE f.user_id = $1
		ORDER BY p.created_at
	`
	return r.queryPosts(ctx, query, userID)
}

func (r *PostgresRepository) queryPosts(ctx context.Context, query string, args ...any) ([]*models.Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Post, 0)
	for rows.Next() {
		post := &models.Post{}
		if err := rows.Scan(&post.ID, &post.AuthorID, &post.ContentURL, &post.Description,
			&post.LikeCount, &post.CommentCount, &post.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// DecrementLikeCountsForUser repairs like counters on every post the user has
// liked. Must run before DeleteLikesByUser.
func (r *PostgresRepository) DecrementLikeCountsForUser(ctx context.Context, userID int64) error {
	query := `
		UPDATE posts
		SET like_count = like_count - 1
		WHERE id IN (SELECT post_id FROM likes WHERE user_id = $1)
	`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// DecrementCommentCountsForUser repairs comment counters on every post the
// user has commented on, one decrement per comment. Must run before the
// user's comments are deleted.
func (r *PostgresRepository) DecrementCommentCountsForUser(ctx context.Context, userID int64) error {
	query := `
		UPDATE posts p
		SET comment_count = p.comment_count - sub.n
		FROM (
			SELECT post_id, COUNT(*) AS n
			FROM comments
			WHERE author_id = $1
			GROUP BY post_id
		) sub
		WHERE p.id = sub.post_id
	`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeleteLikesByUser(ctx context.Context, userID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM likes WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeleteFavoritesByUser(ctx context.Context, userID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM favorites WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// DeleteByAuthor removes the user's own posts; likes, favorites, and comments
// on those posts go with them via foreign-key cascade.
func (r *PostgresRepository) DeleteByAuthor(ctx context.Context, authorID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE author_id = $1`, authorID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
