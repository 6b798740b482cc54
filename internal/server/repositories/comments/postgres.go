// Package comments provides a PostgreSQL-backed repository for post comments.
package comments

import (
	"context"
	"fmt"

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

func (r *PostgresRepository) Create(ctx context.Context, comment *models.Comment) (*models.Comment, error) {
	query := `
		INSERT INTO comments (post_id, author_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query, comment.PostID, comment.AuthorID, comment.Content).
		Scan(&comment.ID, &comment.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return comment, nil
}

func (r *PostgresRepository) ListByAuthor(ctx context.Context, authorID int64) ([]*models.Comment, error) {
	query := `
		SELECT id, post_id, author_id, content, created_at
		FROM comments
		WHERE author_id = $1
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, authorID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Comment, 0)
	for rows.Next() {
		comment := &models.Comment{}
		if err := rows.Scan(&comment.ID, &comment.PostID, &comment.AuthorID, &comment.Content, &comment.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) DeleteByAuthor(ctx context.Context, authorID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE author_id = $1`, authorID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
