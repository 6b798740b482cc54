// Package revokedtokens provides a PostgreSQL-backed append-only revocation
// ledger for token ids.
package revokedtokens

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

// Create appends a ledger entry for jti. Inserts are commutative; concurrent
// revocations of the same id never conflict.
func (r *PostgresRepository) Create(ctx context.Context, jti string) (*models.RevokedToken, error) {
	query := `
		INSERT INTO revoked_tokens (jti)
		VALUES ($1)
		RETURNING id, created_at
	`
	token := &models.RevokedToken{JTI: jti}
	if err := r.db.QueryRowContext(ctx, query, jti).Scan(&token.ID, &token.CreatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return token, nil
}

// FindByJTI returns the earliest ledger entry for jti, or common.ErrNotFound.
func (r *PostgresRepository) FindByJTI(ctx context.Context, jti string) (*models.RevokedToken, error) {
	query := `
		SELECT id, jti, created_at
		FROM revoked_tokens
		WHERE jti = $1
		ORDER BY id
		LIMIT 1
	`
	token := &models.RevokedToken{}
	if err := r.db.QueryRowContext(ctx, query, jti).Scan(&token.ID, &token.JTI, &token.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return token, nil
}
