// Package users provides a PostgreSQL-backed repository for user identity
// records.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

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

const userColumns = `id, email, username, password_hash, google_id, created_at`

func scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	var googleID sql.NullString
	err := row.Scan(&user.ID, &user.Email, &user.Username, &user.PasswordHash, &googleID, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, wrapDBError(err)
	}
	if googleID.Valid {
		user.GoogleID = &googleID.String
	}
	return user, nil
}

// wrapDBError maps unique-constraint violations to common.ErrConflict and
// wraps everything else.
func wrapDBError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return common.ErrConflict
	}
	return fmt.Errorf("db error: %w", err)
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (email, username, password_hash, google_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	var googleID sql.NullString
	if user.GoogleID != nil {
		googleID = sql.NullString{String: *user.GoogleID, Valid: true}
	}
	err := r.db.QueryRowContext(ctx, query,
		user.Email, user.Username, user.PasswordHash, googleID).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return nil, wrapDBError(err)
	}
	return user, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) FindByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE google_id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, googleID))
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	result := make([]*models.User, 0)
	for rows.Next() {
		user := &models.User{}
		var googleID sql.NullString
		if err := rows.Scan(&user.ID, &user.Email, &user.Username, &user.PasswordHash, &googleID, &user.CreatedAt); err != nil {
			return nil, wrapDBError(err)
		}
		if googleID.Valid {
			user.GoogleID = &googleID.String
		}
		result = append(result, user)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBError(err)
	}
	return result, nil
}

func (r *PostgresRepository) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	query := `UPDATE users SET password_hash = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, hash)
	if err != nil {
		return wrapDBError(err)
	}
	return requireRow(res)
}

func (r *PostgresRepository) UpdateEmail(ctx context.Context, id int64, email string) (*models.User, error) {
	query := `UPDATE users SET email = $2 WHERE id = $1 RETURNING ` + userColumns
	return scanUser(r.db.QueryRowContext(ctx, query, id, email))
}

func (r *PostgresRepository) UpdateUsername(ctx context.Context, id int64, username string) (*models.User, error) {
	query := `UPDATE users SET username = $2 WHERE id = $1 RETURNING ` + userColumns
	return scanUser(r.db.QueryRowContext(ctx, query, id, username))
}

func (r *PostgresRepository) AttachGoogleID(ctx context.Context, id int64, googleID string) (*models.User, error) {
	query := `UPDATE users SET google_id = $2 WHERE id = $1 RETURNING ` + userColumns
	return scanUser(r.db.QueryRowContext(ctx, query, id, googleID))
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM users WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return wrapDBError(err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}
