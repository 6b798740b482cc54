package revokedtokens

import (
	"context"

	"github.com/dpavlovs/artfeed/internal/server/models"
)

// Repository is the revocation ledger. Entries are append-only: they are
// never updated or deleted, and revoking the same jti twice just appends
// another row. FindByJTI misses return common.ErrNotFound.
type Repository interface {
	Create(ctx context.Context, jti string) (*models.RevokedToken, error)
	FindByJTI(ctx context.Context, jti string) (*models.RevokedToken, error)
}
