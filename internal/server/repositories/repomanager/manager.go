package repomanager

import (
	"context"
	"database/sql"

	"github.com/dpavlovs/artfeed/internal/dbx"
	"github.com/dpavlovs/artfeed/internal/server/repositories/comments"
	"github.com/dpavlovs/artfeed/internal/server/repositories/posts"
	"github.com/dpavlovs/artfeed/internal/server/repositories/revokedtokens"
	"github.com/dpavlovs/artfeed/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so a service can run
// a group of repository calls over *sql.DB or inside a shared *sql.Tx.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RevokedTokens(db dbx.DBTX) revokedtokens.Repository
	Posts(db dbx.DBTX) posts.Repository
	Comments(db dbx.DBTX) comments.Repository
}
