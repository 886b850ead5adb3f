package repomanager

import (
	"context"
	"database/sql"

	"github.com/avramov/authgate/internal/dbx"
	"github.com/avramov/authgate/internal/server/repositories/actiontokens"
	"github.com/avramov/authgate/internal/server/repositories/sessions"
	"github.com/avramov/authgate/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so services can run
// the same repository code against the pooled connection or inside a
// transaction handle.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Sessions(db dbx.DBTX) sessions.Repository
	ActionTokens(db dbx.DBTX) actiontokens.Repository
}
