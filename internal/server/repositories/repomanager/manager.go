package repomanager

import (
	"context"
	"database/sql"

	"github.com/bloomdrive/bloomdrive/internal/dbx"
	"github.com/bloomdrive/bloomdrive/internal/server/repositories/files"
	"github.com/bloomdrive/bloomdrive/internal/server/repositories/otptokens"
	"github.com/bloomdrive/bloomdrive/internal/server/repositories/sessions"
	"github.com/bloomdrive/bloomdrive/internal/server/repositories/users"
)

// RepositoryManager hands out repositories bound to a specific handle, so
// services can run the same repository code inside or outside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Files(db dbx.DBTX) files.Repository
	Sessions(db dbx.DBTX) sessions.Repository
	OTPTokens(db dbx.DBTX) otptokens.Repository
}
