package repomanager

import (
	"context"
	"database/sql"

	"github.com/bloomdrive/bloomdrive/internal/dbx"
	"github.com/bloomdrive/bloomdrive/internal/server/migrations"
	"github.com/bloomdrive/bloomdrive/internal/server/repositories/files"
	"github.com/bloomdrive/bloomdrive/internal/server/repositories/otptokens"
	"github.com/bloomdrive/bloomdrive/internal/server/repositories/sessions"
	"github.com/bloomdrive/bloomdrive/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

type PostgresRepositoryManager struct {
}

func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Files(db dbx.DBTX) files.Repository {
	return files.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Sessions(db dbx.DBTX) sessions.Repository {
	return sessions.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) OTPTokens(db dbx.DBTX) otptokens.Repository {
	return otptokens.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return err
	}

	return nil
}
