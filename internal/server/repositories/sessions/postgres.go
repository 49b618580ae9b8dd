// Package sessions provides the PostgreSQL-backed session store used by the
// authentication flow. A session row existing and being unexpired is what
// makes a presented cookie valid; logout deletes rows.
package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bloomdrive/bloomdrive/internal/common"
	"github.com/bloomdrive/bloomdrive/internal/dbx"
	"github.com/bloomdrive/bloomdrive/internal/server/models"
)

// PostgresRepository implements CRUD operations for sessions over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new session with an expiry time of now+validity.
func (r *PostgresRepository) Create(ctx context.Context, id string, accountID string, validity time.Duration) error {
	query := `
		INSERT INTO sessions (id, account_id, expires_at)
		VALUES ($1, $2, $3)
	`
	if _, err := r.db.ExecContext(ctx, query, id, accountID, time.Now().Add(validity)); err != nil {
		return fmt.Errorf("error performing sql request: %v", err)
	}
	return nil
}

// Find returns the session row for the given id.
// If not found, it returns common.ErrorNotFound.
func (r *PostgresRepository) Find(ctx context.Context, id string) (*models.Session, error) {
	query := `
		SELECT id, account_id, created_at, expires_at
		FROM sessions
		WHERE id = $1
	`
	session := &models.Session{}
	if err := r.db.QueryRowContext(ctx, query, id).Scan(
		&session.ID, &session.AccountID, &session.CreatedAt, &session.Expires); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return session, nil
}

// Delete removes a session by id.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `
		DELETE FROM sessions
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// DeleteForAccount removes every session belonging to the account.
func (r *PostgresRepository) DeleteForAccount(ctx context.Context, accountID string) error {
	query := `
		DELETE FROM sessions
		WHERE account_id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, accountID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
