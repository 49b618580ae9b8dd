// Package otptokens provides a PostgreSQL-backed repository for pending
// email one-time-passcode challenges.
package otptokens

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

// PostgresRepository implements OTP challenge storage over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Replace upserts the pending challenge for accountID.
func (r *PostgresRepository) Replace(ctx context.Context, accountID string, email string, codeHash []byte, validity time.Duration) error {
	query := `
		INSERT INTO otp_tokens (account_id, email, code_hash, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (account_id)
		DO UPDATE SET
			email = EXCLUDED.email,
			code_hash = EXCLUDED.code_hash,
			expires_at = EXCLUDED.expires_at,
			created_at = now()
	`
	if _, err := r.db.ExecContext(ctx, query, accountID, email, codeHash, time.Now().Add(validity)); err != nil {
		return fmt.Errorf("error performing sql request: %v", err)
	}
	return nil
}

// Find returns the pending challenge for accountID.
// If not found, it returns common.ErrorNotFound.
func (r *PostgresRepository) Find(ctx context.Context, accountID string) (*models.OTPToken, error) {
	query := `
		SELECT account_id, email, code_hash, expires_at, created_at
		FROM otp_tokens
		WHERE account_id = $1
	`
	token := &models.OTPToken{}
	if err := r.db.QueryRowContext(ctx, query, accountID).Scan(
		&token.AccountID, &token.Email, &token.CodeHash, &token.Expires, &token.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return token, nil
}

// Delete removes the pending challenge for accountID.
func (r *PostgresRepository) Delete(ctx context.Context, accountID string) error {
	query := `
		DELETE FROM otp_tokens
		WHERE account_id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, accountID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
