// Package users provides the PostgreSQL-backed user directory. The directory
// maps verified account identities to application-level user records.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bloomdrive/bloomdrive/internal/common"
	"github.com/bloomdrive/bloomdrive/internal/dbx"
	"github.com/bloomdrive/bloomdrive/internal/server/models"
)

// PostgresRepository implements user storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (account_id, email, full_name, avatar_url)
         VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.AccountID, user.Email, user.FullName, user.AvatarURL).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

// GetByAccountID returns the single user record for a verified account.
// Zero rows means the caller must treat the request as unauthenticated.
func (r *PostgresRepository) GetByAccountID(ctx context.Context, accountID string) (*models.User, error) {
	query :=
		`SELECT id, account_id, email, full_name, avatar_url, created_at FROM users
		 WHERE account_id = $1
		 `

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, accountID).Scan(
		&user.ID, &user.AccountID, &user.Email, &user.FullName, &user.AvatarURL, &user.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query :=
		`SELECT id, account_id, email, full_name, avatar_url, created_at FROM users
		 WHERE email = $1
		 `

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&user.ID, &user.AccountID, &user.Email, &user.FullName, &user.AvatarURL, &user.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}
