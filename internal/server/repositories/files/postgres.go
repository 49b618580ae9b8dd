// Package files provides the PostgreSQL-backed file record store: metadata
// rows describing stored files, their owners and their sharing lists.
package files

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/bloomdrive/bloomdrive/internal/common"
	"github.com/bloomdrive/bloomdrive/internal/dbx"
	"github.com/bloomdrive/bloomdrive/internal/server/models"
)

// PostgresRepository implements file record storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const fileColumns = `id, name, extension, type, size, owner_id, owner_account_id, shared_emails, blob_ref, created_at, updated_at`

func scanFile(row interface{ Scan(...any) error }) (*models.File, error) {
	f := &models.File{}
	var shared []byte
	err := row.Scan(&f.ID, &f.Name, &f.Extension, &f.Type, &f.Size,
		&f.OwnerID, &f.OwnerAccountID, &shared, &f.BlobRef, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(shared, &f.SharedEmails); err != nil {
		return nil, fmt.Errorf("decode shared emails: %w", err)
	}
	return f, nil
}

func (r *PostgresRepository) Create(ctx context.Context, file *models.File) (*models.File, error) {
	shared, err := json.Marshal(file.SharedEmails)
	if err != nil {
		return nil, fmt.Errorf("encode shared emails: %w", err)
	}
	if file.SharedEmails == nil {
		shared = []byte(`[]`)
	}

	query := `
		INSERT INTO files (name, extension, type, size, owner_id, owner_account_id, shared_emails, blob_ref)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	err = r.db.QueryRowContext(ctx, query,
		file.Name, file.Extension, file.Type, file.Size,
		file.OwnerID, file.OwnerAccountID, shared, file.BlobRef).
		Scan(&file.ID, &file.CreatedAt, &file.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return file, nil
}

// GetByID returns the full file record or common.ErrorNotFound, so callers
// can distinguish "no such file" (404) from "access denied" (403).
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE id = $1`

	f, err := scanFile(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return f, nil
}

func (r *PostgresRepository) UpdateName(ctx context.Context, id string, name string) error {
	query := `UPDATE files SET name = $2, updated_at = now() WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, name)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) UpdateSharedEmails(ctx context.Context, id string, emails []string) error {
	if emails == nil {
		emails = []string{}
	}
	shared, err := json.Marshal(emails)
	if err != nil {
		return fmt.Errorf("encode shared emails: %w", err)
	}

	query := `UPDATE files SET shared_emails = $2, updated_at = now() WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, shared)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// Delete removes the record. A missing row is not an error: delete is
// idempotent and the caller treats false as "already deleted".
func (r *PostgresRepository) Delete(ctx context.Context, id string) (bool, error) {
	query := `DELETE FROM files WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	return n > 0, nil
}

// sortColumns whitelists sortable fields; anything else falls back to the
// default ordering so user input never reaches the ORDER BY clause raw.
var sortColumns = map[string]string{
	"name":       "name",
	"size":       "size",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

func orderClause(sort string) string {
	column, direction := "created_at", "DESC"
	if field, dir, ok := strings.Cut(sort, "-"); ok {
		if c, valid := sortColumns[field]; valid {
			column = c
			if dir == "asc" {
				direction = "ASC"
			}
		}
	}
	return fmt.Sprintf(" ORDER BY %s %s", column, direction)
}

func (r *PostgresRepository) ListVisible(ctx context.Context, ownerID string, email string, opts ListOptions) ([]*models.File, error) {
	emailJSON, err := json.Marshal([]string{email})
	if err != nil {
		return nil, fmt.Errorf("encode email: %w", err)
	}

	query := `SELECT ` + fileColumns + ` FROM files WHERE (owner_id = $1 OR shared_emails @> $2::jsonb)`
	args := []any{ownerID, emailJSON}

	if len(opts.Types) > 0 {
		placeholders := make([]string, len(opts.Types))
		for i, t := range opts.Types {
			args = append(args, t)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		query += ` AND type IN (` + strings.Join(placeholders, ", ") + `)`
	}

	if opts.Search != "" {
		args = append(args, "%"+opts.Search+"%")
		query += fmt.Sprintf(` AND name ILIKE $%d`, len(args))
	}

	query += orderClause(opts.Sort)

	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	return r.queryFiles(ctx, query, args...)
}

func (r *PostgresRepository) ListOwned(ctx context.Context, ownerID string) ([]*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE owner_id = $1`
	return r.queryFiles(ctx, query, ownerID)
}

func (r *PostgresRepository) queryFiles(ctx context.Context, query string, args ...any) ([]*models.File, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	defer rows.Close()

	var result []*models.File
	for rows.Next() {
		item, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
