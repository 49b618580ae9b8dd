package files

import (
	"context"

	"github.com/bloomdrive/bloomdrive/internal/server/models"
)

// ListOptions narrows and orders a file listing. SortField is validated
// against a whitelist by the implementation; zero values mean "no filter".
type ListOptions struct {
	Types  []string
	Search string
	Sort   string // e.g. "created_at-desc", "name-asc"
	Limit  int
}

type Repository interface {
	Create(ctx context.Context, file *models.File) (*models.File, error)
	GetByID(ctx context.Context, id string) (*models.File, error)
	UpdateName(ctx context.Context, id string, name string) error
	UpdateSharedEmails(ctx context.Context, id string, emails []string) error
	// Delete removes the record and reports whether a row existed.
	Delete(ctx context.Context, id string) (bool, error)
	// ListVisible returns files the user owns plus files shared with their email.
	ListVisible(ctx context.Context, ownerID string, email string, opts ListOptions) ([]*models.File, error)
	// ListOwned returns every file owned by the user (quota and usage sums).
	ListOwned(ctx context.Context, ownerID string) ([]*models.File, error)
}
