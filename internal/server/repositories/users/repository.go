package users

import (
	"context"

	"github.com/bloomdrive/bloomdrive/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByAccountID(ctx context.Context, accountID string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}
