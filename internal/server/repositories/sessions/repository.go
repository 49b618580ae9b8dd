package sessions

import (
	"context"
	"time"

	"github.com/bloomdrive/bloomdrive/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, id string, accountID string, validity time.Duration) error
	Find(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
	// DeleteForAccount removes every session for the account (logout-everywhere).
	DeleteForAccount(ctx context.Context, accountID string) error
}
