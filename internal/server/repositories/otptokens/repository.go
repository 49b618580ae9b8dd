package otptokens

import (
	"context"
	"time"

	"github.com/bloomdrive/bloomdrive/internal/server/models"
)

type Repository interface {
	// Replace stores a new pending challenge for the account, displacing any
	// previous one (re-sending a code invalidates the old code).
	Replace(ctx context.Context, accountID string, email string, codeHash []byte, validity time.Duration) error
	Find(ctx context.Context, accountID string) (*models.OTPToken, error)
	Delete(ctx context.Context, accountID string) error
}
