// Package blob abstracts the object storage holding file bytes. Two
// implementations exist: an S3-compatible backend for deployments and a
// local on-disk store for development and tests.
package blob

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Store reads and writes raw file bytes by key. Implementations report
// missing keys as common.ErrorNotFound and backend outages as
// common.ErrorTransient so callers can apply the shared retry policy.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// RandomKey returns a fresh date-sharded storage key for a new blob.
func RandomKey() string {
	d := time.Now()
	return fmt.Sprintf("files/%d/%d/%d/%v", d.Year(), d.Month(), d.Day(), uuid.New())
}
