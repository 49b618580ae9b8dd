package blob

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bloomdrive/bloomdrive/internal/common"
	"github.com/klauspost/compress/zstd"
)

// LocalStore keeps blobs on the local filesystem, zstd-compressed at rest.
// Keys are hashed into a two-level directory layout so a large bucket does
// not pile every object into one directory, and hostile keys cannot escape
// the root.
type LocalStore struct {
	root    string
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

func NewLocalStore(root string) (*LocalStore, error) {
	root = filepath.Clean(root)
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("creating blob root: %w", err)
	}

	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("zstd writer: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("zstd reader: %w", err)
	}

	return &LocalStore{root: root, encoder: encoder, decoder: decoder}, nil
}

// path shards the key hash as root/ab/cd/abcd....zst.
func (s *LocalStore) path(key string) string {
	sum := sha256.Sum256([]byte(key))
	h := hex.EncodeToString(sum[:])
	return filepath.Join(s.root, h[:2], h[2:4], h+".zst")
}

func (s *LocalStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target := s.path(key)
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return fmt.Errorf("creating shard dir: %w", err)
	}

	// Write to a temp file and rename, so a blob is either fully present
	// or absent.
	tmp, err := os.CreateTemp(filepath.Dir(target), ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	compressed := s.encoder.EncodeAll(data, nil)
	if _, err := tmp.Write(compressed); err != nil {
		tmp.Close()
		return fmt.Errorf("writing blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing blob: %w", err)
	}

	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("finalizing blob: %w", err)
	}
	return nil
}

func (s *LocalStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("opening blob: %w", err)
	}
	defer f.Close()

	compressed, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading blob: %w", err)
	}

	data, err := s.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("decompressing blob: %w", err)
	}
	return data, nil
}

func (s *LocalStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing blob: %w", err)
	}
	return nil
}
