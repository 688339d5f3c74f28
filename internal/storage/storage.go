package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	config "github.com/maheshrc27/creatortask/configs"
)

var ErrNotFound = errors.New("object not found")

// Storage is read access to the media bucket that holds post attachments.
type Storage interface {
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, key string) (bool, error)
}

// New returns the R2 bucket described by cfg, or an empty in-memory store
// when no bucket is configured so media lookups fail with ErrNotFound.
func New(ctx context.Context, cfg config.R2) (Storage, error) {
	if cfg.AccountID == "" || cfg.BucketName == "" {
		slog.Warn("R2 is not configured, media downloads will fail")
		return NewMemoryStorage(), nil
	}

	client, err := NewR2Client(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create R2 client: %w", err)
	}
	return NewR2Storage(client, cfg.BucketName), nil
}
