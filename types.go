package recipebook

import (
	"context"
	"errors"
)

// ErrBlobNotFound is returned by a PersistenceBridge when no blob is stored under a key.
var ErrBlobNotFound = errors.New("blob not found")

// PersistenceBridge is the durable key-value service the recipe store syncs with.
type PersistenceBridge interface {
	// Load returns the blob stored under key, or ErrBlobNotFound.
	Load(ctx context.Context, key string) ([]byte, error)
	// Save replaces the blob stored under key.
	Save(ctx context.Context, key string, blob []byte) error
}
