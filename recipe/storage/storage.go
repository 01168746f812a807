// Package storage provides the persistence bridges the recipe store can sync with.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"recipebook"
)

// Bridge is a PersistenceBridge that may hold resources.
type Bridge interface {
	recipebook.PersistenceBridge
	Close() error
}

var (
	_ Bridge = (*MemoryBridge)(nil)
	_ Bridge = (*FileBridge)(nil)
	_ Bridge = (*SQLiteBridge)(nil)
	_ Bridge = (*S3Bridge)(nil)
)

// New builds the bridge selected by cfg.Type.
func New(ctx context.Context, cfg recipebook.StorageConfig, log zerolog.Logger) (Bridge, error) {
	var (
		bridge Bridge
		err    error
	)

	event := log.Info().Str("storage_type", cfg.Type)

	switch cfg.Type {
	case recipebook.StorageMemory:
		bridge = NewMemoryBridge()
	case recipebook.StorageFile:
		event = event.Str("base_path", cfg.LocalPath)
		bridge = NewFileBridge(cfg.LocalPath)
	case recipebook.StorageSQLite:
		event = event.Str("data_source_name", cfg.DataSourceName)
		bridge, err = OpenSQLiteBridge(cfg.DataSourceName)
	case recipebook.StorageS3:
		if cfg.S3Bucket == "" {
			return nil, errors.New("S3_BUCKET_NAME must be set for s3 storage")
		}
		event = event.Str("bucket", cfg.S3Bucket).Str("prefix", cfg.S3KeyPrefix)
		awsCfg, lerr := config.LoadDefaultConfig(ctx, config.WithRetryMaxAttempts(5))
		if lerr != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", lerr)
		}
		bridge = NewS3Bridge(s3.NewFromConfig(awsCfg), cfg.S3Bucket, cfg.S3KeyPrefix)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
	if err != nil {
		return nil, err
	}

	event.Msg("use storage")
	return bridge, nil
}

// NewTestBridge returns an in-memory bridge preloaded with blob under key.
func NewTestBridge(key string, blob []byte) *MemoryBridge {
	m := NewMemoryBridge()
	m.blobs[key] = append([]byte(nil), blob...)
	return m
}

// NewTestBridgeWithError returns an in-memory bridge whose loads fail.
func NewTestBridgeWithError() *MemoryBridge {
	m := NewMemoryBridge()
	m.loadErr = errors.New("storage unavailable")
	return m
}
