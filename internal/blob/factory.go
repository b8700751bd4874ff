// Package blob selects a blob storage backend from configuration.
package blob

import (
	"context"
	"fmt"

	"vitalcore/internal/blob/core"
	"vitalcore/internal/infra/blob/fs"
	"vitalcore/internal/infra/blob/memory"
	"vitalcore/internal/infra/blob/s3"
)

// Config chooses and parameterises a backend.
type Config struct {
	Driver core.Driver
	FSRoot string
	S3     s3.Config
}

// Open builds the configured blob store. An empty driver selects the filesystem.
func Open(ctx context.Context, cfg Config) (core.Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = core.DriverFilesystem
	}
	switch driver {
	case core.DriverFilesystem:
		store, err := fs.New(cfg.FSRoot)
		if err != nil {
			return nil, err
		}
		return store, nil
	case core.DriverS3:
		store, err := s3.New(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		return store, nil
	case core.DriverMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
}
