package core

import (
	"context"
	"fmt"

	"vitalcore/internal/infra/persistence/memory"
	"vitalcore/internal/infra/persistence/postgres"
	"vitalcore/internal/infra/persistence/sqlite"
	"vitalcore/pkg/domain"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// StorageOptions selects and locates a persistent store.
type StorageOptions struct {
	Driver      StorageDriver
	SQLitePath  string
	PostgresDSN string
}

// ClosableStore is a persistent store that may hold external resources.
type ClosableStore interface {
	domain.PersistentStore
	Close() error
}

type memoryCloser struct{ *memory.Store }

func (memoryCloser) Close() error { return nil }

// OpenPersistentStore opens the backend named by opts. An empty driver means sqlite.
func OpenPersistentStore(ctx context.Context, opts StorageOptions, engine *domain.RulesEngine) (ClosableStore, error) {
	driver := opts.Driver
	if driver == "" {
		driver = StorageSQLite
	}
	switch driver {
	case StorageMemory:
		return memoryCloser{memory.NewStore(engine)}, nil
	case StorageSQLite:
		store, err := sqlite.NewStore(ctx, opts.SQLitePath, engine)
		if err != nil {
			return nil, err
		}
		return store, nil
	case StoragePostgres:
		store, err := postgres.NewStore(ctx, opts.PostgresDSN, engine)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
