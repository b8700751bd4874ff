// Package postgres stores vitalcore records in Postgres through the pgx database/sql driver.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver

	"vitalcore/internal/infra/persistence/sqlstore"
	"vitalcore/pkg/domain"
)

// DefaultDSN targets a local database when no DSN is configured.
const DefaultDSN = "postgres://localhost/vitalcore?sslmode=disable"

var (
	openMu  sync.Mutex
	sqlOpen = sql.Open
)

// Store is a Postgres-backed record store.
type Store struct {
	*sqlstore.Store
}

// NewStore connects to dsn, creates the record tables when missing, and loads them.
func NewStore(ctx context.Context, dsn string, engine *domain.RulesEngine) (*Store, error) {
	if dsn == "" {
		dsn = DefaultDSN
	}
	openMu.Lock()
	open := sqlOpen
	openMu.Unlock()

	db, err := open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	st, err := sqlstore.Open(ctx, db, sqlstore.Postgres, engine)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{Store: st}, nil
}

// OverrideSQLOpen replaces the driver open function and returns a restore func. Tests only.
func OverrideSQLOpen(fn func(driverName, dsn string) (*sql.DB, error)) (restore func()) {
	openMu.Lock()
	prev := sqlOpen
	sqlOpen = fn
	openMu.Unlock()
	return func() {
		openMu.Lock()
		sqlOpen = prev
		openMu.Unlock()
	}
}
