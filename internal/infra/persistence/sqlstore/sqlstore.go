// Package sqlstore keeps one row per domain record in a SQL database and feeds
// the rows into an in-memory store on open. The sqlite and postgres packages
// wrap it with their drivers.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"vitalcore/internal/infra/persistence/memory"
	"vitalcore/pkg/domain"
)

var _ domain.PersistentStore = (*Store)(nil)

// Dialect captures the SQL differences between backends.
type Dialect struct {
	Name string
	// JSONType is the column type used for record payloads.
	JSONType string
	// Placeholder renders the n-th (1-based) bind parameter.
	Placeholder func(n int) string
}

// SQLite uses positional ? parameters and BLOB payloads.
var SQLite = Dialect{
	Name:        "sqlite",
	JSONType:    "BLOB",
	Placeholder: func(int) string { return "?" },
}

// Postgres uses numbered parameters and JSONB payloads.
var Postgres = Dialect{
	Name:        "postgres",
	JSONType:    "JSONB",
	Placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
}

// Store is a memory.Store whose committed transactions are written through to db.
type Store struct {
	*memory.Store
	db      *sql.DB
	dialect Dialect
}

// Open creates the record tables when missing, loads every row, and returns a
// store that writes each committed transaction in a single SQL transaction.
// The caller owns db until Open succeeds; on error it is left open.
func Open(ctx context.Context, db *sql.DB, dialect Dialect, engine *domain.RulesEngine) (*Store, error) {
	if err := ensureSchema(ctx, db, dialect); err != nil {
		return nil, err
	}
	snapshot, err := load(ctx, db)
	if err != nil {
		return nil, err
	}
	mem := memory.NewStore(engine)
	mem.ImportState(snapshot)
	s := &Store{Store: mem, db: db, dialect: dialect}
	mem.OnCommit(s.apply)
	return s, nil
}

// DB exposes the database handle.
func (s *Store) DB() *sql.DB { return s.db }

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

func ensureSchema(ctx context.Context, db *sql.DB, d Dialect) error {
	for _, table := range memory.Tables {
		stmts := []string{
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	payload %s NOT NULL
)`, table, d.JSONType),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_user_idx ON %s (user_id)`, table, table),
		}
		for _, stmt := range stmts {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("create %s schema: %w", table, err)
			}
		}
	}
	return nil
}

func load(ctx context.Context, db *sql.DB) (memory.Snapshot, error) {
	var snapshot memory.Snapshot
	for _, table := range memory.Tables {
		if err := loadTable(ctx, db, table, &snapshot); err != nil {
			return memory.Snapshot{}, err
		}
	}
	return snapshot, nil
}

func loadTable(ctx context.Context, db *sql.DB, table string, snapshot *memory.Snapshot) error {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`SELECT payload FROM %s`, table))
	if err != nil {
		return fmt.Errorf("select %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return fmt.Errorf("scan %s: %w", table, err)
		}
		if err := snapshot.Load(table, payload); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate %s: %w", table, err)
	}
	return nil
}

func (s *Store) apply(ctx context.Context, muts []memory.Mutation) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s tx: %w", s.dialect.Name, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	for _, m := range muts {
		if m.Delete {
			_, err = tx.ExecContext(ctx, s.deleteSQL(m.Table), m.ID)
		} else {
			_, err = tx.ExecContext(ctx, s.upsertSQL(m.Table), m.ID, m.UserID, m.Payload)
		}
		if err != nil {
			return fmt.Errorf("write %s %s: %w", m.Table, m.ID, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit %s tx: %w", s.dialect.Name, err)
	}
	return nil
}

func (s *Store) upsertSQL(table string) string {
	p := s.dialect.Placeholder
	return fmt.Sprintf(`INSERT INTO %s (id, user_id, payload) VALUES (%s) ON CONFLICT (id) DO UPDATE SET user_id = excluded.user_id, payload = excluded.payload`,
		table, strings.Join([]string{p(1), p(2), p(3)}, ", "))
}

func (s *Store) deleteSQL(table string) string {
	return fmt.Sprintf(`DELETE FROM %s WHERE id = %s`, table, s.dialect.Placeholder(1))
}
