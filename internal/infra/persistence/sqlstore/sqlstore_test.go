package sqlstore

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"vitalcore/internal/infra/persistence/memory"
	"vitalcore/pkg/domain"
)

type blockAll struct{}

func (blockAll) Name() string { return "block_all" }

func (blockAll) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	if len(changes) == 0 {
		return domain.Result{}, nil
	}
	return domain.Result{Violations: []domain.Violation{{Rule: "block_all", Severity: domain.SeverityBlock, Message: "read only"}}}, nil
}

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "records.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestPlaceholders(t *testing.T) {
	s := &Store{dialect: Postgres}
	assert.Equal(t, "DELETE FROM daily_vitals WHERE id = $1", s.deleteSQL(memory.TableVitals))
	assert.Contains(t, s.upsertSQL(memory.TableInstances), "VALUES ($1, $2, $3)")

	s.dialect = SQLite
	assert.Contains(t, s.upsertSQL(memory.TableInstances), "VALUES (?, ?, ?)")
}

func TestUpsertOverwritesRow(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	store, err := Open(ctx, db, SQLite, nil)
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for _, pulse := range []int{60, 64} {
		_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			_, e := tx.UpsertVitals(domain.DailyVitalsRecord{UserID: "u", Date: date, Pulse: pulse})
			return e
		})
		require.NoError(t, err)
	}

	var rows int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM daily_vitals").Scan(&rows))
	assert.Equal(t, 1, rows)

	reopened, err := Open(ctx, db, SQLite, nil)
	require.NoError(t, err, "schema creation is idempotent")
	recs := reopened.ListVitals("u")
	require.Len(t, recs, 1)
	assert.Equal(t, 64, recs[0].Pulse)
}

func TestBlockedTransactionIsNotWritten(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	engine := domain.NewRulesEngine()
	engine.Register(blockAll{})
	store, err := Open(ctx, db, SQLite, engine)
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	_, err = store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, e := tx.CreateInstance(domain.ExperimentInstance{UserID: "u", TemplateID: "t", Status: domain.StatusActive})
		return e
	})
	var violation domain.RuleViolationError
	require.ErrorAs(t, err, &violation)

	var rows int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM experiment_instances").Scan(&rows))
	assert.Zero(t, rows)
}
