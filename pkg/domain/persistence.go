package domain

import (
	"context"
	"time"
)

// Transaction is the write surface handed to RunInTransaction callbacks.
// Nothing it does is visible outside the callback until the commit succeeds.
type Transaction interface {
	Snapshot() TransactionView
	CreateInstance(ExperimentInstance) (ExperimentInstance, error)
	UpdateInstance(id string, mutator func(*ExperimentInstance) error) (ExperimentInstance, error)
	DeleteInstance(id string) error
	FindInstance(id string) (ExperimentInstance, bool)
	UpsertVitals(DailyVitalsRecord) (DailyVitalsRecord, error)
	DeleteVitals(id string) error
	FindVitals(userID string, date time.Time) (DailyVitalsRecord, bool)
}

// TransactionView is what rules and read paths see.
type TransactionView interface {
	ListInstances() []ExperimentInstance
	FindInstance(id string) (ExperimentInstance, bool)
	ListVitals() []DailyVitalsRecord
	FindVitals(userID string, date time.Time) (DailyVitalsRecord, bool)
}

// PersistentStore is implemented by the memory, SQLite and Postgres stores.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetInstance(id string) (ExperimentInstance, bool)
	ListInstances() []ExperimentInstance
	ListVitals(userID string) []DailyVitalsRecord
}
