package memory

import (
	"context"
	"encoding/json"
	"fmt"

	"vitalcore/pkg/domain"
)

// Table names for the SQL-backed stores. Each row holds one JSON-encoded record.
const (
	TableInstances = "experiment_instances"
	TableVitals    = "daily_vitals"
)

// Tables lists the record tables in load order.
var Tables = []string{TableInstances, TableVitals}

// Mutation is one row write derived from a committed change.
type Mutation struct {
	Table   string
	ID      string
	UserID  string
	Delete  bool
	Payload []byte
}

// CommitFunc persists the row writes of a transaction that passed rule evaluation.
// A non-nil error aborts the commit.
type CommitFunc func(ctx context.Context, muts []Mutation) error

// Mutations collapses changes into one write per row, in first-touched order.
func Mutations(changes []Change) ([]Mutation, error) {
	var (
		out   []Mutation
		index = make(map[string]int)
	)
	for _, ch := range changes {
		m, err := mutationFor(ch)
		if err != nil {
			return nil, err
		}
		key := m.Table + "/" + m.ID
		if i, ok := index[key]; ok {
			out[i] = m
			continue
		}
		index[key] = len(out)
		out = append(out, m)
	}
	return out, nil
}

func mutationFor(ch Change) (Mutation, error) {
	rec := ch.After
	if ch.Action == domain.ActionDelete {
		rec = ch.Before
	}
	var m Mutation
	switch r := rec.(type) {
	case ExperimentInstance:
		m = Mutation{Table: TableInstances, ID: r.ID, UserID: r.UserID}
	case DailyVitalsRecord:
		m = Mutation{Table: TableVitals, ID: r.ID, UserID: r.UserID}
	default:
		return Mutation{}, fmt.Errorf("unsupported %s payload %T", ch.Entity, rec)
	}
	if ch.Action == domain.ActionDelete {
		m.Delete = true
		return m, nil
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return Mutation{}, fmt.Errorf("encode %s %s: %w", m.Table, m.ID, err)
	}
	m.Payload = payload
	return m, nil
}

// Load decodes one stored row into the snapshot. Rows of unknown tables are ignored.
func (s *Snapshot) Load(table string, payload []byte) error {
	switch table {
	case TableInstances:
		var inst ExperimentInstance
		if err := json.Unmarshal(payload, &inst); err != nil {
			return fmt.Errorf("decode %s: %w", table, err)
		}
		if s.Instances == nil {
			s.Instances = make(map[string]ExperimentInstance)
		}
		s.Instances[inst.ID] = inst
	case TableVitals:
		var rec DailyVitalsRecord
		if err := json.Unmarshal(payload, &rec); err != nil {
			return fmt.Errorf("decode %s: %w", table, err)
		}
		if s.Vitals == nil {
			s.Vitals = make(map[string]DailyVitalsRecord)
		}
		s.Vitals[rec.ID] = rec
	}
	return nil
}
