// Package memory holds experiment instances and vitals records in process
// memory. The SQL backends embed it and mirror its commits to disk.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"vitalcore/pkg/domain"
)

var _ domain.PersistentStore = (*Store)(nil)

type (
	ExperimentInstance = domain.ExperimentInstance
	DailyVitalsRecord  = domain.DailyVitalsRecord
	Change             = domain.Change
	Result             = domain.Result
	RulesEngine        = domain.RulesEngine
	Transaction        = domain.Transaction
	TransactionView    = domain.TransactionView
)

type memoryState struct {
	instances map[string]ExperimentInstance
	vitals    map[string]DailyVitalsRecord
}

// Snapshot is a detached copy of every record, keyed by id.
type Snapshot struct {
	Instances map[string]ExperimentInstance `json:"instances"`
	Vitals    map[string]DailyVitalsRecord  `json:"vitals"`
}

func newMemoryState() memoryState {
	return memoryState{
		instances: make(map[string]ExperimentInstance),
		vitals:    make(map[string]DailyVitalsRecord),
	}
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	s := Snapshot{
		Instances: make(map[string]ExperimentInstance, len(state.instances)),
		Vitals:    make(map[string]DailyVitalsRecord, len(state.vitals)),
	}
	for k, v := range state.instances {
		s.Instances[k] = cloneInstance(v)
	}
	for k, v := range state.vitals {
		s.Vitals[k] = cloneVitals(v)
	}
	return s
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := newMemoryState()
	for k, v := range s.Instances {
		state.instances[k] = cloneInstance(v)
	}
	for k, v := range s.Vitals {
		state.vitals[k] = cloneVitals(v)
	}
	return state
}

// migrateSnapshot fills ids and nil collections missing from loaded rows.
func migrateSnapshot(snapshot Snapshot) Snapshot {
	if snapshot.Instances == nil {
		snapshot.Instances = map[string]ExperimentInstance{}
	}
	if snapshot.Vitals == nil {
		snapshot.Vitals = map[string]DailyVitalsRecord{}
	}
	for id, inst := range snapshot.Instances {
		if inst.ID == "" {
			inst.ID = id
		}
		if inst.ChecklistState == nil {
			inst.ChecklistState = map[string]struct{}{}
		}
		if inst.Measurements == nil {
			inst.Measurements = domain.Measurements{}
		}
		if inst.DailyLog == nil {
			inst.DailyLog = []domain.LogEntry{}
		}
		inst.StartDate = domain.DateOf(inst.StartDate)
		snapshot.Instances[id] = inst
	}
	for id, rec := range snapshot.Vitals {
		if rec.ID == "" {
			rec.ID = id
		}
		rec.Date = domain.DateOf(rec.Date)
		snapshot.Vitals[id] = rec
	}
	return snapshot
}

func (s memoryState) clone() memoryState {
	return memoryStateFromSnapshot(snapshotFromMemoryState(s))
}

func cloneInstance(i ExperimentInstance) ExperimentInstance {
	cp := i
	if i.CompletedAt != nil {
		t := *i.CompletedAt
		cp.CompletedAt = &t
	}
	if i.ChecklistState != nil {
		cp.ChecklistState = make(map[string]struct{}, len(i.ChecklistState))
		for k := range i.ChecklistState {
			cp.ChecklistState[k] = struct{}{}
		}
	}
	if i.DailyLog != nil {
		cp.DailyLog = make([]domain.LogEntry, len(i.DailyLog))
		for idx, entry := range i.DailyLog {
			cp.DailyLog[idx] = cloneLogEntry(entry)
		}
	}
	cp.Measurements = i.Measurements.Clone()
	return cp
}

func cloneLogEntry(e domain.LogEntry) domain.LogEntry {
	cp := e
	if e.Temperature != nil {
		v := *e.Temperature
		cp.Temperature = &v
	}
	if e.Pulse != nil {
		v := *e.Pulse
		cp.Pulse = &v
	}
	return cp
}

func cloneVitals(r DailyVitalsRecord) DailyVitalsRecord {
	cp := r
	if r.ChecklistCompleted != nil {
		cp.ChecklistCompleted = append([]int(nil), r.ChecklistCompleted...)
	}
	return cp
}

func sortInstances(out []ExperimentInstance) {
	sort.Slice(out, func(a, b int) bool {
		if !out[a].StartDate.Equal(out[b].StartDate) {
			return out[a].StartDate.Before(out[b].StartDate)
		}
		return out[a].ID < out[b].ID
	})
}

func sortVitalsNewestFirst(out []DailyVitalsRecord) {
	sort.Slice(out, func(a, b int) bool {
		if !out[a].Date.Equal(out[b].Date) {
			return out[a].Date.After(out[b].Date)
		}
		return out[a].ID < out[b].ID
	})
}

// Store serialises writers behind a mutex and swaps in a cloned state on commit.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
	commit CommitFunc
}

// NewStore returns an empty store. A nil engine evaluates no rules.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) newID() string {
	return uuid.NewString()
}

// ExportState returns a copy of all records.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces all records with snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(migrateSnapshot(snapshot))
}

// RulesEngine returns the engine evaluated on every commit.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// NowFunc returns the clock used for CreatedAt and UpdatedAt.
func (s *Store) NowFunc() func() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowFn
}

// SetNowFunc swaps the clock. A nil fn is ignored.
func (s *Store) SetNowFunc(fn func() time.Time) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nowFn = fn
}

// OnCommit registers fn to persist every transaction that passes rule evaluation.
// It runs under the store lock, before the new state becomes visible.
func (s *Store) OnCommit(fn CommitFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commit = fn
}

type transaction struct {
	store   *Store
	state   memoryState
	changes []Change
	now     time.Time
}

type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

// ListInstances returns every instance ordered by start date then id.
func (v transactionView) ListInstances() []ExperimentInstance {
	out := make([]ExperimentInstance, 0, len(v.state.instances))
	for _, inst := range v.state.instances {
		out = append(out, cloneInstance(inst))
	}
	sortInstances(out)
	return out
}

func (v transactionView) FindInstance(id string) (ExperimentInstance, bool) {
	inst, ok := v.state.instances[id]
	if !ok {
		return ExperimentInstance{}, false
	}
	return cloneInstance(inst), true
}

// ListVitals returns every vitals record, newest date first.
func (v transactionView) ListVitals() []DailyVitalsRecord {
	out := make([]DailyVitalsRecord, 0, len(v.state.vitals))
	for _, rec := range v.state.vitals {
		out = append(out, cloneVitals(rec))
	}
	sortVitalsNewestFirst(out)
	return out
}

func (v transactionView) FindVitals(userID string, date time.Time) (DailyVitalsRecord, bool) {
	return findVitals(v.state, userID, date)
}

func findVitals(state *memoryState, userID string, date time.Time) (DailyVitalsRecord, bool) {
	day := domain.DateOf(date)
	for _, rec := range state.vitals {
		if rec.UserID == userID && rec.Date.Equal(day) {
			return cloneVitals(rec), true
		}
	}
	return DailyVitalsRecord{}, false
}

// RunInTransaction hands fn a private copy of the records. If fn succeeds and
// no rule blocks, the commit hook runs and the copy replaces the live state.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	if s.commit != nil && len(tx.changes) > 0 {
		muts, err := Mutations(tx.changes)
		if err != nil {
			return result, err
		}
		if err := s.commit(ctx, muts); err != nil {
			return result, err
		}
	}

	s.state = tx.state
	return result, nil
}

// View runs fn against a copy of the current records.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	view := newTransactionView(&snapshot)
	return fn(view)
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a view that includes this transaction's pending writes.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

func (tx *transaction) FindInstance(id string) (ExperimentInstance, bool) {
	inst, ok := tx.state.instances[id]
	if !ok {
		return ExperimentInstance{}, false
	}
	return cloneInstance(inst), true
}

func (tx *transaction) FindVitals(userID string, date time.Time) (DailyVitalsRecord, bool) {
	return findVitals(&tx.state, userID, date)
}

// CreateInstance assigns an id when missing and stamps creation times.
func (tx *transaction) CreateInstance(inst ExperimentInstance) (ExperimentInstance, error) {
	if inst.ID == "" {
		inst.ID = tx.store.newID()
	}
	if _, exists := tx.state.instances[inst.ID]; exists {
		return ExperimentInstance{}, domain.Conflict(domain.EntityInstance, inst.ID, "already exists")
	}
	inst.CreatedAt = tx.now
	inst.UpdatedAt = tx.now
	inst.StartDate = domain.DateOf(inst.StartDate)
	if inst.ChecklistState == nil {
		inst.ChecklistState = map[string]struct{}{}
	}
	if inst.DailyLog == nil {
		inst.DailyLog = []domain.LogEntry{}
	}
	if inst.Measurements == nil {
		inst.Measurements = domain.Measurements{}
	}
	tx.state.instances[inst.ID] = cloneInstance(inst)
	tx.recordChange(Change{Entity: domain.EntityInstance, Action: domain.ActionCreate, After: cloneInstance(inst)})
	return cloneInstance(inst), nil
}

// UpdateInstance applies mutator to a copy of the instance and records the change.
func (tx *transaction) UpdateInstance(id string, mutator func(*ExperimentInstance) error) (ExperimentInstance, error) {
	current, ok := tx.state.instances[id]
	if !ok {
		return ExperimentInstance{}, domain.NotFound(domain.EntityInstance, id)
	}
	before := cloneInstance(current)
	current = cloneInstance(current)
	if err := mutator(&current); err != nil {
		return ExperimentInstance{}, err
	}
	current.ID = id
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	tx.state.instances[id] = cloneInstance(current)
	tx.recordChange(Change{Entity: domain.EntityInstance, Action: domain.ActionUpdate, Before: before, After: cloneInstance(current)})
	return cloneInstance(current), nil
}

// DeleteInstance drops the instance; a missing id is a not-found error.
func (tx *transaction) DeleteInstance(id string) error {
	current, ok := tx.state.instances[id]
	if !ok {
		return domain.NotFound(domain.EntityInstance, id)
	}
	delete(tx.state.instances, id)
	tx.recordChange(Change{Entity: domain.EntityInstance, Action: domain.ActionDelete, Before: cloneInstance(current)})
	return nil
}

// UpsertVitals creates the record for (user, date) or replaces the existing one in place,
// keeping its id and creation time.
func (tx *transaction) UpsertVitals(rec DailyVitalsRecord) (DailyVitalsRecord, error) {
	rec.Date = domain.DateOf(rec.Date)
	if existing, ok := findVitals(&tx.state, rec.UserID, rec.Date); ok {
		rec.ID = existing.ID
		rec.CreatedAt = existing.CreatedAt
		rec.UpdatedAt = tx.now
		tx.state.vitals[rec.ID] = cloneVitals(rec)
		tx.recordChange(Change{Entity: domain.EntityVitals, Action: domain.ActionUpdate, Before: existing, After: cloneVitals(rec)})
		return cloneVitals(rec), nil
	}
	if rec.ID == "" {
		rec.ID = tx.store.newID()
	}
	if _, exists := tx.state.vitals[rec.ID]; exists {
		return DailyVitalsRecord{}, domain.Conflict(domain.EntityVitals, rec.ID, "already exists")
	}
	rec.CreatedAt = tx.now
	rec.UpdatedAt = tx.now
	tx.state.vitals[rec.ID] = cloneVitals(rec)
	tx.recordChange(Change{Entity: domain.EntityVitals, Action: domain.ActionCreate, After: cloneVitals(rec)})
	return cloneVitals(rec), nil
}

// DeleteVitals drops the record with id.
func (tx *transaction) DeleteVitals(id string) error {
	current, ok := tx.state.vitals[id]
	if !ok {
		return domain.NotFound(domain.EntityVitals, id)
	}
	delete(tx.state.vitals, id)
	tx.recordChange(Change{Entity: domain.EntityVitals, Action: domain.ActionDelete, Before: cloneVitals(current)})
	return nil
}

// GetInstance reads a committed instance.
func (s *Store) GetInstance(id string) (ExperimentInstance, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inst, ok := s.state.instances[id]
	if !ok {
		return ExperimentInstance{}, false
	}
	return cloneInstance(inst), true
}

// ListInstances returns every committed instance.
func (s *Store) ListInstances() []ExperimentInstance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ExperimentInstance, 0, len(s.state.instances))
	for _, inst := range s.state.instances {
		out = append(out, cloneInstance(inst))
	}
	sortInstances(out)
	return out
}

// ListVitals returns a user's committed vitals, newest first.
func (s *Store) ListVitals(userID string) []DailyVitalsRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []DailyVitalsRecord
	for _, rec := range s.state.vitals {
		if rec.UserID == userID {
			out = append(out, cloneVitals(rec))
		}
	}
	sortVitalsNewestFirst(out)
	return out
}
