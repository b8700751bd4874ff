// Package core implements the experiment lifecycle, measurement ledger and
// vitals operations on top of a transactional persistent store.
package core

import (
	"context"
	"errors"
	"time"

	blobcore "vitalcore/internal/blob/core"
	"vitalcore/internal/infra/persistence/memory"
	"vitalcore/internal/insight"
	"vitalcore/internal/recommend"
	"vitalcore/pkg/domain"
)

// TemplateCatalog resolves experiment templates by id.
type TemplateCatalog interface {
	Template(id string) (domain.ExperimentTemplate, bool)
}

// Logger is the minimal structured logger used by the service.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// MetricsRecorder observes the outcome of each service operation.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

type noopMetrics struct{}

func (noopMetrics) Observe(context.Context, string, bool, time.Duration) {}

// Recommender produces recommendation ids from recent vitals.
type Recommender interface {
	Recommend(records []domain.DailyVitalsRecord, maxResults int) []string
}

// InsightSource produces insight text that never fails.
type InsightSource interface {
	Insight(ctx context.Context, req insight.Request) string
}

// Service exposes the experiment and vitals operations for a single store.
type Service struct {
	store              domain.PersistentStore
	catalog            TemplateCatalog
	logger             Logger
	clock              Clock
	metrics            MetricsRecorder
	insight            InsightSource
	blobs              blobcore.Store
	recommender        Recommender
	maxRecommendations int
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock sets the time source used for "today" and timestamps.
func WithClock(c Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithMetricsRecorder sets the operation metrics sink.
func WithMetricsRecorder(m MetricsRecorder) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithInsight sets the insight source used by ExperimentInsight and ArchiveExperiment.
func WithInsight(src InsightSource) Option {
	return func(s *Service) {
		if src != nil {
			s.insight = src
		}
	}
}

// WithBlobStore sets the store that receives experiment archives.
func WithBlobStore(b blobcore.Store) Option {
	return func(s *Service) { s.blobs = b }
}

// WithRecommender replaces the recommendation engine.
func WithRecommender(r Recommender) Option {
	return func(s *Service) {
		if r != nil {
			s.recommender = r
		}
	}
}

// WithMaxRecommendations caps GetRecommendations. Non-positive means unlimited.
func WithMaxRecommendations(n int) Option {
	return func(s *Service) { s.maxRecommendations = n }
}

// NewService constructs a service over store, resolving templates through catalog.
func NewService(store domain.PersistentStore, catalog TemplateCatalog, opts ...Option) *Service {
	svc := &Service{
		store:              store,
		catalog:            catalog,
		logger:             noopLogger{},
		clock:              ClockFunc(func() time.Time { return time.Now().UTC() }),
		metrics:            noopMetrics{},
		insight:            insight.NewAdapter(nil, insight.Options{}),
		recommender:        recommend.New(recommend.DefaultWindow),
		maxRecommendations: 5,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if clocked, ok := store.(interface{ SetNowFunc(func() time.Time) }); ok {
		clocked.SetNowFunc(svc.now)
	}
	return svc
}

// NewInMemoryService creates a service backed by a fresh in-memory store using the default rules.
func NewInMemoryService(catalog TemplateCatalog, opts ...Option) *Service {
	return NewService(memory.NewStore(NewDefaultRulesEngine(catalog)), catalog, opts...)
}

// Store returns the underlying storage implementation.
func (s *Service) Store() domain.PersistentStore { return s.store }

func (s *Service) now() time.Time { return s.clock.Now().UTC() }

func (s *Service) today() time.Time { return domain.UTCDate(s.clock.Now()) }

// run wraps one public operation with metrics, logging and rule error translation.
func (s *Service) run(ctx context.Context, op string, fn func() (domain.Result, error)) error {
	start := time.Now()
	res, err := fn()
	if err != nil {
		err = translateRuleError(err)
	}
	s.metrics.Observe(ctx, op, err == nil, time.Since(start))
	for _, v := range res.Violations {
		if v.Severity == domain.SeverityWarn {
			s.logger.Warn("rule warning", "operation", op, "rule", v.Rule, "message", v.Message)
		}
	}
	if err != nil {
		s.logger.Error("operation failed", "operation", op, "error", err)
		return err
	}
	s.logger.Debug("operation completed", "operation", op, "duration", time.Since(start))
	return nil
}

// transact runs fn inside a store transaction under run.
func (s *Service) transact(ctx context.Context, op string, fn func(domain.Transaction) error) error {
	return s.run(ctx, op, func() (domain.Result, error) {
		return s.store.RunInTransaction(ctx, fn)
	})
}

// view runs fn against a read-only snapshot under run.
func (s *Service) view(ctx context.Context, op string, fn func(domain.TransactionView) error) error {
	return s.run(ctx, op, func() (domain.Result, error) {
		return domain.Result{}, s.store.View(ctx, fn)
	})
}

// translateRuleError maps a blocking rule violation onto the matching error kind.
func translateRuleError(err error) error {
	var rve domain.RuleViolationError
	if !errors.As(err, &rve) {
		return err
	}
	blocking := rve.Result.Blocking()
	if len(blocking) == 0 {
		return err
	}
	v := blocking[0]
	switch v.Rule {
	case ruleActiveInstanceUniqueness, ruleVitalsDateUniqueness:
		return domain.Conflict(v.Entity, v.EntityID, v.Message)
	case ruleInstanceLifecycle:
		return domain.InvalidState(v.Entity, v.EntityID, v.Message)
	case ruleMeasurementUnits:
		return domain.Validation(v.Entity, "measurements", v.Message)
	}
	return err
}

// ownedInstance returns the instance when it exists and belongs to userID.
func ownedInstance(find func(string) (domain.ExperimentInstance, bool), userID, id string) (domain.ExperimentInstance, error) {
	inst, ok := find(id)
	if !ok || inst.UserID != userID {
		return domain.ExperimentInstance{}, domain.NotFound(domain.EntityInstance, id)
	}
	return inst, nil
}

func (s *Service) template(id string) (domain.ExperimentTemplate, error) {
	if s.catalog == nil {
		return domain.ExperimentTemplate{}, domain.NotFound(domain.EntityTemplate, id)
	}
	tpl, ok := s.catalog.Template(id)
	if !ok {
		return domain.ExperimentTemplate{}, domain.NotFound(domain.EntityTemplate, id)
	}
	return tpl, nil
}

func requireUser(userID string) error {
	if userID == "" {
		return domain.Validation(domain.EntityInstance, "user_id", "is required")
	}
	return nil
}
