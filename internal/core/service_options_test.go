package core

import (
	"context"
	"testing"
	"time"

	"vitalcore/internal/infra/persistence/memory"
	"vitalcore/pkg/domain"
)

func TestServiceOptionsCoversClockLoggerMetrics(t *testing.T) {
	fixed := time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC)
	log := &captureLogger{}
	metrics := &captureMetricsRecorder{}
	svc := NewInMemoryService(testCatalog(), WithClock(stubClock{t: fixed}), WithLogger(log), WithMetricsRecorder(metrics))

	inst, err := svc.StartExperiment(context.Background(), testUser, tplTemp)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if !inst.CreatedAt.Equal(fixed) || !inst.StartDate.Equal(date(2024, 5, 6)) {
		t.Fatalf("expected clock override to stamp records, got %+v", inst)
	}
	if _, err := svc.StartExperiment(context.Background(), testUser, tplTemp); err == nil {
		t.Fatalf("expected conflict")
	}
	if !metrics.has("experiment.start", true) || !metrics.has("experiment.start", false) {
		t.Fatalf("expected success and failure observations, got %+v", metrics.calls)
	}
	if !log.has("d:operation completed") || !log.has("e:operation failed") {
		t.Fatalf("expected debug and error logs, got %v", log.calls)
	}
}

func TestServiceNilOptionsKeepDefaults(t *testing.T) {
	svc := NewInMemoryService(testCatalog(), WithLogger(nil), WithClock(nil), WithMetricsRecorder(nil), WithInsight(nil), WithRecommender(nil))
	if svc.logger == nil || svc.clock == nil || svc.metrics == nil || svc.insight == nil || svc.recommender == nil {
		t.Fatalf("nil options must not clear defaults")
	}
	if _, err := svc.StartExperiment(context.Background(), testUser, tplTemp); err != nil {
		t.Fatalf("start with defaults: %v", err)
	}
}

type warnRule struct{}

func (warnRule) Name() string { return "warn_rule" }

func (warnRule) Evaluate(context.Context, domain.RuleView, []domain.Change) (domain.Result, error) {
	return domain.Result{Violations: []domain.Violation{{Rule: "warn_rule", Severity: domain.SeverityWarn, Message: "heads up"}}}, nil
}

func TestRunLogsNonBlockingViolations(t *testing.T) {
	engine := NewDefaultRulesEngine(testCatalog())
	engine.Register(warnRule{})
	log := &captureLogger{}
	svc := NewService(memory.NewStore(engine), testCatalog(), WithLogger(log))

	if _, err := svc.StartExperiment(context.Background(), testUser, tplTemp); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !log.has("w:rule warning") {
		t.Fatalf("expected warning log, got %v", log.calls)
	}
}

func TestServiceWithoutCatalog(t *testing.T) {
	svc := NewService(memory.NewStore(nil), nil)
	_, err := svc.StartExperiment(context.Background(), testUser, tplTemp)
	expectKind(t, err, domain.ErrNotFound)
	if svc.Store() == nil {
		t.Fatalf("expected store accessor")
	}
}
