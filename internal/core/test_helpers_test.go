package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"vitalcore/pkg/domain"
)

const (
	testUser  = "user-1"
	otherUser = "user-2"
	tplTemp   = "temp-baseline"
	tplWalk   = "walk"
)

type staticCatalog map[string]domain.ExperimentTemplate

func (c staticCatalog) Template(id string) (domain.ExperimentTemplate, bool) {
	tpl, ok := c[id]
	return tpl, ok
}

func testCatalog() staticCatalog {
	return staticCatalog{
		tplTemp: {
			ID:           tplTemp,
			Title:        "Temperature Baseline",
			DurationDays: 30,
			Category:     domain.CategoryMetabolism,
			DailyChecklistItems: []domain.ChecklistItem{
				{ID: "a", Text: "first"},
				{ID: "b", Text: "second"},
			},
			MeasurementInputs: []domain.MeasurementInputDefinition{
				{ID: "morningTemp", Label: "Temp", Unit: "°F", Min: 95, Max: 100, Step: 0.1},
				{ID: "morningPulse", Label: "Pulse", Unit: "bpm", Min: 40, Max: 120, Step: 1},
			},
		},
		tplWalk: {
			ID:           tplWalk,
			Title:        "Daily Walk",
			DurationDays: 14,
			Category:     domain.CategoryMovement,
			DailyChecklistItems: []domain.ChecklistItem{
				{ID: "walked", Text: "walked"},
			},
			MeasurementInputs: []domain.MeasurementInputDefinition{
				{ID: "walkMinutes", Label: "Minutes", Unit: "min", Min: 0, Max: 180, Step: 5},
			},
		},
	}
}

type stubClock struct{ t time.Time }

func (s stubClock) Now() time.Time { return s.t }

// mutableClock lets a test advance "today" between operations.
type mutableClock struct{ t time.Time }

func (m *mutableClock) Now() time.Time { return m.t }

type captureLogger struct{ calls []string }

func (c *captureLogger) Debug(msg string, _ ...any) { c.calls = append(c.calls, "d:"+msg) }
func (c *captureLogger) Info(msg string, _ ...any)  { c.calls = append(c.calls, "i:"+msg) }
func (c *captureLogger) Warn(msg string, _ ...any)  { c.calls = append(c.calls, "w:"+msg) }
func (c *captureLogger) Error(msg string, _ ...any) { c.calls = append(c.calls, "e:"+msg) }

func (c *captureLogger) has(call string) bool {
	for _, got := range c.calls {
		if got == call {
			return true
		}
	}
	return false
}

type metricsCall struct {
	op      string
	success bool
}

type captureMetricsRecorder struct {
	calls []metricsCall
}

func (c *captureMetricsRecorder) Observe(_ context.Context, op string, success bool, _ time.Duration) {
	c.calls = append(c.calls, metricsCall{op: op, success: success})
}

func (c *captureMetricsRecorder) has(op string, success bool) bool {
	for _, call := range c.calls {
		if call.op == op && call.success == success {
			return true
		}
	}
	return false
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	opts = append([]Option{WithClock(stubClock{t: time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)})}, opts...)
	return NewInMemoryService(testCatalog(), opts...)
}

func mustStart(t *testing.T, svc *Service, userID, templateID string) domain.ExperimentInstance {
	t.Helper()
	inst, err := svc.StartExperiment(context.Background(), userID, templateID)
	if err != nil {
		t.Fatalf("start %s: %v", templateID, err)
	}
	return inst
}

func expectKind(t *testing.T, err, kind error) {
	t.Helper()
	if !errors.Is(err, kind) {
		t.Fatalf("expected %v, got %v", kind, err)
	}
}
