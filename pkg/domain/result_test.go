package domain

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestResultMergeAndBlocking(t *testing.T) {
	var result Result
	result.Merge(Result{Violations: []Violation{{Rule: "warn", Severity: SeverityWarn}}})
	if result.HasBlocking() {
		t.Fatalf("expected no blocking violations")
	}
	result.Merge(Result{Violations: []Violation{{Rule: "block", Severity: SeverityBlock, Message: "over limit"}}})
	if !result.HasBlocking() {
		t.Fatalf("expected blocking violation")
	}
	if got := result.Blocking(); len(got) != 1 || got[0].Rule != "block" {
		t.Fatalf("unexpected blocking set %+v", got)
	}
	err := RuleViolationError{Result: result}
	if !strings.Contains(err.Error(), "over limit") {
		t.Fatalf("expected first blocking message in error, got %q", err.Error())
	}
}

func TestResultMergeEmptyInput(t *testing.T) {
	original := Result{Violations: []Violation{{Rule: "existing", Severity: SeverityWarn}}}
	original.Merge(Result{})
	if len(original.Violations) != 1 || original.Violations[0].Rule != "existing" {
		t.Fatalf("expected original violations to remain, got %+v", original.Violations)
	}
	if (RuleViolationError{}).Error() != "transaction blocked by rules" {
		t.Fatalf("unexpected message for empty result")
	}
}

func TestRulesEngineEvaluate(t *testing.T) {
	var seen []Change
	recorder := RuleFunc{RuleName: "recorder", Fn: func(_ context.Context, _ RuleView, changes []Change) (Result, error) {
		seen = changes
		return Result{}, nil
	}}
	engine := NewRulesEngine(staticRule{"warn"}, nil)
	engine.Register(recorder)
	changes := []Change{{Entity: EntityVitals, Action: ActionCreate}}
	res, err := engine.Evaluate(context.Background(), emptyView{}, changes)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(res.Violations) != 1 || res.HasBlocking() {
		t.Fatalf("expected one warning, got %+v", res.Violations)
	}
	if len(seen) != 1 {
		t.Fatalf("rule did not receive the changes")
	}
	rules := engine.Rules()
	if len(rules) != 2 || rules[1].Name() != "recorder" {
		t.Fatalf("unexpected rule order %v", rules)
	}
	rules[0] = nil
	if engine.Rules()[0] == nil {
		t.Fatalf("Rules must return a copy")
	}
}

func TestRulesEngineStopsOnRuleError(t *testing.T) {
	engine := NewRulesEngine(failingRule{}, staticRule{"never"})
	_, err := engine.Evaluate(context.Background(), emptyView{}, nil)
	if err == nil || err.Error() != "rule failing: boom" {
		t.Fatalf("expected wrapped rule error, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewRulesEngine(staticRule{"warn"}).Evaluate(ctx, emptyView{}, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}

func TestErrorKindsMatchWithErrorsIs(t *testing.T) {
	cases := []struct {
		err  error
		kind error
		text string
	}{
		{NotFound(EntityInstance, "abc"), ErrNotFound, "experiment_instance abc: not found"},
		{Conflict(EntityInstance, "", "already active"), ErrConflict, "experiment_instance: already active"},
		{InvalidState(EntityInstance, "abc", "completed"), ErrInvalidState, "experiment_instance abc: completed"},
		{Validation(EntityVitals, "pulse", "too high"), ErrValidation, "daily_vitals field pulse: too high"},
	}
	for _, tc := range cases {
		if !errors.Is(tc.err, tc.kind) {
			t.Fatalf("expected %v to match %v", tc.err, tc.kind)
		}
		if tc.err.Error() != tc.text {
			t.Fatalf("expected %q, got %q", tc.text, tc.err.Error())
		}
	}
}

type staticRule struct{ name string }

func (r staticRule) Name() string { return r.name }

func (r staticRule) Evaluate(context.Context, RuleView, []Change) (Result, error) {
	return Result{Violations: []Violation{{Rule: r.name, Severity: SeverityWarn}}}, nil
}

type failingRule struct{}

func (failingRule) Name() string { return "failing" }

func (failingRule) Evaluate(context.Context, RuleView, []Change) (Result, error) {
	return Result{}, errors.New("boom")
}

type emptyView struct{}

func (emptyView) ListInstances() []ExperimentInstance                    { return nil }
func (emptyView) FindInstance(string) (ExperimentInstance, bool)         { return ExperimentInstance{}, false }
func (emptyView) ListVitals() []DailyVitalsRecord                        { return nil }
func (emptyView) FindVitals(string, time.Time) (DailyVitalsRecord, bool) { return DailyVitalsRecord{}, false }
