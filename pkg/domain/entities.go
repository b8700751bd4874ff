// Package domain defines the core persistent entities, value types, and
// rule evaluation primitives used by vitalcore.
package domain

import (
	"sort"
	"time"
)

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityTemplate identifies a catalog experiment template.
	EntityTemplate EntityType = "experiment_template"
	// EntityInstance identifies a user's experiment instance.
	EntityInstance EntityType = "experiment_instance"
	// EntityVitals identifies a daily vitals record.
	EntityVitals EntityType = "daily_vitals"
	// EntityArchive identifies an archived experiment document.
	EntityArchive EntityType = "experiment_archive"
)

// Category groups experiment templates in the catalog.
type Category string

// Fixed template categories.
const (
	CategoryMetabolism Category = "metabolism"
	CategoryNutrition  Category = "nutrition"
	CategorySleep      Category = "sleep"
	CategoryStress     Category = "stress"
	CategoryMovement   Category = "movement"
)

// Valid reports whether c is one of the fixed categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryMetabolism, CategoryNutrition, CategorySleep, CategoryStress, CategoryMovement:
		return true
	}
	return false
}

// InstanceStatus enumerates experiment instance lifecycle states.
type InstanceStatus string

// Instance statuses. Stopped instances are deleted, so StatusStopped never
// appears on a stored record; it is reported by errors about discarded instances.
const (
	StatusActive    InstanceStatus = "active"
	StatusCompleted InstanceStatus = "completed"
	StatusStopped   InstanceStatus = "stopped"
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Base contains common fields for all domain records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MeasurementInputDefinition declares a numeric input a template asks the user to record.
type MeasurementInputDefinition struct {
	ID    string  `json:"id" yaml:"id"`
	Label string  `json:"label" yaml:"label"`
	Unit  string  `json:"unit" yaml:"unit"`
	Min   float64 `json:"min" yaml:"min"`
	Max   float64 `json:"max" yaml:"max"`
	Step  float64 `json:"step" yaml:"step"`
}

// ChecklistItem is one entry of a template's daily checklist.
type ChecklistItem struct {
	ID   string `json:"id" yaml:"id"`
	Text string `json:"text" yaml:"text"`
}

// ExperimentTemplate is the immutable, catalog-owned description of an experiment.
type ExperimentTemplate struct {
	ID                  string                       `json:"id" yaml:"id"`
	Title               string                       `json:"title" yaml:"title"`
	DurationDays        int                          `json:"duration_days" yaml:"duration_days"`
	Category            Category                     `json:"category" yaml:"category"`
	Summary             string                       `json:"summary" yaml:"summary"`
	Instructions        string                       `json:"instructions" yaml:"instructions"`
	Rationale           string                       `json:"rationale,omitempty" yaml:"rationale"`
	DailyChecklistItems []ChecklistItem              `json:"daily_checklist_items,omitempty" yaml:"daily_checklist_items"`
	MeasurementInputs   []MeasurementInputDefinition `json:"measurement_inputs,omitempty" yaml:"measurement_inputs"`
}

// Input returns the measurement input definition with the given id.
func (t ExperimentTemplate) Input(id string) (MeasurementInputDefinition, bool) {
	for _, in := range t.MeasurementInputs {
		if in.ID == id {
			return in, true
		}
	}
	return MeasurementInputDefinition{}, false
}

// HasChecklistItem reports whether the template declares a checklist item with id.
func (t ExperimentTemplate) HasChecklistItem(id string) bool {
	for _, item := range t.DailyChecklistItems {
		if item.ID == id {
			return true
		}
	}
	return false
}

// LogEntry is one submission of a day's data against an experiment instance.
type LogEntry struct {
	Timestamp   time.Time `json:"timestamp"`
	Temperature *float64  `json:"temperature,omitempty"`
	Pulse       *int      `json:"pulse,omitempty"`
	Notes       string    `json:"notes"`
}

// MeasurementValue is a single recorded numeric value for a (day, input) pair.
type MeasurementValue struct {
	Value     float64   `json:"value"`
	Unit      string    `json:"unit"`
	Timestamp time.Time `json:"timestamp"`
}

// Measurements maps a relative day number to input id to the last written value.
type Measurements map[int]map[string]MeasurementValue

// Set overwrites the value stored for (day, inputID).
func (m Measurements) Set(day int, inputID string, v MeasurementValue) {
	inputs, ok := m[day]
	if !ok {
		inputs = make(map[string]MeasurementValue)
		m[day] = inputs
	}
	inputs[inputID] = v
}

// Day returns a copy of the values recorded for day; empty when nothing was recorded.
func (m Measurements) Day(day int) map[string]MeasurementValue {
	out := make(map[string]MeasurementValue, len(m[day]))
	for id, v := range m[day] {
		out[id] = v
	}
	return out
}

// Days returns the recorded day numbers in ascending order.
func (m Measurements) Days() []int {
	days := make([]int, 0, len(m))
	for d := range m {
		days = append(days, d)
	}
	sort.Ints(days)
	return days
}

// Clone returns a deep copy.
func (m Measurements) Clone() Measurements {
	if m == nil {
		return nil
	}
	out := make(Measurements, len(m))
	for day, inputs := range m {
		cp := make(map[string]MeasurementValue, len(inputs))
		for id, v := range inputs {
			cp[id] = v
		}
		out[day] = cp
	}
	return out
}

// ExperimentInstance is a user's running or finished attempt at a template.
type ExperimentInstance struct {
	Base
	UserID         string              `json:"user_id"`
	TemplateID     string              `json:"template_id"`
	StartDate      time.Time           `json:"start_date"`
	Status         InstanceStatus      `json:"status"`
	CompletedAt    *time.Time          `json:"completed_at,omitempty"`
	ChecklistState map[string]struct{} `json:"checklist_state"`
	DailyLog       []LogEntry          `json:"daily_log"`
	Measurements   Measurements        `json:"measurements"`
}

// ChecklistDone reports whether itemID is currently checked.
func (i ExperimentInstance) ChecklistDone(itemID string) bool {
	_, ok := i.ChecklistState[itemID]
	return ok
}

// ChecklistItems returns the checked item ids in sorted order.
func (i ExperimentInstance) ChecklistItems() []string {
	out := make([]string, 0, len(i.ChecklistState))
	for id := range i.ChecklistState {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Digestion is the self-reported digestion quality of a vitals record.
type Digestion string

// Digestion values.
const (
	DigestionGood Digestion = "good"
	DigestionOkay Digestion = "okay"
	DigestionPoor Digestion = "poor"
)

// Mood is the self-reported mood of a vitals record.
type Mood string

// Mood values.
const (
	MoodGood Mood = "good"
	MoodOkay Mood = "okay"
	MoodBad  Mood = "bad"
)

// DailyChecklist is the fixed checklist whose indices DailyVitalsRecord.ChecklistCompleted refers to.
var DailyChecklist = []string{
	"Took morning temperature before getting up",
	"Ate breakfast within an hour of waking",
	"Got ten minutes of morning light",
	"Ate a carbohydrate snack in the evening",
	"Screens off thirty minutes before bed",
}

// DailyVitalsRecord is a user's once-per-date entry of baseline health metrics.
type DailyVitalsRecord struct {
	Base
	UserID             string    `json:"user_id"`
	Date               time.Time `json:"date"`
	Temperature        float64   `json:"temperature"`
	Pulse              int       `json:"pulse"`
	Energy             int       `json:"energy"`
	Sleep              int       `json:"sleep"`
	Digestion          Digestion `json:"digestion"`
	Stress             int       `json:"stress"`
	Mood               Mood      `json:"mood"`
	Notes              string    `json:"notes,omitempty"`
	SymptomNotes       string    `json:"symptom_notes,omitempty"`
	ChecklistCompleted []int     `json:"checklist_completed,omitempty"`
}

// Change describes a mutation applied within a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported CRUD operations captured in audit trail.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// Blocking returns the blocking violations in evaluation order.
func (r Result) Blocking() []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			out = append(out, v)
		}
	}
	return out
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	blocking := e.Result.Blocking()
	if len(blocking) == 0 {
		return "transaction blocked by rules"
	}
	return "transaction blocked by rules: " + blocking[0].Message
}
