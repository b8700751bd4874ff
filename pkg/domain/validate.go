package domain

import (
	"fmt"
	"math"
)

// Accepted vitals ranges.
const (
	MinTemperatureF = 90.0
	MaxTemperatureF = 110.0
	MinPulse        = 30
	MaxPulse        = 220
	MinScale        = 1
	MaxScale        = 10
)

// ValidateTemperature checks a Fahrenheit body temperature.
func ValidateTemperature(entity EntityType, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Validation(entity, "temperature", "must be a finite number")
	}
	if v < MinTemperatureF || v > MaxTemperatureF {
		return Validation(entity, "temperature", fmt.Sprintf("%.1f°F outside %.0f-%.0f", v, MinTemperatureF, MaxTemperatureF))
	}
	return nil
}

// ValidatePulse checks a resting pulse in beats per minute.
func ValidatePulse(entity EntityType, v int) error {
	if v < MinPulse || v > MaxPulse {
		return Validation(entity, "pulse", fmt.Sprintf("%d bpm outside %d-%d", v, MinPulse, MaxPulse))
	}
	return nil
}

func validateScale(field string, v int) error {
	if v < MinScale || v > MaxScale {
		return Validation(EntityVitals, field, fmt.Sprintf("%d outside %d-%d", v, MinScale, MaxScale))
	}
	return nil
}

// ValidateLogEntry checks the optional vitals carried by an experiment log entry.
func ValidateLogEntry(e LogEntry) error {
	if e.Temperature != nil {
		if err := ValidateTemperature(EntityInstance, *e.Temperature); err != nil {
			return err
		}
	}
	if e.Pulse != nil {
		if err := ValidatePulse(EntityInstance, *e.Pulse); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks every field of a vitals record against the accepted ranges.
func (r DailyVitalsRecord) Validate() error {
	if r.UserID == "" {
		return Validation(EntityVitals, "user_id", "required")
	}
	if r.Date.IsZero() {
		return Validation(EntityVitals, "date", "required")
	}
	if err := ValidateTemperature(EntityVitals, r.Temperature); err != nil {
		return err
	}
	if err := ValidatePulse(EntityVitals, r.Pulse); err != nil {
		return err
	}
	if err := validateScale("energy", r.Energy); err != nil {
		return err
	}
	if err := validateScale("sleep", r.Sleep); err != nil {
		return err
	}
	if err := validateScale("stress", r.Stress); err != nil {
		return err
	}
	switch r.Digestion {
	case DigestionGood, DigestionOkay, DigestionPoor:
	default:
		return Validation(EntityVitals, "digestion", fmt.Sprintf("unknown value %q", r.Digestion))
	}
	switch r.Mood {
	case MoodGood, MoodOkay, MoodBad:
	default:
		return Validation(EntityVitals, "mood", fmt.Sprintf("unknown value %q", r.Mood))
	}
	seen := make(map[int]struct{}, len(r.ChecklistCompleted))
	for _, idx := range r.ChecklistCompleted {
		if idx < 0 || idx >= len(DailyChecklist) {
			return Validation(EntityVitals, "checklist_completed", fmt.Sprintf("index %d out of range", idx))
		}
		if _, dup := seen[idx]; dup {
			return Validation(EntityVitals, "checklist_completed", fmt.Sprintf("index %d repeated", idx))
		}
		seen[idx] = struct{}{}
	}
	return nil
}
