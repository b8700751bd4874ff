package core

import (
	"context"
	"fmt"
	"math"

	"vitalcore/pkg/domain"
)

// RecordMeasurement writes value for (day, inputID), replacing any earlier value.
// An empty unit takes the template input's unit; any other unit must match it.
func (s *Service) RecordMeasurement(ctx context.Context, userID, id string, day int, inputID string, value float64, unit string) (domain.MeasurementValue, error) {
	var written domain.MeasurementValue
	_, err := s.updateActive(ctx, "measurement.record", userID, id, func(inst *domain.ExperimentInstance, tpl domain.ExperimentTemplate) error {
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return domain.Validation(domain.EntityInstance, "value", "must be a finite number")
		}
		if day < 1 || day > tpl.DurationDays {
			return domain.Validation(domain.EntityInstance, "day", fmt.Sprintf("%d outside 1..%d", day, tpl.DurationDays))
		}
		def, ok := tpl.Input(inputID)
		if !ok {
			return domain.Validation(domain.EntityInstance, "input_id", "unknown input "+inputID)
		}
		if unit == "" {
			unit = def.Unit
		}
		if unit != def.Unit {
			return domain.Validation(domain.EntityInstance, "unit", fmt.Sprintf("%q does not match %q", unit, def.Unit))
		}
		if value < def.Min || value > def.Max {
			return domain.Validation(domain.EntityInstance, "value", fmt.Sprintf("%g outside %g-%g", value, def.Min, def.Max))
		}
		written = domain.MeasurementValue{Value: value, Unit: def.Unit, Timestamp: s.now()}
		if inst.Measurements == nil {
			inst.Measurements = domain.Measurements{}
		}
		inst.Measurements.Set(day, inputID, written)
		return nil
	})
	if err != nil {
		return domain.MeasurementValue{}, err
	}
	return written, nil
}

// ReadMeasurements returns the values recorded on day, empty when none were.
func (s *Service) ReadMeasurements(ctx context.Context, userID, id string, day int) (map[string]domain.MeasurementValue, error) {
	var out map[string]domain.MeasurementValue
	err := s.view(ctx, "measurement.read", func(v domain.TransactionView) error {
		inst, err := ownedInstance(v.FindInstance, userID, id)
		if err != nil {
			return err
		}
		out = inst.Measurements.Day(day)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
