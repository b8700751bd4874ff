package core

import "vitalcore/pkg/domain"

const (
	ruleActiveInstanceUniqueness = "active_instance_uniqueness"
	ruleVitalsDateUniqueness     = "vitals_date_uniqueness"
	ruleInstanceLifecycle        = "instance_lifecycle"
	ruleMeasurementUnits         = "measurement_units"
)

// NewDefaultRulesEngine builds a rules engine with the built-in policy set.
// The measurement rule resolves templates through catalog; a nil catalog skips it.
func NewDefaultRulesEngine(catalog TemplateCatalog) *domain.RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(ActiveInstanceUniquenessRule())
	engine.Register(VitalsDateUniquenessRule())
	engine.Register(InstanceLifecycleRule())
	if catalog != nil {
		engine.Register(MeasurementUnitsRule(catalog))
	}
	return engine
}

func instancePayload(v any) (domain.ExperimentInstance, bool) {
	switch inst := v.(type) {
	case domain.ExperimentInstance:
		return inst, true
	case *domain.ExperimentInstance:
		if inst == nil {
			return domain.ExperimentInstance{}, false
		}
		return *inst, true
	}
	return domain.ExperimentInstance{}, false
}

func vitalsPayload(v any) (domain.DailyVitalsRecord, bool) {
	switch rec := v.(type) {
	case domain.DailyVitalsRecord:
		return rec, true
	case *domain.DailyVitalsRecord:
		if rec == nil {
			return domain.DailyVitalsRecord{}, false
		}
		return *rec, true
	}
	return domain.DailyVitalsRecord{}, false
}
