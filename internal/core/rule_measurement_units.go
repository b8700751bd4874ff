package core

import (
	"context"
	"fmt"

	"vitalcore/pkg/domain"
)

// MeasurementUnitsRule blocks measurements that reference an unknown input, carry a
// unit other than the template's, or sit outside the template's day range.
func MeasurementUnitsRule(catalog TemplateCatalog) domain.Rule {
	return measurementUnitsRule{catalog: catalog}
}

type measurementUnitsRule struct {
	catalog TemplateCatalog
}

func (measurementUnitsRule) Name() string { return ruleMeasurementUnits }

func (r measurementUnitsRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityInstance || change.Action == domain.ActionDelete {
			continue
		}
		inst, ok := instancePayload(change.After)
		if !ok || len(inst.Measurements) == 0 {
			continue
		}
		tpl, ok := r.catalog.Template(inst.TemplateID)
		if !ok {
			res.Violations = append(res.Violations, r.violation(inst.ID, fmt.Sprintf("template %s is not in the catalog", inst.TemplateID)))
			continue
		}
		for _, day := range inst.Measurements.Days() {
			if day < 1 || day > tpl.DurationDays {
				res.Violations = append(res.Violations, r.violation(inst.ID, fmt.Sprintf("day %d outside 1..%d", day, tpl.DurationDays)))
				continue
			}
			for inputID, v := range inst.Measurements[day] {
				def, ok := tpl.Input(inputID)
				if !ok {
					res.Violations = append(res.Violations, r.violation(inst.ID, fmt.Sprintf("day %d: unknown input %s", day, inputID)))
					continue
				}
				if v.Unit != def.Unit {
					res.Violations = append(res.Violations, r.violation(inst.ID, fmt.Sprintf("day %d: input %s has unit %q, want %q", day, inputID, v.Unit, def.Unit)))
				}
			}
		}
	}
	return res, nil
}

func (r measurementUnitsRule) violation(id, msg string) domain.Violation {
	return domain.Violation{
		Rule:     r.Name(),
		Severity: domain.SeverityBlock,
		Message:  msg,
		Entity:   domain.EntityInstance,
		EntityID: id,
	}
}
