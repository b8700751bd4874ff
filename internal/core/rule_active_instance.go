package core

import (
	"context"
	"fmt"

	"vitalcore/pkg/domain"
)

// ActiveInstanceUniquenessRule blocks a second Active instance for the same user and template.
func ActiveInstanceUniquenessRule() domain.Rule {
	return activeInstanceUniquenessRule{}
}

type activeInstanceUniquenessRule struct{}

type userTemplate struct {
	user     string
	template string
}

func (activeInstanceUniquenessRule) Name() string { return ruleActiveInstanceUniqueness }

func (r activeInstanceUniquenessRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	touched := make(map[userTemplate]string)
	for _, change := range changes {
		if change.Entity != domain.EntityInstance {
			continue
		}
		inst, ok := instancePayload(change.After)
		if !ok || inst.Status != domain.StatusActive {
			continue
		}
		touched[userTemplate{inst.UserID, inst.TemplateID}] = inst.ID
	}
	if len(touched) == 0 {
		return domain.Result{}, nil
	}

	counts := make(map[userTemplate]int)
	for _, inst := range view.ListInstances() {
		if inst.Status != domain.StatusActive {
			continue
		}
		counts[userTemplate{inst.UserID, inst.TemplateID}]++
	}

	res := domain.Result{}
	for key, id := range touched {
		if counts[key] <= 1 {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     r.Name(),
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf("an active %s experiment already exists for this user", key.template),
			Entity:   domain.EntityInstance,
			EntityID: id,
		})
	}
	return res, nil
}
