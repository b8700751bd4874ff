package core

import (
	"context"
	"fmt"

	"vitalcore/pkg/domain"
)

// InstanceLifecycleRule blocks illegal experiment status transitions. Instances
// are created Active, may only move Active to Completed, and are frozen once Completed.
func InstanceLifecycleRule() domain.Rule {
	return instanceLifecycleRule{}
}

type instanceLifecycleRule struct{}

func (instanceLifecycleRule) Name() string { return ruleInstanceLifecycle }

func (r instanceLifecycleRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	block := func(id, msg string) {
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     r.Name(),
			Severity: domain.SeverityBlock,
			Message:  msg,
			Entity:   domain.EntityInstance,
			EntityID: id,
		})
	}
	for _, change := range changes {
		if change.Entity != domain.EntityInstance {
			continue
		}
		before, hasBefore := instancePayload(change.Before)
		after, hasAfter := instancePayload(change.After)

		switch change.Action {
		case domain.ActionCreate:
			if hasAfter && after.Status != domain.StatusActive {
				block(after.ID, fmt.Sprintf("experiment %s must start as %s, not %s", after.ID, domain.StatusActive, after.Status))
			}
		case domain.ActionUpdate:
			if !hasBefore || !hasAfter {
				continue
			}
			switch before.Status {
			case domain.StatusCompleted:
				block(after.ID, fmt.Sprintf("experiment %s is completed and cannot change", after.ID))
			case domain.StatusActive:
				if after.Status != domain.StatusActive && after.Status != domain.StatusCompleted {
					block(after.ID, fmt.Sprintf("cannot move experiment %s from %s to %s", after.ID, before.Status, after.Status))
				}
			default:
				block(after.ID, fmt.Sprintf("experiment %s has invalid state %s", after.ID, before.Status))
			}
		case domain.ActionDelete:
			if hasBefore && before.Status == domain.StatusCompleted {
				block(before.ID, fmt.Sprintf("experiment %s is completed and cannot be stopped", before.ID))
			}
		}
	}
	return res, nil
}
