package core

import (
	"context"
	"fmt"
	"time"

	"vitalcore/pkg/domain"
)

// VitalsDateUniquenessRule blocks more than one vitals record per user and calendar date.
func VitalsDateUniquenessRule() domain.Rule {
	return vitalsDateUniquenessRule{}
}

type vitalsDateUniquenessRule struct{}

type userDate struct {
	user string
	date time.Time
}

func (vitalsDateUniquenessRule) Name() string { return ruleVitalsDateUniqueness }

func (r vitalsDateUniquenessRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	touched := make(map[userDate]string)
	for _, change := range changes {
		if change.Entity != domain.EntityVitals {
			continue
		}
		rec, ok := vitalsPayload(change.After)
		if !ok {
			continue
		}
		touched[userDate{rec.UserID, domain.DateOf(rec.Date)}] = rec.ID
	}
	if len(touched) == 0 {
		return domain.Result{}, nil
	}

	counts := make(map[userDate]int)
	for _, rec := range view.ListVitals() {
		counts[userDate{rec.UserID, domain.DateOf(rec.Date)}]++
	}

	res := domain.Result{}
	for key, id := range touched {
		if counts[key] <= 1 {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     r.Name(),
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf("vitals for %s already recorded", key.date.Format(time.DateOnly)),
			Entity:   domain.EntityVitals,
			EntityID: id,
		})
	}
	return res, nil
}
