package core

import (
	"context"
	"time"

	"vitalcore/internal/insight"
	"vitalcore/pkg/domain"
)

// ExperimentInsight returns generated commentary on an owned instance's log.
// Generator failures produce the fallback text rather than an error.
func (s *Service) ExperimentInsight(ctx context.Context, userID, id string) (string, error) {
	var text string
	err := s.run(ctx, "experiment.insight", func() (domain.Result, error) {
		view, err := s.loadView(ctx, userID, id)
		if err != nil {
			return domain.Result{}, err
		}
		text = s.insight.Insight(ctx, insightRequest(view, s.today()))
		return domain.Result{}, nil
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

func (s *Service) loadView(ctx context.Context, userID, id string) (ExperimentView, error) {
	var out ExperimentView
	err := s.store.View(ctx, func(v domain.TransactionView) error {
		inst, err := ownedInstance(v.FindInstance, userID, id)
		if err != nil {
			return err
		}
		tpl, err := s.template(inst.TemplateID)
		if err != nil {
			return err
		}
		out = ExperimentView{Instance: inst, Template: tpl}
		return nil
	})
	return out, err
}

func insightRequest(view ExperimentView, asOf time.Time) insight.Request {
	logs := make([]domain.LogEntry, len(view.Instance.DailyLog))
	copy(logs, view.Instance.DailyLog)
	return insight.Request{
		PriorLogs:     logs,
		TemplateTitle: view.Template.Title,
		AsOfDate:      asOf,
	}
}
