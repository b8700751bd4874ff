package core

import (
	"context"
	"time"

	"vitalcore/pkg/domain"
)

// LogInput is one day's submission against an experiment.
type LogInput struct {
	Temperature *float64
	Pulse       *int
	Notes       string
}

// ExperimentView is an instance together with its template and derived progress.
type ExperimentView struct {
	Instance   domain.ExperimentInstance
	Template   domain.ExperimentTemplate
	CurrentDay int
	Progress   float64
}

// StartExperiment starts templateID for userID today.
func (s *Service) StartExperiment(ctx context.Context, userID, templateID string) (domain.ExperimentInstance, error) {
	return s.StartExperimentOn(ctx, userID, templateID, s.today())
}

// StartExperimentOn starts templateID for userID on startDate. It fails with a
// conflict while an Active instance of the same template exists for the user.
func (s *Service) StartExperimentOn(ctx context.Context, userID, templateID string, startDate time.Time) (domain.ExperimentInstance, error) {
	var created domain.ExperimentInstance
	err := s.transact(ctx, "experiment.start", func(tx domain.Transaction) error {
		if err := requireUser(userID); err != nil {
			return err
		}
		if _, err := s.template(templateID); err != nil {
			return err
		}
		if startDate.IsZero() {
			return domain.Validation(domain.EntityInstance, "start_date", "is required")
		}
		var err error
		created, err = tx.CreateInstance(domain.ExperimentInstance{
			UserID:         userID,
			TemplateID:     templateID,
			StartDate:      domain.DateOf(startDate),
			Status:         domain.StatusActive,
			ChecklistState: map[string]struct{}{},
			DailyLog:       []domain.LogEntry{},
			Measurements:   domain.Measurements{},
		})
		return err
	})
	if err != nil {
		return domain.ExperimentInstance{}, err
	}
	return created, nil
}

// updateActive applies mutate to an Active instance owned by userID.
func (s *Service) updateActive(ctx context.Context, op, userID, id string, mutate func(*domain.ExperimentInstance, domain.ExperimentTemplate) error) (domain.ExperimentInstance, error) {
	var updated domain.ExperimentInstance
	err := s.transact(ctx, op, func(tx domain.Transaction) error {
		current, err := ownedInstance(tx.FindInstance, userID, id)
		if err != nil {
			return err
		}
		if current.Status != domain.StatusActive {
			return domain.InvalidState(domain.EntityInstance, id, "experiment is "+string(current.Status))
		}
		tpl, err := s.template(current.TemplateID)
		if err != nil {
			return err
		}
		updated, err = tx.UpdateInstance(id, func(inst *domain.ExperimentInstance) error {
			return mutate(inst, tpl)
		})
		return err
	})
	if err != nil {
		return domain.ExperimentInstance{}, err
	}
	return updated, nil
}

// LogExperimentDay appends a log entry stamped with the current time.
func (s *Service) LogExperimentDay(ctx context.Context, userID, id string, in LogInput) (domain.ExperimentInstance, error) {
	entry := domain.LogEntry{
		Timestamp:   s.now(),
		Temperature: in.Temperature,
		Pulse:       in.Pulse,
		Notes:       in.Notes,
	}
	return s.updateActive(ctx, "experiment.log", userID, id, func(inst *domain.ExperimentInstance, _ domain.ExperimentTemplate) error {
		if err := domain.ValidateLogEntry(entry); err != nil {
			return err
		}
		inst.DailyLog = append(inst.DailyLog, entry)
		return nil
	})
}

// ToggleChecklist flips itemID in the instance's checklist state.
func (s *Service) ToggleChecklist(ctx context.Context, userID, id, itemID string) (domain.ExperimentInstance, error) {
	return s.updateActive(ctx, "experiment.toggle_checklist", userID, id, func(inst *domain.ExperimentInstance, tpl domain.ExperimentTemplate) error {
		if !tpl.HasChecklistItem(itemID) {
			return domain.Validation(domain.EntityInstance, "checklist_item", "unknown item "+itemID)
		}
		if inst.ChecklistState == nil {
			inst.ChecklistState = map[string]struct{}{}
		}
		if _, done := inst.ChecklistState[itemID]; done {
			delete(inst.ChecklistState, itemID)
		} else {
			inst.ChecklistState[itemID] = struct{}{}
		}
		return nil
	})
}

// CompleteExperiment marks an Active instance Completed as of today.
func (s *Service) CompleteExperiment(ctx context.Context, userID, id string) (domain.ExperimentInstance, error) {
	today := s.today()
	return s.updateActive(ctx, "experiment.complete", userID, id, func(inst *domain.ExperimentInstance, _ domain.ExperimentTemplate) error {
		inst.Status = domain.StatusCompleted
		inst.CompletedAt = &today
		return nil
	})
}

// StopExperiment discards an instance that has not been completed.
func (s *Service) StopExperiment(ctx context.Context, userID, id string) error {
	return s.transact(ctx, "experiment.stop", func(tx domain.Transaction) error {
		current, err := ownedInstance(tx.FindInstance, userID, id)
		if err != nil {
			return err
		}
		if current.Status == domain.StatusCompleted {
			return domain.InvalidState(domain.EntityInstance, id, "completed experiments cannot be stopped")
		}
		return tx.DeleteInstance(id)
	})
}

// ListExperiments returns every instance owned by userID, ordered by start date then id.
func (s *Service) ListExperiments(ctx context.Context, userID string) ([]domain.ExperimentInstance, error) {
	return s.listInstances(ctx, "experiment.list", userID, func(domain.ExperimentInstance) bool { return true })
}

// ListActiveExperiments returns the Active instances owned by userID.
func (s *Service) ListActiveExperiments(ctx context.Context, userID string) ([]domain.ExperimentInstance, error) {
	return s.listInstances(ctx, "experiment.list_active", userID, func(inst domain.ExperimentInstance) bool {
		return inst.Status == domain.StatusActive
	})
}

func (s *Service) listInstances(ctx context.Context, op, userID string, keep func(domain.ExperimentInstance) bool) ([]domain.ExperimentInstance, error) {
	out := []domain.ExperimentInstance{}
	err := s.view(ctx, op, func(v domain.TransactionView) error {
		for _, inst := range v.ListInstances() {
			if inst.UserID == userID && keep(inst) {
				out = append(out, inst)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetExperiment returns an owned instance with its template and current day.
// Completed instances report the day they were completed on.
func (s *Service) GetExperiment(ctx context.Context, userID, id string) (ExperimentView, error) {
	var out ExperimentView
	err := s.view(ctx, "experiment.get", func(v domain.TransactionView) error {
		inst, err := ownedInstance(v.FindInstance, userID, id)
		if err != nil {
			return err
		}
		tpl, err := s.template(inst.TemplateID)
		if err != nil {
			return err
		}
		asOf := s.now()
		if inst.CompletedAt != nil {
			asOf = *inst.CompletedAt
		}
		day := domain.CurrentDay(inst.StartDate, tpl.DurationDays, asOf)
		out = ExperimentView{
			Instance:   inst,
			Template:   tpl,
			CurrentDay: day,
			Progress:   float64(day) / float64(tpl.DurationDays),
		}
		return nil
	})
	if err != nil {
		return ExperimentView{}, err
	}
	return out, nil
}
