package core

import (
	"context"

	"vitalcore/pkg/domain"
)

// RecordVitals stores rec for its user and date. A record already present for
// that date is updated in place. A zero date means today.
func (s *Service) RecordVitals(ctx context.Context, userID string, rec domain.DailyVitalsRecord) (domain.DailyVitalsRecord, error) {
	rec.UserID = userID
	if rec.Date.IsZero() {
		rec.Date = s.today()
	}
	rec.Date = domain.DateOf(rec.Date)
	var saved domain.DailyVitalsRecord
	err := s.transact(ctx, "vitals.record", func(tx domain.Transaction) error {
		if err := rec.Validate(); err != nil {
			return err
		}
		var err error
		saved, err = tx.UpsertVitals(rec)
		return err
	})
	if err != nil {
		return domain.DailyVitalsRecord{}, err
	}
	return saved, nil
}

// ListVitals returns userID's vitals records, newest first.
func (s *Service) ListVitals(ctx context.Context, userID string) ([]domain.DailyVitalsRecord, error) {
	var out []domain.DailyVitalsRecord
	err := s.run(ctx, "vitals.list", func() (domain.Result, error) {
		out = s.store.ListVitals(userID)
		return domain.Result{}, nil
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.DailyVitalsRecord{}
	}
	return out, nil
}

// GetRecommendations returns recommendation ids derived from userID's recent vitals.
func (s *Service) GetRecommendations(ctx context.Context, userID string) ([]string, error) {
	var out []string
	err := s.run(ctx, "recommendations.get", func() (domain.Result, error) {
		out = s.recommender.Recommend(s.store.ListVitals(userID), s.maxRecommendations)
		return domain.Result{}, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
