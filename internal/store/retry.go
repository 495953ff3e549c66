package store

import (
	"context"

	"github.com/sells-group/bankfacts/internal/model"
	"github.com/sells-group/bankfacts/internal/resilience"
)

// retrying retries reads and writes that fail on lock contention or a
// dropped connection.
type retrying struct {
	Store
	policy resilience.Policy
}

// WithRetry wraps s so each call is retried under p.
func WithRetry(s Store, p resilience.Policy) Store {
	return &retrying{Store: s, policy: p}
}

func (r *retrying) LoadStatuses(ctx context.Context) (model.StatusMap, error) {
	var m model.StatusMap
	err := resilience.Do(ctx, r.policy, "load statuses", func(ctx context.Context) error {
		var err error
		m, err = r.Store.LoadStatuses(ctx)
		return err
	})
	return m, err
}

func (r *retrying) SaveStatus(ctx context.Context, key model.FactKey, st model.ValidationStatus) error {
	return resilience.Do(ctx, r.policy, "save status", func(ctx context.Context) error {
		return r.Store.SaveStatus(ctx, key, st)
	})
}

func (r *retrying) SaveStatuses(ctx context.Context, m model.StatusMap) error {
	return resilience.Do(ctx, r.policy, "save statuses", func(ctx context.Context) error {
		return r.Store.SaveStatuses(ctx, m)
	})
}

func (r *retrying) DeleteAllStatuses(ctx context.Context) error {
	return resilience.Do(ctx, r.policy, "delete statuses", r.Store.DeleteAllStatuses)
}

func (r *retrying) SaveCandidates(ctx context.Context, cs []model.Candidate) error {
	return resilience.Do(ctx, r.policy, "save candidates", func(ctx context.Context) error {
		return r.Store.SaveCandidates(ctx, cs)
	})
}

func (r *retrying) LoadCandidates(ctx context.Context) ([]model.Candidate, error) {
	var cs []model.Candidate
	err := resilience.Do(ctx, r.policy, "load candidates", func(ctx context.Context) error {
		var err error
		cs, err = r.Store.LoadCandidates(ctx)
		return err
	})
	return cs, err
}
