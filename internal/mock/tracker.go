package mock

import (
	"context"

	"taxonomy/scraper/internal/domain"
	"taxonomy/scraper/internal/state"
)

var _ state.Tracker = (*Tracker)(nil)

type Tracker struct {
	SetStatusFn func(ctx context.Context, run state.RunKey, category domain.Category, status domain.CategoryStatus) error
	StatusesFn  func(ctx context.Context, run state.RunKey) (map[string]domain.CategoryStatus, error)
}

func (t *Tracker) SetStatus(ctx context.Context, run state.RunKey, category domain.Category, status domain.CategoryStatus) error {
	if t.SetStatusFn == nil {
		return nil
	}
	return t.SetStatusFn(ctx, run, category, status)
}

func (t *Tracker) Statuses(ctx context.Context, run state.RunKey) (map[string]domain.CategoryStatus, error) {
	if t.StatusesFn == nil {
		return map[string]domain.CategoryStatus{}, nil
	}
	return t.StatusesFn(ctx, run)
}
