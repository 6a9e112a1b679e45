package trademock

import (
	"context"

	domain "tradecore/internal/domain/trade"
)

var _ domain.LifecycleRuleRepository = (*LifecycleRuleRepo)(nil)

type LifecycleRuleRepo struct {
	CreateFn      func(ctx context.Context, r *domain.LifecycleRule) error
	SaveFn        func(ctx context.Context, r *domain.LifecycleRule) error
	GetFn         func(ctx context.Context, id uint64) (*domain.LifecycleRule, error)
	ListFn        func(ctx context.Context) ([]domain.LifecycleRule, error)
	ListByEventFn func(ctx context.Context, ev domain.Trigger) ([]domain.LifecycleRule, error)
}

func (m *LifecycleRuleRepo) Create(ctx context.Context, r *domain.LifecycleRule) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, r)
	}
	return nil
}

func (m *LifecycleRuleRepo) Save(ctx context.Context, r *domain.LifecycleRule) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, r)
	}
	return nil
}

func (m *LifecycleRuleRepo) Get(ctx context.Context, id uint64) (*domain.LifecycleRule, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, id)
	}
	return nil, context.Canceled
}

func (m *LifecycleRuleRepo) List(ctx context.Context) ([]domain.LifecycleRule, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx)
	}
	return nil, nil
}

func (m *LifecycleRuleRepo) ListByEvent(ctx context.Context, ev domain.Trigger) ([]domain.LifecycleRule, error) {
	if m.ListByEventFn != nil {
		return m.ListByEventFn(ctx, ev)
	}
	return nil, nil
}
