package trademock

import (
	"context"

	domain "tradecore/internal/domain/trade"
)

var _ domain.TemplateRepository = (*TemplateRepo)(nil)

type TemplateRepo struct {
	CreateFn func(ctx context.Context, d *domain.DealTemplate) error
	SaveFn   func(ctx context.Context, d *domain.DealTemplate) error
	GetFn    func(ctx context.Context, id uint64) (*domain.DealTemplate, error)
	ListFn   func(ctx context.Context) ([]domain.DealTemplate, error)
}

func (m *TemplateRepo) Create(ctx context.Context, d *domain.DealTemplate) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, d)
	}
	return nil
}

func (m *TemplateRepo) Save(ctx context.Context, d *domain.DealTemplate) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, d)
	}
	return nil
}

func (m *TemplateRepo) Get(ctx context.Context, id uint64) (*domain.DealTemplate, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, id)
	}
	return nil, context.Canceled
}

func (m *TemplateRepo) List(ctx context.Context) ([]domain.DealTemplate, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx)
	}
	return nil, nil
}
