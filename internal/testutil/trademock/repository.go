package trademock

import (
	"context"

	domain "tradecore/internal/domain/trade"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
type Repo struct {
	CreateFn                func(ctx context.Context, t *domain.Trade) error
	SaveFn                  func(ctx context.Context, t *domain.Trade) error
	GetByTradeIDFn          func(ctx context.Context, tradeID string) (*domain.Trade, error)
	GetByTradeIDForUpdateFn func(ctx context.Context, tradeID string) (*domain.Trade, error)
	ListFn                  func(ctx context.Context, f domain.ListFilter) ([]domain.Trade, error)
	CreateVersionFn         func(ctx context.Context, v *domain.Version) error
	ListVersionsFn          func(ctx context.Context, tradeID string) ([]domain.Version, error)
}

func (m *Repo) Create(ctx context.Context, t *domain.Trade) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, t)
	}
	return nil
}

func (m *Repo) Save(ctx context.Context, t *domain.Trade) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, t)
	}
	return nil
}

func (m *Repo) GetByTradeID(ctx context.Context, tradeID string) (*domain.Trade, error) {
	if m.GetByTradeIDFn != nil {
		return m.GetByTradeIDFn(ctx, tradeID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByTradeIDForUpdate(ctx context.Context, tradeID string) (*domain.Trade, error) {
	if m.GetByTradeIDForUpdateFn != nil {
		return m.GetByTradeIDForUpdateFn(ctx, tradeID)
	}
	return nil, context.Canceled
}

func (m *Repo) List(ctx context.Context, f domain.ListFilter) ([]domain.Trade, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, f)
	}
	return nil, nil
}

func (m *Repo) CreateVersion(ctx context.Context, v *domain.Version) error {
	if m.CreateVersionFn != nil {
		return m.CreateVersionFn(ctx, v)
	}
	return nil
}

func (m *Repo) ListVersions(ctx context.Context, tradeID string) ([]domain.Version, error) {
	if m.ListVersionsFn != nil {
		return m.ListVersionsFn(ctx, tradeID)
	}
	return nil, nil
}
