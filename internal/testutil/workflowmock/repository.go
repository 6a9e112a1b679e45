package workflowmock

import (
	"context"

	domain "tradecore/internal/domain/workflow"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
type Repo struct {
	CreateFn             func(ctx context.Context, w *domain.Workflow) error
	SaveFn               func(ctx context.Context, w *domain.Workflow) error
	GetLatestByTradeIDFn func(ctx context.Context, tradeID string) (*domain.Workflow, error)
	ListAwaitingFn       func(ctx context.Context) ([]domain.Workflow, error)
}

func (m *Repo) Create(ctx context.Context, w *domain.Workflow) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, w)
	}
	return nil
}

func (m *Repo) Save(ctx context.Context, w *domain.Workflow) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, w)
	}
	return nil
}

func (m *Repo) GetLatestByTradeID(ctx context.Context, tradeID string) (*domain.Workflow, error) {
	if m.GetLatestByTradeIDFn != nil {
		return m.GetLatestByTradeIDFn(ctx, tradeID)
	}
	return nil, context.Canceled
}

func (m *Repo) ListAwaiting(ctx context.Context) ([]domain.Workflow, error) {
	if m.ListAwaitingFn != nil {
		return m.ListAwaitingFn(ctx)
	}
	return nil, nil
}
