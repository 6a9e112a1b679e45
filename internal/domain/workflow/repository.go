package workflow

import "context"

type Repository interface {
	Create(ctx context.Context, w *Workflow) error
	Save(ctx context.Context, w *Workflow) error
	// GetLatestByTradeID returns the most recent workflow for a trade.
	GetLatestByTradeID(ctx context.Context, tradeID string) (*Workflow, error)
	ListAwaiting(ctx context.Context) ([]Workflow, error)
}
