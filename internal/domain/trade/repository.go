package trade

import "context"

type ListFilter struct {
	Status Status
	Desk   string
	Limit  int
}

type Repository interface {
	Create(ctx context.Context, t *Trade) error
	Save(ctx context.Context, t *Trade) error
	GetByTradeID(ctx context.Context, tradeID string) (*Trade, error)
	// GetByTradeIDForUpdate locks the row for the rest of the transaction.
	GetByTradeIDForUpdate(ctx context.Context, tradeID string) (*Trade, error)
	List(ctx context.Context, f ListFilter) ([]Trade, error)

	CreateVersion(ctx context.Context, v *Version) error
	ListVersions(ctx context.Context, tradeID string) ([]Version, error)
}

// Valuer prices a trade through the external valuation service. It has no side effects.
type Valuer interface {
	Value(ctx context.Context, t *Trade) (Valuation, error)
}
