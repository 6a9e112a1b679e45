package audit

import (
	"context"
	"time"
)

type Repository interface {
	Append(ctx context.Context, e *Event) error
	// LastTimestamp returns the newest event time for a trade; ok is false when the trade has none.
	LastTimestamp(ctx context.Context, tradeID string) (ts time.Time, ok bool, err error)
	ListByTrade(ctx context.Context, tradeID string) ([]Event, error)
}
