package uow

import (
	"context"

	"tradecore/internal/domain/audit"
	"tradecore/internal/domain/rule"
	"tradecore/internal/domain/trade"
	"tradecore/internal/domain/workflow"
)

// Repos are bound to one transaction.
type Repos struct {
	Rules     rule.Repository
	Trades    trade.Repository
	Workflows workflow.Repository
	Audit     audit.Repository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// convenience: lock trade row first, then pass it in
	WithinTradeTx(ctx context.Context, tradeID string, fn func(r Repos, t *trade.Trade) error) error
}

// Locker serialises work on one key across goroutines (and processes, for the redis backend).
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
