package mysql

import (
	"context"

	"gorm.io/gorm"

	"tradecore/internal/domain/trade"
	"tradecore/internal/domain/uow"
)

type GormUoW struct{ db *gorm.DB }

func NewGormUoW(db *gorm.DB) *GormUoW { return &GormUoW{db: db} }

func repos(tx *gorm.DB) uow.Repos {
	return uow.Repos{
		Rules:     &RuleRepository{db: tx},
		Trades:    &TradeRepository{db: tx},
		Workflows: &WorkflowRepository{db: tx},
		Audit:     &AuditRepository{db: tx},
	}
}

func (u *GormUoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(repos(tx))
	})
}

func (u *GormUoW) WithinTradeTx(ctx context.Context, tradeID string, fn func(r uow.Repos, t *trade.Trade) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := repos(tx)
		// lock the trade row up-front so concurrent transitions serialize
		t, err := r.Trades.GetByTradeIDForUpdate(ctx, tradeID)
		if err != nil {
			return err
		}
		return fn(r, t)
	})
}
