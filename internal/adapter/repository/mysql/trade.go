package mysql

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "tradecore/internal/domain/trade"
)

type TradeRepository struct{ db *gorm.DB }

func NewTradeRepository(db *gorm.DB) *TradeRepository { return &TradeRepository{db: db} }

func (r *TradeRepository) Create(ctx context.Context, t *domain.Trade) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *TradeRepository) Save(ctx context.Context, t *domain.Trade) error {
	return r.db.WithContext(ctx).Save(t).Error
}

func (r *TradeRepository) GetByTradeID(ctx context.Context, tradeID string) (*domain.Trade, error) {
	var out domain.Trade
	if err := r.db.WithContext(ctx).Where("trade_id = ?", tradeID).First(&out).Error; err != nil {
		return nil, lookup(err, "trade", tradeID)
	}
	return &out, nil
}

func (r *TradeRepository) GetByTradeIDForUpdate(ctx context.Context, tradeID string) (*domain.Trade, error) {
	var out domain.Trade
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("trade_id = ?", tradeID).
		First(&out).Error
	if err != nil {
		return nil, lookup(err, "trade", tradeID)
	}
	return &out, nil
}

func (r *TradeRepository) List(ctx context.Context, f domain.ListFilter) ([]domain.Trade, error) {
	q := r.db.WithContext(ctx).Model(&domain.Trade{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Desk != "" {
		q = q.Where("desk = ?", f.Desk)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	var out []domain.Trade
	err := q.Order("id DESC").Find(&out).Error
	return out, err
}

func (r *TradeRepository) CreateVersion(ctx context.Context, v *domain.Version) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *TradeRepository) ListVersions(ctx context.Context, tradeID string) ([]domain.Version, error) {
	var out []domain.Version
	err := r.db.WithContext(ctx).
		Where("trade_id = ?", tradeID).
		Order("version_number ASC").
		Find(&out).Error
	return out, err
}
