package mysql

import (
	"context"

	"gorm.io/gorm"

	domain "tradecore/internal/domain/trade"
)

type LifecycleRuleRepository struct{ db *gorm.DB }

func NewLifecycleRuleRepository(db *gorm.DB) *LifecycleRuleRepository {
	return &LifecycleRuleRepository{db: db}
}

func (r *LifecycleRuleRepository) Create(ctx context.Context, lr *domain.LifecycleRule) error {
	return r.db.WithContext(ctx).Create(lr).Error
}

func (r *LifecycleRuleRepository) Save(ctx context.Context, lr *domain.LifecycleRule) error {
	return r.db.WithContext(ctx).Save(lr).Error
}

func (r *LifecycleRuleRepository) Get(ctx context.Context, id uint64) (*domain.LifecycleRule, error) {
	var out domain.LifecycleRule
	if err := r.db.WithContext(ctx).First(&out, id).Error; err != nil {
		return nil, lookup(err, "lifecycle rule", id)
	}
	return &out, nil
}

func (r *LifecycleRuleRepository) List(ctx context.Context) ([]domain.LifecycleRule, error) {
	var out []domain.LifecycleRule
	err := r.db.WithContext(ctx).Order("id ASC").Find(&out).Error
	return out, err
}

func (r *LifecycleRuleRepository) ListByEvent(ctx context.Context, ev domain.Trigger) ([]domain.LifecycleRule, error) {
	var out []domain.LifecycleRule
	err := r.db.WithContext(ctx).
		Where("event_type = ?", ev).
		Order("id ASC").
		Find(&out).Error
	return out, err
}
