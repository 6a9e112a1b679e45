package mysql

import (
	"context"

	"gorm.io/gorm"

	domain "tradecore/internal/domain/trade"
)

type TemplateRepository struct{ db *gorm.DB }

func NewTemplateRepository(db *gorm.DB) *TemplateRepository { return &TemplateRepository{db: db} }

func (r *TemplateRepository) Create(ctx context.Context, d *domain.DealTemplate) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *TemplateRepository) Save(ctx context.Context, d *domain.DealTemplate) error {
	return r.db.WithContext(ctx).Save(d).Error
}

func (r *TemplateRepository) Get(ctx context.Context, id uint64) (*domain.DealTemplate, error) {
	var out domain.DealTemplate
	if err := r.db.WithContext(ctx).First(&out, id).Error; err != nil {
		return nil, lookup(err, "deal template", id)
	}
	return &out, nil
}

func (r *TemplateRepository) List(ctx context.Context) ([]domain.DealTemplate, error) {
	var out []domain.DealTemplate
	err := r.db.WithContext(ctx).Order("template_name ASC").Find(&out).Error
	return out, err
}
