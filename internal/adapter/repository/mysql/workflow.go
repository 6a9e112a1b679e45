package mysql

import (
	"context"

	"gorm.io/gorm"

	domain "tradecore/internal/domain/workflow"
)

type WorkflowRepository struct{ db *gorm.DB }

func NewWorkflowRepository(db *gorm.DB) *WorkflowRepository { return &WorkflowRepository{db: db} }

func (r *WorkflowRepository) Create(ctx context.Context, w *domain.Workflow) error {
	return r.db.WithContext(ctx).Create(w).Error
}

func (r *WorkflowRepository) Save(ctx context.Context, w *domain.Workflow) error {
	return r.db.WithContext(ctx).Save(w).Error
}

func (r *WorkflowRepository) GetLatestByTradeID(ctx context.Context, tradeID string) (*domain.Workflow, error) {
	var out domain.Workflow
	err := r.db.WithContext(ctx).
		Where("trade_id = ?", tradeID).
		Order("id DESC").
		First(&out).Error
	if err != nil {
		return nil, lookup(err, "approval workflow for trade", tradeID)
	}
	return &out, nil
}

func (r *WorkflowRepository) ListAwaiting(ctx context.Context) ([]domain.Workflow, error) {
	var out []domain.Workflow
	err := r.db.WithContext(ctx).
		Where("status = ?", domain.StatusAwaiting).
		Order("id ASC").
		Find(&out).Error
	return out, err
}
