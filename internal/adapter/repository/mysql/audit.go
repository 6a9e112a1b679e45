package mysql

import (
	"context"
	"time"

	"gorm.io/gorm"

	domain "tradecore/internal/domain/audit"
)

// AuditRepository is append-only: there is no update or delete path.
type AuditRepository struct{ db *gorm.DB }

func NewAuditRepository(db *gorm.DB) *AuditRepository { return &AuditRepository{db: db} }

func (r *AuditRepository) Append(ctx context.Context, e *domain.Event) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *AuditRepository) LastTimestamp(ctx context.Context, tradeID string) (time.Time, bool, error) {
	var last domain.Event
	res := r.db.WithContext(ctx).
		Where("trade_id = ?", tradeID).
		Order("ts DESC").Order("id DESC").
		Limit(1).
		Find(&last)
	if res.Error != nil {
		return time.Time{}, false, res.Error
	}
	if res.RowsAffected == 0 {
		return time.Time{}, false, nil
	}
	return last.Timestamp, true, nil
}

func (r *AuditRepository) ListByTrade(ctx context.Context, tradeID string) ([]domain.Event, error) {
	var out []domain.Event
	err := r.db.WithContext(ctx).
		Where("trade_id = ?", tradeID).
		Order("ts ASC").Order("id ASC").
		Find(&out).Error
	return out, err
}
