package mysql

import (
	"context"

	"gorm.io/gorm"

	domain "tradecore/internal/domain/rule"
)

type RuleRepository struct{ db *gorm.DB }

func NewRuleRepository(db *gorm.DB) *RuleRepository { return &RuleRepository{db: db} }

func (r *RuleRepository) Create(ctx context.Context, rl *domain.ApprovalRule) error {
	return r.db.WithContext(ctx).Create(rl).Error
}

func (r *RuleRepository) Save(ctx context.Context, rl *domain.ApprovalRule) error {
	return r.db.WithContext(ctx).Save(rl).Error
}

func (r *RuleRepository) Delete(ctx context.Context, id uint64) error {
	res := r.db.WithContext(ctx).Delete(&domain.ApprovalRule{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return lookup(gorm.ErrRecordNotFound, "rule", id)
	}
	return nil
}

func (r *RuleRepository) GetByID(ctx context.Context, id uint64) (*domain.ApprovalRule, error) {
	var out domain.ApprovalRule
	if err := r.db.WithContext(ctx).First(&out, id).Error; err != nil {
		return nil, lookup(err, "rule", id)
	}
	return &out, nil
}

func (r *RuleRepository) List(ctx context.Context, f domain.ListFilter) ([]domain.ApprovalRule, error) {
	q := r.db.WithContext(ctx).Model(&domain.ApprovalRule{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.TriggerEvent != "" {
		q = q.Where("trigger_event = ?", f.TriggerEvent)
	}
	if f.FamilyID != "" {
		q = q.Where("family_id = ?", f.FamilyID)
	}
	if len(f.IDs) > 0 {
		q = q.Where("id IN ?", f.IDs)
	}
	var out []domain.ApprovalRule
	err := q.Order("id ASC").Find(&out).Error
	return out, err
}

func (r *RuleRepository) ListActive(ctx context.Context, trigger domain.TriggerEvent) ([]domain.ApprovalRule, error) {
	return r.List(ctx, domain.ListFilter{Status: domain.StatusActive, TriggerEvent: trigger})
}

func (r *RuleRepository) MaxVersion(ctx context.Context, familyID string) (int, error) {
	var max int
	err := r.db.WithContext(ctx).Model(&domain.ApprovalRule{}).
		Where("family_id = ?", familyID).
		Select("COALESCE(MAX(version), 0)").
		Scan(&max).Error
	return max, err
}

func (r *RuleRepository) CreateFamily(ctx context.Context, f *domain.Family) error {
	return r.db.WithContext(ctx).Create(f).Error
}

func (r *RuleRepository) GetFamily(ctx context.Context, familyID string) (*domain.Family, error) {
	var out domain.Family
	if err := r.db.WithContext(ctx).Where("family_id = ?", familyID).First(&out).Error; err != nil {
		return nil, lookup(err, "rule family", familyID)
	}
	return &out, nil
}

func (r *RuleRepository) DeleteFamily(ctx context.Context, familyID string) error {
	return r.db.WithContext(ctx).Where("family_id = ?", familyID).Delete(&domain.Family{}).Error
}

// SwapActive is a compare-and-swap on the family revision.
func (r *RuleRepository) SwapActive(ctx context.Context, familyID string, expectedRevision int64, activeRuleID *uint64) error {
	res := r.db.WithContext(ctx).Model(&domain.Family{}).
		Where("family_id = ? AND revision = ?", familyID, expectedRevision).
		Updates(map[string]any{
			"active_rule_id": activeRuleID,
			"revision":       gorm.Expr("revision + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrConcurrentActivation
	}
	return nil
}
