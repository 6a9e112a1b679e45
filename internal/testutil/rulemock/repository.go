package rulemock

import (
	"context"

	domain "tradecore/internal/domain/rule"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
// Unset finders return context.Canceled; unset writers are no-ops.
type Repo struct {
	CreateFn       func(ctx context.Context, r *domain.ApprovalRule) error
	SaveFn         func(ctx context.Context, r *domain.ApprovalRule) error
	DeleteFn       func(ctx context.Context, id uint64) error
	GetByIDFn      func(ctx context.Context, id uint64) (*domain.ApprovalRule, error)
	ListFn         func(ctx context.Context, f domain.ListFilter) ([]domain.ApprovalRule, error)
	ListActiveFn   func(ctx context.Context, trigger domain.TriggerEvent) ([]domain.ApprovalRule, error)
	MaxVersionFn   func(ctx context.Context, familyID string) (int, error)
	CreateFamilyFn func(ctx context.Context, f *domain.Family) error
	GetFamilyFn    func(ctx context.Context, familyID string) (*domain.Family, error)
	DeleteFamilyFn func(ctx context.Context, familyID string) error
	SwapActiveFn   func(ctx context.Context, familyID string, expectedRevision int64, activeRuleID *uint64) error
}

func (m *Repo) Create(ctx context.Context, r *domain.ApprovalRule) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, r)
	}
	return nil
}

func (m *Repo) Save(ctx context.Context, r *domain.ApprovalRule) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, r)
	}
	return nil
}

func (m *Repo) Delete(ctx context.Context, id uint64) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	return nil
}

func (m *Repo) GetByID(ctx context.Context, id uint64) (*domain.ApprovalRule, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, context.Canceled
}

func (m *Repo) List(ctx context.Context, f domain.ListFilter) ([]domain.ApprovalRule, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, f)
	}
	return nil, nil
}

func (m *Repo) ListActive(ctx context.Context, trigger domain.TriggerEvent) ([]domain.ApprovalRule, error) {
	if m.ListActiveFn != nil {
		return m.ListActiveFn(ctx, trigger)
	}
	return nil, nil
}

func (m *Repo) MaxVersion(ctx context.Context, familyID string) (int, error) {
	if m.MaxVersionFn != nil {
		return m.MaxVersionFn(ctx, familyID)
	}
	return 0, nil
}

func (m *Repo) CreateFamily(ctx context.Context, f *domain.Family) error {
	if m.CreateFamilyFn != nil {
		return m.CreateFamilyFn(ctx, f)
	}
	return nil
}

func (m *Repo) GetFamily(ctx context.Context, familyID string) (*domain.Family, error) {
	if m.GetFamilyFn != nil {
		return m.GetFamilyFn(ctx, familyID)
	}
	return nil, context.Canceled
}

func (m *Repo) DeleteFamily(ctx context.Context, familyID string) error {
	if m.DeleteFamilyFn != nil {
		return m.DeleteFamilyFn(ctx, familyID)
	}
	return nil
}

func (m *Repo) SwapActive(ctx context.Context, familyID string, expectedRevision int64, activeRuleID *uint64) error {
	if m.SwapActiveFn != nil {
		return m.SwapActiveFn(ctx, familyID, expectedRevision, activeRuleID)
	}
	return nil
}
