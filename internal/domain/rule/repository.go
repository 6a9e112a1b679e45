package rule

import "context"

type ListFilter struct {
	Status       Status
	TriggerEvent TriggerEvent
	FamilyID     string
	IDs          []uint64
}

type Repository interface {
	Create(ctx context.Context, r *ApprovalRule) error
	Save(ctx context.Context, r *ApprovalRule) error
	Delete(ctx context.Context, id uint64) error
	GetByID(ctx context.Context, id uint64) (*ApprovalRule, error)
	List(ctx context.Context, f ListFilter) ([]ApprovalRule, error)
	// ListActive returns ACTIVE rules for a trigger.
	ListActive(ctx context.Context, trigger TriggerEvent) ([]ApprovalRule, error)
	MaxVersion(ctx context.Context, familyID string) (int, error)

	CreateFamily(ctx context.Context, f *Family) error
	GetFamily(ctx context.Context, familyID string) (*Family, error)
	DeleteFamily(ctx context.Context, familyID string) error
	// SwapActive moves the family's active pointer only if its revision is still expectedRevision.
	// It returns ErrConcurrentActivation when the swap lost the race.
	SwapActive(ctx context.Context, familyID string, expectedRevision int64, activeRuleID *uint64) error
}
