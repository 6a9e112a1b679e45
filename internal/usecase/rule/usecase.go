package rule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"tradecore/internal/domain/apperr"
	domain "tradecore/internal/domain/rule"
	"tradecore/internal/domain/trade"
	"tradecore/internal/domain/uow"
	"tradecore/pkg/id"
)

var tracer = otel.Tracer("tradecore/usecase/rule")

type Usecase struct {
	rules  domain.Repository
	trades trade.Repository
	uow    uow.UnitOfWork
	valuer trade.Valuer
}

// NewUsecase: valuer may be nil, in which case simulations never fetch mtm/delta.
func NewUsecase(rules domain.Repository, trades trade.Repository, tx uow.UnitOfWork, valuer trade.Valuer) *Usecase {
	return &Usecase{rules: rules, trades: trades, uow: tx, valuer: valuer}
}

// Create stores a new DRAFT rule as version 1 of a new family.
func (u *Usecase) Create(ctx context.Context, in RuleInput, actor string) (*domain.ApprovalRule, error) {
	r := in.toRule()
	if err := r.Validate(); err != nil {
		return nil, err
	}
	err := u.uow.WithinTx(ctx, func(repos uow.Repos) error {
		return createDraft(ctx, repos.Rules, &r, 1, actor)
	})
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Uint64("rule_id", r.ID).Str("family_id", r.FamilyID).Str("rule_name", r.RuleName).Msg("rule created")
	return &r, nil
}

func createDraft(ctx context.Context, rules domain.Repository, r *domain.ApprovalRule, version int, actor string) error {
	fam := &domain.Family{FamilyID: id.NewID32()}
	if err := rules.CreateFamily(ctx, fam); err != nil {
		return err
	}
	r.FamilyID = fam.FamilyID
	r.Status = domain.StatusDraft
	r.Version = version
	r.CreatedBy = actor
	return rules.Create(ctx, r)
}

func (u *Usecase) Get(ctx context.Context, ruleID uint64) (*domain.ApprovalRule, error) {
	return u.rules.GetByID(ctx, ruleID)
}

func (u *Usecase) List(ctx context.Context, f domain.ListFilter) ([]domain.ApprovalRule, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperr.Validation("status", fmt.Sprintf("unknown status %q", f.Status))
	}
	if f.TriggerEvent != "" && !f.TriggerEvent.Valid() {
		return nil, apperr.Validation("triggerEvent", fmt.Sprintf("unknown trigger %q", f.TriggerEvent))
	}
	return u.rules.List(ctx, f)
}

// Versions lists every version in the rule's family, oldest first.
func (u *Usecase) Versions(ctx context.Context, ruleID uint64) ([]domain.ApprovalRule, error) {
	r, err := u.rules.GetByID(ctx, ruleID)
	if err != nil {
		return nil, err
	}
	return u.rules.List(ctx, domain.ListFilter{FamilyID: r.FamilyID})
}

// Update edits a DRAFT rule in place.
func (u *Usecase) Update(ctx context.Context, ruleID uint64, in RuleInput) (*domain.ApprovalRule, error) {
	next := in.toRule()
	if err := next.Validate(); err != nil {
		return nil, err
	}
	var out *domain.ApprovalRule
	err := u.uow.WithinTx(ctx, func(repos uow.Repos) error {
		r, err := repos.Rules.GetByID(ctx, ruleID)
		if err != nil {
			return err
		}
		if r.Status != domain.StatusDraft {
			return fmt.Errorf("%w: rule %d is %s", domain.ErrNotDraft, r.ID, r.Status)
		}
		r.RuleName, r.TriggerEvent, r.Priority = next.RuleName, next.TriggerEvent, next.Priority
		r.Conditions, r.Routing = next.Conditions, next.Routing
		if err := repos.Rules.Save(ctx, r); err != nil {
			return err
		}
		out = r
		return nil
	})
	return out, err
}

// Activate makes a DRAFT rule its family's only ACTIVE version; the previous one is RETIRED.
// The family pointer moves by compare-and-swap, so two concurrent activations cannot both win.
func (u *Usecase) Activate(ctx context.Context, ruleID uint64, actor string) (*domain.ApprovalRule, error) {
	ctx, span := tracer.Start(ctx, "rule.activate")
	defer span.End()
	span.SetAttributes(attribute.Int64("rule.id", int64(ruleID)))

	var out *domain.ApprovalRule
	var retired uint64
	err := u.uow.WithinTx(ctx, func(repos uow.Repos) error {
		r, prev, err := activate(ctx, repos.Rules, ruleID)
		if err != nil {
			return err
		}
		out, retired = r, prev
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Uint64("rule_id", out.ID).Str("family_id", out.FamilyID).Int("version", out.Version).
		Str("actor", actor).Uint64("retired_rule_id", retired).Msg("rule activated")
	return out, nil
}

// activate returns the activated rule and the ID of the version it retired (0 if none).
func activate(ctx context.Context, rules domain.Repository, ruleID uint64) (*domain.ApprovalRule, uint64, error) {
	r, err := rules.GetByID(ctx, ruleID)
	if err != nil {
		return nil, 0, err
	}
	switch r.Status {
	case domain.StatusDraft:
	case domain.StatusRetired:
		return nil, 0, fmt.Errorf("%w: rule %d", domain.ErrRetired, r.ID)
	default:
		return nil, 0, fmt.Errorf("%w: rule %d is already %s", domain.ErrNotDraft, r.ID, r.Status)
	}
	if err := r.Validate(); err != nil {
		return nil, 0, err
	}

	fam, err := rules.GetFamily(ctx, r.FamilyID)
	if err != nil {
		return nil, 0, err
	}
	var retired uint64
	if fam.ActiveRuleID != nil && *fam.ActiveRuleID != r.ID {
		prev, err := rules.GetByID(ctx, *fam.ActiveRuleID)
		if err != nil {
			return nil, 0, err
		}
		prev.Status = domain.StatusRetired
		if err := rules.Save(ctx, prev); err != nil {
			return nil, 0, err
		}
		retired = prev.ID
	}
	r.Status = domain.StatusActive
	if err := rules.Save(ctx, r); err != nil {
		return nil, 0, err
	}
	active := r.ID
	if err := rules.SwapActive(ctx, fam.FamilyID, fam.Revision, &active); err != nil {
		return nil, 0, err
	}
	return r, retired, nil
}

// NewVersion copies an ACTIVE rule into a DRAFT with the next version number.
func (u *Usecase) NewVersion(ctx context.Context, ruleID uint64, actor string) (*domain.ApprovalRule, error) {
	var out *domain.ApprovalRule
	err := u.uow.WithinTx(ctx, func(repos uow.Repos) error {
		src, err := repos.Rules.GetByID(ctx, ruleID)
		if err != nil {
			return err
		}
		if src.Status != domain.StatusActive {
			return fmt.Errorf("%w: rule %d is %s", domain.ErrNotActive, src.ID, src.Status)
		}
		maxV, err := repos.Rules.MaxVersion(ctx, src.FamilyID)
		if err != nil {
			return err
		}
		next := src.Clone()
		parent := src.ID
		next.ID = 0
		next.ParentRuleID = &parent
		next.Status = domain.StatusDraft
		next.Version = maxV + 1
		next.CreatedBy = actor
		next.CreatedAt, next.UpdatedAt = time.Time{}, time.Time{}
		if err := repos.Rules.Create(ctx, &next); err != nil {
			return err
		}
		out = &next
		return nil
	})
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Uint64("rule_id", out.ID).Uint64("parent_rule_id", ruleID).Int("version", out.Version).Msg("rule version drafted")
	return out, nil
}

// Delete removes a DRAFT rule. The family goes with its last version.
func (u *Usecase) Delete(ctx context.Context, ruleID uint64) error {
	return u.uow.WithinTx(ctx, func(repos uow.Repos) error {
		r, err := repos.Rules.GetByID(ctx, ruleID)
		if err != nil {
			return err
		}
		if r.Status != domain.StatusDraft {
			return fmt.Errorf("%w: only DRAFT rules can be deleted, rule %d is %s", domain.ErrNotDraft, r.ID, r.Status)
		}
		if err := repos.Rules.Delete(ctx, r.ID); err != nil {
			return err
		}
		left, err := repos.Rules.List(ctx, domain.ListFilter{FamilyID: r.FamilyID})
		if err != nil {
			return err
		}
		if len(left) == 0 {
			return repos.Rules.DeleteFamily(ctx, r.FamilyID)
		}
		return nil
	})
}

// IsConflict reports errors that mean "the rule is not in a state that allows this".
func IsConflict(err error) bool {
	return errors.Is(err, domain.ErrNotDraft) || errors.Is(err, domain.ErrNotActive) ||
		errors.Is(err, domain.ErrRetired) || errors.Is(err, domain.ErrConcurrentActivation)
}
