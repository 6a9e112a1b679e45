package trade

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"tradecore/internal/domain/actor"
	"tradecore/internal/domain/apperr"
	"tradecore/internal/domain/audit"
	"tradecore/internal/domain/trade"
	"tradecore/internal/domain/uow"
)

type LifecycleRuleInput struct {
	Name          string
	EventType     string
	FromStatus    string
	ToStatus      string
	Desk          string
	MaxOccurrence int
	Enabled       bool
}

func (u *Usecase) lifecycleRules(ctx context.Context, ev trade.Trigger) ([]trade.LifecycleRule, error) {
	if u.lcRules == nil {
		return nil, nil
	}
	return u.lcRules.ListByEvent(ctx, ev)
}

// checkOccurrences counts the trade's past events of type ev and holds them against the
// governing lifecycle rule, if there is one.
func checkOccurrences(ctx context.Context, r uow.Repos, t *trade.Trade, ev audit.EventType, lcRules []trade.LifecycleRule) error {
	lr, ok := trade.GoverningRule(lcRules, t.Status, t.Desk)
	if !ok {
		return nil
	}
	events, err := r.Audit.ListByTrade(ctx, t.TradeID)
	if err != nil {
		return err
	}
	n := 0
	for _, e := range events {
		if e.EventType == ev {
			n++
		}
	}
	return lr.Check(n)
}

func (u *Usecase) ListLifecycleRules(ctx context.Context) ([]trade.LifecycleRule, error) {
	return u.lcRules.List(ctx)
}

// CreateLifecycleRule stores a rule for one (event, fromStatus, desk) key. The target status is
// fixed by the lifecycle table; a rule can limit a transition but never redirect it.
func (u *Usecase) CreateLifecycleRule(ctx context.Context, in LifecycleRuleInput, by actor.Actor) (*trade.LifecycleRule, error) {
	if err := by.Require(); err != nil {
		return nil, err
	}
	ev, err := trade.ParseEvent(strings.ToUpper(strings.TrimSpace(in.EventType)))
	if err != nil {
		return nil, apperr.Validation("eventType", err.Error())
	}
	from := trade.Status(strings.ToUpper(strings.TrimSpace(in.FromStatus)))
	if !from.Valid() {
		return nil, apperr.Validation("fromStatus", fmt.Sprintf("unknown status %q", in.FromStatus))
	}
	to, err := trade.Transition(from, ev)
	if err != nil {
		return nil, apperr.Validation("fromStatus", err.Error())
	}
	if want := trade.Status(strings.ToUpper(strings.TrimSpace(in.ToStatus))); want != "" && want != to {
		return nil, apperr.Validation("toStatus", fmt.Sprintf("%s from %s always leads to %s", ev, from, to))
	}
	if in.MaxOccurrence < 1 {
		return nil, apperr.Validation("maxOccurrence", "must be greater than or equal to 1")
	}
	desk := strings.ToUpper(strings.TrimSpace(in.Desk))
	if desk == "*" {
		desk = ""
	}

	existing, err := u.lcRules.ListByEvent(ctx, ev)
	if err != nil {
		return nil, err
	}
	for _, lr := range existing {
		if lr.FromStatus == from && lr.Desk == desk {
			return nil, apperr.Conflict("lifecycle rule %s already covers %s from %s", lr.DisplayName(), ev, from)
		}
	}

	lr := &trade.LifecycleRule{
		Name:          strings.TrimSpace(in.Name),
		EventType:     ev,
		FromStatus:    from,
		ToStatus:      to,
		Desk:          desk,
		MaxOccurrence: in.MaxOccurrence,
		Enabled:       in.Enabled,
		CreatedBy:     by.Name,
	}
	if err := u.lcRules.Create(ctx, lr); err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Uint64("lifecycle_rule_id", lr.ID).Str("event", string(ev)).Str("from", string(from)).
		Str("desk", desk).Int("max_occurrence", lr.MaxOccurrence).Str("actor", by.Name).Msg("lifecycle rule created")
	return lr, nil
}

// ToggleLifecycleRule flips a rule between enabled and disabled.
func (u *Usecase) ToggleLifecycleRule(ctx context.Context, id uint64, by actor.Actor) (*trade.LifecycleRule, error) {
	if err := by.Require(); err != nil {
		return nil, err
	}
	lr, err := u.lcRules.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	lr.Enabled = !lr.Enabled
	if err := u.lcRules.Save(ctx, lr); err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Uint64("lifecycle_rule_id", lr.ID).Bool("enabled", lr.Enabled).
		Str("actor", by.Name).Msg("lifecycle rule toggled")
	return lr, nil
}
