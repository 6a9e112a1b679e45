package trade

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"tradecore/internal/domain/actor"
	"tradecore/internal/domain/apperr"
	"tradecore/internal/domain/audit"
	"tradecore/internal/domain/rule"
	"tradecore/internal/domain/trade"
	"tradecore/internal/domain/uow"
	"tradecore/internal/domain/workflow"
)

// Amend changes a trade's terms and appends the next immutable version. The number of
// amendments is capped by an AMEND lifecycle rule or else by policy (per desk), and AMEND rules are evaluated on the new terms:
// a match sends the trade back to PENDING_APPROVAL under a new workflow.
func (u *Usecase) Amend(ctx context.Context, tradeID string, in AmendInput, by actor.Actor) (*TradeDTO, error) {
	ctx, span := tracer.Start(ctx, "trade.amend")
	defer span.End()
	span.SetAttributes(attribute.String("trade.id", tradeID))

	if err := by.Require(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Reason) == "" {
		return nil, apperr.Validation("amendmentReason", "is required")
	}

	lcRules, err := u.lifecycleRules(ctx, trade.TriggerAmend)
	if err != nil {
		return nil, err
	}
	unlock, err := u.locker.Lock(ctx, lockKey(tradeID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	// Valuation is fetched before the transaction opens; the lock keeps the trade still.
	current, err := u.trades.GetByTradeID(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if err := u.checkAmendable(current, lcRules); err != nil {
		return nil, err
	}
	preview := *current
	preview.SetEconomics(in.apply(current.Economics()))
	preview.MTM, preview.Delta = nil, nil
	if err := validateEconomics(preview.Economics()); err != nil {
		return nil, err
	}
	candidates, err := u.rules.ListActive(ctx, rule.TriggerAmend)
	if err != nil {
		return nil, err
	}
	if err := trade.Revalue(ctx, u.valuer, &preview, candidates); err != nil {
		span.RecordError(err)
		return nil, err
	}
	match, err := rule.Evaluate(candidates, preview.Snapshot(), rule.TriggerAmend)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	var out *trade.Trade
	var wf *workflow.Workflow
	err = u.uow.WithinTradeTx(ctx, tradeID, func(r uow.Repos, t *trade.Trade) error {
		if t.Version != current.Version {
			return apperr.Conflict("trade %s changed while amending (version %d, expected %d)", tradeID, t.Version, current.Version)
		}
		if err := u.checkAmendable(t, lcRules); err != nil {
			return err
		}
		trail := audit.NewTrail(r.Audit, u.now)

		before := t.Economics()
		after := preview.Economics()
		diff := trade.DiffEconomics(before, after)
		diff["version"] = audit.Change{OldValue: t.Version, NewValue: t.Version + 1}
		diff["amendCount"] = audit.Change{OldValue: t.AmendCount, NewValue: t.AmendCount + 1}

		t.SetEconomics(after)
		t.MTM, t.Delta = preview.MTM, preview.Delta
		t.Version++
		t.AmendCount++

		if err := r.Trades.CreateVersion(ctx, &trade.Version{
			TradeID:         t.TradeID,
			VersionNumber:   t.Version,
			Terms:           after,
			AmendedBy:       by.Name,
			AmendmentReason: in.Reason,
			ChangeDiff:      diff,
		}); err != nil {
			return err
		}
		if err := u.record(ctx, trail, t.TradeID, audit.EventAmended, by.Name, diff, in.Reason); err != nil {
			return err
		}
		if _, err := trade.Transition(t.Status, trade.TriggerAmend); err != nil {
			return err
		}
		if match.Matched() {
			w, err := u.route(ctx, r, trail, t, match, rule.TriggerAmend)
			if err != nil {
				return err
			}
			wf = w
		}
		if err := r.Trades.Save(ctx, t); err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Str("trade_id", tradeID).Int("version", out.Version).Int("amend_count", out.AmendCount).
		Str("actor", by.Name).Bool("routed", wf != nil).Msg("trade amended")
	return &TradeDTO{Trade: *out, Approval: summarize(wf)}, nil
}

// checkAmendable applies the governing AMEND lifecycle rule, or the policy limit when none governs.
func (u *Usecase) checkAmendable(t *trade.Trade, lcRules []trade.LifecycleRule) error {
	if _, err := trade.Transition(t.Status, trade.TriggerAmend); err != nil {
		return err
	}
	if lr, ok := trade.GoverningRule(lcRules, t.Status, t.Desk); ok {
		return lr.Check(t.AmendCount)
	}
	limit := u.policy.Current().AmendLimit(t.Desk)
	if limit > 0 && t.AmendCount >= limit {
		return &trade.InvalidTransitionError{
			From:    t.Status,
			Trigger: trade.TriggerAmend,
			Reason:  fmt.Sprintf("amendment limit of %d reached", limit),
		}
	}
	return nil
}
