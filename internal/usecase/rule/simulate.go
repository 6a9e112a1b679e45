package rule

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"tradecore/internal/domain/apperr"
	domain "tradecore/internal/domain/rule"
	"tradecore/internal/domain/trade"
)

// Simulate dry-runs the engine and returns the full trace. Nothing is written.
// Rules named by RuleIDs and inline Rules are evaluated as if ACTIVE; with neither,
// the stored ACTIVE rules for the trigger are used.
func (u *Usecase) Simulate(ctx context.Context, in SimulateInput) (*SimulationResult, error) {
	ctx, span := tracer.Start(ctx, "rule.simulate")
	defer span.End()

	trigger := in.TriggerEvent
	if trigger == "" {
		trigger = domain.TriggerTradeBook
	}
	if !trigger.Valid() {
		return nil, apperr.Validation("triggerEvent", fmt.Sprintf("unsupported trigger event %q", trigger))
	}
	span.SetAttributes(attribute.String("rule.trigger", string(trigger)))

	rules, err := u.simulationRules(ctx, in, trigger)
	if err != nil {
		return nil, err
	}
	snap, err := u.simulationSnapshot(ctx, in, rules)
	if err != nil {
		if domain.IsEvaluationError(err) {
			return &SimulationResult{FinalStatus: SimEvaluationError, Traces: []domain.RuleTrace{}, Error: err.Error()}, nil
		}
		return nil, err
	}

	ex := domain.Explain(rules, snap, trigger)
	res := &SimulationResult{Traces: ex.Traces}
	if res.Traces == nil {
		res.Traces = []domain.RuleTrace{}
	}
	switch {
	case ex.Err != nil:
		res.FinalStatus = SimEvaluationError
		res.Error = ex.Err.Error()
	case ex.Result.Matched():
		res.FinalStatus = SimPendingApproval
		matched := ex.Result.Rule.ID
		res.MatchedRuleID = &matched
		res.Ladder = ex.Result.Ladder
	default:
		res.FinalStatus = SimApproved
	}
	span.SetAttributes(attribute.String("rule.final_status", res.FinalStatus))
	return res, nil
}

func (u *Usecase) simulationRules(ctx context.Context, in SimulateInput, trigger domain.TriggerEvent) ([]domain.ApprovalRule, error) {
	if len(in.RuleIDs) == 0 && len(in.Rules) == 0 {
		return u.rules.ListActive(ctx, trigger)
	}
	var out []domain.ApprovalRule
	var maxID uint64
	for _, rid := range in.RuleIDs {
		r, err := u.rules.GetByID(ctx, rid)
		if err != nil {
			return nil, err
		}
		c := r.Clone()
		c.Status = domain.StatusActive
		out = append(out, c)
		maxID = max(maxID, c.ID)
	}
	// Unsaved rules are numbered after the stored ones, in request order, so traces and
	// the lowest-ID tie-break can tell them apart.
	for i, ri := range in.Rules {
		r := ri.toRule()
		if err := r.Validate(); err != nil {
			return nil, apperr.Validation(fmt.Sprintf("rules[%d]", i), err.Error())
		}
		r.ID = maxID + uint64(i) + 1
		r.Status = domain.StatusActive
		out = append(out, r)
	}
	return out, nil
}

func (u *Usecase) simulationSnapshot(ctx context.Context, in SimulateInput, rules []domain.ApprovalRule) (domain.Snapshot, error) {
	snap := domain.Snapshot{}
	if in.TradeID != "" {
		t, err := u.trades.GetByTradeID(ctx, in.TradeID)
		if err != nil {
			return nil, err
		}
		view := *t
		if view.MTM == nil || view.Delta == nil {
			if err := trade.Revalue(ctx, u.valuer, &view, rules); err != nil {
				return nil, err
			}
		}
		snap = view.Snapshot()
	}

	overrides, err := domain.SnapshotFromMap(in.Trade)
	if err != nil {
		return nil, apperr.Validation("trade", err.Error())
	}
	for k, v := range overrides {
		snap[k] = v
	}
	if _, given := overrides["notional"]; !given {
		q, qok := snap["quantity"].Float()
		p, pok := snap["price"].Float()
		if qok && pok {
			snap["notional"] = domain.Number(q * p)
		}
	}
	return snap, nil
}
