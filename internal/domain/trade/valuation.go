package trade

import (
	"context"

	"tradecore/internal/domain/rule"
)

// Revalue fills MTM and Delta when one of the candidate rules needs them. A missing valuer
// or a failed call is reported as an evaluation error against that rule, so the trade can
// never slip past a valuation-based rule unevaluated.
func Revalue(ctx context.Context, v Valuer, t *Trade, candidates []rule.ApprovalRule) error {
	r, field, ok := rule.NeedsValuation(candidates)
	if !ok {
		return nil
	}
	if v == nil {
		return &rule.EvaluationError{RuleID: r.ID, RuleName: r.RuleName, FieldCode: field, Reason: "valuation service not configured"}
	}
	val, err := v.Value(ctx, t)
	if err != nil {
		return &rule.EvaluationError{RuleID: r.ID, RuleName: r.RuleName, FieldCode: field, Reason: "valuation unavailable: " + err.Error()}
	}
	mtm, delta := val.MTM, val.Delta
	t.MTM, t.Delta = &mtm, &delta
	return nil
}
