package rule

import (
	"errors"
	"fmt"
	"sort"
)

// MatchResult is the engine's verdict. A nil Rule means no rule matched and the trade
// proceeds without an approval workflow.
type MatchResult struct {
	Rule   *ApprovalRule
	Ladder []RoutingStep
}

func (m MatchResult) Matched() bool { return m.Rule != nil }

type Outcome string

const (
	OutcomeSuccess Outcome = "SUCCESS"
	OutcomeSkipped Outcome = "SKIPPED"
	OutcomeFailure Outcome = "FAILURE"
)

type ConditionTrace struct {
	FieldCode string   `json:"fieldCode"`
	Operator  Operator `json:"operator"`
	Value     string   `json:"value"`
	Actual    string   `json:"actual,omitempty"`
	Matched   bool     `json:"matched"`
	Error     string   `json:"error,omitempty"`
}

type RuleTrace struct {
	RuleID           uint64           `json:"ruleId"`
	RuleName         string           `json:"ruleName"`
	Priority         int              `json:"priority"`
	ConditionMatched bool             `json:"conditionMatched"`
	Result           Outcome          `json:"result"`
	Selected         bool             `json:"selected"`
	SkipReason       string           `json:"skipReason,omitempty"`
	Conditions       []ConditionTrace `json:"conditions"`
	ActionsExecuted  []string         `json:"actionsExecuted"`
}

// Explanation is the full execution trace of one evaluation.
type Explanation struct {
	Result MatchResult
	Traces []RuleTrace
	// Err is the first evaluation failure in rank order. When set, Result must not be used.
	Err error
}

// Rank orders rules the way the engine considers them: ascending priority, then the
// most specific (most conditions), then lowest ID.
func Rank(rules []ApprovalRule) []ApprovalRule {
	out := make([]ApprovalRule, len(rules))
	copy(out, rules)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		if len(a.Conditions) != len(b.Conditions) {
			return len(a.Conditions) > len(b.Conditions)
		}
		return a.ID < b.ID
	})
	return out
}

// Evaluate selects the winning ACTIVE rule for trigger. It has no side effects.
func Evaluate(rules []ApprovalRule, snap Snapshot, trigger TriggerEvent) (MatchResult, error) {
	ex := Explain(rules, snap, trigger)
	if ex.Err != nil {
		return MatchResult{}, ex.Err
	}
	return ex.Result, nil
}

// Explain evaluates every candidate and returns the per-rule breakdown. Every candidate is
// evaluated, so a malformed rule fails the evaluation even when a higher-ranked rule matched.
func Explain(rules []ApprovalRule, snap Snapshot, trigger TriggerEvent) Explanation {
	var ex Explanation
	for _, r := range Rank(rules) {
		tr := RuleTrace{
			RuleID:          r.ID,
			RuleName:        r.RuleName,
			Priority:        r.Priority,
			Conditions:      []ConditionTrace{},
			ActionsExecuted: []string{},
		}
		switch {
		case r.Status != StatusActive:
			tr.Result = OutcomeSkipped
			tr.SkipReason = fmt.Sprintf("status %s", r.Status)
			ex.Traces = append(ex.Traces, tr)
			continue
		case r.TriggerEvent != trigger:
			tr.Result = OutcomeSkipped
			tr.SkipReason = fmt.Sprintf("trigger %s", r.TriggerEvent)
			ex.Traces = append(ex.Traces, tr)
			continue
		}

		matched, err := evaluateRule(r, snap, &tr)
		switch {
		case err != nil:
			tr.Result = OutcomeFailure
			if ex.Err == nil {
				ex.Err = err
			}
		case matched:
			tr.ConditionMatched = true
			tr.Result = OutcomeSuccess
			if ex.Result.Rule == nil {
				winner := r.Clone()
				ex.Result = MatchResult{Rule: &winner, Ladder: append([]RoutingStep(nil), r.Routing...)}
				tr.Selected = true
				for _, s := range r.Routing {
					tr.ActionsExecuted = append(tr.ActionsExecuted, fmt.Sprintf("ROUTE L%d:%s", s.ApprovalLevel, s.ApprovalRole))
				}
			}
		default:
			tr.Result = OutcomeSkipped
		}
		ex.Traces = append(ex.Traces, tr)
	}
	if ex.Err != nil {
		ex.Result = MatchResult{}
	}
	return ex
}

func evaluateRule(r ApprovalRule, snap Snapshot, tr *RuleTrace) (bool, error) {
	all := true
	var firstErr error
	for _, c := range r.Conditions {
		ct := ConditionTrace{FieldCode: c.FieldCode, Operator: c.Operator, Value: c.Value}
		ok, actual, err := c.evaluate(snap)
		if actual.kind != 0 {
			ct.Actual = actual.String()
		}
		if err != nil {
			ct.Error = err.Error()
			if firstErr == nil {
				firstErr = &EvaluationError{RuleID: r.ID, RuleName: r.RuleName, FieldCode: c.FieldCode, Reason: err.Error()}
			}
			all = false
		} else {
			ct.Matched = ok
			all = all && ok
		}
		tr.Conditions = append(tr.Conditions, ct)
	}
	if firstErr != nil {
		return false, firstErr
	}
	return all, nil
}

// IsEvaluationError reports whether err came from rule evaluation.
func IsEvaluationError(err error) bool { return errors.Is(err, ErrEvaluation) }
