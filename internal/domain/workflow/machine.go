package workflow

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"tradecore/internal/domain/apperr"
	"tradecore/internal/domain/rule"
	"tradecore/pkg/id"
)

// Messages are matched by clients ("self-approval", "role"); keep them stable.
var (
	ErrOutOfOrderDecision      = errors.New("out-of-order decision")
	ErrRoleMismatch            = errors.New("role mismatch")
	ErrSelfApprovalDenied      = errors.New("self-approval denied: approver is the same user who created the trade")
	ErrWorkflowAlreadyTerminal = errors.New("workflow already terminal")
)

// New starts a workflow at level 1. The ladder is copied so later edits to the rule
// never reach an in-flight workflow.
func New(tradeID, tradeCreatedBy string, trigger rule.TriggerEvent, matched rule.MatchResult) (*Workflow, error) {
	if !matched.Matched() {
		return nil, apperr.Validation("rule", "a workflow needs a matched rule")
	}
	ladder := append([]rule.RoutingStep(nil), matched.Ladder...)
	if err := rule.ValidateRouting(ladder); err != nil {
		return nil, err
	}
	return &Workflow{
		WorkflowID:         id.NewID32(),
		TradeID:            tradeID,
		TriggerEvent:       trigger,
		MatchedRuleID:      matched.Rule.ID,
		MatchedRuleVersion: matched.Rule.Version,
		MatchedRuleName:    matched.Rule.RuleName,
		TradeCreatedBy:     tradeCreatedBy,
		Status:             StatusAwaiting,
		CurrentLevel:       1,
		Ladder:             ladder,
		Decisions:          []DecisionRecord{},
	}, nil
}

type DecideInput struct {
	Level     int
	Role      string
	Decision  Decision
	DecidedBy string
	Reason    string
	At        time.Time
}

// Decide records a verdict for the current level. On any error the workflow is unchanged.
func (w *Workflow) Decide(in DecideInput) error {
	if w.Terminal() {
		return fmt.Errorf("%w: workflow is %s", ErrWorkflowAlreadyTerminal, w.Status)
	}
	if in.Decision != DecisionApprove && in.Decision != DecisionReject {
		return apperr.Validation("decision", fmt.Sprintf("unsupported decision %q", in.Decision))
	}
	if strings.TrimSpace(in.DecidedBy) == "" {
		return apperr.Validation("decidedBy", "is required")
	}
	if in.Level != w.CurrentLevel {
		return fmt.Errorf("%w: level %d decided while awaiting level %d", ErrOutOfOrderDecision, in.Level, w.CurrentLevel)
	}
	want, _ := w.RoleAt(w.CurrentLevel)
	if !strings.EqualFold(strings.TrimSpace(in.Role), want) {
		return fmt.Errorf("%w: level %d requires role %s, got %q", ErrRoleMismatch, w.CurrentLevel, want, in.Role)
	}
	if in.DecidedBy == w.TradeCreatedBy {
		return fmt.Errorf("%w (%s)", ErrSelfApprovalDenied, in.DecidedBy)
	}
	if in.Decision == DecisionReject && strings.TrimSpace(in.Reason) == "" {
		return apperr.Validation("reason", "rejection reason is required")
	}

	at := in.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	w.Decisions = append(w.Decisions, DecisionRecord{
		Level:     in.Level,
		Role:      want,
		DecidedBy: in.DecidedBy,
		Decision:  in.Decision,
		Reason:    in.Reason,
		Timestamp: at,
	})

	switch {
	case in.Decision == DecisionReject:
		w.Status = StatusRejected
		w.CompletedAt = &at
	case w.CurrentLevel == len(w.Ladder):
		w.Status = StatusApproved
		w.CompletedAt = &at
	default:
		w.CurrentLevel++
	}
	return nil
}
