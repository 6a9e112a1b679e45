package workflow

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradecore/internal/domain/apperr"
	"tradecore/internal/domain/rule"
)

func matched(steps ...rule.RoutingStep) rule.MatchResult {
	r := rule.ApprovalRule{ID: 7, RuleName: "big-size", Version: 2, Status: rule.StatusActive, Routing: steps}
	return rule.MatchResult{Rule: &r, Ladder: steps}
}

func twoLevel(t *testing.T) *Workflow {
	t.Helper()
	w, err := New("T1", "alice", rule.TriggerTradeBook, matched(
		rule.RoutingStep{ApprovalLevel: 1, ApprovalRole: "SENIOR_TRADER"},
		rule.RoutingStep{ApprovalLevel: 2, ApprovalRole: "HEAD_TRADER"},
	))
	require.NoError(t, err)
	return w
}

func TestNew_StartsAtLevelOne(t *testing.T) {
	w, err := New("T1", "alice", rule.TriggerTradeBook, matched(rule.RoutingStep{ApprovalLevel: 1, ApprovalRole: "RISK"}))
	require.NoError(t, err)

	assert.Equal(t, "AWAITING_LEVEL(1)", w.State())
	assert.Equal(t, uint64(7), w.MatchedRuleID)
	assert.Equal(t, 2, w.MatchedRuleVersion)
	assert.Equal(t, "RISK", w.AwaitingRole())
	assert.Len(t, w.WorkflowID, 32)
}

func TestNew_RejectsBadInput(t *testing.T) {
	_, err := New("T1", "alice", rule.TriggerTradeBook, rule.MatchResult{})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = New("T1", "alice", rule.TriggerTradeBook, matched(rule.RoutingStep{ApprovalLevel: 2, ApprovalRole: "RISK"}))
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestNew_LadderSurvivesRuleMutation(t *testing.T) {
	m := matched(rule.RoutingStep{ApprovalLevel: 1, ApprovalRole: "RISK"})
	w, err := New("T1", "alice", rule.TriggerTradeBook, m)
	require.NoError(t, err)

	m.Ladder[0].ApprovalRole = "NOBODY"
	m.Rule.Routing[0].ApprovalRole = "NOBODY"

	assert.Equal(t, "RISK", w.Ladder[0].ApprovalRole)
}

func TestDecide_SingleLevelApproval(t *testing.T) {
	w, err := New("T1", "alice", rule.TriggerTradeBook, matched(rule.RoutingStep{ApprovalLevel: 1, ApprovalRole: "RISK"}))
	require.NoError(t, err)

	err = w.Decide(DecideInput{Level: 1, Role: "RISK", Decision: DecisionApprove, DecidedBy: "bob"})
	require.NoError(t, err)

	assert.Equal(t, StatusApproved, w.Status)
	assert.Equal(t, "APPROVED", w.State())
	require.Len(t, w.Decisions, 1)
	assert.Equal(t, "bob", w.Decisions[0].DecidedBy)
	assert.NotNil(t, w.CompletedAt)
}

func TestDecide_TwoLevelsInOrder(t *testing.T) {
	w := twoLevel(t)
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, w.Decide(DecideInput{Level: 1, Role: "SENIOR_TRADER", Decision: DecisionApprove, DecidedBy: "bob", At: at}))
	assert.Equal(t, "AWAITING_LEVEL(2)", w.State())
	assert.Nil(t, w.CompletedAt)

	require.NoError(t, w.Decide(DecideInput{Level: 2, Role: "HEAD_TRADER", Decision: DecisionApprove, DecidedBy: "carol", At: at.Add(time.Minute)}))
	assert.Equal(t, StatusApproved, w.Status)

	levels := []int{w.Decisions[0].Level, w.Decisions[1].Level}
	assert.Equal(t, []int{1, 2}, levels)
}

func TestDecide_Failures(t *testing.T) {
	tests := []struct {
		name    string
		in      DecideInput
		wantErr error
		msg     string
	}{
		{
			name:    "level two before level one",
			in:      DecideInput{Level: 2, Role: "HEAD_TRADER", Decision: DecisionApprove, DecidedBy: "carol"},
			wantErr: ErrOutOfOrderDecision,
		},
		{
			name:    "wrong role",
			in:      DecideInput{Level: 1, Role: "RISK", Decision: DecisionApprove, DecidedBy: "bob"},
			wantErr: ErrRoleMismatch,
			msg:     "role",
		},
		{
			name:    "creator approves",
			in:      DecideInput{Level: 1, Role: "SENIOR_TRADER", Decision: DecisionApprove, DecidedBy: "alice"},
			wantErr: ErrSelfApprovalDenied,
			msg:     "self-approval",
		},
		{
			name:    "creator rejects",
			in:      DecideInput{Level: 1, Role: "SENIOR_TRADER", Decision: DecisionReject, DecidedBy: "alice", Reason: "no"},
			wantErr: ErrSelfApprovalDenied,
		},
		{
			name:    "reject without reason",
			in:      DecideInput{Level: 1, Role: "SENIOR_TRADER", Decision: DecisionReject, DecidedBy: "bob", Reason: "  "},
			wantErr: apperr.ErrValidation,
			msg:     "reason",
		},
		{
			name:    "unknown decision",
			in:      DecideInput{Level: 1, Role: "SENIOR_TRADER", Decision: "MAYBE", DecidedBy: "bob"},
			wantErr: apperr.ErrValidation,
		},
		{
			name:    "anonymous approver",
			in:      DecideInput{Level: 1, Role: "SENIOR_TRADER", Decision: DecisionApprove},
			wantErr: apperr.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := twoLevel(t)

			err := w.Decide(tt.in)

			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			if tt.msg != "" {
				assert.Contains(t, strings.ToLower(err.Error()), tt.msg)
			}
			// failed decisions leave the workflow untouched
			assert.Equal(t, "AWAITING_LEVEL(1)", w.State())
			assert.Empty(t, w.Decisions)
		})
	}
}

func TestDecide_RoleMismatchMessageNamesBothRoles(t *testing.T) {
	w := twoLevel(t)

	err := w.Decide(DecideInput{Level: 1, Role: "RISK", Decision: DecisionApprove, DecidedBy: "bob"})

	assert.EqualError(t, err, `role mismatch: level 1 requires role SENIOR_TRADER, got "RISK"`)
}

func TestDecide_RejectAtSecondLevelTerminates(t *testing.T) {
	w := twoLevel(t)
	require.NoError(t, w.Decide(DecideInput{Level: 1, Role: "SENIOR_TRADER", Decision: DecisionApprove, DecidedBy: "bob"}))

	require.NoError(t, w.Decide(DecideInput{Level: 2, Role: "HEAD_TRADER", Decision: DecisionReject, DecidedBy: "carol", Reason: "limit breach"}))

	assert.Equal(t, StatusRejected, w.Status)
	assert.Equal(t, "limit breach", w.Decisions[1].Reason)
	assert.Equal(t, "", w.AwaitingRole())

	err := w.Decide(DecideInput{Level: 2, Role: "HEAD_TRADER", Decision: DecisionApprove, DecidedBy: "dave"})
	assert.ErrorIs(t, err, ErrWorkflowAlreadyTerminal)
	assert.Len(t, w.Decisions, 2)
}

func TestDecide_TerminalCheckedBeforeLevel(t *testing.T) {
	w, err := New("T1", "alice", rule.TriggerTradeBook, matched(rule.RoutingStep{ApprovalLevel: 1, ApprovalRole: "RISK"}))
	require.NoError(t, err)
	require.NoError(t, w.Decide(DecideInput{Level: 1, Role: "RISK", Decision: DecisionApprove, DecidedBy: "bob"}))

	err = w.Decide(DecideInput{Level: 5, Role: "X", Decision: DecisionApprove, DecidedBy: "alice"})

	assert.ErrorIs(t, err, ErrWorkflowAlreadyTerminal)
}

func TestDecide_RoleComparisonIgnoresCase(t *testing.T) {
	w := twoLevel(t)

	require.NoError(t, w.Decide(DecideInput{Level: 1, Role: "senior_trader", Decision: DecisionApprove, DecidedBy: "bob"}))

	assert.Equal(t, "SENIOR_TRADER", w.Decisions[0].Role)
}
