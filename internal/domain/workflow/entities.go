package workflow

import (
	"fmt"
	"time"

	"tradecore/internal/domain/rule"
)

type Status string

const (
	StatusAwaiting Status = "AWAITING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

type Decision string

const (
	DecisionApprove Decision = "APPROVE"
	DecisionReject  Decision = "REJECT"
)

// DecisionRecord is one approver's verdict at one level.
type DecisionRecord struct {
	Level     int       `json:"level"`
	Role      string    `json:"role"`
	DecidedBy string    `json:"decidedBy"`
	Decision  Decision  `json:"decision"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Table: approval_workflows
type Workflow struct {
	ID           uint64            `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	WorkflowID   string            `gorm:"column:workflow_id;type:char(32);not null;uniqueIndex" json:"workflowId"`
	TradeID      string            `gorm:"column:trade_id;type:char(32);not null;index" json:"tradeId"`
	TriggerEvent rule.TriggerEvent `gorm:"column:trigger_event;size:16;not null" json:"triggerEvent"`
	// MatchedRuleID and MatchedRuleVersion record which rule version produced the ladder.
	MatchedRuleID      uint64 `gorm:"column:matched_rule_id;not null" json:"matchedRuleId"`
	MatchedRuleVersion int    `gorm:"column:matched_rule_version;not null" json:"matchedRuleVersion"`
	MatchedRuleName    string `gorm:"column:matched_rule_name;size:128" json:"matchedRuleName"`
	// TradeCreatedBy is copied at creation so self-approval checks need no trade lookup.
	TradeCreatedBy string `gorm:"column:trade_created_by;size:64;not null" json:"tradeCreatedBy"`

	Status       Status             `gorm:"column:status;size:16;not null;index" json:"status"`
	CurrentLevel int                `gorm:"column:current_level;not null" json:"currentLevel"`
	Ladder       []rule.RoutingStep `gorm:"column:ladder;type:text;serializer:json" json:"routingLadder"`
	Decisions    []DecisionRecord   `gorm:"column:decisions;type:text;serializer:json" json:"decisions"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time          `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
	CompletedAt  *time.Time         `gorm:"column:completed_at" json:"completedAt,omitempty"`
}

func (Workflow) TableName() string { return "approval_workflows" }

// State renders the machine state: AWAITING_LEVEL(n), APPROVED or REJECTED.
func (w *Workflow) State() string {
	if w.Status == StatusAwaiting {
		return fmt.Sprintf("AWAITING_LEVEL(%d)", w.CurrentLevel)
	}
	return string(w.Status)
}

func (w *Workflow) Terminal() bool {
	return w.Status == StatusApproved || w.Status == StatusRejected
}

// RoleAt returns the ladder role for a level.
func (w *Workflow) RoleAt(level int) (string, bool) {
	for _, s := range w.Ladder {
		if s.ApprovalLevel == level {
			return s.ApprovalRole, true
		}
	}
	return "", false
}

// AwaitingRole is the role the workflow is currently waiting on, or "" when terminal.
func (w *Workflow) AwaitingRole() string {
	if w.Terminal() {
		return ""
	}
	role, _ := w.RoleAt(w.CurrentLevel)
	return role
}
