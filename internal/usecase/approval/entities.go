package approval

import (
	"tradecore/internal/domain/trade"
	"tradecore/internal/domain/workflow"
)

type DecideInput struct {
	TradeID string
	// Level is the ladder level being decided. 0 means the level currently awaited.
	Level    int
	Decision workflow.Decision
	Reason   string
}

type DecisionDTO struct {
	Workflow    *workflow.Workflow `json:"workflow"`
	State       string             `json:"state"`
	TradeStatus trade.Status       `json:"tradeStatus"`
}

type PendingDTO struct {
	TradeID      string `json:"tradeId"`
	WorkflowID   string `json:"workflowId"`
	State        string `json:"state"`
	Level        int    `json:"currentLevel"`
	AwaitingRole string `json:"awaitingRole"`
	RuleID       uint64 `json:"matchedRuleId"`
	RuleName     string `json:"matchedRuleName"`
	CreatedBy    string `json:"tradeCreatedBy"`
}
