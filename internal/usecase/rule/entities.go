package rule

import (
	domain "tradecore/internal/domain/rule"
)

type RuleInput struct {
	RuleName     string               `json:"ruleName"`
	TriggerEvent domain.TriggerEvent  `json:"triggerEvent"`
	Priority     int                  `json:"priority"`
	Conditions   []domain.Condition   `json:"conditions"`
	Routing      []domain.RoutingStep `json:"routing"`
}

func (in RuleInput) toRule() domain.ApprovalRule {
	return domain.ApprovalRule{
		RuleName:     in.RuleName,
		TriggerEvent: in.TriggerEvent,
		Priority:     in.Priority,
		Conditions:   append([]domain.Condition(nil), in.Conditions...),
		Routing:      append([]domain.RoutingStep(nil), in.Routing...),
	}
}

type SimulateInput struct {
	TriggerEvent domain.TriggerEvent `json:"triggerEvent"`
	// Trade is a hypothetical trade keyed by field code.
	Trade map[string]any `json:"trade"`
	// TradeID uses a booked trade as the base; Trade fields then override it.
	TradeID string   `json:"tradeId"`
	RuleIDs []uint64 `json:"ruleIds"`
	// Rules are unsaved rules to try out.
	Rules []RuleInput `json:"rules"`
}

type SimulationResult struct {
	FinalStatus   string               `json:"finalStatus"`
	MatchedRuleID *uint64              `json:"matchedRuleId,omitempty"`
	Ladder        []domain.RoutingStep `json:"routingLadder,omitempty"`
	Traces        []domain.RuleTrace   `json:"traces"`
	Error         string               `json:"error,omitempty"`
}

const (
	SimPendingApproval = "PENDING_APPROVAL"
	SimApproved        = "APPROVED"
	SimEvaluationError = "EVALUATION_ERROR"
)
