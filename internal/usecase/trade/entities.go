package trade

import (
	"strings"

	"tradecore/internal/domain/audit"
	"tradecore/internal/domain/trade"
	"tradecore/internal/domain/workflow"
)

type BookInput struct {
	Commodity      string  `json:"commodity"`
	InstrumentType string  `json:"instrumentType"`
	Counterparty   string  `json:"counterparty"`
	Portfolio      string  `json:"portfolio"`
	Desk           string  `json:"desk"`
	Side           string  `json:"side"`
	Currency       string  `json:"currency"`
	Quantity       float64 `json:"quantity"`
	Price          float64 `json:"price"`
}

func (in BookInput) economics() trade.Economics {
	return trade.Economics{
		Commodity:      strings.ToUpper(strings.TrimSpace(in.Commodity)),
		InstrumentType: strings.ToUpper(strings.TrimSpace(in.InstrumentType)),
		Counterparty:   strings.TrimSpace(in.Counterparty),
		Portfolio:      strings.TrimSpace(in.Portfolio),
		Desk:           strings.ToUpper(strings.TrimSpace(in.Desk)),
		Side:           strings.ToUpper(strings.TrimSpace(in.Side)),
		Currency:       strings.ToUpper(strings.TrimSpace(in.Currency)),
		Quantity:       in.Quantity,
		Price:          in.Price,
	}
}

// AmendInput carries only the terms being changed.
type AmendInput struct {
	Commodity      *string  `json:"commodity"`
	InstrumentType *string  `json:"instrumentType"`
	Counterparty   *string  `json:"counterparty"`
	Portfolio      *string  `json:"portfolio"`
	Desk           *string  `json:"desk"`
	Side           *string  `json:"side"`
	Currency       *string  `json:"currency"`
	Quantity       *float64 `json:"quantity"`
	Price          *float64 `json:"price"`
	Reason         string   `json:"amendmentReason"`
}

func (in AmendInput) apply(e trade.Economics) trade.Economics {
	set := func(dst *string, v *string, upper bool) {
		if v == nil {
			return
		}
		s := strings.TrimSpace(*v)
		if upper {
			s = strings.ToUpper(s)
		}
		*dst = s
	}
	set(&e.Commodity, in.Commodity, true)
	set(&e.InstrumentType, in.InstrumentType, true)
	set(&e.Counterparty, in.Counterparty, false)
	set(&e.Portfolio, in.Portfolio, false)
	set(&e.Desk, in.Desk, true)
	set(&e.Side, in.Side, true)
	set(&e.Currency, in.Currency, true)
	if in.Quantity != nil {
		e.Quantity = *in.Quantity
	}
	if in.Price != nil {
		e.Price = *in.Price
	}
	return e
}

type EventInput struct {
	EventType string      `json:"eventType"`
	Comment   string      `json:"comment"`
	Amend     *AmendInput `json:"amend,omitempty"`
}

// TradeDTO is a trade plus its open approval, if any.
type TradeDTO struct {
	trade.Trade
	Approval *ApprovalSummary `json:"approval,omitempty"`
}

type ApprovalSummary struct {
	WorkflowID   string `json:"workflowId"`
	State        string `json:"state"`
	AwaitingRole string `json:"awaitingRole,omitempty"`
	RuleID       uint64 `json:"matchedRuleId"`
	RuleName     string `json:"matchedRuleName"`
}

func summarize(w *workflow.Workflow) *ApprovalSummary {
	if w == nil {
		return nil
	}
	return &ApprovalSummary{
		WorkflowID:   w.WorkflowID,
		State:        w.State(),
		AwaitingRole: w.AwaitingRole(),
		RuleID:       w.MatchedRuleID,
		RuleName:     w.MatchedRuleName,
	}
}

type History struct {
	TradeID  string          `json:"tradeId"`
	Events   []audit.Event   `json:"events"`
	Versions []trade.Version `json:"versions"`
}
