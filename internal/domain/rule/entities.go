package rule

import (
	"time"
)

type TriggerEvent string

const (
	TriggerTradeBook TriggerEvent = "TRADE_BOOK"
	TriggerAmend     TriggerEvent = "AMEND"
	TriggerCancel    TriggerEvent = "CANCEL"
	TriggerMaturity  TriggerEvent = "MATURITY"
)

func (t TriggerEvent) Valid() bool {
	switch t {
	case TriggerTradeBook, TriggerAmend, TriggerCancel, TriggerMaturity:
		return true
	}
	return false
}

type Status string

const (
	StatusDraft   Status = "DRAFT"
	StatusActive  Status = "ACTIVE"
	StatusRetired Status = "RETIRED"
)

func (s Status) Valid() bool {
	return s == StatusDraft || s == StatusActive || s == StatusRetired
}

// Condition is one field/operator/value predicate. All conditions of a rule must hold.
type Condition struct {
	FieldCode string   `json:"fieldCode"`
	Operator  Operator `json:"operator"`
	Value     string   `json:"value"`
}

// RoutingStep is one rung of the approval ladder.
type RoutingStep struct {
	ApprovalLevel int    `json:"approvalLevel"`
	ApprovalRole  string `json:"approvalRole"`
}

// Table: approval_rules
type ApprovalRule struct {
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement" json:"ruleId"`
	// FamilyID groups every version of one logical rule.
	FamilyID     string        `gorm:"column:family_id;type:char(32);not null;index" json:"familyId"`
	ParentRuleID *uint64       `gorm:"column:parent_rule_id" json:"parentRuleId"`
	RuleName     string        `gorm:"column:rule_name;size:128;not null" json:"ruleName"`
	TriggerEvent TriggerEvent  `gorm:"column:trigger_event;size:16;not null;index" json:"triggerEvent"`
	Priority     int           `gorm:"column:priority;not null" json:"priority"`
	Status       Status        `gorm:"column:status;size:16;not null;index" json:"status"`
	Version      int           `gorm:"column:version;not null" json:"version"`
	Conditions   []Condition   `gorm:"column:conditions;type:text;serializer:json" json:"conditions"`
	Routing      []RoutingStep `gorm:"column:routing;type:text;serializer:json" json:"routing"`
	CreatedBy    string        `gorm:"column:created_by;size:64" json:"createdBy"`
	CreatedAt    time.Time     `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time     `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (ApprovalRule) TableName() string { return "approval_rules" }

// Table: rule_families
//
// One row per logical rule. ActiveRuleID is swapped with a compare-and-swap on Revision
// so at most one version of a family is ACTIVE.
type Family struct {
	FamilyID     string    `gorm:"column:family_id;type:char(32);primaryKey"`
	ActiveRuleID *uint64   `gorm:"column:active_rule_id"`
	Revision     int64     `gorm:"column:revision;not null;default:0"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Family) TableName() string { return "rule_families" }

// Clone returns a deep copy so callers can hand rules to other aggregates without aliasing.
func (r ApprovalRule) Clone() ApprovalRule {
	out := r
	out.Conditions = append([]Condition(nil), r.Conditions...)
	out.Routing = append([]RoutingStep(nil), r.Routing...)
	if r.ParentRuleID != nil {
		p := *r.ParentRuleID
		out.ParentRuleID = &p
	}
	return out
}

// ReferencesField reports whether any condition reads fieldCode.
func (r ApprovalRule) ReferencesField(fieldCode string) bool {
	for _, c := range r.Conditions {
		if c.FieldCode == fieldCode {
			return true
		}
	}
	return false
}

// NeedsValuation returns the first rule that conditions on a valuation-derived field.
func NeedsValuation(rules []ApprovalRule) (*ApprovalRule, string, bool) {
	for i := range rules {
		for _, f := range ValuationFields {
			if rules[i].ReferencesField(f) {
				return &rules[i], f, true
			}
		}
	}
	return nil, "", false
}
