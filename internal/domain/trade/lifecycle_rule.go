package trade

import (
	"context"
	"fmt"
	"time"
)

// Table: lifecycle_rules
//
// A rule governs one (event, fromStatus, desk) key. An empty desk matches every desk; a
// desk-specific rule wins over it. A disabled rule closes the transition for its desks.
type LifecycleRule struct {
	ID            uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name          string    `gorm:"column:name;size:128" json:"name"`
	EventType     Trigger   `gorm:"column:event_type;size:16;not null;uniqueIndex:ux_lifecycle_rules,priority:1" json:"eventType"`
	FromStatus    Status    `gorm:"column:from_status;size:24;not null;uniqueIndex:ux_lifecycle_rules,priority:2" json:"fromStatus"`
	Desk          string    `gorm:"column:desk;size:32;not null;uniqueIndex:ux_lifecycle_rules,priority:3" json:"desk"`
	ToStatus      Status    `gorm:"column:to_status;size:24;not null" json:"toStatus"`
	MaxOccurrence int       `gorm:"column:max_occurrence;not null" json:"maxOccurrence"`
	Enabled       bool      `gorm:"column:enabled;not null" json:"enabled"`
	CreatedBy     string    `gorm:"column:created_by;size:64" json:"createdBy"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (LifecycleRule) TableName() string { return "lifecycle_rules" }

// DisplayName falls back to RULE-<id> for unnamed rules.
func (r LifecycleRule) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	return fmt.Sprintf("RULE-%d", r.ID)
}

// Check refuses the transition when the rule is disabled, or once the trade has already seen
// the event MaxOccurrence times.
func (r LifecycleRule) Check(occurred int) error {
	if !r.Enabled {
		return &InvalidTransitionError{
			From:    r.FromStatus,
			Trigger: r.EventType,
			Reason:  fmt.Sprintf("disabled by lifecycle rule %s", r.DisplayName()),
		}
	}
	if r.MaxOccurrence > 0 && occurred >= r.MaxOccurrence {
		return &InvalidTransitionError{
			From:    r.FromStatus,
			Trigger: r.EventType,
			Reason:  fmt.Sprintf("lifecycle rule %s allows %d occurrence(s)", r.DisplayName(), r.MaxOccurrence),
		}
	}
	return nil
}

// GoverningRule picks the rule for a trade on desk leaving from.
func GoverningRule(rules []LifecycleRule, from Status, desk string) (LifecycleRule, bool) {
	var wildcard *LifecycleRule
	for i := range rules {
		r := &rules[i]
		if r.FromStatus != from {
			continue
		}
		switch r.Desk {
		case desk:
			return *r, true
		case "":
			wildcard = r
		}
	}
	if wildcard != nil {
		return *wildcard, true
	}
	return LifecycleRule{}, false
}

type LifecycleRuleRepository interface {
	Create(ctx context.Context, r *LifecycleRule) error
	Save(ctx context.Context, r *LifecycleRule) error
	Get(ctx context.Context, id uint64) (*LifecycleRule, error)
	List(ctx context.Context) ([]LifecycleRule, error)
	// ListByEvent returns every rule for the event, enabled or not.
	ListByEvent(ctx context.Context, ev Trigger) ([]LifecycleRule, error)
}
