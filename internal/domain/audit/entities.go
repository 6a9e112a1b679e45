package audit

import "time"

type EventType string

const (
	EventCreated   EventType = "CREATED"
	EventAmended   EventType = "AMENDED"
	EventCancelled EventType = "CANCELLED"
	EventSettled   EventType = "SETTLED"
	EventApproved  EventType = "APPROVED"
	EventRejected  EventType = "REJECTED"
	EventPriced    EventType = "PRICED"
	EventDelivered EventType = "DELIVERED"
	EventInvoiced  EventType = "INVOICED"
	// EventRouted marks a trade entering PENDING_APPROVAL.
	EventRouted EventType = "ROUTED"
)

// Change is one field's before/after pair.
type Change struct {
	OldValue any `json:"oldValue"`
	NewValue any `json:"newValue"`
}

// Diff maps field name to its change.
type Diff map[string]Change

// Table: audit_events (append-only)
type Event struct {
	ID          uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	EventID     string    `gorm:"column:event_id;type:char(26);not null;uniqueIndex" json:"eventId"`
	TradeID     string    `gorm:"column:trade_id;type:char(32);not null;index:idx_audit_trade_ts,priority:1" json:"tradeId"`
	EventType   EventType `gorm:"column:event_type;size:16;not null" json:"eventType"`
	PerformedBy string    `gorm:"column:performed_by;size:64;not null" json:"performedBy"`
	Timestamp   time.Time `gorm:"column:ts;not null;precision:6;index:idx_audit_trade_ts,priority:2" json:"timestamp"`
	ChangeDiff  Diff      `gorm:"column:change_diff;type:text;serializer:json" json:"changeDiff"`
	Comment     string    `gorm:"column:comment;type:text" json:"comment,omitempty"`
}

func (Event) TableName() string { return "audit_events" }
