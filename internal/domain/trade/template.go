package trade

import (
	"context"
	"time"
)

// Table: deal_templates
//
// A template holds default terms. Booking from it fills in whatever the request leaves out.
type DealTemplate struct {
	ID       uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name     string    `gorm:"column:template_name;size:128;not null;uniqueIndex" json:"templateName"`
	Defaults Economics `gorm:"embedded;embeddedPrefix:default_" json:"defaults"`
	// AutoApprovalAllowed lets trades booked from the template be auto-approved when no rule matches.
	AutoApprovalAllowed bool      `gorm:"column:auto_approval_allowed;not null" json:"autoApprovalAllowed"`
	CreatedBy           string    `gorm:"column:created_by;size:64" json:"createdBy"`
	CreatedAt           time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt           time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (DealTemplate) TableName() string { return "deal_templates" }

type TemplateRepository interface {
	Create(ctx context.Context, d *DealTemplate) error
	Save(ctx context.Context, d *DealTemplate) error
	Get(ctx context.Context, id uint64) (*DealTemplate, error)
	List(ctx context.Context) ([]DealTemplate, error)
}
