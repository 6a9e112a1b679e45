package mysql

import (
	"gorm.io/gorm"

	"tradecore/internal/domain/audit"
	"tradecore/internal/domain/rule"
	"tradecore/internal/domain/trade"
	"tradecore/internal/domain/workflow"
)

// Models lists every table the service owns, in creation order.
func Models() []any {
	return []any{
		&rule.Family{},
		&rule.ApprovalRule{},
		&trade.Trade{},
		&trade.Version{},
		&trade.LifecycleRule{},
		&trade.DealTemplate{},
		&workflow.Workflow{},
		&audit.Event{},
	}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
