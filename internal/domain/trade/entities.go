package trade

import (
	"time"

	"tradecore/internal/domain/audit"
	"tradecore/internal/domain/rule"
)

type Status string

const (
	StatusCreated         Status = "CREATED"
	StatusPriced          Status = "PRICED"
	StatusPendingApproval Status = "PENDING_APPROVAL"
	StatusApproved        Status = "APPROVED"
	StatusRejected        Status = "REJECTED"
	StatusCancelled       Status = "CANCELLED"
	StatusDelivered       Status = "DELIVERED"
	StatusInvoiced        Status = "INVOICED"
	StatusSettled         Status = "SETTLED"
)

// Economics are the amendable terms of a trade. Each version stores a copy.
type Economics struct {
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

// Table: trades
type Trade struct {
	ID      uint64 `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	TradeID string `gorm:"column:trade_id;type:char(32);not null;uniqueIndex" json:"tradeId"`

	Commodity      string  `gorm:"column:commodity;size:32" json:"commodity"`
	InstrumentType string  `gorm:"column:instrument_type;size:32" json:"instrumentType"`
	Counterparty   string  `gorm:"column:counterparty;size:64" json:"counterparty"`
	Portfolio      string  `gorm:"column:portfolio;size:64" json:"portfolio"`
	Desk           string  `gorm:"column:desk;size:32;index" json:"desk"`
	Side           string  `gorm:"column:side;size:8" json:"side"`
	Currency       string  `gorm:"column:currency;size:3" json:"currency"`
	Quantity       float64 `gorm:"column:quantity;type:decimal(20,4)" json:"quantity"`
	Price          float64 `gorm:"column:price;type:decimal(20,6)" json:"price"`

	// Valuation outputs, present once the valuation service has been consulted.
	MTM   *float64 `gorm:"column:mtm;type:decimal(20,4)" json:"mtm,omitempty"`
	Delta *float64 `gorm:"column:delta;type:decimal(20,6)" json:"delta,omitempty"`

	Status          Status    `gorm:"column:status;size:24;not null;index" json:"status"`
	AmendCount      int       `gorm:"column:amend_count;not null;default:0" json:"amendCount"`
	Version         int       `gorm:"column:version;not null;default:1" json:"version"`
	CreatedBy       string    `gorm:"column:created_by;size:64;not null" json:"createdBy"`
	StatusUpdatedAt time.Time `gorm:"column:status_updated_at" json:"statusUpdatedAt"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (Trade) TableName() string { return "trades" }

func (t *Trade) Economics() Economics {
	return Economics{
		Commodity:      t.Commodity,
		InstrumentType: t.InstrumentType,
		Counterparty:   t.Counterparty,
		Portfolio:      t.Portfolio,
		Desk:           t.Desk,
		Side:           t.Side,
		Currency:       t.Currency,
		Quantity:       t.Quantity,
		Price:          t.Price,
	}
}

func (t *Trade) SetEconomics(e Economics) {
	t.Commodity = e.Commodity
	t.InstrumentType = e.InstrumentType
	t.Counterparty = e.Counterparty
	t.Portfolio = e.Portfolio
	t.Desk = e.Desk
	t.Side = e.Side
	t.Currency = e.Currency
	t.Quantity = e.Quantity
	t.Price = e.Price
}

// Snapshot exposes the trade's fields to the rule engine. Valuation fields are only
// present once set.
func (t *Trade) Snapshot() rule.Snapshot {
	s := rule.Snapshot{
		"quantity":       rule.Number(t.Quantity),
		"price":          rule.Number(t.Price),
		"notional":       rule.Number(t.Quantity * t.Price),
		"counterparty":   rule.Text(t.Counterparty),
		"instrumentType": rule.Text(t.InstrumentType),
		"portfolio":      rule.Text(t.Portfolio),
		"commodity":      rule.Text(t.Commodity),
		"desk":           rule.Text(t.Desk),
		"side":           rule.Text(t.Side),
		"currency":       rule.Text(t.Currency),
	}
	if t.MTM != nil {
		s["mtm"] = rule.Number(*t.MTM)
	}
	if t.Delta != nil {
		s["delta"] = rule.Number(*t.Delta)
	}
	return s
}

// Table: trade_versions
//
// Version 1 is written at booking; each amendment appends the next one. Rows are never updated.
type Version struct {
	ID              uint64     `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	TradeID         string     `gorm:"column:trade_id;type:char(32);not null;uniqueIndex:ux_trade_versions,priority:1" json:"tradeId"`
	VersionNumber   int        `gorm:"column:version_number;not null;uniqueIndex:ux_trade_versions,priority:2" json:"versionNumber"`
	Terms           Economics  `gorm:"column:terms;type:text;serializer:json" json:"terms"`
	AmendedBy       string     `gorm:"column:amended_by;size:64" json:"amendedBy"`
	AmendmentReason string     `gorm:"column:amendment_reason;type:text" json:"amendmentReason"`
	ChangeDiff      audit.Diff `gorm:"column:change_diff;type:text;serializer:json" json:"changeDiff"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

func (Version) TableName() string { return "trade_versions" }

// Valuation is what the external valuation service returns for a trade.
type Valuation struct {
	MTM   float64 `json:"mtm"`
	Delta float64 `json:"delta"`
}

// DiffEconomics lists the fields that differ between two term sets.
func DiffEconomics(before, after Economics) audit.Diff {
	d := audit.Diff{}
	add := func(field string, o, n any) {
		if o != n {
			d[field] = audit.Change{OldValue: o, NewValue: n}
		}
	}
	add("commodity", before.Commodity, after.Commodity)
	add("instrumentType", before.InstrumentType, after.InstrumentType)
	add("counterparty", before.Counterparty, after.Counterparty)
	add("portfolio", before.Portfolio, after.Portfolio)
	add("desk", before.Desk, after.Desk)
	add("side", before.Side, after.Side)
	add("currency", before.Currency, after.Currency)
	add("quantity", before.Quantity, after.Quantity)
	add("price", before.Price, after.Price)
	return d
}
