package models

import (
	"time"

	"gorm.io/gorm"
)

// PriceSnapshot is one observation of a product's price collected from WB.
// The most recent snapshot per product is the "current price" everywhere in
// the strategy engine.
type PriceSnapshot struct {
	gorm.Model
	ProductID   uint `gorm:"index:idx_price_snapshots_product_date"`
	WBPrice     float64
	WBDiscount  float64
	SppPercent  *float64
	FinalPrice  *float64
	Source      string    `gorm:"size:20;default:api"`
	CollectedAt time.Time `gorm:"index:idx_price_snapshots_product_date"`
}

// PriceHistory is the append-only log of price recommendations produced by
// strategy executions. Rows are never updated after creation except for the
// IsApplied flag flipped by an external review flow.
type PriceHistory struct {
	gorm.Model
	ProductID      uint `gorm:"index:idx_price_history_product_date"`
	StrategyID     uint `gorm:"index"`
	ExecutionID    uint `gorm:"index"`
	PriceBefore    float64
	Discount       float64 `gorm:"default:0"`
	PriceAfter     float64
	MarginAmount   *float64
	MarginPct      *float64
	AlertLevel     string `gorm:"size:20"`
	ChangeReason   string `gorm:"type:text"`
	IsApplied      bool   `gorm:"default:false"`
}
