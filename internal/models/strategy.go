package models

import (
	"time"

	"gorm.io/gorm"
)

// Strategy type identifiers. The set is closed: creating a strategy with a
// type outside this list is rejected up front. Types without a registered
// handler are valid records but fail at run time.
const (
	TypeSalesVelocity       = "sales_velocity"
	TypeOutOfStock          = "out_of_stock"
	TypePromotionBooster    = "promotion_booster"
	TypeCompetitorFollowing = "competitor_following"
	TypeTargetMargin        = "target_margin"
	TypePriceRange          = "price_range"
	TypeDemandReaction      = "demand_reaction"
	TypeScheduled           = "scheduled"
	TypeLocomotive          = "locomotive"
	TypeABTest              = "ab_test"
)

// StrategyTypes lists every recognized strategy type.
var StrategyTypes = []string{
	TypeSalesVelocity,
	TypeOutOfStock,
	TypePromotionBooster,
	TypeCompetitorFollowing,
	TypeTargetMargin,
	TypePriceRange,
	TypeDemandReaction,
	TypeScheduled,
	TypeLocomotive,
	TypeABTest,
}

// ValidStrategyType reports whether t belongs to the closed type set.
func ValidStrategyType(t string) bool {
	for _, known := range StrategyTypes {
		if known == t {
			return true
		}
	}
	return false
}

// StrategyExecution statuses. An execution is created as running and
// transitions exactly once to completed or failed.
const (
	ExecutionRunning   = "running"
	ExecutionCompleted = "completed"
	ExecutionFailed    = "failed"
)

// Strategy is a pricing strategy created by an operator. Deactivation is a
// soft flag so the execution history stays meaningful.
type Strategy struct {
	gorm.Model
	Name       string `gorm:"size:255;not null"`
	Type       string `gorm:"size:50;index;not null"`
	ConfigJSON string `gorm:"type:text"`
	Priority   int    `gorm:"default:5"` // ascending: lower runs first
	IsActive   bool   `gorm:"default:true"`
}

// ProductStrategy links a product to a strategy. Unassignment flips
// IsActive instead of deleting the row.
type ProductStrategy struct {
	gorm.Model
	ProductID  uint   `gorm:"index"`
	StrategyID uint   `gorm:"index"`
	ParamsJSON string `gorm:"type:text"`
	IsActive   bool   `gorm:"default:true"`
}

// StrategyExecution is the append-only audit record of one strategy run.
type StrategyExecution struct {
	gorm.Model
	StrategyID             uint   `gorm:"index:idx_strategy_exec"`
	BatchID                string `gorm:"size:36;index"`
	Status                 string `gorm:"size:20;default:running"`
	ProductsProcessed      int    `gorm:"default:0"`
	RecommendationsCreated int    `gorm:"default:0"`
	ErrorsCount            int    `gorm:"default:0"`
	DetailsJSON            string `gorm:"type:text"`
	TriggeredBy            string `gorm:"size:20;default:manual"`
	ExecutedAt             time.Time `gorm:"index:idx_strategy_exec"`
	CompletedAt            *time.Time
}
