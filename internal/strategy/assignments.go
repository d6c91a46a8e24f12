package strategy

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/sergeigeyn/WB-Repricer/internal/models"
)

// AssignProducts links products to a strategy, skipping products that are
// already actively assigned. Returns how many links were added.
func AssignProducts(db *gorm.DB, strategyID uint, productIDs []uint) (int, error) {
	var strat models.Strategy
	if err := db.First(&strat, strategyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("strategy %d: %w", strategyID, ErrStrategyNotFound)
		}
		return 0, fmt.Errorf("load strategy %d: %w", strategyID, err)
	}

	var existing []uint
	err := db.Model(&models.ProductStrategy{}).
		Where("strategy_id = ? AND is_active = ?", strategyID, true).
		Pluck("product_id", &existing).Error
	if err != nil {
		return 0, fmt.Errorf("load assignments: %w", err)
	}
	assigned := make(map[uint]struct{}, len(existing))
	for _, id := range existing {
		assigned[id] = struct{}{}
	}

	added := 0
	for _, productID := range productIDs {
		if _, ok := assigned[productID]; ok {
			continue
		}
		link := models.ProductStrategy{
			ProductID:  productID,
			StrategyID: strategyID,
			IsActive:   true,
		}
		if err := db.Create(&link).Error; err != nil {
			return added, fmt.Errorf("assign product %d: %w", productID, err)
		}
		added++
	}
	return added, nil
}

// UnassignProducts deactivates the links between a strategy and the given
// products. Links are never deleted so past executions stay explainable.
func UnassignProducts(db *gorm.DB, strategyID uint, productIDs []uint) (int, error) {
	result := db.Model(&models.ProductStrategy{}).
		Where("strategy_id = ? AND product_id IN ? AND is_active = ?", strategyID, productIDs, true).
		Update("is_active", false)
	if result.Error != nil {
		return 0, fmt.Errorf("unassign products: %w", result.Error)
	}
	return int(result.RowsAffected), nil
}

// DeactivateStrategy soft-deletes a strategy. Its executions and
// recommendations remain in the audit trail.
func DeactivateStrategy(db *gorm.DB, strategyID uint) error {
	result := db.Model(&models.Strategy{}).
		Where("id = ?", strategyID).
		Update("is_active", false)
	if result.Error != nil {
		return fmt.Errorf("deactivate strategy %d: %w", strategyID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("strategy %d: %w", strategyID, ErrStrategyNotFound)
	}
	return nil
}
