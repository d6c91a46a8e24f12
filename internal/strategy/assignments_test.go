package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sergeigeyn/WB-Repricer/internal/models"
)

func TestAssignProducts(t *testing.T) {
	db := setupDB(t)
	strat := createStrategy(t, db, models.TypeOutOfStock, true, 1)

	added, err := AssignProducts(db, strat.ID, []uint{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 2, added, "already-assigned products are skipped")

	var count int64
	db.Model(&models.ProductStrategy{}).Where("strategy_id = ? AND is_active = ?", strat.ID, true).Count(&count)
	assert.Equal(t, int64(3), count)

	t.Run("UnknownStrategy", func(t *testing.T) {
		_, err := AssignProducts(db, 99, []uint{1})
		assert.ErrorIs(t, err, ErrStrategyNotFound)
	})
}

func TestUnassignProducts(t *testing.T) {
	db := setupDB(t)
	strat := createStrategy(t, db, models.TypeOutOfStock, true, 1, 2, 3)

	removed, err := UnassignProducts(db, strat.ID, []uint{1, 3, 9})
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	// links are deactivated, not deleted
	var total, active int64
	db.Model(&models.ProductStrategy{}).Where("strategy_id = ?", strat.ID).Count(&total)
	db.Model(&models.ProductStrategy{}).Where("strategy_id = ? AND is_active = ?", strat.ID, true).Count(&active)
	assert.Equal(t, int64(3), total)
	assert.Equal(t, int64(1), active)
}

func TestDeactivateStrategy(t *testing.T) {
	db := setupDB(t)
	strat := createStrategy(t, db, models.TypeOutOfStock, true)

	require.NoError(t, DeactivateStrategy(db, strat.ID))

	var reloaded models.Strategy
	require.NoError(t, db.First(&reloaded, strat.ID).Error)
	assert.False(t, reloaded.IsActive)

	assert.ErrorIs(t, DeactivateStrategy(db, 99), ErrStrategyNotFound)
}
