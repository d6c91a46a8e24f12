package strategy

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sergeigeyn/WB-Repricer/internal/margin"
	"github.com/sergeigeyn/WB-Repricer/internal/models"
)

// stubContext is an in-memory Context for handler tests.
type stubContext struct {
	products []models.Product
	prices   map[uint]models.PriceSnapshot
	orders   map[uint]int
	fees     map[uint]margin.AccountFees
}

func (s *stubContext) Products(ids []uint) ([]models.Product, error) { return s.products, nil }

func (s *stubContext) LatestPrices(ids []uint) (map[uint]models.PriceSnapshot, error) {
	return s.prices, nil
}

func (s *stubContext) NetOrders7d(ids []uint) (map[uint]int, error) { return s.orders, nil }

func (s *stubContext) AccountFees(ids []uint) (map[uint]margin.AccountFees, error) {
	return s.fees, nil
}

func fptr(v float64) *float64 { return &v }

func testProduct(id uint, stock int) models.Product {
	p := models.Product{
		AccountID:     1,
		TotalStock:    stock,
		CostPrice:     fptr(400),
		CommissionPct: fptr(15),
		LogisticsCost: fptr(50),
	}
	p.ID = id
	return p
}

func snapshotAt(productID uint, price float64) models.PriceSnapshot {
	return models.PriceSnapshot{ProductID: productID, FinalPrice: &price}
}

func runHandler(t *testing.T, pctx Context, config string) []Recommendation {
	t.Helper()
	handler := &OutOfStockHandler{}
	strat := &models.Strategy{Type: models.TypeOutOfStock}
	recs, err := handler.Execute(strat, json.RawMessage(config), []uint{1}, pctx)
	require.NoError(t, err)
	return recs
}

func TestOutOfStock_ZeroStockExcluded(t *testing.T) {
	pctx := &stubContext{
		products: []models.Product{testProduct(1, 0)},
		prices:   map[uint]models.PriceSnapshot{1: snapshotAt(1, 1000)},
		orders:   map[uint]int{1: 70}, // plenty of velocity, still skipped
	}

	recs := runHandler(t, pctx, "")
	assert.Empty(t, recs)
}

func TestOutOfStock_ZeroStockIncludedWhenConfigured(t *testing.T) {
	pctx := &stubContext{
		products: []models.Product{testProduct(1, 0)},
		prices:   map[uint]models.PriceSnapshot{1: snapshotAt(1, 1000)},
		orders:   map[uint]int{1: 14},
	}

	recs := runHandler(t, pctx, `{"exclude_zero_stock": false}`)
	require.Len(t, recs, 1)
	// zero stock with sales pressure means zero days of cover
	assert.Equal(t, AlertCritical, recs[0].AlertLevel)
}

func TestOutOfStock_SafeRunwaySkipped(t *testing.T) {
	// stock 100, 70 net orders -> velocity 10/day -> 10 days >= threshold 7
	pctx := &stubContext{
		products: []models.Product{testProduct(1, 100)},
		prices:   map[uint]models.PriceSnapshot{1: snapshotAt(1, 1000)},
		orders:   map[uint]int{1: 70},
	}

	recs := runHandler(t, pctx, "")
	assert.Empty(t, recs)
}

func TestOutOfStock_NoVelocitySkipped(t *testing.T) {
	pctx := &stubContext{
		products: []models.Product{testProduct(1, 5)},
		prices:   map[uint]models.PriceSnapshot{1: snapshotAt(1, 1000)},
		orders:   map[uint]int{},
	}

	recs := runHandler(t, pctx, "")
	assert.Empty(t, recs)
}

func TestOutOfStock_NoPriceSkipped(t *testing.T) {
	pctx := &stubContext{
		products: []models.Product{testProduct(1, 20)},
		prices:   map[uint]models.PriceSnapshot{},
		orders:   map[uint]int{1: 70},
	}

	recs := runHandler(t, pctx, "")
	assert.Empty(t, recs)
}

func TestOutOfStock_WarningTier(t *testing.T) {
	// stock 30, 42 net orders -> velocity 6/day -> 5 days: warning, +15%
	pctx := &stubContext{
		products: []models.Product{testProduct(1, 30)},
		prices:   map[uint]models.PriceSnapshot{1: snapshotAt(1, 1000)},
		orders:   map[uint]int{1: 42},
		fees:     map[uint]margin.AccountFees{1: {TaxRate: 6}},
	}

	recs := runHandler(t, pctx, "")
	require.Len(t, recs, 1)

	rec := recs[0]
	assert.Equal(t, uint(1), rec.ProductID)
	assert.Equal(t, AlertWarning, rec.AlertLevel)
	assert.Equal(t, 1000.0, rec.CurrentPrice)
	assert.Equal(t, 1150.0, rec.RecommendedPrice)
	assert.Equal(t, 15.0, rec.PriceChangePct)
	assert.Contains(t, rec.Reason, "Warning")
	assert.Contains(t, rec.Reason, "+15% to price")
	require.NotNil(t, rec.CurrentMarginPct)
	require.NotNil(t, rec.NewMarginPct)
	assert.Greater(t, *rec.NewMarginPct, *rec.CurrentMarginPct)

	assert.Equal(t, 30, rec.Extra["total_stock"])
	assert.Equal(t, 42, rec.Extra["orders_7d"])
	assert.Equal(t, 6.0, rec.Extra["velocity_7d"])
	assert.Equal(t, 5.0, rec.Extra["days_remaining"])
}

func TestOutOfStock_CriticalTierCappedAtMaxIncrease(t *testing.T) {
	// stock 20, 70 net orders -> velocity 10/day -> 2 days: critical.
	// critical bump 30% is capped by max_price_increase_pct 25%.
	pctx := &stubContext{
		products: []models.Product{testProduct(1, 20)},
		prices:   map[uint]models.PriceSnapshot{1: snapshotAt(1, 1000)},
		orders:   map[uint]int{1: 70},
	}

	recs := runHandler(t, pctx, `{"max_price_increase_pct": 25}`)
	require.Len(t, recs, 1)

	rec := recs[0]
	assert.Equal(t, AlertCritical, rec.AlertLevel)
	assert.Equal(t, 25.0, rec.PriceChangePct)
	assert.Equal(t, 1250.0, rec.RecommendedPrice)
	assert.Contains(t, rec.Reason, "CRITICAL")
}

func TestOutOfStock_LowMarginClauseAppended(t *testing.T) {
	// cost profile eating almost the whole price -> margin below the floor
	p := testProduct(1, 20)
	p.CostPrice = fptr(900)
	pctx := &stubContext{
		products: []models.Product{p},
		prices:   map[uint]models.PriceSnapshot{1: snapshotAt(1, 1000)},
		orders:   map[uint]int{1: 70},
	}

	recs := runHandler(t, pctx, "")
	require.Len(t, recs, 1)
	assert.Contains(t, recs[0].Reason, "below the 5% floor")
}

func TestOutOfStock_MissingCostPriceLeavesMarginsNil(t *testing.T) {
	p := testProduct(1, 20)
	p.CostPrice = nil
	pctx := &stubContext{
		products: []models.Product{p},
		prices:   map[uint]models.PriceSnapshot{1: snapshotAt(1, 1000)},
		orders:   map[uint]int{1: 70},
	}

	recs := runHandler(t, pctx, "")
	require.Len(t, recs, 1)
	assert.Nil(t, recs[0].CurrentMarginPct)
	assert.Nil(t, recs[0].NewMarginPct)
	assert.Nil(t, recs[0].NewMarginAmount)
	assert.NotContains(t, recs[0].Reason, "below")
}

func TestOutOfStock_BadConfigIsAnError(t *testing.T) {
	handler := &OutOfStockHandler{}
	strat := &models.Strategy{Type: models.TypeOutOfStock}
	_, err := handler.Execute(strat, json.RawMessage(`{"threshold_days": "soon"}`), []uint{1}, &stubContext{})
	assert.Error(t, err)
}

func TestDefaultOutOfStockConfig(t *testing.T) {
	cfg := DefaultOutOfStockConfig()
	assert.Equal(t, 7.0, cfg.ThresholdDays)
	assert.Equal(t, 3.0, cfg.CriticalDays)
	assert.Equal(t, 15.0, cfg.PriceIncreasePct)
	assert.Equal(t, 30.0, cfg.CriticalIncreasePct)
	assert.Equal(t, 50.0, cfg.MaxPriceIncreasePct)
	assert.Equal(t, 5.0, cfg.MinMarginPct)
	assert.True(t, cfg.ExcludeZeroStock)
}
