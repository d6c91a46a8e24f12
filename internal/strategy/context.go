package strategy

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/sergeigeyn/WB-Repricer/internal/margin"
	"github.com/sergeigeyn/WB-Repricer/internal/models"
)

// WB reports sales in Moscow time; the 7-day window is aligned to MSK dates.
var mskZone = time.FixedZone("MSK", 3*60*60)

// DBContext is the database-backed Context implementation the runner hands
// to handlers. All methods are reads; one Context load per handler call
// gives every computation inside a run the same snapshot of the world.
type DBContext struct {
	db  *gorm.DB
	now func() time.Time
}

// NewDBContext wraps a gorm DB as a handler context.
func NewDBContext(db *gorm.DB) *DBContext {
	return &DBContext{db: db, now: time.Now}
}

// Products implements Context.
func (c *DBContext) Products(ids []uint) ([]models.Product, error) {
	var products []models.Product
	if err := c.db.Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	return products, nil
}

// LatestPrices implements Context. Snapshots are ordered newest first, so
// the first row seen per product wins.
func (c *DBContext) LatestPrices(ids []uint) (map[uint]models.PriceSnapshot, error) {
	var snapshots []models.PriceSnapshot
	err := c.db.
		Where("product_id IN ?", ids).
		Order("collected_at DESC").
		Find(&snapshots).Error
	if err != nil {
		return nil, fmt.Errorf("query price snapshots: %w", err)
	}

	latest := make(map[uint]models.PriceSnapshot, len(ids))
	for _, snap := range snapshots {
		if _, ok := latest[snap.ProductID]; !ok {
			latest[snap.ProductID] = snap
		}
	}
	return latest, nil
}

// NetOrders7d implements Context. The window is the seven full MSK days
// before today; today's partial day is excluded.
func (c *DBContext) NetOrders7d(ids []uint) (map[uint]int, error) {
	nowMsk := c.now().In(mskZone)
	today := time.Date(nowMsk.Year(), nowMsk.Month(), nowMsk.Day(), 0, 0, 0, 0, mskZone)
	sevenDaysAgo := today.AddDate(0, 0, -7)

	var rows []models.SalesDaily
	err := c.db.
		Where("product_id IN ? AND date >= ? AND date < ?", ids, sevenDaysAgo, today).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query sales: %w", err)
	}

	orders := make(map[uint]int)
	returns := make(map[uint]int)
	for _, row := range rows {
		orders[row.ProductID] += row.OrdersCount
		returns[row.ProductID] += row.ReturnsCount
	}

	net := make(map[uint]int, len(orders))
	for productID, count := range orders {
		n := count - returns[productID]
		if n < 0 {
			n = 0
		}
		net[productID] = n
	}
	return net, nil
}

// AccountFees implements Context. Accounts with unset rates fall back to
// zero, meaning the fee is not charged.
func (c *DBContext) AccountFees(accountIDs []uint) (map[uint]margin.AccountFees, error) {
	var accounts []models.Account
	if err := c.db.Where("id IN ?", accountIDs).Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}

	fees := make(map[uint]margin.AccountFees, len(accounts))
	for _, acc := range accounts {
		f := margin.AccountFees{}
		if acc.TaxRate != nil {
			f.TaxRate = *acc.TaxRate
		}
		if acc.TariffRate != nil {
			f.TariffRate = *acc.TariffRate
		}
		fees[acc.ID] = f
	}
	return fees, nil
}
