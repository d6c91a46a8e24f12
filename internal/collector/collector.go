// Package collector syncs products, prices, stocks and sales from the WB
// API into the database. It is the only writer of collected data; the
// strategy engine is a pure reader.
package collector

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sergeigeyn/WB-Repricer/internal/models"
	"github.com/sergeigeyn/WB-Repricer/internal/wb"
)

// WB reports all dates in Moscow time.
var mskZone = time.FixedZone("MSK", 3*60*60)

// The stocks endpoint returns every line changed since dateFrom, so a date
// far in the past yields the full warehouse picture.
var stocksEpoch = time.Date(2019, 6, 20, 0, 0, 0, 0, mskZone)

// ClientFactory builds a WB API client for one seller account key.
type ClientFactory func(apiKey string) wb.Client

// Collector pulls data from WB for every active account.
type Collector struct {
	db      *gorm.DB
	clients ClientFactory
	logger  *zap.Logger

	now func() time.Time
}

// NewCollector creates a collector over the given database and client factory.
func NewCollector(db *gorm.DB, clients ClientFactory, logger *zap.Logger) *Collector {
	return &Collector{
		db:      db,
		clients: clients,
		logger:  logger,
		now:     time.Now,
	}
}

// Summary reports what one collection run did across all accounts.
type Summary struct {
	Accounts       int
	ProductsSynced int
	PriceSnapshots int
	StocksUpdated  int
	DaysUpserted   int
	Errors         []string
}

// CollectAll syncs products, prices, stocks and orders for every active
// account. A failure in one account is recorded in the summary and does not
// stop collection for the others.
func (c *Collector) CollectAll(ctx context.Context) (*Summary, error) {
	var accounts []models.Account
	if err := c.db.Where("is_active = ?", true).Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}

	summary := &Summary{Accounts: len(accounts)}
	if len(accounts) == 0 {
		c.logger.Warn("No active WB accounts found")
		return summary, nil
	}

	for _, account := range accounts {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		client := c.clients(account.APIKey)

		if err := c.collectAccount(client, &account, summary); err != nil {
			msg := fmt.Sprintf("account %d (%s): %v", account.ID, account.Name, err)
			c.logger.Error("Data collection failed", zap.String("error", msg))
			summary.Errors = append(summary.Errors, msg)
		}
	}

	c.logger.Info("Data collection complete",
		zap.Int("accounts", summary.Accounts),
		zap.Int("products", summary.ProductsSynced),
		zap.Int("price_snapshots", summary.PriceSnapshots),
		zap.Int("stocks_updated", summary.StocksUpdated),
		zap.Int("days_upserted", summary.DaysUpserted),
		zap.Int("errors", len(summary.Errors)),
	)
	return summary, nil
}

func (c *Collector) collectAccount(client wb.Client, account *models.Account, summary *Summary) error {
	products, err := c.SyncProducts(client, account.ID)
	if err != nil {
		return err
	}
	summary.ProductsSynced += products

	prices, err := c.SyncPrices(client, account.ID)
	if err != nil {
		return err
	}
	summary.PriceSnapshots += prices

	stocks, err := c.SyncStocks(client, account.ID)
	if err != nil {
		return err
	}
	summary.StocksUpdated += stocks

	days, err := c.SyncOrders(client, account.ID)
	if err != nil {
		return err
	}
	summary.DaysUpserted += days

	return nil
}

// SyncProducts upserts the account's product cards. Cost fields entered by
// the user are never touched here. Returns the number of cards processed.
func (c *Collector) SyncProducts(client wb.Client, accountID uint) (int, error) {
	cards, err := client.GetCards()
	if err != nil {
		return 0, fmt.Errorf("failed to sync products: %w", err)
	}

	synced := 0
	for _, card := range cards {
		if card.NmID == 0 {
			continue
		}

		imageURL := ""
		if len(card.Photos) > 0 {
			imageURL = card.Photos[0].Big
		}
		barcode := ""
		if len(card.Sizes) > 0 && len(card.Sizes[0].Skus) > 0 {
			barcode = card.Sizes[0].Skus[0]
		}

		var product models.Product
		err := c.db.Where("nm_id = ?", card.NmID).First(&product).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			product = models.Product{
				AccountID:  accountID,
				NmID:       card.NmID,
				VendorCode: card.VendorCode,
				Brand:      card.Brand,
				Category:   card.SubjectName,
				Title:      card.Title,
				ImageURL:   imageURL,
				Barcode:    barcode,
				IsActive:   true,
			}
			if err := c.db.Create(&product).Error; err != nil {
				return synced, fmt.Errorf("failed to create product %d: %w", card.NmID, err)
			}
		case err != nil:
			return synced, fmt.Errorf("failed to look up product %d: %w", card.NmID, err)
		default:
			updates := map[string]any{}
			if card.Title != "" {
				updates["title"] = card.Title
			}
			if card.Brand != "" {
				updates["brand"] = card.Brand
			}
			if card.VendorCode != "" {
				updates["vendor_code"] = card.VendorCode
			}
			if card.SubjectName != "" {
				updates["category"] = card.SubjectName
			}
			if imageURL != "" {
				updates["image_url"] = imageURL
			}
			if barcode != "" {
				updates["barcode"] = barcode
			}
			if len(updates) > 0 {
				if err := c.db.Model(&product).Updates(updates).Error; err != nil {
					return synced, fmt.Errorf("failed to update product %d: %w", card.NmID, err)
				}
			}
		}
		synced++
	}

	c.logger.Info("Synced products", zap.Int("count", synced), zap.Uint("account_id", accountID))
	return synced, nil
}

// SyncPrices records one PriceSnapshot per priced product. Goods without a
// matching product row are skipped. Returns the number of snapshots created.
func (c *Collector) SyncPrices(client wb.Client, accountID uint) (int, error) {
	goods, err := client.GetGoods()
	if err != nil {
		return 0, fmt.Errorf("failed to sync prices: %w", err)
	}

	productMap, err := c.productMap(accountID)
	if err != nil {
		return 0, err
	}

	now := c.now().UTC()
	created := 0
	for _, good := range goods {
		productID, ok := productMap[good.NmID]
		if !ok || len(good.Sizes) == 0 {
			continue
		}

		// Sizes of one good share a price; take the first.
		size := good.Sizes[0]

		discountPct := 0.0
		if size.Price > 0 {
			discountPct = round2((1 - size.DiscountedPrice/size.Price) * 100)
		}

		finalPrice := size.DiscountedPrice
		snapshot := models.PriceSnapshot{
			ProductID:   productID,
			WBPrice:     size.Price,
			WBDiscount:  discountPct,
			FinalPrice:  &finalPrice,
			Source:      "api",
			CollectedAt: now,
		}
		if err := c.db.Create(&snapshot).Error; err != nil {
			return created, fmt.Errorf("failed to create price snapshot for product %d: %w", productID, err)
		}
		created++
	}

	c.logger.Info("Created price snapshots", zap.Int("count", created), zap.Uint("account_id", accountID))
	return created, nil
}

// SyncStocks rolls warehouse quantities up into Product.TotalStock and
// appends per-warehouse StockHistory rows. Products missing from the feed
// are zeroed. Returns the number of products whose stock changed.
func (c *Collector) SyncStocks(client wb.Client, accountID uint) (int, error) {
	var products []models.Product
	if err := c.db.Where("account_id = ?", accountID).Find(&products).Error; err != nil {
		return 0, fmt.Errorf("failed to load products: %w", err)
	}
	if len(products) == 0 {
		c.logger.Info("No products for account", zap.Uint("account_id", accountID))
		return 0, nil
	}

	byNmID := make(map[int64]*models.Product, len(products))
	for i := range products {
		byNmID[products[i].NmID] = &products[i]
	}

	stocks, err := client.GetStocks(stocksEpoch)
	if err != nil {
		return 0, fmt.Errorf("failed to sync stocks: %w", err)
	}

	now := c.now().UTC()
	totals := make(map[int64]int)
	for _, item := range stocks {
		product, ok := byNmID[item.NmID]
		if !ok {
			continue
		}
		totals[item.NmID] += item.Quantity

		history := models.StockHistory{
			ProductID:     product.ID,
			WarehouseID:   item.WarehouseID,
			WarehouseName: item.WarehouseName,
			Quantity:      item.Quantity,
			CollectedAt:   now,
		}
		if err := c.db.Create(&history).Error; err != nil {
			return 0, fmt.Errorf("failed to record stock history for product %d: %w", product.ID, err)
		}
	}

	updated := 0
	for nmID, product := range byNmID {
		total := totals[nmID] // zero when the feed had no lines for the product
		if product.TotalStock == total {
			continue
		}
		if err := c.db.Model(product).Update("total_stock", total).Error; err != nil {
			return updated, fmt.Errorf("failed to update stock for product %d: %w", product.ID, err)
		}
		updated++
	}

	c.logger.Info("Updated stock", zap.Int("count", updated), zap.Uint("account_id", accountID))
	return updated, nil
}

// SyncOrders aggregates the last seven days of orders and returns into
// SalesDaily, one row per product per Moscow date. Cancelled orders are
// counted separately and excluded from the order count. Returns the number
// of daily rows upserted.
func (c *Collector) SyncOrders(client wb.Client, accountID uint) (int, error) {
	nowMSK := c.now().In(mskZone)
	from := nowMSK.AddDate(0, 0, -7)
	dateFrom := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, mskZone)

	productMap, err := c.productMap(accountID)
	if err != nil {
		return 0, err
	}

	orders, err := client.GetOrders(dateFrom)
	if err != nil {
		return 0, fmt.Errorf("failed to sync orders: %w", err)
	}
	sales, err := client.GetSales(dateFrom)
	if err != nil {
		return 0, fmt.Errorf("failed to sync sales: %w", err)
	}

	type dayKey struct {
		productID uint
		date      time.Time
	}
	type dayAgg struct {
		orders  int
		cancels int
		returns int
		revenue float64
	}
	days := make(map[dayKey]*dayAgg)
	agg := func(productID uint, date time.Time) *dayAgg {
		key := dayKey{productID, date}
		if days[key] == nil {
			days[key] = &dayAgg{}
		}
		return days[key]
	}

	for _, order := range orders {
		productID, ok := productMap[order.NmID]
		if !ok {
			continue
		}
		date, ok := parseDateMSK(order.Date)
		if !ok {
			continue
		}
		day := agg(productID, date)
		if order.IsCancel {
			day.cancels++
			continue
		}
		day.orders++
		day.revenue += order.TotalPrice
	}

	for _, sale := range sales {
		if !sale.IsReturn {
			continue
		}
		productID, ok := productMap[sale.NmID]
		if !ok {
			continue
		}
		date, ok := parseDateMSK(sale.Date)
		if !ok {
			continue
		}
		agg(productID, date).returns++
	}

	upserted := 0
	for key, day := range days {
		var existing models.SalesDaily
		err := c.db.
			Where("product_id = ? AND date = ?", key.productID, key.date).
			First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			row := models.SalesDaily{
				ProductID:    key.productID,
				Date:         key.date,
				OrdersCount:  day.orders,
				ReturnsCount: day.returns,
				CancelCount:  day.cancels,
				Revenue:      day.revenue,
			}
			if err := c.db.Create(&row).Error; err != nil {
				return upserted, fmt.Errorf("failed to create daily record: %w", err)
			}
		case err != nil:
			return upserted, fmt.Errorf("failed to look up daily record: %w", err)
		default:
			updates := map[string]any{
				"orders_count":  day.orders,
				"returns_count": day.returns,
				"cancel_count":  day.cancels,
				"revenue":       day.revenue,
			}
			if err := c.db.Model(&existing).Updates(updates).Error; err != nil {
				return upserted, fmt.Errorf("failed to update daily record: %w", err)
			}
		}
		upserted++
	}

	c.logger.Info("Upserted daily sales records",
		zap.Int("count", upserted),
		zap.Int("orders", len(orders)),
		zap.Int("sales", len(sales)),
		zap.Uint("account_id", accountID),
	)
	return upserted, nil
}

// productMap returns nmID to product ID for one account.
func (c *Collector) productMap(accountID uint) (map[int64]uint, error) {
	var products []models.Product
	err := c.db.
		Select("id", "nm_id").
		Where("account_id = ?", accountID).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	m := make(map[int64]uint, len(products))
	for _, p := range products {
		m[p.NmID] = p.ID
	}
	return m, nil
}

// parseDateMSK parses a WB date string and truncates it to a Moscow date.
// The statistics API sends "2006-01-02T15:04:05" in MSK without a zone;
// some feeds send RFC 3339 with an explicit offset.
func parseDateMSK(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t, err = time.ParseInLocation("2006-01-02T15:04:05", value, mskZone)
		if err != nil {
			return time.Time{}, false
		}
	}
	t = t.In(mskZone)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, mskZone), true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
