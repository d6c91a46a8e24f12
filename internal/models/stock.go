package models

import (
	"time"

	"gorm.io/gorm"
)

// StockHistory is a per-warehouse stock observation. The collector also
// rolls warehouse quantities up into Product.TotalStock, which is what the
// strategy engine reads.
type StockHistory struct {
	gorm.Model
	ProductID     uint `gorm:"index:idx_stock_history_product_date"`
	WarehouseID   int64
	WarehouseName string `gorm:"size:255"`
	Quantity      int    `gorm:"default:0"`
	CollectedAt   time.Time `gorm:"index:idx_stock_history_product_date"`
}
