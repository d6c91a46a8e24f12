package models

import (
	"time"

	"gorm.io/gorm"
)

// SalesDaily aggregates one product's orders and returns for one MSK date.
// Net orders for a window are orders minus returns, floored at zero.
type SalesDaily struct {
	gorm.Model
	ProductID    uint      `gorm:"index:idx_sales_daily_product_date"`
	Date         time.Time `gorm:"index:idx_sales_daily_product_date"`
	OrdersCount  int       `gorm:"default:0"`
	SalesCount   int       `gorm:"default:0"`
	ReturnsCount int       `gorm:"default:0"`
	CancelCount  int       `gorm:"default:0"`
	Revenue      float64   `gorm:"default:0"`
}
