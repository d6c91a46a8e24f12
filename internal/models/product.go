package models

import (
	"encoding/json"

	"gorm.io/gorm"
)

// Product is a WB product card together with its cost profile.
// The cost fields are nullable: a missing fee means "not charged", a missing
// cost price means the margin is undefined for this product.
type Product struct {
	gorm.Model
	AccountID  uint   `gorm:"index"`
	NmID       int64  `gorm:"uniqueIndex"` // WB article number
	VendorCode string `gorm:"size:100"`
	Barcode    string `gorm:"size:100"`
	Brand      string `gorm:"size:255;index"`
	Category   string `gorm:"size:255;index"`
	Title      string `gorm:"size:500"`
	ImageURL   string `gorm:"size:500"`

	CostPrice     *float64
	CommissionPct *float64
	LogisticsCost *float64
	StorageCost   *float64
	AdPct         *float64
	SppPct        *float64

	// ExtraCostsJSON is a JSON array of ExtraCostItem set by the cost editor.
	ExtraCostsJSON string `gorm:"type:text"`

	TotalStock int  `gorm:"default:0"`
	IsActive   bool `gorm:"default:true"`
}

// ExtraCostItem is a user-defined cost line attached to a product.
// Only items with Type "fixed" participate in the margin calculation.
type ExtraCostItem struct {
	Name  string  `json:"name"`
	Type  string  `json:"type"`
	Value float64 `json:"value"`
}

// FixedExtraCosts sums the fixed extra-cost items of the product.
// Malformed JSON is treated as "no extra costs" rather than an error.
func (p *Product) FixedExtraCosts() float64 {
	if p.ExtraCostsJSON == "" {
		return 0
	}
	var items []ExtraCostItem
	if err := json.Unmarshal([]byte(p.ExtraCostsJSON), &items); err != nil {
		return 0
	}
	total := 0.0
	for _, item := range items {
		if item.Type == "fixed" {
			total += item.Value
		}
	}
	return total
}
