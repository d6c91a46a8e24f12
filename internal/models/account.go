package models

import "gorm.io/gorm"

// Account represents a single WB seller cabinet.
// TaxRate and TariffRate are account-wide fee percentages shared by every
// product of the account; both are inputs to the margin calculator.
type Account struct {
	gorm.Model
	Name       string `gorm:"size:255;not null"`
	APIKey     string `gorm:"type:text"`
	TaxRate    *float64
	TariffRate *float64
	IsActive   bool `gorm:"default:true"`
}
