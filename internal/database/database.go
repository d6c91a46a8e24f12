package database

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sergeigeyn/WB-Repricer/internal/config"
	"github.com/sergeigeyn/WB-Repricer/internal/models"
)

// NewDatabase opens the database, migrates the schema and seeds the
// configured account.
func NewDatabase(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(cfg.Database.DSN), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := AutoMigrate(db, cfg); err != nil {
		return nil, err
	}

	return db, nil
}

// AutoMigrate creates or extends the schema in place. Tables are never
// dropped: strategy executions and price history form an audit trail that
// must survive restarts.
func AutoMigrate(db *gorm.DB, cfg *config.Config) error {
	err := db.AutoMigrate(
		&models.Account{},
		&models.Product{},
		&models.PriceSnapshot{},
		&models.PriceHistory{},
		&models.SalesDaily{},
		&models.StockHistory{},
		&models.Strategy{},
		&models.ProductStrategy{},
		&models.StrategyExecution{},
	)
	if err != nil {
		return fmt.Errorf("failed to auto-migrate database: %w", err)
	}

	// Seed the account this instance collects for, if it doesn't exist yet.
	account := models.Account{Name: cfg.Repricer.AccountName}
	err = db.
		Where(models.Account{Name: cfg.Repricer.AccountName}).
		Attrs(models.Account{APIKey: cfg.WB.ApiKey, IsActive: true}).
		FirstOrCreate(&account).Error
	if err != nil {
		return fmt.Errorf("failed to seed account %q: %w", cfg.Repricer.AccountName, err)
	}

	return nil
}
