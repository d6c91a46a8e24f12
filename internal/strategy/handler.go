package strategy

import (
	"encoding/json"

	"github.com/sergeigeyn/WB-Repricer/internal/margin"
	"github.com/sergeigeyn/WB-Repricer/internal/models"
)

// Alert levels attached to recommendations, ordered by urgency.
const (
	AlertSafe     = "safe"
	AlertWarning  = "warning"
	AlertCritical = "critical"
)

// Recommendation is the in-memory result of a handler for one product.
// The runner persists it as a PriceHistory row tagged with the execution.
type Recommendation struct {
	ProductID        uint
	CurrentPrice     float64
	RecommendedPrice float64
	PriceChangePct   float64
	CurrentMarginPct *float64
	NewMarginPct     *float64
	NewMarginAmount  *float64
	AlertLevel       string
	Reason           string
	Extra            map[string]any
}

// Context supplies handlers with the per-product facts a strategy needs.
// Implementations are read-only from the handler's point of view: handlers
// must not mutate shared records, all persistence happens in the runner.
type Context interface {
	// Products returns the products among ids that exist.
	Products(ids []uint) ([]models.Product, error)

	// LatestPrices returns the most recent price snapshot per product.
	// Products without any snapshot are absent from the map.
	LatestPrices(ids []uint) (map[uint]models.PriceSnapshot, error)

	// NetOrders7d returns net orders (orders minus returns, floored at
	// zero) over the trailing 7-day window per product.
	NetOrders7d(ids []uint) (map[uint]int, error)

	// AccountFees returns the account-level fee rates per account id.
	AccountFees(accountIDs []uint) (map[uint]margin.AccountFees, error)
}

// Handler computes price recommendations for one strategy variant.
//
// Implementations must skip products with data gaps (missing price, missing
// cost, excluded stock states) instead of returning an error: an error from
// Execute marks the whole execution as failed.
type Handler interface {
	// Type returns the strategy type identifier this handler serves.
	Type() string

	// Execute runs the strategy over the assigned products. config is the
	// strategy's stored JSON config; handlers decode it over their typed
	// defaults.
	Execute(strategy *models.Strategy, config json.RawMessage, productIDs []uint, pctx Context) ([]Recommendation, error)
}
