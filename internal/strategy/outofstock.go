package strategy

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/sergeigeyn/WB-Repricer/internal/margin"
	"github.com/sergeigeyn/WB-Repricer/internal/models"
)

// OutOfStockConfig tunes the out-of-stock protection strategy. Zero values
// never reach the handler: the stored JSON is decoded over the defaults.
type OutOfStockConfig struct {
	ThresholdDays       float64 `json:"threshold_days"`
	CriticalDays        float64 `json:"critical_days"`
	PriceIncreasePct    float64 `json:"price_increase_pct"`
	CriticalIncreasePct float64 `json:"critical_increase_pct"`
	MaxPriceIncreasePct float64 `json:"max_price_increase_pct"`
	MinMarginPct        float64 `json:"min_margin_pct"`
	ExcludeZeroStock    bool    `json:"exclude_zero_stock"`
}

// DefaultOutOfStockConfig returns the documented defaults.
func DefaultOutOfStockConfig() OutOfStockConfig {
	return OutOfStockConfig{
		ThresholdDays:       7,
		CriticalDays:        3,
		PriceIncreasePct:    15,
		CriticalIncreasePct: 30,
		MaxPriceIncreasePct: 50,
		MinMarginPct:        5,
		ExcludeZeroStock:    true,
	}
}

// OutOfStockHandler raises prices preemptively when a product is projected
// to sell out soon, trading sales volume for margin before stock runs dry.
type OutOfStockHandler struct{}

// Type implements Handler.
func (h *OutOfStockHandler) Type() string { return models.TypeOutOfStock }

// Execute implements Handler.
//
// Per product: project days of stock remaining from the trailing 7-day net
// order velocity, classify against the warning/critical cutoffs and emit a
// bounded price increase. Products with no price, no sales signal, or
// excluded stock states are skipped, never failed.
func (h *OutOfStockHandler) Execute(strategy *models.Strategy, config json.RawMessage, productIDs []uint, pctx Context) ([]Recommendation, error) {
	cfg := DefaultOutOfStockConfig()
	if len(config) > 0 {
		if err := json.Unmarshal(config, &cfg); err != nil {
			return nil, fmt.Errorf("decode out_of_stock config: %w", err)
		}
	}

	products, err := pctx.Products(productIDs)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	if len(products) == 0 {
		return nil, nil
	}

	snapshots, err := pctx.LatestPrices(productIDs)
	if err != nil {
		return nil, fmt.Errorf("load latest prices: %w", err)
	}
	netOrders, err := pctx.NetOrders7d(productIDs)
	if err != nil {
		return nil, fmt.Errorf("load 7d orders: %w", err)
	}

	accountIDs := make([]uint, 0, len(products))
	seen := make(map[uint]struct{}, len(products))
	for _, p := range products {
		if _, ok := seen[p.AccountID]; !ok {
			seen[p.AccountID] = struct{}{}
			accountIDs = append(accountIDs, p.AccountID)
		}
	}
	fees, err := pctx.AccountFees(accountIDs)
	if err != nil {
		return nil, fmt.Errorf("load account fees: %w", err)
	}

	var recommendations []Recommendation

	for i := range products {
		product := &products[i]
		stock := product.TotalStock

		if cfg.ExcludeZeroStock && stock == 0 {
			continue
		}

		snap, ok := snapshots[product.ID]
		if !ok || snap.FinalPrice == nil || *snap.FinalPrice <= 0 {
			continue
		}
		currentPrice := *snap.FinalPrice

		orders7d := netOrders[product.ID]
		velocity := 0.0
		if orders7d > 0 {
			velocity = float64(orders7d) / 7.0
		}
		if velocity == 0 {
			continue // no sales pressure, stock runway is undefined and safe
		}

		daysRemaining := float64(stock) / velocity
		if daysRemaining >= cfg.ThresholdDays {
			continue // safe
		}

		alertLevel := AlertCritical
		increasePct := cfg.CriticalIncreasePct
		if daysRemaining >= cfg.CriticalDays {
			alertLevel = AlertWarning
			increasePct = cfg.PriceIncreasePct
		}
		increasePct = math.Min(increasePct, cfg.MaxPriceIncreasePct)

		recommendedPrice := round2(currentPrice * (1 + increasePct/100))

		accountFees := fees[product.AccountID]
		currentMarginPct := marginPctAt(product, currentPrice, accountFees)
		newMarginPct, newMarginAmount := marginAt(product, recommendedPrice, accountFees)

		reasonParts := []string{
			fmt.Sprintf("Stock %d units, velocity %.1f/day, %.1f days of cover left",
				stock, velocity, daysRemaining),
		}
		if alertLevel == AlertCritical {
			reasonParts = append(reasonParts,
				fmt.Sprintf("CRITICAL: less than %g days of stock left", cfg.CriticalDays))
		} else {
			reasonParts = append(reasonParts,
				fmt.Sprintf("Warning: less than %g days of stock left", cfg.ThresholdDays))
		}
		reasonParts = append(reasonParts, fmt.Sprintf("Recommendation: +%g%% to price", increasePct))
		if currentMarginPct != nil && *currentMarginPct < cfg.MinMarginPct {
			reasonParts = append(reasonParts,
				fmt.Sprintf("Caution: current margin (%g%%) is below the %g%% floor",
					*currentMarginPct, cfg.MinMarginPct))
		}

		recommendations = append(recommendations, Recommendation{
			ProductID:        product.ID,
			CurrentPrice:     currentPrice,
			RecommendedPrice: recommendedPrice,
			PriceChangePct:   round1(increasePct),
			CurrentMarginPct: currentMarginPct,
			NewMarginPct:     newMarginPct,
			NewMarginAmount:  newMarginAmount,
			AlertLevel:       alertLevel,
			Reason:           strings.Join(reasonParts, ". "),
			Extra: map[string]any{
				"total_stock":    stock,
				"orders_7d":      orders7d,
				"velocity_7d":    round2(velocity),
				"days_remaining": round1(daysRemaining),
			},
		})
	}

	return recommendations, nil
}

func marginPctAt(p *models.Product, price float64, fees margin.AccountFees) *float64 {
	pct, _, ok := margin.ForProduct(p, price, fees)
	if !ok {
		return nil
	}
	return &pct
}

func marginAt(p *models.Product, price float64, fees margin.AccountFees) (*float64, *float64) {
	pct, amount, ok := margin.ForProduct(p, price, fees)
	if !ok {
		return nil, nil
	}
	return &pct, &amount
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
