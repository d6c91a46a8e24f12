// Package margin computes the net profit of a product at a given price.
//
// The calculation folds every fee WB takes from the seller (commission,
// logistics, storage, advertising, tax, tariff) plus user-defined fixed
// costs into a single margin figure. The ordering and rounding below are
// load-bearing: alerting thresholds downstream are tuned against them.
package margin

import (
	"math"

	"github.com/sergeigeyn/WB-Repricer/internal/models"
)

// Inputs are the cost attributes of one product at one candidate price.
// All percentage fields are percentages of Price, except TaxRate which is
// applied to the buyer-visible price after the SPP discount.
type Inputs struct {
	Price           float64
	CostPrice       float64
	CommissionPct   float64
	LogisticsCost   float64
	StorageCost     float64
	AdPct           float64
	SppPct          float64
	ExtraCostsFixed float64
	TaxRate         float64
	TariffRate      float64
}

// AccountFees are the account-wide fee rates shared by every product of a
// seller cabinet.
type AccountFees struct {
	TaxRate    float64
	TariffRate float64
}

// Compute returns the margin as a percent of price (1 decimal) and as an
// absolute amount (2 decimals). ok is false when the margin is undefined:
// price absent or non-positive, or cost price absent.
func Compute(in Inputs) (pct, amount float64, ok bool) {
	// A negative cost price is garbage data, treated as undefined rather
	// than producing a margin above 100%.
	if in.Price <= 0 || in.CostPrice <= 0 {
		return 0, 0, false
	}

	// Tax is charged on the buyer's actual price, after the SPP discount.
	buyerPrice := in.Price
	if in.SppPct != 0 {
		buyerPrice = in.Price * (1 - in.SppPct/100)
	}
	taxAmount := buyerPrice * in.TaxRate / 100
	commissionAmount := in.Price * in.CommissionPct / 100
	tariffAmount := in.Price * in.TariffRate / 100
	adAmount := in.Price * in.AdPct / 100

	totalCosts := in.CostPrice +
		taxAmount +
		commissionAmount +
		tariffAmount +
		in.LogisticsCost +
		in.StorageCost +
		adAmount +
		in.ExtraCostsFixed

	amount = round2(in.Price - totalCosts)
	pct = round1(amount / in.Price * 100)
	return pct, amount, true
}

// ForProduct computes the margin of a product at the given price using its
// stored cost profile and the account fee rates. Nil cost fields count as
// zero; a nil cost price makes the margin undefined.
func ForProduct(p *models.Product, price float64, fees AccountFees) (pct, amount float64, ok bool) {
	in := Inputs{
		Price:           price,
		CostPrice:       deref(p.CostPrice),
		CommissionPct:   deref(p.CommissionPct),
		LogisticsCost:   deref(p.LogisticsCost),
		StorageCost:     deref(p.StorageCost),
		AdPct:           deref(p.AdPct),
		SppPct:          deref(p.SppPct),
		ExtraCostsFixed: p.FixedExtraCosts(),
		TaxRate:         fees.TaxRate,
		TariffRate:      fees.TariffRate,
	}
	return Compute(in)
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
