package calculateprofitability

import (
	"fmt"
	"math"

	"margadarshak/internal/models"
	"margadarshak/internal/tables"
)

// Daily sales multiplier per locality. Unlisted localities use 1.0.
var locationMultipliers = map[string]float64{
	tables.HitechCity:   1.2,
	tables.Secunderabad: 1.1,
	tables.Kukatpally:   1.0,
	tables.BegumBazaar:  1.3,
	tables.Charminar:    0.9,
}

const (
	TierExcellent = "Excellent Investment - High ROI with low risk"
	TierHigh      = "Highly Recommended - Strong profitability"
	TierGood      = "Good Investment - Solid returns"
	TierModerate  = "Moderate Investment - Consider carefully"
	TierAvoid     = "Not Recommended - Poor profitability"
)

// Calculator computes unit economics from the catalog. It holds no mutable state.
type Calculator struct {
	catalog *tables.Catalog
}

func NewCalculator(catalog *tables.Catalog) *Calculator {
	return &Calculator{catalog: catalog}
}

// Analyze returns the unit economics of stocking product at location with budget.
// expectedSales replaces the daily sales estimate when positive.
func (c *Calculator) Analyze(product, location string, budget float64, expectedSales int) (models.ProfitabilityResult, error) {
	if budget <= 0 || math.IsNaN(budget) {
		return models.ProfitabilityResult{}, fmt.Errorf("%w: %v", ErrInvalidBudget, budget)
	}
	p, ok := c.catalog.Product(product)
	if !ok {
		return models.ProfitabilityResult{}, fmt.Errorf("%w: %s", ErrUnknownProduct, product)
	}
	demo, ok := c.catalog.Demographics(location)
	if !ok {
		return models.ProfitabilityResult{}, fmt.Errorf("%w: %s", ErrUnknownLocation, location)
	}

	units := int(math.Floor(budget / p.Cost))
	price := adjustPrice(p.Price, demo.MedianIncome, p.Competition)
	market := marketFactor(demo.Population, demo.MedianIncome, p.Product)

	profitPerUnit := price - p.Cost
	totalCost := float64(units) * p.Cost
	revenue := float64(units) * price
	gross := float64(units) * profitPerUnit

	daily := expectedSales
	if daily <= 0 {
		daily = estimateDailySales(p, demo.Location, units)
	}
	daysToSell := 0.0
	if daily > 0 {
		daysToSell = float64(units) / float64(daily)
	}
	margin := 0.0
	if price > 0 {
		margin = profitPerUnit / price * 100
	}

	roi := 100 * float64(units) * profitPerUnit / budget
	risk := riskScore(p.Competition, market, daysToSell)

	return models.ProfitabilityResult{
		Product:         p.Product,
		Location:        demo.Location,
		Budget:          budget,
		CostPerUnit:     models.RoundTo(p.Cost, 2),
		BasePrice:       p.Price,
		SellingPrice:    price,
		UnitsAffordable: units,
		TotalCost:       models.RoundTo(totalCost, 2),
		Revenue:         models.RoundTo(revenue, 2),
		GrossProfit:     models.RoundTo(gross, 2),
		ProfitPerUnit:   models.RoundTo(profitPerUnit, 2),
		MarginPct:       models.RoundTo(margin, 1),
		RoiPct:          models.RoundTo(roi, 1),
		DailySales:      daily,
		DailyProfit:     models.RoundTo(float64(daily)*profitPerUnit, 2),
		DaysToSell:      models.RoundTo(daysToSell, 1),
		MarketFactor:    models.RoundTo(market, 2),
		RiskScore:       models.RoundTo(risk, 1),
		RiskLevel:       riskLevel(risk),
		Recommendation:  recommend(roi, market, risk),
	}, nil
}

func adjustPrice(base, income float64, competition tables.CompetitionLevel) float64 {
	incomeMult := 1.0
	switch {
	case income > 25000:
		incomeMult = 1.1
	case income < 12000:
		incomeMult = 0.95
	}
	compMult := 1.0
	switch competition {
	case tables.CompetitionHigh:
		compMult = 0.95
	case tables.CompetitionLow:
		compMult = 1.05
	}
	return models.RoundTo(base*incomeMult*compMult, 2)
}

func marketFactor(population int, income float64, product string) float64 {
	incomeFactor := income / 15000
	popFactor := float64(population) / 100000

	adjustment := 1.0
	switch product {
	case tables.IceCream:
		adjustment = incomeFactor * 1.2
	case tables.Tea, tables.Samosa, tables.HotSnacks:
		adjustment = (popFactor*1.3 + incomeFactor*0.7) / 2
	}

	f := ((incomeFactor+popFactor)/2 + adjustment) / 2
	return math.Min(1.6, math.Max(0.7, f))
}

func estimateDailySales(p tables.ProductEconomics, location string, units int) int {
	mult, ok := locationMultipliers[location]
	if !ok {
		mult = 1.0
	}
	base := p.DailyBaseSales
	if base <= 0 {
		base = 30
	}
	estimated := int(float64(base) * mult)
	ceiling := max(1, int(float64(units)*0.2))
	return min(estimated, ceiling)
}

func riskScore(competition tables.CompetitionLevel, market, daysToSell float64) float64 {
	r := 5.0
	switch {
	case market < 0.9:
		r += 2
	case market > 1.3:
		r -= 1.5
	}
	switch {
	case daysToSell > 30:
		r += 3
	case daysToSell > 14:
		r += 1.5
	case daysToSell < 7:
		r -= 1
	}
	switch competition {
	case tables.CompetitionHigh:
		r += 1
	case tables.CompetitionLow:
		r -= 0.5
	}
	return math.Min(10, math.Max(0, r))
}

func riskLevel(score float64) models.RiskLevel {
	switch {
	case score <= 3:
		return models.RiskLow
	case score <= 6:
		return models.RiskMedium
	}
	return models.RiskHigh
}

func recommend(roi, market, risk float64) string {
	switch {
	case roi > 40 && risk < 4 && market > 1.2:
		return TierExcellent
	case roi > 30 && risk < 6:
		return TierHigh
	case roi > 20:
		return TierGood
	case roi > 10:
		return TierModerate
	}
	return TierAvoid
}
