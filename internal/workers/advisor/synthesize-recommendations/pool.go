package synthesizerecommendations

import (
	"margadarshak/internal/models"
	"margadarshak/internal/tables"
)

const maxCandidates = 5

// DefaultCandidates is used when neither demand nor weather names a product.
func DefaultCandidates() []string {
	return []string{tables.ColdDrinks, tables.Tea, tables.Samosa, tables.IceCream, tables.FreshFruits}
}

// CandidatePool lists the top demand products followed by the weather's
// high-demand products, without duplicates and capped at five.
func CandidatePool(demand models.DemandSummary, weather models.WeatherSignal) []string {
	seen := make(map[string]bool)
	var pool []string
	add := func(p string) {
		if p == "" || seen[p] || len(pool) >= maxCandidates {
			return
		}
		seen[p] = true
		pool = append(pool, p)
	}
	for _, s := range demand.TopProducts {
		add(s.Product)
	}
	for _, p := range weather.HighDemand {
		add(p)
	}
	if len(pool) == 0 {
		return DefaultCandidates()
	}
	return pool
}

// AnalysisBudget splits budget across the products that can be recommended.
func AnalysisBudget(budget float64, poolSize, maxProducts int) float64 {
	n := min(poolSize, maxProducts)
	if n <= 0 {
		return budget
	}
	return budget / float64(n)
}
