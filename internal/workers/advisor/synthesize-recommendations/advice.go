package synthesizerecommendations

import (
	"slices"

	"margadarshak/internal/models"
)

// maxAdvisedTips bounds selling tips once gatherer advice is folded in.
const maxAdvisedTips = 5

// applyAdvice folds the weather insights and per-product investment advice
// into syn. Lines already present are kept first; a recommendation keeps its
// own rationale when it has one.
func applyAdvice(syn *models.Synthesis, weather models.WeatherSignal, priced []models.ProfitabilityResult) {
	advice := make(map[string]*models.ProfitAdvice, len(priced))
	for _, p := range priced {
		if p.Advice != nil {
			advice[p.Product] = p.Advice
		}
	}

	tips := syn.Implementation.SellingTips
	if in := weather.Insights; in != nil {
		tips = appendUnique(tips, maxAdvisedTips, in.SellingStrategy, in.LocationAdvice, in.CustomerInsights)
	}
	risks := syn.Implementation.RiskMitigation
	for i := range syn.Recommendations {
		rec := &syn.Recommendations[i]
		adv, ok := advice[rec.Product]
		if !ok {
			continue
		}
		if rec.Rationale == "" {
			rec.Rationale = adv.InvestmentAdvice
		}
		tips = appendUnique(tips, maxAdvisedTips, adv.OptimizationTips...)
		risks = appendUnique(risks, maxRiskLines, adv.RiskManagement)
	}
	syn.Implementation.SellingTips = tips
	syn.Implementation.RiskMitigation = risks
}

// appendUnique appends non-empty lines not already in dst until dst holds limit.
func appendUnique(dst []string, limit int, lines ...string) []string {
	for _, l := range lines {
		if len(dst) >= limit {
			break
		}
		if l == "" || slices.Contains(dst, l) {
			continue
		}
		dst = append(dst, l)
	}
	return dst
}
