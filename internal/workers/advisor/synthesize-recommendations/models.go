package synthesizerecommendations

import "margadarshak/internal/models"

type Input struct {
	ParsedQuery   models.ParsedQuery           `json:"parsedQuery"`
	DemandSummary models.DemandSummary         `json:"demandSummary"`
	WeatherSignal models.WeatherSignal         `json:"weatherSignal"`
	Profitability []models.ProfitabilityResult `json:"profitability"`
	// Budget overrides ParsedQuery.Budget when positive.
	Budget float64 `json:"budget,omitempty"`
}

type Output struct {
	Synthesis models.Synthesis `json:"synthesis"`
}
