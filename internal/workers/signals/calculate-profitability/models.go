package calculateprofitability

import "margadarshak/internal/models"

type Input struct {
	Product  string  `json:"product"`
	Location string  `json:"location"`
	Budget   float64 `json:"budget"`
	// ExpectedSales overrides the daily sales estimate when positive.
	ExpectedSales int `json:"expectedSales,omitempty"`
	// Message is the vendor's own words. Investment advice is only requested when it is set.
	Message string `json:"message,omitempty"`
}

type Output struct {
	Profitability models.ProfitabilityResult `json:"profitability"`
}
