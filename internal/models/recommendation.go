// internal/models/recommendation.go
package models

// Recommendation is one ranked product suggestion. Rank 1 is the best score.
type Recommendation struct {
	Product             string    `json:"product"`
	Rank                int       `json:"rank"`
	UnitsToBuy          int       `json:"unitsToBuy"`
	CostPerUnit         float64   `json:"costPerUnit"`
	InvestmentAmount    float64   `json:"investmentAmount"`
	ExpectedROI         float64   `json:"expectedRoi"`
	DailyProfitEstimate float64   `json:"dailyProfitEstimate"`
	SellingPrice        float64   `json:"sellingPrice"`
	RiskLevel           RiskLevel `json:"riskLevel"`
	WeatherBoost        float64   `json:"weatherBoost"`
	Score               float64   `json:"score"`
	Rationale           string    `json:"rationale,omitempty"`
}

type Strategy struct {
	TotalInvestment     float64 `json:"totalInvestment"`
	ExpectedDailyProfit float64 `json:"expectedDailyProfit"`
	MonthlyROI          float64 `json:"monthlyRoi"`
	SuccessProbability  string  `json:"successProbability"`
}

type Implementation struct {
	Timeline       []string `json:"timeline,omitempty"`
	SellingTips    []string `json:"sellingTips,omitempty"`
	RiskMitigation []string `json:"riskMitigation,omitempty"`
}

// Synthesis is the synthesizer's full answer for one request. Viable is false
// when no candidate cleared the ROI threshold.
type Synthesis struct {
	Recommendations    []Recommendation `json:"recommendations"`
	Strategy           Strategy         `json:"strategy"`
	Implementation     Implementation   `json:"implementation"`
	Narrative          string           `json:"narrative,omitempty"`
	AIPowered          bool             `json:"aiPowered"`
	Viable             bool             `json:"viable"`
	CandidatesAnalyzed int              `json:"candidatesAnalyzed"`
	ProfitableCount    int              `json:"profitableCount"`
}

// TotalInvestment sums the investment across all recommendations.
func (s Synthesis) TotalInvestment() float64 {
	total := 0.0
	for _, r := range s.Recommendations {
		total += r.InvestmentAmount
	}
	return total
}
