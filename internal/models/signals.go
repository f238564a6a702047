// internal/models/signals.go
package models

import "time"

type Trend string

const (
	TrendRising    Trend = "rising"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)

// DemandSignal is the predicted demand for one product at one location.
type DemandSignal struct {
	Product           string  `json:"product"`
	Location          string  `json:"location"`
	Month             int     `json:"month"`
	DemandScore       int     `json:"demandScore"`
	PredictedSales    int     `json:"predictedSales"`
	HistoricalAverage float64 `json:"historicalAverage"`
	RecentAverage     float64 `json:"recentAverage"`
	SeasonalFactor    float64 `json:"seasonalFactor"`
	Trend             Trend   `json:"trend"`
	Confidence        string  `json:"confidence"`
	Recommendation    string  `json:"recommendation"`
	DataPoints        int     `json:"dataPoints"`
	Note              string  `json:"note,omitempty"`
}

type DemandSummary struct {
	Location    string         `json:"location"`
	Month       int            `json:"month"`
	Signals     []DemandSignal `json:"signals"`
	TopProducts []DemandSignal `json:"topProducts"`
}

// TopScore returns the demand score of product if it is among the top products.
func (s DemandSummary) TopScore(product string) (int, bool) {
	for _, sig := range s.TopProducts {
		if sig.Product == product {
			return sig.DemandScore, true
		}
	}
	return 0, false
}

// Weather source tags.
const (
	WeatherSourceLive      = "OpenWeather API"
	WeatherSourceSimulated = "Simulated"
)

type WeatherReading struct {
	City        string    `json:"city"`
	Temperature float64   `json:"temperature"`
	Humidity    int       `json:"humidity"`
	Main        string    `json:"main"`
	Description string    `json:"description"`
	Source      string    `json:"source"`
	ObservedAt  time.Time `json:"observedAt"`
}

type ProductImpact struct {
	Multiplier float64  `json:"multiplier"`
	Level      string   `json:"level"` // High | Medium | Low
	Reasons    []string `json:"reasons,omitempty"`
}

// WeatherSignal is a reading plus its effect on each evaluated product.
type WeatherSignal struct {
	Reading            WeatherReading           `json:"reading"`
	Conditions         []string                 `json:"conditions"`
	Impacts            map[string]ProductImpact `json:"impacts"`
	HighDemand         []string                 `json:"highDemand"`
	LowDemand          []string                 `json:"lowDemand"`
	WeatherBoost       float64                  `json:"weatherBoost"`
	OptimalForBusiness bool                     `json:"optimalForBusiness"`
	// Insights is set only when a language model was asked about the weather.
	Insights           *WeatherInsights         `json:"insights,omitempty"`
}

// WeatherInsights is model-written selling advice for the reading.
type WeatherInsights struct {
	SellingStrategy  string `json:"sellingStrategy,omitempty"`
	CustomerInsights string `json:"customerInsights,omitempty"`
	LocationAdvice   string `json:"locationAdvice,omitempty"`
}

func (w WeatherInsights) Empty() bool {
	return w.SellingStrategy == "" && w.CustomerInsights == "" && w.LocationAdvice == ""
}

// HasCondition reports whether cond was classified for this reading.
func (w WeatherSignal) HasCondition(cond string) bool {
	for _, c := range w.Conditions {
		if c == cond {
			return true
		}
	}
	return false
}

// BoostFor is the aggregate boost for products the weather favours and 1 otherwise.
func (w WeatherSignal) BoostFor(product string) float64 {
	for _, p := range w.HighDemand {
		if p == product {
			return w.WeatherBoost
		}
	}
	return 1.0
}

type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// ProfitabilityResult is the unit economics of one product/location/budget.
type ProfitabilityResult struct {
	Product         string    `json:"product"`
	Location        string    `json:"location"`
	Budget          float64   `json:"budget"`
	CostPerUnit     float64   `json:"costPerUnit"`
	BasePrice       float64   `json:"basePrice"`
	SellingPrice    float64   `json:"sellingPrice"`
	UnitsAffordable int       `json:"unitsAffordable"`
	TotalCost       float64   `json:"totalCost"`
	Revenue         float64   `json:"revenue"`
	GrossProfit     float64   `json:"grossProfit"`
	ProfitPerUnit   float64   `json:"profitPerUnit"`
	MarginPct       float64   `json:"marginPct"`
	RoiPct          float64   `json:"roiPct"`
	DailySales      int       `json:"dailySales"`
	DailyProfit     float64   `json:"dailyProfit"`
	DaysToSell      float64   `json:"daysToSell"`
	MarketFactor    float64   `json:"marketFactor"`
	RiskScore       float64   `json:"riskScore"`
	RiskLevel       RiskLevel `json:"riskLevel"`
	Recommendation  string    `json:"recommendation"`

	Advice *ProfitAdvice `json:"advice,omitempty"`
}

// ProfitAdvice is model-written guidance on one product's economics.
type ProfitAdvice struct {
	InvestmentAdvice string   `json:"investmentAdvice,omitempty"`
	OptimizationTips []string `json:"optimizationTips,omitempty"`
	RiskManagement   string   `json:"riskManagement,omitempty"`
}

func (a ProfitAdvice) Empty() bool {
	return a.InvestmentAdvice == "" && len(a.OptimizationTips) == 0 && a.RiskManagement == ""
}
