package gatherdemand

import (
	"math"
	"sort"
	"time"

	"margadarshak/internal/models"
	"margadarshak/internal/tables"
)

const (
	recentWindow = 30
	fallbackNote = "Prediction based on market averages"

	confidenceHigh = "High"
	confidenceLow  = "Low"
)

// Products scored by Summary, in tie-break order.
var standardProducts = []string{
	tables.ColdDrinks, tables.Tea, tables.Samosa, tables.IceCream, tables.FreshFruits, tables.Snacks,
}

// Daily units assumed when no sales history exists.
var baseRates = map[string]int{
	tables.ColdDrinks:  45,
	tables.Tea:         60,
	tables.Samosa:      35,
	tables.IceCream:    25,
	tables.FreshFruits: 40,
	tables.Snacks:      50,
}

const defaultBaseRate = 30

var (
	coldItems = map[string]bool{tables.ColdDrinks: true, tables.IceCream: true, tables.FreshFruits: true}
	hotItems  = map[string]bool{tables.Tea: true, tables.HotSnacks: true}
)

// Predictor turns the catalog's sales history into demand signals.
type Predictor struct {
	catalog *tables.Catalog
}

func NewPredictor(catalog *tables.Catalog) *Predictor {
	return &Predictor{catalog: catalog}
}

// SeasonalFactor prefers the seasonal table and falls back to a warm/cold
// season heuristic.
func (p *Predictor) SeasonalFactor(product string, month time.Month) float64 {
	if idx, ok := p.catalog.SeasonalIndex(product, int(month)); ok {
		return idx
	}
	switch {
	case coldItems[product]:
		if month >= time.April && month <= time.August {
			return 1.5
		}
		return 0.8
	case hotItems[product]:
		switch month {
		case time.November, time.December, time.January, time.February:
			return 1.4
		}
		return 0.9
	}
	return 1.0
}

// ComputeSignal predicts demand for product at location on date.
func (p *Predictor) ComputeSignal(location, product string, date time.Time) (models.DemandSignal, error) {
	if product == "" {
		return models.DemandSignal{}, ErrInvalidProduct
	}

	seasonal := p.SeasonalFactor(product, date.Month())
	sig := models.DemandSignal{
		Product:        product,
		Location:       location,
		Month:          int(date.Month()),
		SeasonalFactor: models.RoundTo(seasonal, 2),
	}

	rows := p.catalog.Sales(location, product)
	if len(rows) == 0 {
		base := baseRates[product]
		if base == 0 {
			base = defaultBaseRate
		}
		sig.HistoricalAverage = float64(base)
		sig.RecentAverage = float64(base)
		sig.PredictedSales = predict(float64(base), seasonal)
		sig.Trend = models.TrendStable
		sig.Confidence = confidenceLow
		sig.Note = fallbackNote
	} else {
		avg := mean(rows)
		recent := mean(rows[max(0, len(rows)-recentWindow):])
		sig.HistoricalAverage = models.RoundTo(avg, 2)
		sig.RecentAverage = models.RoundTo(recent, 2)
		sig.PredictedSales = predict(avg, seasonal)
		sig.Trend = trend(recent, avg)
		sig.Confidence = confidenceHigh
		sig.DataPoints = len(rows)
	}

	sig.DemandScore = score(sig.PredictedSales, sig.HistoricalAverage)
	sig.Recommendation = tier(sig.DemandScore)
	return sig, nil
}

// Summary scores the standard products and keeps the best n.
func (p *Predictor) Summary(location string, date time.Time, n int) models.DemandSummary {
	s := models.DemandSummary{
		Location: location,
		Month:    int(date.Month()),
	}
	for _, product := range standardProducts {
		sig, err := p.ComputeSignal(location, product, date)
		if err != nil {
			continue
		}
		s.Signals = append(s.Signals, sig)
	}

	ranked := make([]models.DemandSignal, len(s.Signals))
	copy(ranked, s.Signals)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].DemandScore > ranked[j].DemandScore })
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	s.TopProducts = ranked
	return s
}

func predict(avg, seasonal float64) int {
	v := int(avg * seasonal)
	if v < 0 {
		return 0
	}
	return v
}

func score(predicted int, avg float64) int {
	s := int(math.Round(5 * float64(predicted) / math.Max(avg, 1)))
	if s < 1 {
		return 1
	}
	if s > 10 {
		return 10
	}
	return s
}

func trend(recent, avg float64) models.Trend {
	switch {
	case recent > avg:
		return models.TrendRising
	case recent < avg:
		return models.TrendDeclining
	}
	return models.TrendStable
}

func tier(score int) string {
	switch {
	case score >= 8:
		return "High Priority"
	case score >= 6:
		return "Medium Priority"
	case score >= 4:
		return "Low Priority"
	}
	return "Avoid"
}

func mean(rows []tables.SalesRecord) float64 {
	if len(rows) == 0 {
		return 0
	}
	total := 0
	for _, r := range rows {
		total += r.UnitsSold
	}
	return float64(total) / float64(len(rows))
}
