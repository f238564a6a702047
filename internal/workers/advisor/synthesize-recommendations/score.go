package synthesizerecommendations

import (
	"math"
	"sort"

	"margadarshak/internal/models"
)

const (
	weightROI     = 0.4
	weightDemand  = 0.3
	weightWeather = 0.3

	// A product is only stocked when at least this many units fit the remaining budget.
	minUnitsToStock = 10

	highSuccessDailyProfit = 400
)

type candidate struct {
	result      models.ProfitabilityResult
	demandScore int
	weatherMult float64
	score       float64
}

// compositeScore weighs ROI, demand and the weather multiplier.
func compositeScore(roiPct float64, demandScore int, weatherMult float64) float64 {
	return weightROI*roiPct + weightDemand*float64(demandScore)*10 + weightWeather*(weatherMult-1)*100
}

// rankCandidates keeps the results that clear minROI and orders them by
// composite score, highest first, ties broken by product name.
func rankCandidates(input *Input, minROI float64) []candidate {
	var out []candidate
	for _, r := range input.Profitability {
		if r.RoiPct < minROI || r.UnitsAffordable <= 0 || r.CostPerUnit <= 0 {
			continue
		}
		ds, _ := input.DemandSummary.TopScore(r.Product)
		wm := input.WeatherSignal.BoostFor(r.Product)
		out = append(out, candidate{
			result:      r,
			demandScore: ds,
			weatherMult: wm,
			score:       compositeScore(r.RoiPct, ds, wm),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score > out[j].score
		}
		return out[i].result.Product < out[j].result.Product
	})
	return out
}

// allocate buys stock greedily for the top maxPicks ranked candidates. A
// candidate the remaining budget cannot cover is dropped, not replaced by a
// lower-ranked one. The total investment never exceeds budget.
func allocate(ranked []candidate, budget float64, maxPicks int) []models.Recommendation {
	if len(ranked) > maxPicks {
		ranked = ranked[:maxPicks]
	}
	recs := make([]models.Recommendation, 0, len(ranked))
	remaining := budget

	for _, c := range ranked {
		cost := c.result.CostPerUnit
		if remaining < cost*minUnitsToStock {
			continue
		}
		units := min(int(math.Floor(remaining/cost)), c.result.UnitsAffordable)
		for units > 0 && float64(units)*cost > remaining {
			units--
		}
		if units <= 0 {
			continue
		}

		investment := float64(units) * cost
		remaining -= investment
		recs = append(recs, models.Recommendation{
			Product:             c.result.Product,
			Rank:                len(recs) + 1,
			UnitsToBuy:          units,
			CostPerUnit:         cost,
			InvestmentAmount:    models.RoundTo(investment, 2),
			ExpectedROI:         c.result.RoiPct,
			DailyProfitEstimate: models.RoundTo(c.result.DailyProfit*c.weatherMult, 2),
			SellingPrice:        c.result.SellingPrice,
			RiskLevel:           c.result.RiskLevel,
			WeatherBoost:        c.weatherMult,
			Score:               models.RoundTo(c.score, 2),
		})
	}
	return recs
}

func buildStrategy(recs []models.Recommendation) models.Strategy {
	invested, daily := 0.0, 0.0
	for _, r := range recs {
		invested += r.InvestmentAmount
		daily += r.DailyProfitEstimate
	}

	s := models.Strategy{
		TotalInvestment:     models.RoundTo(invested, 2),
		ExpectedDailyProfit: models.RoundTo(daily, 2),
		SuccessProbability:  "Medium",
	}
	if invested > 0 {
		s.MonthlyROI = models.RoundTo(daily*30/invested*100, 1)
	}
	if daily > highSuccessDailyProfit {
		s.SuccessProbability = "High"
	}
	return s
}
