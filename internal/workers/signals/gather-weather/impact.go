package gatherweather

import (
	"fmt"
	"math"
	"strings"

	"margadarshak/internal/models"
	"margadarshak/internal/tables"
)

const (
	CondHot   = "hot"
	CondCold  = "cold"
	CondHumid = "humid"
	CondRainy = "rainy"
)

type conditionRule struct {
	condition  string
	boost      []string
	reduce     []string
	multiplier float64
}

var conditionRules = map[string]conditionRule{
	CondHot: {
		condition:  CondHot,
		boost:      []string{tables.ColdDrinks, tables.IceCream, tables.FreshFruits},
		reduce:     []string{tables.Tea, tables.HotSnacks},
		multiplier: 1.6,
	},
	CondCold: {
		condition:  CondCold,
		boost:      []string{tables.Tea, tables.HotSnacks, tables.Samosa},
		reduce:     []string{tables.ColdDrinks, tables.IceCream},
		multiplier: 1.4,
	},
	CondRainy: {
		condition:  CondRainy,
		boost:      []string{tables.Umbrellas, tables.Raincoats, tables.Tea, tables.HotSnacks},
		reduce:     []string{tables.IceCream, tables.FreshFruits},
		multiplier: 1.8,
	},
	CondHumid: {
		condition:  CondHumid,
		boost:      []string{tables.ColdDrinks, tables.FreshFruits},
		reduce:     []string{tables.HotSnacks},
		multiplier: 1.3,
	},
}

// Products whose weather impact is evaluated, in report order.
var evaluatedProducts = []string{
	tables.ColdDrinks, tables.Tea, tables.Samosa, tables.IceCream,
	tables.FreshFruits, tables.HotSnacks, tables.Umbrellas, tables.Raincoats,
}

const (
	maxHighDemand = 3
	maxLowDemand  = 2
)

// Classify lists the active conditions for a reading in a fixed order.
func Classify(r models.WeatherReading) []string {
	var conds []string
	switch {
	case r.Temperature > 35:
		conds = append(conds, CondHot)
	case r.Temperature < 20:
		conds = append(conds, CondCold)
	}
	if r.Humidity > 70 {
		conds = append(conds, CondHumid)
	}
	if strings.Contains(strings.ToLower(r.Main), "rain") || strings.Contains(strings.ToLower(r.Description), "rain") {
		conds = append(conds, CondRainy)
	}
	return conds
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func impactLevel(m float64) string {
	switch {
	case m > 1.4:
		return "High"
	case m > 1.1:
		return "Medium"
	}
	return "Low"
}

// Analyze turns a reading into per-product multipliers and the aggregate signal.
func Analyze(r models.WeatherReading) models.WeatherSignal {
	conds := Classify(r)
	sig := models.WeatherSignal{
		Reading:    r,
		Conditions: conds,
		Impacts:    make(map[string]models.ProductImpact, len(evaluatedProducts)),
	}
	if sig.Conditions == nil {
		sig.Conditions = []string{}
	}

	boost := 0.0
	above := 0
	for _, product := range evaluatedProducts {
		m := 1.0
		var reasons []string
		for _, c := range conds {
			rule := conditionRules[c]
			pct := int(math.Round((rule.multiplier - 1) * 100))
			if contains(rule.boost, product) {
				m *= rule.multiplier
				reasons = append(reasons, fmt.Sprintf("+%d%% due to %s", pct, c))
			} else if contains(rule.reduce, product) {
				m *= 2 - rule.multiplier
				reasons = append(reasons, fmt.Sprintf("-%d%% due to %s", pct, c))
			}
		}
		m = models.RoundTo(m, 2)

		sig.Impacts[product] = models.ProductImpact{
			Multiplier: m,
			Level:      impactLevel(m),
			Reasons:    reasons,
		}
		if m > 1.3 && len(sig.HighDemand) < maxHighDemand {
			sig.HighDemand = append(sig.HighDemand, product)
		}
		if m < 0.8 && len(sig.LowDemand) < maxLowDemand {
			sig.LowDemand = append(sig.LowDemand, product)
		}
		if m > 1.2 {
			above++
		}
		boost = math.Max(boost, m)
	}

	if boost == 0 {
		boost = 1.0
	}
	sig.WeatherBoost = boost
	sig.OptimalForBusiness = above > 3
	if sig.HighDemand == nil {
		sig.HighDemand = []string{}
	}
	if sig.LowDemand == nil {
		sig.LowDemand = []string{}
	}
	return sig
}
