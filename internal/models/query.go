// internal/models/query.go
package models

import (
	"math"
	"time"
)

// Intent is the vendor's goal as read from the message.
type Intent string

const (
	IntentSell    Intent = "sell"
	IntentProfit  Intent = "profit"
	IntentWeather Intent = "weather"
	IntentHelp    Intent = "help"
	IntentBuy     Intent = "buy"
	IntentGeneral Intent = "general"
)

// Valid reports whether i is one of the fixed intents.
func (i Intent) Valid() bool {
	switch i {
	case IntentSell, IntentProfit, IntentWeather, IntentHelp, IntentBuy, IntentGeneral:
		return true
	}
	return false
}

// ParseMethod records which interpreter path produced a ParsedQuery.
type ParseMethod string

const (
	ParseMethodRemote     ParseMethod = "remote"
	ParseMethodRemoteText ParseMethod = "remote_text"
	ParseMethodRules      ParseMethod = "rules"
	ParseMethodPreParsed  ParseMethod = "pre_parsed"
)

// Budget bounds in rupees.
const (
	MinBudget        = 100.0
	MaxParsedBudget  = 1_000_000.0
	MaxRequestBudget = 100_000.0
	DefaultBudget    = 1000.0
)

const DateLayout = "2006-01-02"

// ClampBudget returns b when it lies in [MinBudget, MaxParsedBudget] and
// fallback otherwise. Applying it twice gives the same result as once.
func ClampBudget(b, fallback float64) float64 {
	if math.IsNaN(b) || b < MinBudget || b > MaxParsedBudget {
		return fallback
	}
	return b
}

// ClampRequestBudget caps a caller-supplied budget at MaxRequestBudget.
// Budgets under MinBudget are rejected upstream as invalid input.
func ClampRequestBudget(b float64) float64 {
	if b > MaxRequestBudget {
		return MaxRequestBudget
	}
	return b
}

type IntentAnalysis struct {
	HasProfitFocus   bool   `json:"hasProfitFocus"`
	WeatherSensitive bool   `json:"weatherSensitive"`
	UrgencyLevel     string `json:"urgencyLevel"`    // high | normal
	QueryComplexity  string `json:"queryComplexity"` // simple | medium | high
}

// ParsedQuery is the structured form of one vendor message.
type ParsedQuery struct {
	Location        string         `json:"location"`
	Budget          float64        `json:"budget"`
	Date            string         `json:"date,omitempty"`
	Intent          Intent         `json:"intent"`
	Confidence      float64        `json:"confidence"`
	Method          ParseMethod    `json:"method"`
	Analysis        IntentAnalysis `json:"analysis"`
	OriginalMessage string         `json:"originalMessage"`
}

// TargetDate resolves the query date, treating an empty or malformed date as now.
func (q ParsedQuery) TargetDate(now time.Time) time.Time {
	if q.Date == "" {
		return now
	}
	d, err := time.ParseInLocation(DateLayout, q.Date, now.Location())
	if err != nil {
		return now
	}
	return d
}

// RoundTo rounds x half away from zero to the given number of decimals.
func RoundTo(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}
