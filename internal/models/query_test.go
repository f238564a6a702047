package models

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClampBudget(t *testing.T) {
	tests := []struct {
		name   string
		budget float64
		want   float64
	}{
		{"below minimum", 50, DefaultBudget},
		{"at minimum", 100, 100},
		{"typical", 5000, 5000},
		{"at maximum", 1_000_000, 1_000_000},
		{"above maximum", 1_000_001, DefaultBudget},
		{"negative", -300, DefaultBudget},
		{"nan", math.NaN(), DefaultBudget},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClampBudget(tt.budget, DefaultBudget)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, ClampBudget(got, DefaultBudget), "clamp must be idempotent")
		})
	}
}

func TestClampRequestBudget(t *testing.T) {
	assert.Equal(t, 5000.0, ClampRequestBudget(5000))
	assert.Equal(t, MaxRequestBudget, ClampRequestBudget(250000))
	assert.Equal(t, MaxRequestBudget, ClampRequestBudget(ClampRequestBudget(250000)))
}

func TestIntentValid(t *testing.T) {
	for _, i := range []Intent{IntentSell, IntentProfit, IntentWeather, IntentHelp, IntentBuy, IntentGeneral} {
		assert.True(t, i.Valid(), string(i))
	}
	assert.False(t, Intent("gamble").Valid())
}

func TestParsedQuery_TargetDate(t *testing.T) {
	now := time.Date(2026, 7, 14, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, now, ParsedQuery{}.TargetDate(now))
	assert.Equal(t, now, ParsedQuery{Date: "not-a-date"}.TargetDate(now))
	assert.Equal(t,
		time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC),
		ParsedQuery{Date: "2026-07-15"}.TargetDate(now))
}

func TestRoundTo(t *testing.T) {
	assert.Equal(t, 12.35, RoundTo(12.346, 2))
	assert.Equal(t, 37.5, RoundTo(37.46, 1))
	assert.Equal(t, -2.5, RoundTo(-2.46, 1))
}
