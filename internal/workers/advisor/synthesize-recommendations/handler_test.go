package synthesizerecommendations

import (
	"context"
	"testing"
	"time"

	"margadarshak/internal/common/genai"
	"margadarshak/internal/models"
	"margadarshak/internal/tables"
	calculateprofitability "margadarshak/internal/workers/signals/calculate-profitability"
	gatherdemand "margadarshak/internal/workers/signals/gather-demand"
	gatherweather "margadarshak/internal/workers/signals/gather-weather"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type TestLogger struct {
	t      *testing.T
	fields map[string]interface{}
}

func NewTestLogger(t *testing.T) *TestLogger {
	return &TestLogger{t: t, fields: make(map[string]interface{})}
}

func (l *TestLogger) Info(msg string, fields map[string]interface{}) {
	l.t.Logf("INFO: %s %v", msg, l.mergeFields(fields))
}

func (l *TestLogger) Warn(msg string, fields map[string]interface{}) {
	l.t.Logf("WARN: %s %v", msg, l.mergeFields(fields))
}

func (l *TestLogger) Error(msg string, fields map[string]interface{}) {
	l.t.Logf("ERROR: %s %v", msg, l.mergeFields(fields))
}

func (l *TestLogger) With(fields map[string]interface{}) Logger {
	return &TestLogger{t: l.t, fields: l.mergeFields(fields)}
}

func (l *TestLogger) mergeFields(fields map[string]interface{}) map[string]interface{} {
	all := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		all[k] = v
	}
	for k, v := range fields {
		all[k] = v
	}
	return all
}

type chatFunc func(ctx context.Context, req genai.ChatRequest) (string, error)

func (f chatFunc) Chat(ctx context.Context, req genai.ChatRequest) (string, error) {
	return f(ctx, req)
}

// hotDayInput gathers real signals for Begum Bazaar on a hot May afternoon.
func hotDayInput(t *testing.T, budget float64, message string) *Input {
	t.Helper()
	catalog := tables.Defaults()
	date := time.Date(2024, 5, 10, 14, 0, 0, 0, time.UTC)

	demand := gatherdemand.NewPredictor(catalog).Summary(tables.BegumBazaar, date, 3)
	weather := gatherweather.Analyze(models.WeatherReading{
		City: "Hyderabad", Temperature: 38, Humidity: 40, Main: "clear", Description: "clear sky",
	})

	pool := CandidatePool(demand, weather)
	per := AnalysisBudget(budget, len(pool), 3)
	calc := calculateprofitability.NewCalculator(catalog)

	var results []models.ProfitabilityResult
	for _, p := range pool {
		r, err := calc.Analyze(p, tables.BegumBazaar, per, 0)
		require.NoError(t, err)
		results = append(results, r)
	}

	return &Input{
		ParsedQuery: models.ParsedQuery{
			Location:        tables.BegumBazaar,
			Budget:          budget,
			Date:            "2024-05-10",
			OriginalMessage: message,
		},
		DemandSummary: demand,
		WeatherSignal: weather,
		Profitability: results,
	}
}

func products(recs []models.Recommendation) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Product)
	}
	return out
}

func assertRankedWithinBudget(t *testing.T, syn models.Synthesis, budget float64) {
	t.Helper()
	assert.LessOrEqual(t, syn.TotalInvestment(), budget)
	assert.LessOrEqual(t, len(syn.Recommendations), 3)
	for i, r := range syn.Recommendations {
		assert.Equal(t, i+1, r.Rank)
		if i > 0 {
			assert.GreaterOrEqual(t, syn.Recommendations[i-1].Score, r.Score)
		}
		assert.InDelta(t, float64(r.UnitsToBuy)*r.CostPerUnit, r.InvestmentAmount, 1e-9)
	}
}

func TestCandidatePool(t *testing.T) {
	demand := models.DemandSummary{TopProducts: []models.DemandSignal{
		{Product: tables.FreshFruits}, {Product: tables.ColdDrinks}, {Product: tables.IceCream},
	}}
	weather := models.WeatherSignal{HighDemand: []string{tables.Tea, tables.ColdDrinks, tables.Umbrellas, tables.HotSnacks}}

	assert.Equal(t,
		[]string{tables.FreshFruits, tables.ColdDrinks, tables.IceCream, tables.Tea, tables.Umbrellas},
		CandidatePool(demand, weather))
	assert.Equal(t, DefaultCandidates(), CandidatePool(models.DemandSummary{}, models.WeatherSignal{}))
}

func TestAnalysisBudget(t *testing.T) {
	assert.Equal(t, 500.0, AnalysisBudget(1500, 5, 3))
	assert.Equal(t, 750.0, AnalysisBudget(1500, 2, 3))
	assert.Equal(t, 1500.0, AnalysisBudget(1500, 0, 3))
}

func TestExecute_Traditional(t *testing.T) {
	h := NewHandler(LoadConfig(), nil, NewTestLogger(t))
	input := hotDayInput(t, 1000, "")

	out, err := h.Execute(context.Background(), input)
	require.NoError(t, err)

	syn := out.Synthesis
	assert.True(t, syn.Viable)
	assert.False(t, syn.AIPowered)
	assert.Equal(t, []string{tables.IceCream, tables.FreshFruits, tables.ColdDrinks}, products(syn.Recommendations))
	assertRankedWithinBudget(t, syn, 1000)

	ic := syn.Recommendations[0]
	assert.Equal(t, 16, ic.UnitsToBuy)
	assert.Equal(t, 320.0, ic.InvestmentAmount)
	assert.Equal(t, 1.6, ic.WeatherBoost)
	assert.Equal(t, 3, syn.CandidatesAnalyzed)
	assert.Equal(t, 3, syn.ProfitableCount)

	assert.Equal(t, 975.0, syn.Strategy.TotalInvestment)
	daily := 0.0
	for _, r := range syn.Recommendations {
		daily += r.DailyProfitEstimate
	}
	assert.InDelta(t, daily, syn.Strategy.ExpectedDailyProfit, 0.01)
	assert.Equal(t, models.RoundTo(syn.Strategy.ExpectedDailyProfit*30/975*100, 1), syn.Strategy.MonthlyROI)
}

func TestExecute_BudgetTooSmallIsNotViable(t *testing.T) {
	h := NewHandler(LoadConfig(), nil, NewTestLogger(t))
	input := hotDayInput(t, 120, "")

	out, err := h.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.False(t, out.Synthesis.Viable)
	assert.Empty(t, out.Synthesis.Recommendations)
	assert.NotNil(t, out.Synthesis.Recommendations)
}

func TestExecute_NoCandidateClearsROI(t *testing.T) {
	h := NewHandler(LoadConfig(), nil, NewTestLogger(t))
	input := &Input{
		ParsedQuery: models.ParsedQuery{Budget: 1000},
		Profitability: []models.ProfitabilityResult{
			{Product: tables.Tea, RoiPct: 14.9, CostPerUnit: 5, UnitsAffordable: 200},
			{Product: tables.Samosa, RoiPct: 3, CostPerUnit: 8, UnitsAffordable: 125},
		},
	}

	out, err := h.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.False(t, out.Synthesis.Viable)
	assert.Empty(t, out.Synthesis.Recommendations)
	assert.Equal(t, 2, out.Synthesis.CandidatesAnalyzed)
	assert.Zero(t, out.Synthesis.ProfitableCount)
}

func TestExecute_InvalidBudget(t *testing.T) {
	h := NewHandler(LoadConfig(), nil, NewTestLogger(t))
	_, err := h.Execute(context.Background(), &Input{})
	assert.ErrorIs(t, err, ErrInvalidBudget)
}

func TestRankCandidates_TieBreaksByName(t *testing.T) {
	input := &Input{Profitability: []models.ProfitabilityResult{
		{Product: tables.Tea, RoiPct: 50, CostPerUnit: 5, UnitsAffordable: 100},
		{Product: tables.Samosa, RoiPct: 50, CostPerUnit: 8, UnitsAffordable: 100},
		{Product: tables.ColdDrinks, RoiPct: 40, CostPerUnit: 15, UnitsAffordable: 100},
	}}

	ranked := rankCandidates(input, 15)
	require.Len(t, ranked, 3)
	assert.Equal(t, tables.Samosa, ranked[0].result.Product)
	assert.Equal(t, tables.Tea, ranked[1].result.Product)
	assert.Equal(t, tables.ColdDrinks, ranked[2].result.Product)
}

func TestAllocate_NeverExceedsBudget(t *testing.T) {
	ranked := []candidate{
		{result: models.ProfitabilityResult{Product: tables.Umbrellas, CostPerUnit: 150, UnitsAffordable: 6}, weatherMult: 1, score: 90},
		{result: models.ProfitabilityResult{Product: tables.IceCream, CostPerUnit: 20, UnitsAffordable: 30}, weatherMult: 1, score: 80},
		{result: models.ProfitabilityResult{Product: tables.Tea, CostPerUnit: 5, UnitsAffordable: 40}, weatherMult: 1, score: 70},
		{result: models.ProfitabilityResult{Product: tables.Samosa, CostPerUnit: 8, UnitsAffordable: 90}, weatherMult: 1, score: 60},
		{result: models.ProfitabilityResult{Product: tables.ColdDrinks, CostPerUnit: 15.5, UnitsAffordable: 70}, weatherMult: 1, score: 50},
	}

	for _, budget := range []float64{49, 100, 333.33, 1000, 1499, 2600, 10000, 100000} {
		recs := allocate(ranked, budget, 3)
		syn := models.Synthesis{Recommendations: recs}
		assertRankedWithinBudget(t, syn, budget)

		byName := make(map[string]candidate)
		for _, c := range ranked {
			byName[c.result.Product] = c
		}
		for _, r := range recs {
			assert.LessOrEqual(t, r.UnitsToBuy, byName[r.Product].result.UnitsAffordable)
			assert.Positive(t, r.UnitsToBuy)
		}
	}

	recs := allocate(ranked, 1000, 3)
	assert.Equal(t, []string{tables.IceCream, tables.Tea}, products(recs),
		"umbrellas need ten units of headroom and samosa is outside the top three")
	assert.Equal(t, 800.0, recs[0].InvestmentAmount+recs[1].InvestmentAmount)
}

func TestAllocate_OnlyTopRankedConsidered(t *testing.T) {
	ranked := []candidate{
		{result: models.ProfitabilityResult{Product: tables.Umbrellas, CostPerUnit: 150, UnitsAffordable: 20}, weatherMult: 1, score: 90},
		{result: models.ProfitabilityResult{Product: tables.Raincoats, CostPerUnit: 200, UnitsAffordable: 20}, weatherMult: 1, score: 85},
		{result: models.ProfitabilityResult{Product: tables.Tea, CostPerUnit: 5, UnitsAffordable: 40}, weatherMult: 1, score: 70},
		{result: models.ProfitabilityResult{Product: tables.Samosa, CostPerUnit: 8, UnitsAffordable: 90}, weatherMult: 1, score: 60},
	}

	recs := allocate(ranked, 1000, 3)
	assert.Equal(t, []string{tables.Tea}, products(recs))
	assert.Empty(t, allocate(ranked, 1000, 0))
}

func TestBuildStrategy(t *testing.T) {
	s := buildStrategy([]models.Recommendation{
		{InvestmentAmount: 600, DailyProfitEstimate: 250},
		{InvestmentAmount: 400, DailyProfitEstimate: 200.5},
	})
	assert.Equal(t, 1000.0, s.TotalInvestment)
	assert.Equal(t, 450.5, s.ExpectedDailyProfit)
	assert.Equal(t, 1351.5, s.MonthlyROI)
	assert.Equal(t, "High", s.SuccessProbability)

	empty := buildStrategy(nil)
	assert.Zero(t, empty.MonthlyROI)
	assert.Equal(t, "Medium", empty.SuccessProbability)
}

const advisorReply = `Bhai, stock fresh fruits today because the heat keeps customers thirsty.
Cold drinks will move fastest near the bus stop in the afternoon.
- Tip: keep the cold drinks on ice and sell near the bus stop
- Timeline: buy stock in the morning, sell from 11 to 7
- Risk: fruits spoil fast, buy only what you can sell in one go
Instead of hot items, focus on chilled ones.`

func TestExecute_RemoteSynthesis(t *testing.T) {
	var got genai.ChatRequest
	llm := chatFunc(func(ctx context.Context, req genai.ChatRequest) (string, error) {
		got = req
		return advisorReply, nil
	})

	h := NewHandler(LoadConfig(), llm, NewTestLogger(t))
	out, err := h.Execute(context.Background(), hotDayInput(t, 1000, "garmi hai, kya bechu?"))
	require.NoError(t, err)

	syn := out.Synthesis
	assert.True(t, syn.AIPowered)
	assert.True(t, syn.Viable)
	assert.Equal(t, []string{tables.FreshFruits, tables.ColdDrinks}, products(syn.Recommendations))
	assertRankedWithinBudget(t, syn, 1000)

	assert.Equal(t, "Bhai, stock fresh fruits today because the heat keeps customers thirsty", syn.Recommendations[0].Rationale)
	assert.Contains(t, syn.Recommendations[1].Rationale, "Cold drinks")
	assert.Contains(t, syn.Implementation.Timeline, "Timeline: buy stock in the morning, sell from 11 to 7")
	assert.Contains(t, syn.Implementation.RiskMitigation, "Risk: fruits spoil fast, buy only what you can sell in one go")
	assert.NotEmpty(t, syn.Implementation.SellingTips)
	assert.LessOrEqual(t, len(syn.Implementation.SellingTips), 3)
	assert.Equal(t, advisorReply, syn.Narrative)

	assert.Equal(t, "gpt-4", got.Model)
	assert.Equal(t, 0.4, got.Temperature)
	assert.Equal(t, 1500, got.MaxTokens)
	require.Len(t, got.Messages, 2)
	assert.Contains(t, got.Messages[1].Content, "Ice Cream: ROI")
	assert.Contains(t, got.Messages[1].Content, "garmi hai, kya bechu?")
}

func TestExecute_RemoteFallsBackToTraditional(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		err   error
	}{
		{"timeout", "", genai.ErrTimeout},
		{"request failed", "", genai.ErrRequestFailed},
		{"no candidate named", "Sell whatever your neighbours are selling.", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := chatFunc(func(ctx context.Context, req genai.ChatRequest) (string, error) {
				return tt.reply, tt.err
			})
			out, err := NewHandler(LoadConfig(), llm, NewTestLogger(t)).
				Execute(context.Background(), hotDayInput(t, 1000, "kya bechu?"))
			require.NoError(t, err)
			assert.False(t, out.Synthesis.AIPowered)
			assert.Equal(t, []string{tables.IceCream, tables.FreshFruits, tables.ColdDrinks}, products(out.Synthesis.Recommendations))
		})
	}
}

func TestExecute_RemoteSkippedWithoutMessage(t *testing.T) {
	calls := 0
	llm := chatFunc(func(ctx context.Context, req genai.ChatRequest) (string, error) {
		calls++
		return advisorReply, nil
	})
	out, err := NewHandler(LoadConfig(), llm, NewTestLogger(t)).Execute(context.Background(), hotDayInput(t, 1000, ""))
	require.NoError(t, err)
	assert.Zero(t, calls)
	assert.False(t, out.Synthesis.AIPowered)
}

func TestMentions(t *testing.T) {
	assert.True(t, mentions("Garam chai aur Tea bechiye", tables.Tea))
	assert.False(t, mentions("do this instead", tables.Tea))
	assert.True(t, mentions("samosas sell well", tables.Samosa))
	assert.True(t, mentions("COLD DRINKS", tables.ColdDrinks))
	assert.False(t, mentions("drinks that are cold", tables.ColdDrinks))
}

// withAdvice attaches gatherer advice to a hot-day input.
func withAdvice(in *Input) *Input {
	in.WeatherSignal.Insights = &models.WeatherInsights{
		SellingStrategy:  "Sell chilled items from 11 AM when the heat peaks",
		CustomerInsights: "Customers buy small packs and stay in the shade",
		LocationAdvice:   "Set up near the bus stop where people wait",
	}
	for i := range in.Profitability {
		if in.Profitability[i].Product == tables.IceCream {
			in.Profitability[i].Advice = &models.ProfitAdvice{
				InvestmentAdvice: "Invest in ice cream first, the margin is the best today",
				OptimizationTips: []string{
					"Increase sales with a two-cone offer after lunch",
					"Improve margins by buying from the depot directly",
				},
				RiskManagement: "Keep an ice box so the risk of melting stays low",
			}
		}
	}
	return in
}

func TestExecute_GathererAdviceReachesImplementation(t *testing.T) {
	h := NewHandler(LoadConfig(), nil, NewTestLogger(t))
	out, err := h.Execute(context.Background(), withAdvice(hotDayInput(t, 1000, "garmi hai")))
	require.NoError(t, err)

	syn := out.Synthesis
	assert.False(t, syn.AIPowered)
	require.Equal(t, []string{tables.IceCream, tables.FreshFruits, tables.ColdDrinks}, products(syn.Recommendations))
	assert.Equal(t, "Invest in ice cream first, the margin is the best today", syn.Recommendations[0].Rationale)
	assert.Empty(t, syn.Recommendations[1].Rationale)

	assert.Equal(t, []string{
		"Sell chilled items from 11 AM when the heat peaks",
		"Set up near the bus stop where people wait",
		"Customers buy small packs and stay in the shade",
		"Increase sales with a two-cone offer after lunch",
		"Improve margins by buying from the depot directly",
	}, syn.Implementation.SellingTips)
	assert.Equal(t, []string{"Keep an ice box so the risk of melting stays low"}, syn.Implementation.RiskMitigation)
}

func TestExecute_RemotePromptCarriesGathererAdvice(t *testing.T) {
	var prompt string
	llm := chatFunc(func(ctx context.Context, req genai.ChatRequest) (string, error) {
		prompt = req.Messages[1].Content
		return advisorReply, nil
	})

	out, err := NewHandler(LoadConfig(), llm, NewTestLogger(t)).
		Execute(context.Background(), withAdvice(hotDayInput(t, 1000, "garmi hai, kya bechu?")))
	require.NoError(t, err)

	assert.Contains(t, prompt, "- Weather advice: Sell chilled items from 11 AM when the heat peaks")
	assert.Contains(t, prompt, "  Investment advice: Invest in ice cream first, the margin is the best today")

	syn := out.Synthesis
	assert.True(t, syn.AIPowered)
	assert.LessOrEqual(t, len(syn.Implementation.SellingTips), maxAdvisedTips)
	assert.Contains(t, syn.Implementation.SellingTips, "Sell chilled items from 11 AM when the heat peaks")
	assert.Equal(t, "Bhai, stock fresh fruits today because the heat keeps customers thirsty", syn.Recommendations[0].Rationale)
}

func TestAppendUnique(t *testing.T) {
	got := appendUnique([]string{"a"}, 3, "", "a", "b", "c", "d")
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.Equal(t, []string{"x"}, appendUnique([]string{"x"}, 1, "y"))
}
