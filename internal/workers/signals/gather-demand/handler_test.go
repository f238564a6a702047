package gatherdemand

import (
	"context"
	"testing"
	"time"

	"margadarshak/internal/common/logger"
	"margadarshak/internal/models"
	"margadarshak/internal/tables"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var may = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func historyCatalog() *tables.Catalog {
	start := time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC)
	var sales []tables.SalesRecord
	for i := 0; i < 40; i++ {
		units := 20
		if i >= 10 {
			units = 40
		}
		sales = append(sales, tables.SalesRecord{
			Location:  tables.Charminar,
			Product:   tables.Tea,
			Date:      start.AddDate(0, 0, i),
			UnitsSold: units,
		})
		sales = append(sales, tables.SalesRecord{
			Location:  tables.Charminar,
			Product:   tables.Samosa,
			Date:      start.AddDate(0, 0, i),
			UnitsSold: 60 - units,
		})
	}
	return tables.NewCatalog("test", tables.Tables{
		Sales: sales,
		Seasonal: []tables.SeasonalEntry{
			{Product: tables.Tea, Month: 1, Index: 1.3},
		},
	})
}

func TestComputeSignal_Fallback(t *testing.T) {
	p := NewPredictor(tables.Defaults())

	tests := []struct {
		product   string
		predicted int
		score     int
		tier      string
		seasonal  float64
	}{
		{tables.ColdDrinks, 67, 7, "Medium Priority", 1.5},
		{tables.Tea, 54, 5, "Low Priority", 0.9},
		{tables.Samosa, 35, 5, "Low Priority", 1.0},
		{tables.IceCream, 37, 7, "Medium Priority", 1.5},
		{tables.FreshFruits, 60, 8, "High Priority", 1.5},
		{"Paani Puri", 30, 5, "Low Priority", 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.product, func(t *testing.T) {
			sig, err := p.ComputeSignal(tables.BegumBazaar, tt.product, may)
			require.NoError(t, err)
			assert.Equal(t, tt.predicted, sig.PredictedSales)
			assert.Equal(t, tt.score, sig.DemandScore)
			assert.Equal(t, tt.tier, sig.Recommendation)
			assert.Equal(t, tt.seasonal, sig.SeasonalFactor)
			assert.Equal(t, "Low", sig.Confidence)
			assert.Equal(t, fallbackNote, sig.Note)
			assert.Equal(t, models.TrendStable, sig.Trend)
			assert.Zero(t, sig.DataPoints)
		})
	}
}

func TestComputeSignal_History(t *testing.T) {
	p := NewPredictor(historyCatalog())
	jan := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	tea, err := p.ComputeSignal(tables.Charminar, tables.Tea, jan)
	require.NoError(t, err)
	assert.Equal(t, 35.0, tea.HistoricalAverage)
	assert.Equal(t, 40.0, tea.RecentAverage)
	assert.Equal(t, models.TrendRising, tea.Trend)
	assert.Equal(t, 1.3, tea.SeasonalFactor)
	assert.Equal(t, 45, tea.PredictedSales)
	assert.Equal(t, 6, tea.DemandScore)
	assert.Equal(t, "High", tea.Confidence)
	assert.Empty(t, tea.Note)
	assert.Equal(t, 40, tea.DataPoints)

	samosa, err := p.ComputeSignal("charminar", tables.Samosa, jan)
	require.NoError(t, err)
	assert.Equal(t, models.TrendDeclining, samosa.Trend)
	assert.Equal(t, 5, samosa.DemandScore)
}

func TestComputeSignal_ScoreBounds(t *testing.T) {
	p := NewPredictor(tables.Defaults())
	for _, product := range append(standardProducts, tables.HotSnacks, tables.Umbrellas) {
		for m := time.January; m <= time.December; m++ {
			sig, err := p.ComputeSignal(tables.HitechCity, product, time.Date(2024, m, 1, 0, 0, 0, 0, time.UTC))
			require.NoError(t, err)
			assert.GreaterOrEqual(t, sig.DemandScore, 1)
			assert.LessOrEqual(t, sig.DemandScore, 10)
			assert.GreaterOrEqual(t, sig.PredictedSales, 0)
		}
	}
}

func TestComputeSignal_EmptyProduct(t *testing.T) {
	_, err := NewPredictor(tables.Defaults()).ComputeSignal(tables.BegumBazaar, "", may)
	assert.ErrorIs(t, err, ErrInvalidProduct)
}

func TestSeasonalFactor(t *testing.T) {
	p := NewPredictor(historyCatalog())
	assert.Equal(t, 1.3, p.SeasonalFactor(tables.Tea, time.January), "table wins")
	assert.Equal(t, 1.4, p.SeasonalFactor(tables.Tea, time.December))
	assert.Equal(t, 0.9, p.SeasonalFactor(tables.HotSnacks, time.June))
	assert.Equal(t, 1.5, p.SeasonalFactor(tables.IceCream, time.August))
	assert.Equal(t, 0.8, p.SeasonalFactor(tables.IceCream, time.September))
	assert.Equal(t, 1.0, p.SeasonalFactor(tables.Samosa, time.May))
}

func TestExecute_Summary(t *testing.T) {
	h := NewHandler(LoadConfig(), tables.Defaults(), logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{Location: tables.BegumBazaar, Date: "2024-05-10"})
	require.NoError(t, err)
	require.NotNil(t, out.DemandSummary)
	assert.Nil(t, out.DemandSignal)

	s := out.DemandSummary
	assert.Equal(t, 5, s.Month)
	assert.Len(t, s.Signals, len(standardProducts))
	require.Len(t, s.TopProducts, 3)
	assert.Equal(t, tables.FreshFruits, s.TopProducts[0].Product)
	assert.Equal(t, tables.ColdDrinks, s.TopProducts[1].Product)
	assert.Equal(t, tables.IceCream, s.TopProducts[2].Product)

	score, ok := s.TopScore(tables.ColdDrinks)
	assert.True(t, ok)
	assert.Equal(t, 7, score)
	_, ok = s.TopScore(tables.Tea)
	assert.False(t, ok)
}

func TestExecute_SingleProduct(t *testing.T) {
	h := NewHandler(LoadConfig(), historyCatalog(), logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{Location: tables.Charminar, Product: tables.Tea, Date: "2024-01-15"})
	require.NoError(t, err)
	require.NotNil(t, out.DemandSignal)
	assert.Equal(t, 6, out.DemandSignal.DemandScore)
}

func TestExecute_MissingLocation(t *testing.T) {
	h := NewHandler(LoadConfig(), tables.Defaults(), logger.NewTestLogger(t))
	_, err := h.Execute(context.Background(), &Input{})
	assert.ErrorIs(t, err, ErrInvalidLocation)
}
