package tables

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Sheet names in the vendor workbook.
const (
	SheetHistoricalSales = "Historical_Sales"
	SheetSeasonalDemand  = "Seasonal_Demand"
	SheetDemographics    = "Demographics"
	SheetProductCosts    = "Product_Costs"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02-01-2006",
	"01/02/2006",
	"1/2/06",
	"01-02-06",
}

// ExcelSource reads the lookup tables from a workbook. Missing sheets leave
// the matching table empty; an unreadable file is an error.
type ExcelSource struct {
	Path string
}

func NewExcelSource(path string) *ExcelSource {
	return &ExcelSource{Path: path}
}

func (s *ExcelSource) Name() string { return "excel:" + s.Path }

func (s *ExcelSource) Load(ctx context.Context) (*Tables, error) {
	f, err := excelize.OpenFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	present := make(map[string]bool)
	for _, name := range f.GetSheetList() {
		present[name] = true
	}

	var t Tables

	if present[SheetHistoricalSales] {
		rows, err := sheetRecords(f, SheetHistoricalSales)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			date, ok := parseDate(r["date"])
			units, uerr := strconv.Atoi(strings.TrimSpace(r["units_sold"]))
			if !ok || uerr != nil || r["location"] == "" || r["product"] == "" {
				continue
			}
			t.Sales = append(t.Sales, SalesRecord{
				Location:  strings.TrimSpace(r["location"]),
				Product:   strings.TrimSpace(r["product"]),
				Date:      date,
				UnitsSold: units,
			})
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if present[SheetSeasonalDemand] {
		rows, err := sheetRecords(f, SheetSeasonalDemand)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			month, ok := parseMonth(r["month"])
			index, ierr := strconv.ParseFloat(strings.TrimSpace(r["seasonal_index"]), 64)
			if !ok || ierr != nil || r["product"] == "" {
				continue
			}
			t.Seasonal = append(t.Seasonal, SeasonalEntry{
				Product: strings.TrimSpace(r["product"]),
				Month:   month,
				Index:   index,
			})
		}
	}

	if present[SheetDemographics] {
		rows, err := sheetRecords(f, SheetDemographics)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			pop, perr := strconv.Atoi(strings.TrimSpace(r["population"]))
			income, ierr := strconv.ParseFloat(strings.TrimSpace(r["median_income"]), 64)
			if perr != nil || ierr != nil || r["location"] == "" {
				continue
			}
			t.Demographics = append(t.Demographics, Demographic{
				Location:     strings.TrimSpace(r["location"]),
				Population:   pop,
				MedianIncome: income,
			})
		}
	}

	if present[SheetProductCosts] {
		rows, err := sheetRecords(f, SheetProductCosts)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			cost, cerr := strconv.ParseFloat(strings.TrimSpace(r["cost"]), 64)
			price, perr := strconv.ParseFloat(strings.TrimSpace(r["price"]), 64)
			if cerr != nil || perr != nil || cost <= 0 || r["product"] == "" {
				continue
			}
			base, _ := strconv.Atoi(strings.TrimSpace(r["daily_base_sales"]))
			t.Products = append(t.Products, ProductEconomics{
				Product:         strings.TrimSpace(r["product"]),
				Cost:            cost,
				Price:           price,
				Competition:     parseCompetition(r["competition"]),
				DemandStability: strings.TrimSpace(r["demand_stability"]),
				DailyBaseSales:  base,
			})
		}
	}

	return &t, nil
}

// sheetRecords maps each data row to its header, with headers lower-cased and
// spaces turned into underscores.
func sheetRecords(f *excelize.File, sheet string) ([]map[string]string, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.ReplaceAll(norm(h), " ", "_")
	}

	out := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(row) {
				rec[h] = row[i]
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

func parseMonth(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, n >= 1 && n <= 12
	}
	for m := time.January; m <= time.December; m++ {
		name := strings.ToLower(m.String())
		if l := norm(s); l == name || (len(l) == 3 && strings.HasPrefix(name, l)) {
			return int(m), true
		}
	}
	return 0, false
}

func parseCompetition(s string) CompetitionLevel {
	switch norm(s) {
	case "high":
		return CompetitionHigh
	case "low":
		return CompetitionLow
	}
	return CompetitionMedium
}
