// Package tables holds the read-only lookup tables behind the signal gatherers:
// historical sales, the seasonal demand index, locality demographics and
// per-product unit economics.
package tables

import (
	"context"
	"sort"
	"strings"
	"time"

	apperrors "margadarshak/internal/common/errors"
	"margadarshak/internal/common/logger"
	"margadarshak/internal/common/metrics"
)

type SalesRecord struct {
	Location  string    `json:"location"`
	Product   string    `json:"product"`
	Date      time.Time `json:"date"`
	UnitsSold int       `json:"units_sold"`
}

type SeasonalEntry struct {
	Product string  `json:"product"`
	Month   int     `json:"month"`
	Index   float64 `json:"seasonal_index"`
}

type Demographic struct {
	Location     string  `json:"location"`
	Population   int     `json:"population"`
	MedianIncome float64 `json:"median_income"`
}

type ProductEconomics struct {
	Product         string           `json:"product"`
	Cost            float64          `json:"cost"`
	Price           float64          `json:"price"`
	Competition     CompetitionLevel `json:"competition"`
	DemandStability string           `json:"demand_stability"`
	DailyBaseSales  int              `json:"daily_base_sales"`
}

// Tables is the raw content a Source returns. Empty slices mean "not provided".
type Tables struct {
	Sales        []SalesRecord
	Seasonal     []SeasonalEntry
	Demographics []Demographic
	Products     []ProductEconomics
}

// Source loads Tables from a backing store.
type Source interface {
	Name() string
	Load(ctx context.Context) (*Tables, error)
}

type salesKey struct {
	location string
	product  string
}

type seasonKey struct {
	product string
	month   int
}

// Catalog is the immutable, process-wide view of the lookup tables. It is
// safe for concurrent reads.
type Catalog struct {
	source       string
	sales        map[salesKey][]SalesRecord
	seasonal     map[seasonKey]float64
	demographics map[string]Demographic
	products     map[string]ProductEconomics
	productOrder []string
}

func norm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NewCatalog indexes t. Demographics and products fall back to the defaults
// when t does not provide them.
func NewCatalog(source string, t Tables) *Catalog {
	c := &Catalog{
		source:       source,
		sales:        make(map[salesKey][]SalesRecord),
		seasonal:     make(map[seasonKey]float64),
		demographics: make(map[string]Demographic),
		products:     make(map[string]ProductEconomics),
	}

	for _, r := range t.Sales {
		k := salesKey{location: norm(r.Location), product: norm(r.Product)}
		c.sales[k] = append(c.sales[k], r)
	}
	for k := range c.sales {
		rows := c.sales[k]
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
	}

	for _, s := range t.Seasonal {
		c.seasonal[seasonKey{product: norm(s.Product), month: s.Month}] = s.Index
	}

	demographics := t.Demographics
	if len(demographics) == 0 {
		demographics = DefaultDemographics()
	}
	for _, d := range demographics {
		c.demographics[norm(d.Location)] = d
	}

	products := t.Products
	if len(products) == 0 {
		products = DefaultProducts()
	}
	for _, p := range products {
		key := norm(p.Product)
		if _, seen := c.products[key]; !seen {
			c.productOrder = append(c.productOrder, p.Product)
		}
		c.products[key] = p
	}

	return c
}

// Defaults returns a catalog built only from the hardcoded tables.
func Defaults() *Catalog {
	return NewCatalog("defaults", Tables{})
}

// Build loads src and falls back to the default tables when the source is
// missing or unreadable.
func Build(ctx context.Context, src Source, log logger.Logger) *Catalog {
	if src == nil {
		log.Info("no table source configured, using defaults", nil)
		return Defaults()
	}

	t, err := src.Load(ctx)
	if err != nil {
		metrics.AdvisorFallbacks.WithLabelValues("tables", "load_failed").Inc()
		stdErr := apperrors.NewTableLoadFailedError(src.Name(), err)
		log.Warn("table source unavailable, using defaults", map[string]interface{}{
			"errorCode": stdErr.Code,
			"details":   stdErr.Details,
		})
		return Defaults()
	}

	c := NewCatalog(src.Name(), *t)
	log.Info("lookup tables loaded", c.Stats())
	return c
}

func (c *Catalog) Source() string { return c.source }

// Sales returns the rows for (location, product) ordered by date.
func (c *Catalog) Sales(location, product string) []SalesRecord {
	rows := c.sales[salesKey{location: norm(location), product: norm(product)}]
	out := make([]SalesRecord, len(rows))
	copy(out, rows)
	return out
}

func (c *Catalog) SeasonalIndex(product string, month int) (float64, bool) {
	v, ok := c.seasonal[seasonKey{product: norm(product), month: month}]
	return v, ok
}

func (c *Catalog) Demographics(location string) (Demographic, bool) {
	d, ok := c.demographics[norm(location)]
	return d, ok
}

func (c *Catalog) Product(name string) (ProductEconomics, bool) {
	p, ok := c.products[norm(name)]
	return p, ok
}

// Products lists product names in table order.
func (c *Catalog) Products() []string {
	out := make([]string, len(c.productOrder))
	copy(out, c.productOrder)
	return out
}

func (c *Catalog) Stats() map[string]interface{} {
	rows := 0
	for _, r := range c.sales {
		rows += len(r)
	}
	return map[string]interface{}{
		"source":       c.source,
		"salesRows":    rows,
		"seasonalRows": len(c.seasonal),
		"locations":    len(c.demographics),
		"products":     len(c.products),
	}
}
