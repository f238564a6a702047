package tables

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const (
	querySales = `SELECT location, product, sale_date, units_sold
		FROM historical_sales
		ORDER BY sale_date`
	querySeasonal = `SELECT product, month, seasonal_index
		FROM seasonal_demand`
	queryDemographics = `SELECT location, population, median_income
		FROM demographics`
)

// PostgresSource reads the lookup tables from PostgreSQL.
type PostgresSource struct {
	db      *sql.DB
	timeout time.Duration
}

func NewPostgresSource(db *sql.DB, timeout time.Duration) *PostgresSource {
	return &PostgresSource{db: db, timeout: timeout}
}

func (s *PostgresSource) Name() string { return "postgres" }

func (s *PostgresSource) Load(ctx context.Context) (*Tables, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var t Tables
	var err error

	if t.Sales, err = s.loadSales(ctx); err != nil {
		return nil, fmt.Errorf("historical_sales: %w", err)
	}
	if t.Seasonal, err = s.loadSeasonal(ctx); err != nil {
		return nil, fmt.Errorf("seasonal_demand: %w", err)
	}
	if t.Demographics, err = s.loadDemographics(ctx); err != nil {
		return nil, fmt.Errorf("demographics: %w", err)
	}

	return &t, nil
}

func (s *PostgresSource) loadSales(ctx context.Context) ([]SalesRecord, error) {
	rows, err := s.db.QueryContext(ctx, querySales)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SalesRecord
	for rows.Next() {
		var r SalesRecord
		if err := rows.Scan(&r.Location, &r.Product, &r.Date, &r.UnitsSold); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresSource) loadSeasonal(ctx context.Context) ([]SeasonalEntry, error) {
	rows, err := s.db.QueryContext(ctx, querySeasonal)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SeasonalEntry
	for rows.Next() {
		var e SeasonalEntry
		if err := rows.Scan(&e.Product, &e.Month, &e.Index); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *PostgresSource) loadDemographics(ctx context.Context) ([]Demographic, error) {
	rows, err := s.db.QueryContext(ctx, queryDemographics)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Demographic
	for rows.Next() {
		var d Demographic
		if err := rows.Scan(&d.Location, &d.Population, &d.MedianIncome); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
