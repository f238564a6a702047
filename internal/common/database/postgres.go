package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"margadarshak/internal/common/config"

	_ "github.com/lib/pq"
)

// Postgres is the pool behind the postgres table source.
type Postgres struct {
	DB *sql.DB
}

// OpenPostgres opens the pool and verifies the server answers before returning.
func OpenPostgres(ctx context.Context, cfg config.PostgresConfig) (*Postgres, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)

	p := &Postgres{DB: db}
	if err := p.Ping(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return p, nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	if err := p.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres ping: %w", err)
	}
	return nil
}

func (p *Postgres) Close() error {
	return p.DB.Close()
}
