package parsevendorquery

import (
	"time"

	"margadarshak/internal/models"
	"margadarshak/internal/tables"
)

type Config struct {
	Model           string
	Temperature     float64
	MaxTokens       int
	Timeout         time.Duration
	DefaultLocation string
	DefaultBudget   float64
}

func LoadConfig() *Config {
	return &Config{
		Model:           "gpt-4",
		Temperature:     0.1,
		MaxTokens:       300,
		Timeout:         30 * time.Second,
		DefaultLocation: tables.BegumBazaar,
		DefaultBudget:   models.DefaultBudget,
	}
}
