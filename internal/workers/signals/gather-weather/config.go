package gatherweather

import "time"

type Config struct {
	BaseURL  string
	APIKey   string
	City     string
	Timeout  time.Duration
	CacheTTL time.Duration
	// CacheSize bounds the in-process cache used when Redis is not configured.
	CacheSize int
	Seed      int64

	// Model settings for the optional weather advice call.
	Model         string
	Temperature   float64
	MaxTokens     int
	AdviceTimeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		BaseURL:   "https://api.openweathermap.org/data/2.5",
		City:      "Hyderabad",
		Timeout:   30 * time.Second,
		CacheTTL:  10 * time.Minute,
		CacheSize: 64,
		Seed:      42,

		Model:         "gpt-4",
		Temperature:   0.2,
		MaxTokens:     800,
		AdviceTimeout: 30 * time.Second,
	}
}
