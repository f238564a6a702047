package synthesizerecommendations

import "time"

type Config struct {
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	// MinROI is the lowest roiPct a candidate may have to be recommended.
	MinROI      float64
	MaxProducts int
}

func LoadConfig() *Config {
	return &Config{
		Model:       "gpt-4",
		Temperature: 0.4,
		MaxTokens:   1500,
		Timeout:     30 * time.Second,
		MinROI:      15,
		MaxProducts: 3,
	}
}
