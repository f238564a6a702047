package formatadvice

import "time"

type Config struct {
	AppVersion string
	Timeout    time.Duration
	// SuggestedBudget is quoted to vendors whose budget found no viable product.
	SuggestedBudget float64
}

func LoadConfig() *Config {
	return &Config{
		AppVersion:      "1.0.0",
		Timeout:         10 * time.Second,
		SuggestedBudget: 1500,
	}
}
