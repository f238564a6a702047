package calculateprofitability

import "time"

type Config struct {
	Timeout time.Duration

	// Model settings for the optional investment advice call.
	Model         string
	Temperature   float64
	MaxTokens     int
	AdviceTimeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,

		Model:         "gpt-4",
		Temperature:   0.1,
		MaxTokens:     1200,
		AdviceTimeout: 30 * time.Second,
	}
}
