package gatherdemand

import "time"

type Config struct {
	Timeout     time.Duration
	TopProducts int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:     10 * time.Second,
		TopProducts: 3,
	}
}
