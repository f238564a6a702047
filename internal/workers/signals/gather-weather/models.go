package gatherweather

import "margadarshak/internal/models"

type Input struct {
	City string `json:"city,omitempty"`
	Date string `json:"date,omitempty"`

	// Message is the vendor's own words. Weather advice is only requested when it is set.
	Message string `json:"message,omitempty"`
}

type Output struct {
	WeatherSignal models.WeatherSignal `json:"weatherSignal"`
}
