package gatherdemand

import "margadarshak/internal/models"

// Input selects a location and date. Product narrows the answer to one
// signal; otherwise the standard product list is summarised.
type Input struct {
	Location string `json:"location"`
	Date     string `json:"date,omitempty"`
	Product  string `json:"product,omitempty"`
}

type Output struct {
	DemandSummary *models.DemandSummary `json:"demandSummary,omitempty"`
	DemandSignal  *models.DemandSignal  `json:"demandSignal,omitempty"`
}
