package parsevendorquery

import "margadarshak/internal/models"

type Input struct {
	Message string `json:"message"`
}

type Output struct {
	ParsedQuery models.ParsedQuery `json:"parsedQuery"`
}
