package formatadvice

import "margadarshak/internal/models"

// Kind selects the reply template.
type Kind string

const (
	KindAdvice       Kind = "advice"
	KindNoViable     Kind = "no_viable"
	KindInvalidInput Kind = "invalid_input"
	KindApology      Kind = "apology"
)

type Input struct {
	Kind          Kind                  `json:"kind"`
	RequestId     string                `json:"requestId"`
	ParsedQuery   models.ParsedQuery    `json:"parsedQuery"`
	WeatherSignal *models.WeatherSignal `json:"weatherSignal,omitempty"`
	DemandSummary *models.DemandSummary `json:"demandSummary,omitempty"`
	Synthesis     *models.Synthesis     `json:"synthesis,omitempty"`
	// Problem is the corrective sentence shown for invalid input.
	Problem string `json:"problem,omitempty"`
}

type Output struct {
	Message  string          `json:"message"`
	Response ResponsePayload `json:"response"`
}

type ResponsePayload struct {
	RequestId string                 `json:"requestId"`
	Status    string                 `json:"status"` // "success" or "error"
	Data      map[string]interface{} `json:"data"`
	Metadata  ResponseMetadata       `json:"metadata"`
}

type ResponseMetadata struct {
	Timestamp string `json:"timestamp"` // ISO 8601
	Version   string `json:"version"`
}
