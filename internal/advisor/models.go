package advisor

import "margadarshak/internal/models"

// Request is one chat turn. Location, Budget and Date, when present, replace
// what the interpreter reads from Message.
type Request struct {
	Message  string   `json:"message"`
	Location string   `json:"location,omitempty"`
	Budget   *float64 `json:"budget,omitempty"`
	Date     string   `json:"date,omitempty"`
	Phone    string   `json:"phone,omitempty"`
	Email    string   `json:"email,omitempty"`
}

type Outcome string

const (
	OutcomeAdvised  Outcome = "advised"
	OutcomeNoViable Outcome = "no_viable"
	OutcomeInvalid  Outcome = "invalid"
	OutcomeFailed   Outcome = "failed"
)

type Response struct {
	RequestID       string                  `json:"requestId"`
	Reply           string                  `json:"reply"`
	Outcome         Outcome                 `json:"outcome"`
	Viable          bool                    `json:"viable"`
	AIPowered       bool                    `json:"aiPowered"`
	ParsedQuery     *models.ParsedQuery     `json:"parsedQuery,omitempty"`
	Recommendations []models.Recommendation `json:"recommendations,omitempty"`
	Delivered       []string                `json:"delivered,omitempty"`
}
