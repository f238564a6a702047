package parsevendorquery

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"margadarshak/internal/common/genai"
	"margadarshak/internal/common/validation"
	"margadarshak/internal/models"
)

const systemPrompt = `You are an expert at extracting business information from Indian street vendor queries.

From the user's query, extract:
1. Location (Hyderabad area names like Begum Bazaar, Hitech City, etc.)
2. Budget amount in rupees (numbers mentioned)
3. Date if any (today, tomorrow, or YYYY-MM-DD)
4. Intent (sell, buy, profit, help, weather)
5. Your confidence level (0.0 to 1.0)

Respond with a JSON object containing: location, budget, date, intent, confidence

Common areas: Begum Bazaar, Charminar, Hitech City, Kukatpally, Secunderabad, Ameerpet, Gachibowli`

var replySchema = validation.MustCompile(`{
	"type": "object",
	"properties": {
		"location":   {"type": ["string", "null"]},
		"budget":     {"type": ["number", "string", "null"]},
		"date":       {"type": ["string", "null"]},
		"intent":     {"type": ["string", "null"]},
		"confidence": {"type": ["number", "null"]}
	},
	"required": ["location", "budget"]
}`)

var (
	rawBudget     = regexp.MustCompile(`(\d{3,6})`)
	rawConfidence = regexp.MustCompile(`(\d\.\d)`)
)

type ReplyKind int

const (
	ReplyStructured ReplyKind = iota
	ReplyRawText
)

// Reply is the model's answer, either a schema-valid object or free text that
// needs the heuristic scan.
type Reply struct {
	Kind    ReplyKind
	Fields  structuredFields
	RawText string
}

type structuredFields struct {
	Location   string          `json:"location"`
	Budget     json.RawMessage `json:"budget"`
	Date       string          `json:"date"`
	Intent     string          `json:"intent"`
	Confidence *float64        `json:"confidence"`
}

// ClassifyReply tries the strict parse first and labels anything else as raw
// text.
func ClassifyReply(content string) Reply {
	block, ok := genai.ExtractJSONObject(content)
	if !ok {
		return Reply{Kind: ReplyRawText, RawText: content}
	}
	if res := replySchema.ValidateJSON([]byte(block)); !res.Valid {
		return Reply{Kind: ReplyRawText, RawText: content}
	}

	var f structuredFields
	if err := json.Unmarshal([]byte(block), &f); err != nil {
		return Reply{Kind: ReplyRawText, RawText: content}
	}
	return Reply{Kind: ReplyStructured, Fields: f}
}

type remoteParser struct {
	llm    genai.Chatter
	config *Config
}

func (p remoteParser) parse(ctx context.Context, message string, now time.Time) (models.ParsedQuery, ReplyKind, error) {
	content, err := p.llm.Chat(ctx, genai.ChatRequest{
		Model: p.config.Model,
		Messages: []genai.Message{
			genai.System(systemPrompt),
			genai.User(fmt.Sprintf("Extract information from this vendor query: %s", message)),
		},
		Temperature: p.config.Temperature,
		MaxTokens:   p.config.MaxTokens,
	})
	if err != nil {
		return models.ParsedQuery{}, 0, err
	}

	reply := ClassifyReply(content)

	var q models.ParsedQuery
	switch reply.Kind {
	case ReplyStructured:
		q = p.fromStructured(reply.Fields, now)
		q.Method = models.ParseMethodRemote
	default:
		q = p.fromRawText(reply.RawText, now)
		q.Method = models.ParseMethodRemoteText
	}

	lower := strings.ToLower(message)
	q.OriginalMessage = message
	q.Analysis = analyzeIntent(lower, tokenize(lower))
	return q, reply.Kind, nil
}

func (p remoteParser) fromStructured(f structuredFields, now time.Time) models.ParsedQuery {
	intent := models.Intent(strings.ToLower(strings.TrimSpace(f.Intent)))
	if !intent.Valid() {
		intent = models.IntentGeneral
	}

	confidence := 0.8
	if f.Confidence != nil {
		confidence = clampUnit(*f.Confidence)
	}

	return models.ParsedQuery{
		Location:   p.canonicalLocation(f.Location),
		Budget:     models.ClampBudget(decodeBudget(f.Budget), p.config.DefaultBudget),
		Date:       resolveDate(f.Date, now),
		Intent:     intent,
		Confidence: confidence,
	}
}

// fromRawText scans free text the same way for every reply: first known
// location, first 3-6 digit number, fixed keyword order for intent.
func (p remoteParser) fromRawText(content string, now time.Time) models.ParsedQuery {
	lower := strings.ToLower(content)

	location := p.config.DefaultLocation
	if loc, ok := matchAlias(lower); ok {
		location = loc
	}

	budget := p.config.DefaultBudget
	if m := rawBudget.FindStringSubmatch(content); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			budget = models.ClampBudget(float64(n), p.config.DefaultBudget)
		}
	}

	intent := models.IntentSell
	switch {
	case containsAny(lower, []string{"profit", "earn", "money"}):
		intent = models.IntentProfit
	case containsAny(lower, []string{"help", "advice", "suggest"}):
		intent = models.IntentHelp
	case containsAny(lower, []string{"buy", "purchase"}):
		intent = models.IntentBuy
	}

	confidence := 0.8
	if m := rawConfidence.FindStringSubmatch(content); m != nil {
		if c, err := strconv.ParseFloat(m[1], 64); err == nil {
			confidence = clampUnit(c)
		}
	}

	return models.ParsedQuery{
		Location:   location,
		Budget:     budget,
		Date:       now.Format(models.DateLayout),
		Intent:     intent,
		Confidence: confidence,
	}
}

func (p remoteParser) canonicalLocation(loc string) string {
	return CanonicalLocation(loc, p.config.DefaultLocation)
}

// decodeBudget accepts 5000, "5000" or "₹5,000". Anything else is NaN so the
// clamp substitutes the default.
func decodeBudget(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return math.NaN()
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		digits := strings.Map(func(r rune) rune {
			if (r >= '0' && r <= '9') || r == '.' {
				return r
			}
			return -1
		}, s)
		if v, err := strconv.ParseFloat(digits, 64); err == nil {
			return v
		}
	}
	return math.NaN()
}

func resolveDate(s string, now time.Time) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "today", "aaj":
		return now.Format(models.DateLayout)
	case "tomorrow", "kal":
		return now.AddDate(0, 0, 1).Format(models.DateLayout)
	}
	if d, err := time.Parse(models.DateLayout, strings.TrimSpace(s)); err == nil {
		return d.Format(models.DateLayout)
	}
	return now.Format(models.DateLayout)
}

func clampUnit(x float64) float64 {
	switch {
	case math.IsNaN(x) || x < 0:
		return 0
	case x > 1:
		return 1
	}
	return x
}
