package synthesizerecommendations

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"margadarshak/internal/common/genai"
	"margadarshak/internal/models"
)

const systemPrompt = `You are a business advisor for Indian street vendors.
You combine demand forecasts, current weather and unit economics into practical stocking advice.
Recommend at most three products from the candidate list, by name, with a short reason for each.
Add a short timeline for the day, a few selling tips and one line on managing risk.
Answer in simple Hindi-English mix.`

// Reply-line keywords for each extracted section.
var (
	timelineWords = []string{"timeline", "morning", "evening", "time", "day"}
	tipWords      = []string{"tip", "sell", "customer", "location"}
	riskWords     = []string{"risk", "safe"}
)

const (
	maxTimelineLines = 3
	maxTips          = 3
	maxRiskLines     = 2
)

type remoteSynthesizer struct {
	llm    genai.Chatter
	config *Config
}

func (r remoteSynthesizer) buildPrompt(input *Input, budget float64, ranked []candidate) string {
	q := input.ParsedQuery
	w := input.WeatherSignal

	var b strings.Builder
	b.WriteString("Vendor details:\n")
	fmt.Fprintf(&b, "- Location: %s\n", q.Location)
	fmt.Fprintf(&b, "- Budget: ₹%.0f\n", budget)
	if q.Date != "" {
		fmt.Fprintf(&b, "- Date: %s\n", q.Date)
	}
	if q.OriginalMessage != "" {
		fmt.Fprintf(&b, "- Message: %q\n", q.OriginalMessage)
	}

	b.WriteString("\nDemand:\n")
	for _, s := range input.DemandSummary.TopProducts {
		fmt.Fprintf(&b, "- %s (%d/10, %s)\n", s.Product, s.DemandScore, s.Trend)
	}

	b.WriteString("\nWeather:\n")
	fmt.Fprintf(&b, "- %s at %.1f°C, humidity %d%%\n", w.Reading.Description, w.Reading.Temperature, w.Reading.Humidity)
	if len(w.HighDemand) > 0 {
		fmt.Fprintf(&b, "- Weather-boosted products: %s (%.2fx)\n", strings.Join(w.HighDemand, ", "), w.WeatherBoost)
	}
	if in := w.Insights; in != nil {
		for _, line := range []string{in.SellingStrategy, in.CustomerInsights, in.LocationAdvice} {
			if line != "" {
				fmt.Fprintf(&b, "- Weather advice: %s\n", line)
			}
		}
	}

	b.WriteString("\nCandidates:\n")
	for _, c := range ranked {
		fmt.Fprintf(&b, "- %s: ROI %.1f%%, daily profit ₹%.0f, risk %s, cost ₹%.2f per unit\n",
			c.result.Product, c.result.RoiPct, c.result.DailyProfit, c.result.RiskLevel, c.result.CostPerUnit)
		if adv := c.result.Advice; adv != nil && adv.InvestmentAdvice != "" {
			fmt.Fprintf(&b, "  Investment advice: %s\n", adv.InvestmentAdvice)
		}
	}
	return b.String()
}

// synthesize asks the model for advice and keeps the candidates it names.
// It returns an error when the call fails or no candidate is mentioned.
func (r remoteSynthesizer) synthesize(ctx context.Context, input *Input, budget float64, ranked []candidate) (models.Synthesis, error) {
	reply, err := r.llm.Chat(ctx, genai.ChatRequest{
		Model: r.config.Model,
		Messages: []genai.Message{
			genai.System(systemPrompt),
			genai.User(r.buildPrompt(input, budget, ranked)),
		},
		Temperature: r.config.Temperature,
		MaxTokens:   r.config.MaxTokens,
	})
	if err != nil {
		return models.Synthesis{}, err
	}

	var mentioned []candidate
	for _, c := range ranked {
		if mentions(reply, c.result.Product) {
			mentioned = append(mentioned, c)
		}
	}
	if len(mentioned) == 0 {
		return models.Synthesis{}, ErrNoProductsMentioned
	}

	recs := allocate(mentioned, budget, r.config.MaxProducts)
	if len(recs) == 0 {
		return models.Synthesis{}, ErrNoProductsMentioned
	}
	for i := range recs {
		recs[i].Rationale = rationale(reply, recs[i].Product)
	}

	return models.Synthesis{
		Recommendations: recs,
		Strategy:        buildStrategy(recs),
		Implementation: models.Implementation{
			Timeline:       genai.MatchingLines(reply, timelineWords, 200, maxTimelineLines),
			SellingTips:    genai.MatchingLines(reply, tipWords, 150, maxTips),
			RiskMitigation: genai.MatchingLines(reply, riskWords, 200, maxRiskLines),
		},
		Narrative: reply,
		AIPowered: true,
		Viable:    true,
	}, nil
}

func productPattern(product string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(product) + `s?\b`)
}

func mentions(reply, product string) bool {
	return productPattern(product).MatchString(reply)
}

// rationale is the first sentence of reply that names product.
func rationale(reply, product string) string {
	re := productPattern(product)
	for _, sentence := range strings.FieldsFunc(reply, func(r rune) bool { return r == '.' || r == '\n' }) {
		s := genai.CleanLine(sentence)
		if len(s) > 20 && len(s) < 200 && re.MatchString(s) {
			return s
		}
	}
	return ""
}
