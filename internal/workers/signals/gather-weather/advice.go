package gatherweather

import (
	"context"
	"fmt"
	"strings"

	"margadarshak/internal/common/genai"
	"margadarshak/internal/models"
)

const adviceSystemPrompt = `You are an expert in how weather affects street vendor sales in Indian cities.
Give practical, specific advice for today's conditions.
Answer in simple Hindi-English mix.`

var (
	strategyWords = []string{"strategy", "sell"}
	customerWords = []string{"customer", "behavior", "behaviour"}
	locationWords = []string{"location", "where"}
)

const maxAdviceLine = 200

type weatherAdvisor struct {
	llm    genai.Chatter
	config *Config
}

func (a weatherAdvisor) buildPrompt(sig models.WeatherSignal, message string) string {
	r := sig.Reading

	var b strings.Builder
	b.WriteString("Current weather:\n")
	fmt.Fprintf(&b, "- City: %s\n", r.City)
	fmt.Fprintf(&b, "- Temperature: %.1f°C\n", r.Temperature)
	fmt.Fprintf(&b, "- Humidity: %d%%\n", r.Humidity)
	fmt.Fprintf(&b, "- Condition: %s\n", r.Description)
	if len(sig.HighDemand) > 0 {
		fmt.Fprintf(&b, "\nOur analysis favours %s (%.2fx demand).\n", strings.Join(sig.HighDemand, ", "), sig.WeatherBoost)
	}
	fmt.Fprintf(&b, "\nVendor says: %q\n", message)
	b.WriteString("\nAdvise on:\n")
	b.WriteString("1. A selling strategy for these products today\n")
	b.WriteString("2. How customer behavior changes in this weather\n")
	b.WriteString("3. Where to set up and at what time\n")
	b.WriteString("4. Weather risks to watch\n")
	return b.String()
}

// advise returns nil insights when the reply has no usable line.
func (a weatherAdvisor) advise(ctx context.Context, sig models.WeatherSignal, message string) (*models.WeatherInsights, error) {
	ctx, cancel := context.WithTimeout(ctx, a.config.AdviceTimeout)
	defer cancel()

	reply, err := a.llm.Chat(ctx, genai.ChatRequest{
		Model: a.config.Model,
		Messages: []genai.Message{
			genai.System(adviceSystemPrompt),
			genai.User(a.buildPrompt(sig, message)),
		},
		Temperature: a.config.Temperature,
		MaxTokens:   a.config.MaxTokens,
	})
	if err != nil {
		return nil, err
	}

	in := models.WeatherInsights{
		SellingStrategy:  genai.FirstLine(reply, strategyWords, maxAdviceLine),
		CustomerInsights: genai.FirstLine(reply, customerWords, maxAdviceLine),
		LocationAdvice:   genai.FirstLine(reply, locationWords, maxAdviceLine),
	}
	if in.Empty() {
		return nil, nil
	}
	return &in, nil
}
