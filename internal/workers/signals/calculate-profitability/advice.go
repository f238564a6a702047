package calculateprofitability

import (
	"context"
	"fmt"
	"strings"

	"margadarshak/internal/common/genai"
	"margadarshak/internal/models"
	"margadarshak/internal/tables"
)

const adviceSystemPrompt = `You are a financial advisor for Indian street vendors.
Explain investment decisions in simple terms and suggest concrete ways to raise profit safely.
Answer in simple Hindi-English mix.`

var (
	investWords   = []string{"invest"}
	optimizeWords = []string{"optimize", "optimise", "increase", "maximize", "maximise", "improve"}
	riskWords     = []string{"risk", "safe"}
)

const (
	maxAdviceLine = 200
	maxTipLine    = 150
	maxTips       = 3
)

type profitAdvisor struct {
	llm     genai.Chatter
	config  *Config
	catalog *tables.Catalog
}

func (a profitAdvisor) buildPrompt(r models.ProfitabilityResult, message string) string {
	var b strings.Builder
	b.WriteString("Investment analysis:\n")
	fmt.Fprintf(&b, "- Product: %s\n", r.Product)
	fmt.Fprintf(&b, "- Location: %s\n", r.Location)
	fmt.Fprintf(&b, "- Budget: ₹%.0f\n", r.Budget)
	fmt.Fprintf(&b, "- ROI: %.1f%%\n", r.RoiPct)
	fmt.Fprintf(&b, "- Daily profit: ₹%.0f\n", r.DailyProfit)
	fmt.Fprintf(&b, "- Units affordable: %d\n", r.UnitsAffordable)
	fmt.Fprintf(&b, "- Risk: %s\n", r.RiskLevel)
	if p, ok := a.catalog.Product(r.Product); ok {
		fmt.Fprintf(&b, "- Competition: %s\n", p.Competition)
		fmt.Fprintf(&b, "- Demand stability: %s\n", p.DemandStability)
	}
	fmt.Fprintf(&b, "\nVendor says: %q\n", message)
	b.WriteString("\nAdvise on:\n")
	b.WriteString("1. Whether to invest and how much\n")
	b.WriteString("2. How to increase profit on this product\n")
	b.WriteString("3. How to keep the risk manageable\n")
	return b.String()
}

// advise returns nil advice when the reply has no usable line.
func (a profitAdvisor) advise(ctx context.Context, r models.ProfitabilityResult, message string) (*models.ProfitAdvice, error) {
	ctx, cancel := context.WithTimeout(ctx, a.config.AdviceTimeout)
	defer cancel()

	reply, err := a.llm.Chat(ctx, genai.ChatRequest{
		Model: a.config.Model,
		Messages: []genai.Message{
			genai.System(adviceSystemPrompt),
			genai.User(a.buildPrompt(r, message)),
		},
		Temperature: a.config.Temperature,
		MaxTokens:   a.config.MaxTokens,
	})
	if err != nil {
		return nil, err
	}

	adv := models.ProfitAdvice{
		InvestmentAdvice: genai.FirstLine(reply, investWords, maxAdviceLine),
		OptimizationTips: genai.MatchingLines(reply, optimizeWords, maxTipLine, maxTips),
		RiskManagement:   genai.FirstLine(reply, riskWords, maxAdviceLine),
	}
	if adv.Empty() {
		return nil, nil
	}
	return &adv, nil
}
