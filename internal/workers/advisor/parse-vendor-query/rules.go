package parsevendorquery

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"margadarshak/internal/models"
	"margadarshak/internal/tables"
)

type locationAlias struct {
	alias     string
	canonical string
}

// Checked in order; the first alias found in the text wins.
var locationAliases = []locationAlias{
	{"begum bazar", tables.BegumBazaar},
	{"begum bazaar", tables.BegumBazaar},
	{"charminar", tables.Charminar},
	{"hitech city", tables.HitechCity},
	{"hi-tech city", tables.HitechCity},
	{"hitec city", tables.HitechCity},
	{"kukatpally", tables.Kukatpally},
	{"kphb", tables.Kukatpally},
	{"secunderabad", tables.Secunderabad},
	{"sec bad", tables.Secunderabad},
	{"ameerpet", tables.Ameerpet},
	{"jubilee hills", tables.JubileeHills},
	{"banjara hills", tables.BanjaraHills},
	{"gachibowli", tables.Gachibowli},
	{"madhapur", tables.Madhapur},
	{"kondapur", tables.Kondapur},
}

// Shorter captures ("a", "the") would sit inside too many aliases.
const minPlaceCapture = 4

var prepositionPlace = regexp.MustCompile(`\b(?:in|at|near|from)\s+([a-z][a-z\-]*)`)

var budgetPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d{3,6})\s*(?:rs|rupees|₹|rups|rupee)`),
	regexp.MustCompile(`(?:rs|rupees|₹)\s*(\d{3,6})`),
	regexp.MustCompile(`budget\s+(?:of\s+)?(\d{3,6})`),
	regexp.MustCompile(`(?:have|got|with)\s+(\d{3,6})`),
	regexp.MustCompile(`(\d{3,6})\s+(?:only|total|ke saath)`),
	regexp.MustCompile(`(?:^|\s)(\d{3,6})(?:\s|$)`),
}

type intentRule struct {
	intent   models.Intent
	keywords []string
}

var intentKeywords = []intentRule{
	{models.IntentSell, []string{"sell", "bech", "business", "kaam", "dhanda"}},
	{models.IntentProfit, []string{"profit", "fayda", "earn", "kama", "paisa", "money"}},
	{models.IntentWeather, []string{"rain", "barish", "hot", "garmi", "cold", "sardi"}},
	{models.IntentHelp, []string{"help", "madad", "suggest", "recommend", "btao", "batao"}},
	{models.IntentBuy, []string{"buy", "purchase", "kharid", "products", "saman"}},
}

var (
	businessKeywords = []string{"sell", "buy", "business", "profit", "earn", "bech", "kaam"}
	profitKeywords   = []string{"profit", "fayda", "earn", "kama", "paisa"}
	weatherKeywords  = []string{"rain", "barish", "hot", "garmi", "weather"}
	urgentWords      = []string{"today", "aaj", "now", "urgent", "jaldi"}

	todayWords    = []string{"today", "aaj"}
	tomorrowWords = []string{"tomorrow", "kal"}
)

const (
	todayDevanagari    = "आज"
	tomorrowDevanagari = "कल"
)

// rulesParser is the deterministic interpreter used when no language model
// is configured or the remote call fails.
type rulesParser struct {
	defaultLocation string
	defaultBudget   float64
}

func (p rulesParser) parse(message string, now time.Time) models.ParsedQuery {
	text := strings.ToLower(strings.TrimSpace(message))
	tokens := tokenize(text)

	q := models.ParsedQuery{
		Location:        p.extractLocation(text),
		Budget:          p.extractBudget(text),
		Date:            extractDate(text, tokens, now),
		Intent:          classifyIntent(text),
		Method:          models.ParseMethodRules,
		Analysis:        analyzeIntent(text, tokens),
		OriginalMessage: message,
	}
	q.Confidence = p.confidence(q, message)
	return q
}

func (p rulesParser) extractLocation(text string) string {
	if loc, ok := matchAlias(text); ok {
		return loc
	}

	for _, m := range prepositionPlace.FindAllStringSubmatch(text, -1) {
		capture := m[1]
		if len(capture) < minPlaceCapture {
			continue
		}
		for _, a := range locationAliases {
			if strings.Contains(a.alias, capture) || strings.Contains(capture, a.alias) {
				return a.canonical
			}
		}
	}

	return p.defaultLocation
}

// CanonicalLocation maps a locality name or alias to its canonical form and
// returns fallback when nothing matches.
func CanonicalLocation(name, fallback string) string {
	if loc, ok := matchAlias(strings.ToLower(strings.TrimSpace(name))); ok {
		return loc
	}
	return fallback
}

// matchAlias finds the first known alias contained in text.
func matchAlias(text string) (string, bool) {
	for _, a := range locationAliases {
		if strings.Contains(text, a.alias) {
			return a.canonical, true
		}
	}
	return "", false
}

func (p rulesParser) extractBudget(text string) float64 {
	for _, re := range budgetPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if b := float64(n); b >= models.MinBudget && b <= models.MaxParsedBudget {
			return b
		}
	}
	return p.defaultBudget
}

// extractDate defaults to today. Today words win over tomorrow words.
func extractDate(text string, tokens map[string]bool, now time.Time) string {
	today := hasAnyToken(tokens, todayWords) || strings.Contains(text, todayDevanagari)
	tomorrow := hasAnyToken(tokens, tomorrowWords) || strings.Contains(text, tomorrowDevanagari)
	if tomorrow && !today {
		return now.AddDate(0, 0, 1).Format(models.DateLayout)
	}
	return now.Format(models.DateLayout)
}

// classifyIntent scores each intent by keyword hits. A tie for the top score
// resolves to general.
func classifyIntent(text string) models.Intent {
	best := models.IntentGeneral
	bestScore := 0
	tied := false

	for _, rule := range intentKeywords {
		score := 0
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				score++
			}
		}
		switch {
		case score > bestScore:
			best, bestScore, tied = rule.intent, score, false
		case score == bestScore && score > 0:
			tied = true
		}
	}

	if tied || bestScore == 0 {
		return models.IntentGeneral
	}
	return best
}

func analyzeIntent(text string, tokens map[string]bool) models.IntentAnalysis {
	a := models.IntentAnalysis{
		HasProfitFocus:   containsAny(text, profitKeywords),
		WeatherSensitive: containsAny(text, weatherKeywords),
		UrgencyLevel:     "normal",
		QueryComplexity:  "simple",
	}
	if hasAnyToken(tokens, urgentWords) || strings.Contains(text, todayDevanagari) {
		a.UrgencyLevel = "high"
	}
	switch words := len(strings.Fields(text)); {
	case words > 10:
		a.QueryComplexity = "high"
	case words > 5:
		a.QueryComplexity = "medium"
	}
	return a
}

func (p rulesParser) confidence(q models.ParsedQuery, message string) float64 {
	c := 0.4
	if q.Location != p.defaultLocation {
		c += 0.2
	}
	if q.Budget != p.defaultBudget {
		c += 0.2
	}
	if len(strings.Fields(message)) >= 5 {
		c += 0.1
	}
	if containsAny(strings.ToLower(message), businessKeywords) {
		c += 0.1
	}
	if c > 1.0 {
		c = 1.0
	}
	return models.RoundTo(c, 2)
}

func tokenize(text string) map[string]bool {
	out := make(map[string]bool)
	for _, t := range strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		out[t] = true
	}
	return out
}

func hasAnyToken(tokens map[string]bool, words []string) bool {
	for _, w := range words {
		if tokens[w] {
			return true
		}
	}
	return false
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
