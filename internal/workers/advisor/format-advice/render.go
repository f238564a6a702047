package formatadvice

import (
	"bytes"
	"embed"
	"math"
	"strconv"
	"strings"
	"text/template"
	"unicode"
	"unicode/utf8"

	"margadarshak/internal/models"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var defaultTips = []string{
	"Focus 70% effort on the top 2 products",
	"Watch the weather and shift stock when it changes",
	"Track daily sales to improve every week",
}

var funcs = template.FuncMap{
	"rupees":   rupees,
	"medal":    medal,
	"title":    title,
	"truncate": truncate,
	"join":     func(s []string) string { return strings.Join(s, ", ") },
}

var templates = template.Must(template.New("advice").Funcs(funcs).ParseFS(templateFS, "templates/*.tmpl"))

func templateName(k Kind) string {
	return string(k) + ".tmpl"
}

type adviceView struct {
	Location        string
	Date            string
	Budget          float64
	AIPowered       bool
	Weather         *models.WeatherReading
	Recommendations []models.Recommendation
	Strategy        models.Strategy
	DemandProducts  []string
	WeatherProducts []string
	WeatherBoost    float64
	Narrative       string
	Timeline        []string
	Tips            []string
}

type noViableView struct {
	Location        string
	Budget          float64
	SuggestedBudget float64
}

type invalidInputView struct {
	Problem string
}

type apologyView struct {
	RequestId string
}

func newAdviceView(input *Input) adviceView {
	q := input.ParsedQuery
	syn := input.Synthesis
	v := adviceView{
		Location:        q.Location,
		Date:            q.Date,
		Budget:          q.Budget,
		AIPowered:       syn.AIPowered,
		Recommendations: syn.Recommendations,
		Strategy:        syn.Strategy,
		Narrative:       syn.Narrative,
		Timeline:        syn.Implementation.Timeline,
		Tips:            syn.Implementation.SellingTips,
	}
	if len(v.Tips) == 0 {
		v.Tips = defaultTips
	}
	if w := input.WeatherSignal; w != nil {
		r := w.Reading
		v.Weather = &r
		v.WeatherProducts = w.HighDemand
		v.WeatherBoost = w.WeatherBoost
	}
	if d := input.DemandSummary; d != nil {
		for _, s := range d.TopProducts {
			v.DemandProducts = append(v.DemandProducts, s.Product)
		}
	}
	return v
}

func render(k Kind, view interface{}) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, templateName(k), view); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

// rupees prints whole amounts without decimals and everything else with two.
func rupees(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func medal(rank int) string {
	switch rank {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	}
	return "•"
}

func title(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

func truncate(n int, s string) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:n])) + "..."
}
