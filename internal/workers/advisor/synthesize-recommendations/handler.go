package synthesizerecommendations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"margadarshak/internal/common/genai"
	"margadarshak/internal/common/metrics"
	"margadarshak/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "synthesize-recommendations"
)

var (
	ErrInvalidBudget       = errors.New("INVALID_BUDGET")
	ErrSynthesisFailed     = errors.New("SYNTHESIS_FAILED")
	ErrNoProductsMentioned = errors.New("NO_PRODUCTS_MENTIONED")
)

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

type Handler struct {
	config *Config
	llm    genai.Chatter
	logger Logger
}

// NewHandler builds the synthesizer. A nil llm always uses the traditional ranking.
func NewHandler(config *Config, llm genai.Chatter, log Logger) *Handler {
	return &Handler{
		config: config,
		llm:    llm,
		logger: log.With(map[string]interface{}{
			"taskType": TaskType,
		}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, fmt.Errorf("%w: parse input: %v", ErrSynthesisFailed, err), 0)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, err, 0)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	budget := input.Budget
	if budget <= 0 {
		budget = input.ParsedQuery.Budget
	}
	if budget <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBudget, budget)
	}

	ranked := rankCandidates(input, h.config.MinROI)
	if len(ranked) == 0 {
		h.logger.Info("no viable candidates", map[string]interface{}{
			"location":   input.ParsedQuery.Location,
			"budget":     budget,
			"candidates": len(input.Profitability),
		})
		return &Output{Synthesis: models.Synthesis{
			Recommendations:    []models.Recommendation{},
			CandidatesAnalyzed: len(input.Profitability),
		}}, nil
	}

	var syn models.Synthesis
	remoteOK := false
	if h.llm != nil && strings.TrimSpace(input.ParsedQuery.OriginalMessage) != "" {
		remote := remoteSynthesizer{llm: h.llm, config: h.config}
		s, err := remote.synthesize(ctx, input, budget, ranked)
		if err == nil {
			syn, remoteOK = s, true
		} else {
			reason := "request_failed"
			switch {
			case errors.Is(err, genai.ErrTimeout):
				reason = "timeout"
			case errors.Is(err, ErrNoProductsMentioned):
				reason = "no_mentions"
			}
			metrics.AdvisorFallbacks.WithLabelValues("synthesizer", reason).Inc()
			h.logger.Warn("remote synthesis failed, using traditional ranking", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	if !remoteOK {
		recs := allocate(ranked, budget, h.config.MaxProducts)
		syn = models.Synthesis{
			Recommendations: recs,
			Strategy:        buildStrategy(recs),
			Viable:          len(recs) > 0,
		}
	}
	applyAdvice(&syn, input.WeatherSignal, input.Profitability)
	syn.CandidatesAnalyzed = len(input.Profitability)
	syn.ProfitableCount = len(ranked)

	picked := make([]string, 0, len(syn.Recommendations))
	for _, r := range syn.Recommendations {
		picked = append(picked, r.Product)
	}
	h.logger.Info("recommendations synthesized", map[string]interface{}{
		"aiPowered":       syn.AIPowered,
		"products":        picked,
		"totalInvestment": syn.Strategy.TotalInvestment,
		"budget":          budget,
	})
	return &Output{Synthesis: syn}, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error, retries int32) {
	errorCode := "SYNTHESIS_FAILED"
	if errors.Is(err, ErrInvalidBudget) {
		errorCode = "INVALID_INPUT"
	}

	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":    job.Key,
		"error":     err.Error(),
		"errorCode": errorCode,
	})
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, errorCode).Inc()

	_, _ = client.NewFailJobCommand().
		JobKey(job.Key).
		Retries(retries).
		ErrorMessage(errorCode + ": " + err.Error()).
		Send(context.Background())
}

// Execute ranks and allocates. An empty recommendation list is a normal
// result with Viable false.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
