package parsevendorquery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"margadarshak/internal/common/genai"
	"margadarshak/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "parse-vendor-query"
)

var (
	ErrEmptyMessage       = errors.New("EMPTY_MESSAGE")
	ErrQueryParsingFailed = errors.New("QUERY_PARSING_FAILED")
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
	rules  rulesParser
	logger Logger
	now    func() time.Time
}

// NewHandler builds the interpreter. A nil llm selects the rule-based path
// for every message.
func NewHandler(config *Config, llm genai.Chatter, log Logger) *Handler {
	return &Handler{
		config: config,
		llm:    llm,
		rules: rulesParser{
			defaultLocation: config.DefaultLocation,
			defaultBudget:   config.DefaultBudget,
		},
		logger: log.With(map[string]interface{}{
			"taskType": TaskType,
		}),
		now: time.Now,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, fmt.Errorf("%w: parse input: %v", ErrQueryParsingFailed, err), 0)
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
	if strings.TrimSpace(input.Message) == "" {
		return nil, ErrEmptyMessage
	}

	now := h.now()

	if h.llm != nil {
		remote := remoteParser{llm: h.llm, config: h.config}
		q, kind, err := remote.parse(ctx, input.Message, now)
		if err == nil {
			if kind == ReplyRawText {
				metrics.AdvisorFallbacks.WithLabelValues("interpreter", "raw_text").Inc()
			}
			h.logger.Info("query parsed", map[string]interface{}{
				"method":     q.Method,
				"location":   q.Location,
				"budget":     q.Budget,
				"intent":     q.Intent,
				"confidence": q.Confidence,
			})
			return &Output{ParsedQuery: q}, nil
		}

		reason := "request_failed"
		if errors.Is(err, genai.ErrTimeout) {
			reason = "timeout"
		}
		metrics.AdvisorFallbacks.WithLabelValues("interpreter", reason).Inc()
		h.logger.Warn("remote parse failed, using rules", map[string]interface{}{
			"error": err.Error(),
		})
	}

	q := h.rules.parse(input.Message, now)
	h.logger.Info("query parsed", map[string]interface{}{
		"method":     q.Method,
		"location":   q.Location,
		"budget":     q.Budget,
		"intent":     q.Intent,
		"confidence": q.Confidence,
	})
	return &Output{ParsedQuery: q}, nil
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
	errorCode := "QUERY_PARSING_FAILED"
	if errors.Is(err, ErrEmptyMessage) {
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

// Execute parses one message. The only error is ErrEmptyMessage.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
