package calculateprofitability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	apperrors "margadarshak/internal/common/errors"
	"margadarshak/internal/common/genai"
	"margadarshak/internal/common/logger"
	"margadarshak/internal/common/metrics"
	"margadarshak/internal/models"
	"margadarshak/internal/tables"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "calculate-profitability"
)

var (
	ErrUnknownProduct  = errors.New("UNKNOWN_PRODUCT")
	ErrUnknownLocation = errors.New("UNKNOWN_LOCATION")
	ErrInvalidBudget   = errors.New("INVALID_BUDGET")
)

type Handler struct {
	config     *Config
	calculator *Calculator
	advisor    *profitAdvisor
	logger     logger.Logger
	errors     *apperrors.ErrorHandler
}

// NewHandler prices products from catalog. llm may be nil, in which case no
// investment advice is requested.
func NewHandler(config *Config, catalog *tables.Catalog, llm genai.Chatter, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	h := &Handler{
		config:     config,
		calculator: NewCalculator(catalog),
		logger:     l,
		errors:     apperrors.NewErrorHandler(l),
	}
	if llm != nil {
		h.advisor = &profitAdvisor{llm: llm, config: config, catalog: catalog}
	}
	return h
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.fail(ctx, client, job, apperrors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.fail(ctx, client, job, toStandardError(&input, err))
		return
	}

	cmd, err := client.NewCompleteJobCommand().JobKey(job.Key).VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{"error": err})
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{"error": err})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err *apperrors.StandardError) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(err.Code)).Inc()
	h.errors.HandleJobError(ctx, client, job, err)
}

func toStandardError(input *Input, err error) *apperrors.StandardError {
	switch {
	case errors.Is(err, ErrUnknownProduct):
		return apperrors.NewUnknownProductError(input.Product)
	case errors.Is(err, ErrUnknownLocation):
		return apperrors.NewUnknownLocationError(input.Location)
	}
	return apperrors.NewInvalidInputError(err.Error())
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	result, err := h.calculator.Analyze(input.Product, input.Location, input.Budget, input.ExpectedSales)
	if err != nil {
		return nil, err
	}
	result.Advice = h.advice(ctx, result, input.Message)

	h.logger.Debug("profitability computed", map[string]interface{}{
		"product":   result.Product,
		"location":  result.Location,
		"roiPct":    result.RoiPct,
		"riskLevel": result.RiskLevel,
		"advised":   result.Advice != nil,
	})
	return &Output{Profitability: result}, nil
}

// advice asks the model about the computed economics. Any failure leaves
// the result as computed.
func (h *Handler) advice(ctx context.Context, result models.ProfitabilityResult, message string) *models.ProfitAdvice {
	if h.advisor == nil || strings.TrimSpace(message) == "" {
		return nil
	}
	adv, err := h.advisor.advise(ctx, result, message)
	if err != nil {
		metrics.AdvisorFallbacks.WithLabelValues("profit_advice", genai.Reason(err)).Inc()
		h.logger.Warn("investment advice unavailable", map[string]interface{}{
			"product": result.Product,
			"error":   err.Error(),
		})
		return nil
	}
	return adv
}

// Execute returns ErrUnknownProduct, ErrUnknownLocation or ErrInvalidBudget
// for inputs the catalog cannot price.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
