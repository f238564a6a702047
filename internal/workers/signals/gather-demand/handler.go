package gatherdemand

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "margadarshak/internal/common/errors"
	"margadarshak/internal/common/logger"
	"margadarshak/internal/common/metrics"
	"margadarshak/internal/models"
	"margadarshak/internal/tables"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "gather-demand-signal"
)

var (
	ErrInvalidProduct  = errors.New("INVALID_PRODUCT")
	ErrInvalidLocation = errors.New("INVALID_LOCATION")
)

type Handler struct {
	config    *Config
	predictor *Predictor
	logger    logger.Logger
	errors    *apperrors.ErrorHandler
	now       func() time.Time
}

func NewHandler(config *Config, catalog *tables.Catalog, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		predictor: NewPredictor(catalog),
		logger:    l,
		errors:    apperrors.NewErrorHandler(l),
		now:       time.Now,
	}
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
		h.fail(ctx, client, job, apperrors.NewInvalidInputError(err.Error()))
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

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	location := strings.TrimSpace(input.Location)
	if location == "" {
		return nil, fmt.Errorf("%w: location is required", ErrInvalidLocation)
	}

	date := h.now()
	if input.Date != "" {
		q := models.ParsedQuery{Date: input.Date}
		date = q.TargetDate(date)
	}

	if input.Product != "" {
		sig, err := h.predictor.ComputeSignal(location, input.Product, date)
		if err != nil {
			return nil, err
		}
		h.logFallback(sig)
		return &Output{DemandSignal: &sig}, nil
	}

	summary := h.predictor.Summary(location, date, h.config.TopProducts)
	for _, sig := range summary.Signals {
		h.logFallback(sig)
	}

	top := make([]string, 0, len(summary.TopProducts))
	for _, s := range summary.TopProducts {
		top = append(top, s.Product)
	}
	h.logger.Info("demand summary computed", map[string]interface{}{
		"location":    location,
		"month":       summary.Month,
		"topProducts": top,
	})

	return &Output{DemandSummary: &summary}, nil
}

func (h *Handler) logFallback(sig models.DemandSignal) {
	if sig.Note == "" {
		return
	}
	metrics.AdvisorFallbacks.WithLabelValues("demand", "no_history").Inc()
	h.logger.Debug("no sales history, using base rate", map[string]interface{}{
		"location": sig.Location,
		"product":  sig.Product,
	})
}

// Execute computes a demand summary, or a single signal when Product is set.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
