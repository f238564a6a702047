package formatadvice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "margadarshak/internal/common/errors"
	"margadarshak/internal/common/logger"
	"margadarshak/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "format-advice"

var (
	ErrUnknownKind         = errors.New("UNKNOWN_TEMPLATE")
	ErrMissingSynthesis    = errors.New("MISSING_SYNTHESIS")
	ErrResponseBuildFailed = errors.New("RESPONSE_BUILD_FAILED")
)

type Handler struct {
	config *Config
	logger logger.Logger
	errors *apperrors.ErrorHandler
	now    func() time.Time
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		logger: l,
		errors: apperrors.NewErrorHandler(l),
		now:    time.Now,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job",
		map[string]interface{}{
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

	output, err := h.Execute(ctx, &input)
	if err != nil {
		h.fail(ctx, client, job, apperrors.NewResponseBuildFailedError(err))
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

// Execute renders the reply for input.Kind and wraps it in the response envelope.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	kind := input.Kind
	if kind == "" {
		kind = KindAdvice
	}
	if kind == KindAdvice && input.Synthesis != nil && !input.Synthesis.Viable {
		kind = KindNoViable
	}

	var view interface{}
	status := "success"
	data := map[string]interface{}{"kind": string(kind)}

	switch kind {
	case KindAdvice:
		if input.Synthesis == nil {
			return nil, ErrMissingSynthesis
		}
		v := newAdviceView(input)
		view = v
		data["viable"] = true
		data["aiPowered"] = v.AIPowered
		data["recommendations"] = v.Recommendations
		data["strategy"] = v.Strategy
	case KindNoViable:
		view = noViableView{
			Location:        input.ParsedQuery.Location,
			Budget:          input.ParsedQuery.Budget,
			SuggestedBudget: h.config.SuggestedBudget,
		}
		data["viable"] = false
	case KindInvalidInput:
		view = invalidInputView{Problem: input.Problem}
		status = "error"
	case KindApology:
		view = apologyView{RequestId: input.RequestId}
		status = "error"
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	msg, err := render(kind, view)
	if err != nil {
		h.logger.Error("template execution failed", map[string]interface{}{
			"kind":      string(kind),
			"requestId": input.RequestId,
			"error":     err.Error(),
		})
		return nil, fmt.Errorf("%w: %v", ErrResponseBuildFailed, err)
	}
	data["message"] = msg

	return &Output{
		Message: msg,
		Response: ResponsePayload{
			RequestId: input.RequestId,
			Status:    status,
			Data:      data,
			Metadata: ResponseMetadata{
				Timestamp: h.now().UTC().Format(time.RFC3339),
				Version:   h.config.AppVersion,
			},
		},
	}, nil
}
