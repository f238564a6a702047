package gatherweather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "margadarshak/internal/common/errors"
	"margadarshak/internal/common/genai"
	"margadarshak/internal/common/logger"
	"margadarshak/internal/common/metrics"
	"margadarshak/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "gather-weather-signal"
)

type Handler struct {
	config    *Config
	live      Provider
	simulator *Simulator
	cache     Cache
	advisor   *weatherAdvisor
	logger    logger.Logger
	errors    *apperrors.ErrorHandler
	now       func() time.Time
}

// NewHandler wires the OpenWeather provider when an API key is configured.
// cache and llm may be nil; without llm no weather advice is requested.
func NewHandler(config *Config, cache Cache, llm genai.Chatter, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	h := &Handler{
		config:    config,
		simulator: NewSimulator(config.Seed),
		cache:     cache,
		logger:    l,
		errors:    apperrors.NewErrorHandler(l),
		now:       time.Now,
	}
	if config.APIKey != "" {
		h.live = NewOpenWeather(config.BaseURL, config.APIKey, config.Timeout)
	}
	if llm != nil {
		h.advisor = &weatherAdvisor{llm: llm, config: config}
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
		stdErr := apperrors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err))
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
		h.errors.HandleJobError(ctx, client, job, stdErr)
		return
	}

	output := h.execute(ctx, &input)

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

func (h *Handler) execute(ctx context.Context, input *Input) *Output {
	city := strings.TrimSpace(input.City)
	if city == "" {
		city = h.config.City
	}

	now := h.now()
	at := now
	if input.Date != "" {
		d := models.ParsedQuery{Date: input.Date}.TargetDate(now)
		at = time.Date(d.Year(), d.Month(), d.Day(), now.Hour(), now.Minute(), 0, 0, now.Location())
	}

	reading := h.reading(ctx, city, at)
	sig := Analyze(reading)
	sig.Insights = h.insights(ctx, sig, input.Message)

	h.logger.Info("weather signal computed", map[string]interface{}{
		"city":        reading.City,
		"source":      reading.Source,
		"temperature": reading.Temperature,
		"conditions":  sig.Conditions,
		"boost":       sig.WeatherBoost,
		"advised":     sig.Insights != nil,
	})
	return &Output{WeatherSignal: sig}
}

// reading asks the live provider only for today. It reports current
// conditions, so any other day is simulated and never cached.
func (h *Handler) reading(ctx context.Context, city string, at time.Time) models.WeatherReading {
	if h.live == nil || !sameDay(at, h.now()) {
		return h.simulator.Reading(city, at)
	}

	key := cacheKey(city, at)
	if h.cache != nil {
		if r, ok := h.cache.Get(ctx, key); ok {
			metrics.WeatherCacheLookups.WithLabelValues("hit").Inc()
			return r
		}
		metrics.WeatherCacheLookups.WithLabelValues("miss").Inc()
	}

	r, err := h.live.Fetch(ctx, city, at)
	if err != nil {
		reason := "api_failed"
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			reason = "timeout"
		}
		metrics.AdvisorFallbacks.WithLabelValues("weather", reason).Inc()
		stdErr := apperrors.NewWeatherFetchFailedError(city, err)
		h.logger.Warn("weather fetch failed, simulating", map[string]interface{}{
			"errorCode": stdErr.Code,
			"details":   stdErr.Details,
		})
		return h.simulator.Reading(city, at)
	}

	if h.cache != nil {
		h.cache.Set(ctx, key, r)
	}
	return r
}

// insights asks the model for selling advice. Any failure leaves the
// signal as computed.
func (h *Handler) insights(ctx context.Context, sig models.WeatherSignal, message string) *models.WeatherInsights {
	if h.advisor == nil || strings.TrimSpace(message) == "" {
		return nil
	}
	in, err := h.advisor.advise(ctx, sig, message)
	if err != nil {
		metrics.AdvisorFallbacks.WithLabelValues("weather_advice", genai.Reason(err)).Inc()
		h.logger.Warn("weather advice unavailable", map[string]interface{}{"error": err.Error()})
		return nil
	}
	return in
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Execute never fails: a failed fetch is replaced by a simulated reading.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input), nil
}
