// Package advisor runs one vendor message through the advice pipeline:
// interpret, gather demand and weather, price the candidate products,
// synthesize recommendations and format the reply.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"margadarshak/internal/common/logger"
	"margadarshak/internal/common/metrics"
	"margadarshak/internal/common/notify"
	"margadarshak/internal/common/observability"
	"margadarshak/internal/models"
	formatadvice "margadarshak/internal/workers/advisor/format-advice"
	parsevendorquery "margadarshak/internal/workers/advisor/parse-vendor-query"
	synthesizerecommendations "margadarshak/internal/workers/advisor/synthesize-recommendations"
	calculateprofitability "margadarshak/internal/workers/signals/calculate-profitability"
	gatherdemand "margadarshak/internal/workers/signals/gather-demand"
	gatherweather "margadarshak/internal/workers/signals/gather-weather"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Stage names used for the duration histogram.
const (
	StageInterpret     = "interpret"
	StageSignals       = "signals"
	StageProfitability = "profitability"
	StageSynthesize    = "synthesize"
	StageFormat        = "format"
)

const (
	problemEmptyMessage = "Please type a message."
	problemLowBudget    = "Minimum budget ₹100 required."

	// Sent when even the apology template cannot be rendered.
	fallbackApology = "Sorry, I couldn't generate a response. Please try again."
)

var ErrStagePanic = errors.New("STAGE_PANIC")

type Interpreter interface {
	Execute(ctx context.Context, input *parsevendorquery.Input) (*parsevendorquery.Output, error)
}

type DemandGatherer interface {
	Execute(ctx context.Context, input *gatherdemand.Input) (*gatherdemand.Output, error)
}

type WeatherGatherer interface {
	Execute(ctx context.Context, input *gatherweather.Input) (*gatherweather.Output, error)
}

type ProfitabilityCalculator interface {
	Execute(ctx context.Context, input *calculateprofitability.Input) (*calculateprofitability.Output, error)
}

type Synthesizer interface {
	Execute(ctx context.Context, input *synthesizerecommendations.Input) (*synthesizerecommendations.Output, error)
}

type Formatter interface {
	Execute(ctx context.Context, input *formatadvice.Input) (*formatadvice.Output, error)
}

// Stages are the worker handlers the pipeline calls in-process.
type Stages struct {
	Interpreter   Interpreter
	Demand        DemandGatherer
	Weather       WeatherGatherer
	Profitability ProfitabilityCalculator
	Synthesizer   Synthesizer
	Formatter     Formatter
}

type Config struct {
	DefaultLocation string
	// City is passed to the weather lookup. Empty uses the gatherer's default.
	City           string
	MaxProducts    int
	RequestTimeout time.Duration
}

type Advisor struct {
	config   Config
	stages   Stages
	notifier *notify.Notifier
	obs      *observability.Observability
	logger   logger.Logger
}

// New wires the pipeline. notifier and obs may be nil.
func New(config Config, stages Stages, notifier *notify.Notifier, obs *observability.Observability, log logger.Logger) *Advisor {
	if config.MaxProducts <= 0 {
		config.MaxProducts = 3
	}
	return &Advisor{
		config:   config,
		stages:   stages,
		notifier: notifier,
		obs:      obs,
		logger:   log.WithFields(map[string]interface{}{"component": "advisor"}),
	}
}

type pipelineResult struct {
	query     models.ParsedQuery
	demand    models.DemandSummary
	weather   models.WeatherSignal
	synthesis models.Synthesis
}

// Ask answers one request. It always returns a reply: invalid input gets a
// corrective message and any stage failure or panic gets an apology.
func (a *Advisor) Ask(ctx context.Context, req Request) (resp Response) {
	start := time.Now()
	resp.RequestID = uuid.NewString()
	log := a.logger.WithFields(map[string]interface{}{"requestId": resp.RequestID})

	defer func() {
		if r := recover(); r != nil {
			log.Error("panic while advising", map[string]interface{}{
				"panic": fmt.Sprint(r),
				"stack": string(debug.Stack()),
			})
			resp = a.apology(ctx, resp.RequestID)
		}
		metrics.AdvisorRequests.WithLabelValues(string(resp.Outcome)).Inc()
		a.obs.RecordJobProcessed(ctx, string(resp.Outcome))
		a.obs.RecordJobDuration(ctx, time.Since(start), string(resp.Outcome))
	}()

	if problem := checkRequest(req); problem != "" {
		log.Info("invalid request", map[string]interface{}{"problem": problem})
		return a.invalid(ctx, resp.RequestID, problem)
	}

	if a.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.config.RequestTimeout)
		defer cancel()
	}

	res, err := a.run(ctx, req, log)
	if err != nil {
		log.Error("advice pipeline failed", map[string]interface{}{"error": err.Error()})
		return a.apology(ctx, resp.RequestID)
	}

	var out *formatadvice.Output
	err = a.stage(StageFormat, func() error {
		var ferr error
		out, ferr = a.stages.Formatter.Execute(ctx, &formatadvice.Input{
			Kind:          formatadvice.KindAdvice,
			RequestId:     resp.RequestID,
			ParsedQuery:   res.query,
			WeatherSignal: &res.weather,
			DemandSummary: &res.demand,
			Synthesis:     &res.synthesis,
		})
		return ferr
	})
	if err != nil {
		log.Error("formatting failed", map[string]interface{}{"error": err.Error()})
		return a.apology(ctx, resp.RequestID)
	}

	query := res.query
	resp.Reply = out.Message
	resp.ParsedQuery = &query
	resp.Viable = res.synthesis.Viable
	resp.AIPowered = res.synthesis.AIPowered
	resp.Recommendations = res.synthesis.Recommendations
	resp.Outcome = OutcomeAdvised
	if !resp.Viable {
		resp.Outcome = OutcomeNoViable
	}

	resp.Delivered = a.deliver(ctx, req, resp.Reply)

	log.Info("advice sent", map[string]interface{}{
		"outcome":   resp.Outcome,
		"location":  query.Location,
		"budget":    query.Budget,
		"aiPowered": resp.AIPowered,
		"duration":  time.Since(start).String(),
	})
	return resp
}

func checkRequest(req Request) string {
	if strings.TrimSpace(req.Message) == "" {
		return problemEmptyMessage
	}
	if req.Budget != nil && *req.Budget < models.MinBudget {
		return problemLowBudget
	}
	return ""
}

func (a *Advisor) run(ctx context.Context, req Request, log logger.Logger) (*pipelineResult, error) {
	var res pipelineResult

	err := a.stage(StageInterpret, func() error {
		out, err := a.stages.Interpreter.Execute(ctx, &parsevendorquery.Input{Message: req.Message})
		if err != nil {
			return fmt.Errorf("interpret: %w", err)
		}
		res.query = a.applyOverrides(out.ParsedQuery, req)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = a.stage(StageSignals, func() error {
		g, gctx := errgroup.WithContext(ctx)
		goSafe(g, "demand", func() error {
			out, err := a.stages.Demand.Execute(gctx, &gatherdemand.Input{
				Location: res.query.Location,
				Date:     res.query.Date,
			})
			if err != nil {
				return fmt.Errorf("demand: %w", err)
			}
			if out.DemandSummary == nil {
				return errors.New("demand: no summary returned")
			}
			res.demand = *out.DemandSummary
			return nil
		})
		goSafe(g, "weather", func() error {
			out, err := a.stages.Weather.Execute(gctx, &gatherweather.Input{
				City:    a.config.City,
				Date:    res.query.Date,
				Message: res.query.OriginalMessage,
			})
			if err != nil {
				return fmt.Errorf("weather: %w", err)
			}
			res.weather = out.WeatherSignal
			return nil
		})
		return g.Wait()
	})
	if err != nil {
		return nil, err
	}

	var priced []models.ProfitabilityResult
	err = a.stage(StageProfitability, func() error {
		var perr error
		priced, perr = a.price(ctx, res, log)
		return perr
	})
	if err != nil {
		return nil, err
	}

	err = a.stage(StageSynthesize, func() error {
		out, err := a.stages.Synthesizer.Execute(ctx, &synthesizerecommendations.Input{
			ParsedQuery:   res.query,
			DemandSummary: res.demand,
			WeatherSignal: res.weather,
			Profitability: priced,
			Budget:        res.query.Budget,
		})
		if err != nil {
			return fmt.Errorf("synthesize: %w", err)
		}
		res.synthesis = out.Synthesis
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &res, nil
}

// price runs the calculator for every candidate in parallel. Products the
// catalog does not stock are skipped.
func (a *Advisor) price(ctx context.Context, res pipelineResult, log logger.Logger) ([]models.ProfitabilityResult, error) {
	pool := synthesizerecommendations.CandidatePool(res.demand, res.weather)
	budget := synthesizerecommendations.AnalysisBudget(res.query.Budget, len(pool), a.config.MaxProducts)

	results := make([]*models.ProfitabilityResult, len(pool))
	g, gctx := errgroup.WithContext(ctx)
	for i, product := range pool {
		goSafe(g, "profitability", func() error {
			out, err := a.stages.Profitability.Execute(gctx, &calculateprofitability.Input{
				Product:  product,
				Location: res.query.Location,
				Budget:   budget,
				Message:  res.query.OriginalMessage,
			})
			if errors.Is(err, calculateprofitability.ErrUnknownProduct) {
				metrics.AdvisorFallbacks.WithLabelValues("profitability", "unknown_product").Inc()
				log.Debug("candidate not in catalog", map[string]interface{}{"product": product})
				return nil
			}
			if err != nil {
				return fmt.Errorf("profitability %s: %w", product, err)
			}
			results[i] = &out.Profitability
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	priced := make([]models.ProfitabilityResult, 0, len(results))
	for _, r := range results {
		if r != nil {
			priced = append(priced, *r)
		}
	}
	return priced, nil
}

// applyOverrides lets pre-parsed request fields replace what the interpreter
// read from the message.
func (a *Advisor) applyOverrides(q models.ParsedQuery, req Request) models.ParsedQuery {
	overridden := false
	if loc := strings.TrimSpace(req.Location); loc != "" {
		q.Location = parsevendorquery.CanonicalLocation(loc, a.config.DefaultLocation)
		overridden = true
	}
	if req.Budget != nil {
		q.Budget = models.ClampRequestBudget(*req.Budget)
		overridden = true
	}
	if req.Date != "" {
		q.Date = req.Date
		overridden = true
	}
	if overridden {
		q.Method = models.ParseMethodPreParsed
	}
	return q
}

func (a *Advisor) deliver(ctx context.Context, req Request, reply string) []string {
	if a.notifier == nil || (req.Phone == "" && req.Email == "") {
		return nil
	}
	res := a.notifier.Deliver(ctx, notify.Recipient{Phone: req.Phone, Email: req.Email}, reply)
	return res.Sent
}

func (a *Advisor) invalid(ctx context.Context, requestID, problem string) Response {
	resp := Response{RequestID: requestID, Outcome: OutcomeInvalid}
	out, err := a.stages.Formatter.Execute(ctx, &formatadvice.Input{
		Kind:      formatadvice.KindInvalidInput,
		RequestId: requestID,
		Problem:   problem,
	})
	if err != nil {
		resp.Reply = problem
		return resp
	}
	resp.Reply = out.Message
	return resp
}

// apology never panics; a formatter failure falls back to a fixed sentence.
func (a *Advisor) apology(ctx context.Context, requestID string) (resp Response) {
	resp = Response{RequestID: requestID, Outcome: OutcomeFailed, Reply: fallbackApology}
	defer func() {
		if r := recover(); r != nil {
			resp.Reply = fallbackApology
		}
	}()

	out, err := a.stages.Formatter.Execute(ctx, &formatadvice.Input{
		Kind:      formatadvice.KindApology,
		RequestId: requestID,
	})
	if err == nil {
		resp.Reply = out.Message
	}
	return resp
}

func (a *Advisor) stage(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.AdvisorStageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	return err
}

// goSafe runs fn on g and turns a panic into an error so the group's caller
// sees it instead of the process crashing.
func goSafe(g *errgroup.Group, name string, fn func() error) {
	g.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%w: %s: %v", ErrStagePanic, name, r)
			}
		}()
		return fn()
	})
}
