package main

import (
	"context"
	"time"

	"margadarshak/internal/advisor"
	"margadarshak/internal/common/config"
	"margadarshak/internal/common/database"
	"margadarshak/internal/common/genai"
	"margadarshak/internal/common/logger"
	"margadarshak/internal/common/notify"
	"margadarshak/internal/common/observability"
	"margadarshak/internal/tables"
	formatadvice "margadarshak/internal/workers/advisor/format-advice"
	parsevendorquery "margadarshak/internal/workers/advisor/parse-vendor-query"
	synthesizerecommendations "margadarshak/internal/workers/advisor/synthesize-recommendations"
	calculateprofitability "margadarshak/internal/workers/signals/calculate-profitability"
	gatherdemand "margadarshak/internal/workers/signals/gather-demand"
	gatherweather "margadarshak/internal/workers/signals/gather-weather"
)

const tableLoadTimeout = 30 * time.Second

type handlers struct {
	interpret *parsevendorquery.Handler
	demand    *gatherdemand.Handler
	weather   *gatherweather.Handler
	profit    *calculateprofitability.Handler
	synth     *synthesizerecommendations.Handler
	format    *formatadvice.Handler
}

// app holds everything the commands share. close releases it in reverse
// order of acquisition.
type app struct {
	cfg      *config.Config
	log      logger.Logger
	obs      *observability.Observability
	handlers handlers
	advisor  *advisor.Advisor
	checks   map[string]advisor.ReadinessCheck
	closers  []func() error
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("close failed", map[string]interface{}{"error": err.Error()})
		}
	}
	a.obs.Shutdown()
}

func newApp(ctx context.Context, cfg *config.Config, log logger.Logger, withMeter bool) *app {
	a := &app{
		cfg:    cfg,
		log:    log,
		checks: map[string]advisor.ReadinessCheck{},
	}

	if withMeter {
		obs, err := observability.New(cfg.App.Name)
		if err != nil {
			log.Warn("OpenTelemetry meter unavailable", map[string]interface{}{"error": err.Error()})
		}
		a.obs = obs
	}

	catalog := a.loadCatalog(ctx)
	cache := a.weatherCache(ctx)

	var llm genai.Chatter
	if cfg.APIs.GenAI.APIKey != "" {
		llm = genai.NewClient(cfg.APIs.GenAI.BaseURL, cfg.APIs.GenAI.APIKey)
	} else {
		log.Info("no language model key, using rule-based interpreter and ranking without advice", nil)
	}
	llmTimeout := config.GetDuration(cfg.APIs.GenAI.Timeout)

	interpretCfg := parsevendorquery.LoadConfig()
	interpretCfg.Model = cfg.APIs.GenAI.Model
	interpretCfg.Timeout = llmTimeout
	interpretCfg.DefaultLocation = cfg.Advisor.DefaultLocation
	interpretCfg.DefaultBudget = cfg.Advisor.DefaultBudget

	demandCfg := gatherdemand.LoadConfig()
	demandCfg.Timeout = workerTimeout(cfg, gatherdemand.TaskType)

	weatherCfg := gatherweather.LoadConfig()
	weatherCfg.BaseURL = cfg.APIs.Weather.BaseURL
	weatherCfg.APIKey = cfg.APIs.Weather.APIKey
	weatherCfg.City = cfg.APIs.Weather.City
	weatherCfg.Timeout = config.GetDuration(cfg.APIs.Weather.Timeout)
	weatherCfg.CacheTTL = config.GetDuration(cfg.Advisor.WeatherCacheTTL)
	weatherCfg.CacheSize = cfg.Advisor.WeatherCacheLRU
	if cfg.Advisor.SimulationSeed != 0 {
		weatherCfg.Seed = cfg.Advisor.SimulationSeed
	}
	weatherCfg.Model = cfg.APIs.GenAI.Model
	weatherCfg.AdviceTimeout = llmTimeout

	profitCfg := calculateprofitability.LoadConfig()
	profitCfg.Timeout = workerTimeout(cfg, calculateprofitability.TaskType)
	profitCfg.Model = cfg.APIs.GenAI.Model
	profitCfg.AdviceTimeout = llmTimeout

	synthCfg := synthesizerecommendations.LoadConfig()
	synthCfg.Model = cfg.APIs.GenAI.SynthesisModel
	synthCfg.Timeout = llmTimeout
	synthCfg.MinROI = cfg.Advisor.MinROI
	synthCfg.MaxProducts = cfg.Advisor.MaxProducts

	formatCfg := formatadvice.LoadConfig()
	if cfg.App.Version != "" {
		formatCfg.AppVersion = cfg.App.Version
	}

	a.handlers = handlers{
		interpret: parsevendorquery.NewHandler(interpretCfg, llm, advisor.InterpreterLogger(log)),
		demand:    gatherdemand.NewHandler(demandCfg, catalog, log),
		weather:   gatherweather.NewHandler(weatherCfg, cache, llm, log),
		profit:    calculateprofitability.NewHandler(profitCfg, catalog, llm, log),
		synth:     synthesizerecommendations.NewHandler(synthCfg, llm, advisor.SynthesizerLogger(log)),
		format:    formatadvice.NewHandler(formatCfg, log),
	}

	notifier, err := notify.New(ctx, cfg.Notifications, log)
	if err != nil {
		log.Warn("notifications disabled", map[string]interface{}{"error": err.Error()})
		notifier = nil
	}

	a.advisor = advisor.New(advisor.Config{
		DefaultLocation: cfg.Advisor.DefaultLocation,
		City:            cfg.APIs.Weather.City,
		MaxProducts:     cfg.Advisor.MaxProducts,
		RequestTimeout:  config.GetDuration(cfg.Advisor.RequestTimeout),
	}, advisor.Stages{
		Interpreter:   a.handlers.interpret,
		Demand:        a.handlers.demand,
		Weather:       a.handlers.weather,
		Profitability: a.handlers.profit,
		Synthesizer:   a.handlers.synth,
		Formatter:     a.handlers.format,
	}, notifier, a.obs, log)

	return a
}

func (a *app) loadCatalog(ctx context.Context) *tables.Catalog {
	cfg := a.cfg
	ctx, cancel := context.WithTimeout(ctx, tableLoadTimeout)
	defer cancel()

	var src tables.Source
	switch cfg.Data.Source {
	case config.DataSourceExcel:
		src = tables.NewExcelSource(cfg.Data.ExcelPath)

	case config.DataSourcePostgres:
		pg, err := database.OpenPostgres(ctx, cfg.Database.Postgres)
		if err != nil {
			a.log.Warn("postgres unavailable, using default tables", map[string]interface{}{"error": err.Error()})
			return tables.Defaults()
		}
		a.closers = append(a.closers, pg.Close)
		a.checks["postgres"] = pg.Ping
		src = tables.NewPostgresSource(pg.DB, tableLoadTimeout)

	case config.DataSourceElasticsearch:
		es, err := database.OpenElasticsearch(ctx, cfg.Database.Elasticsearch)
		if err != nil {
			a.log.Warn("elasticsearch unavailable, using default tables", map[string]interface{}{"error": err.Error()})
			return tables.Defaults()
		}
		a.checks["elasticsearch"] = es.Ping
		src = tables.NewElasticsearchSource(es.Client,
			cfg.Data.Indices.Sales, cfg.Data.Indices.Seasonal, cfg.Data.Indices.Demographics)
	}

	return tables.Build(ctx, src, a.log)
}

// weatherCache prefers Redis when an address is configured and falls back to
// an in-process LRU.
func (a *app) weatherCache(ctx context.Context) gatherweather.Cache {
	cfg := a.cfg
	ttl := config.GetDuration(cfg.Advisor.WeatherCacheTTL)

	if cfg.Database.Redis.Address != "" {
		rc, err := database.OpenRedis(ctx, cfg.Database.Redis)
		if err == nil {
			a.closers = append(a.closers, rc.Close)
			a.checks["redis"] = rc.Ping
			return gatherweather.NewRedisCache(rc.Client, ttl)
		}
		a.log.Warn("redis unavailable, using in-process weather cache", map[string]interface{}{"error": err.Error()})
	}

	lru, err := gatherweather.NewLRUCache(cfg.Advisor.WeatherCacheLRU, ttl)
	if err != nil {
		a.log.Warn("weather cache disabled", map[string]interface{}{"error": err.Error()})
		return nil
	}
	return lru
}

func workerTimeout(cfg *config.Config, taskType string) time.Duration {
	return config.GetDuration(config.GetWorkerConfig(cfg, taskType).Timeout)
}
