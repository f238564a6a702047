package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"margadarshak/internal/advisor"
	"margadarshak/internal/common/camunda"
	"margadarshak/internal/common/config"
	"margadarshak/internal/common/logger"
	formatadvice "margadarshak/internal/workers/advisor/format-advice"
	parsevendorquery "margadarshak/internal/workers/advisor/parse-vendor-query"
	synthesizerecommendations "margadarshak/internal/workers/advisor/synthesize-recommendations"
	calculateprofitability "margadarshak/internal/workers/signals/calculate-profitability"
	gatherdemand "margadarshak/internal/workers/signals/gather-demand"
	gatherweather "margadarshak/internal/workers/signals/gather-weather"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:          "advisor",
		Short:        "Business advice for street vendors",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to a YAML config file (default: ./configs/config.yaml)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override logging.level")

	root.AddCommand(newServeCmd(opts), newAskCmd(opts), newWorkersCmd(opts))
	return root
}

func loadConfig(opts *rootOptions) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.LoadFromFile(opts.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	return cfg, nil
}

func setup(opts *rootOptions) (*config.Config, *zap.Logger, logger.Logger, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("config load failed: %w", err)
	}
	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	return cfg, zapLog, logger.NewZapAdapter(zapLog), nil
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the chat endpoint with health and metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, zapLog, log, err := setup(opts)
			if err != nil {
				return err
			}
			defer zapLog.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a := newApp(ctx, cfg, log, true)
			defer a.close()

			return runServer(ctx, a)
		},
	}
}

func newWorkersCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "workers",
		Short: "Register every pipeline stage as a Zeebe job worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, zapLog, log, err := setup(opts)
			if err != nil {
				return err
			}
			defer zapLog.Sync()

			if cfg.Camunda.BrokerAddress == "" {
				return errors.New("camunda.broker_address is required to run workers")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a := newApp(ctx, cfg, log, true)
			defer a.close()

			zc, err := camunda.Connect(ctx, cfg.Camunda, camunda.DefaultRetryConfig, log)
			if err != nil {
				return err
			}
			a.closers = append(a.closers, zc.Close)
			a.checks["zeebe"] = zc.HealthCheck

			started := registerWorkers(zc, cfg, a.handlers, log)
			log.Info("workers registered", map[string]interface{}{"taskTypes": started})

			return runServer(ctx, a)
		},
	}
}

type workerStarter interface {
	StartWorker(taskType string, wcfg config.WorkerConfig, handler func(worker.JobClient, entities.Job))
}

// registerWorkers starts a job worker for every enabled stage and returns the
// task types it started.
func registerWorkers(zc workerStarter, cfg *config.Config, h handlers, log logger.Logger) []string {
	var started []string
	for _, w := range []struct {
		taskType string
		handle   func(worker.JobClient, entities.Job)
	}{
		{parsevendorquery.TaskType, h.interpret.Handle},
		{gatherdemand.TaskType, h.demand.Handle},
		{gatherweather.TaskType, h.weather.Handle},
		{calculateprofitability.TaskType, h.profit.Handle},
		{synthesizerecommendations.TaskType, h.synth.Handle},
		{formatadvice.TaskType, h.format.Handle},
	} {
		if !config.IsWorkerEnabled(cfg, w.taskType) {
			log.Info("worker disabled, skipping", map[string]interface{}{"taskType": w.taskType})
			continue
		}
		wcfg := config.GetWorkerConfig(cfg, w.taskType)
		if wcfg.MaxJobsActive == 0 {
			wcfg.MaxJobsActive = cfg.Camunda.MaxJobsActive
		}
		zc.StartWorker(w.taskType, wcfg, w.handle)
		started = append(started, w.taskType)
	}
	return started
}

func runServer(ctx context.Context, a *app) error {
	cfg := a.cfg
	server := advisor.NewServer(advisor.ServerConfig{
		Address:      cfg.Server.Address,
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}, a.advisor, a.checks, a.log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info("shutdown signal received", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	a.log.Info("stopped gracefully", nil)
	return nil
}

type askOptions struct {
	location string
	budget   float64
	date     string
	phone    string
	email    string
	asJSON   bool
}

func newAskCmd(opts *rootOptions) *cobra.Command {
	ask := &askOptions{}
	cmd := &cobra.Command{
		Use:   `ask "<message>"`,
		Short: "Ask for advice once and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, zapLog, log, err := setup(opts)
			if err != nil {
				return err
			}
			defer zapLog.Sync()

			a := newApp(cmd.Context(), cfg, log, false)
			defer a.close()

			req := advisor.Request{
				Message:  strings.Join(args, " "),
				Location: ask.location,
				Date:     ask.date,
				Phone:    ask.phone,
				Email:    ask.email,
			}
			if cmd.Flags().Changed("budget") {
				req.Budget = &ask.budget
			}

			resp := a.advisor.Ask(cmd.Context(), req)
			out := cmd.OutOrStdout()
			if ask.asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}
			_, err = fmt.Fprintln(out, resp.Reply)
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&ask.location, "location", "", "locality, overrides the one in the message")
	f.Float64Var(&ask.budget, "budget", 0, "budget in rupees, overrides the one in the message")
	f.StringVar(&ask.date, "date", "", "target date (YYYY-MM-DD)")
	f.StringVar(&ask.phone, "phone", "", "also send the reply by SMS")
	f.StringVar(&ask.email, "email", "", "also send the reply by email")
	f.BoolVar(&ask.asJSON, "json", false, "print the full response as JSON")
	return cmd
}
