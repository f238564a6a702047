// Package camunda connects to a Zeebe gateway and registers the advice
// stages as job workers.
package camunda

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"margadarshak/internal/common/config"
	"margadarshak/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// RetryConfig bounds the exponential backoff used while connecting.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

var DefaultRetryConfig = RetryConfig{
	MaxRetries: 10,
	BaseDelay:  2 * time.Second,
	MaxDelay:   30 * time.Second,
}

// Client wraps the Zeebe client and tracks the workers opened through it.
type Client struct {
	client         zbc.Client
	requestTimeout time.Duration
	logger         logger.Logger

	mu      sync.Mutex
	workers []worker.JobWorker
}

// Connect dials the gateway and waits for a topology reply, retrying
// transient failures.
func Connect(ctx context.Context, cfg config.CamundaConfig, retry RetryConfig, log logger.Logger) (*Client, error) {
	log = log.WithFields(map[string]interface{}{"component": "zeebe", "gateway": cfg.BrokerAddress})
	requestTimeout := config.GetDuration(cfg.RequestTimeout)

	var zc zbc.Client
	err := withRetry(ctx, retry, log, "zeebe connect", func(ctx context.Context) error {
		c, err := zbc.NewClient(&zbc.ClientConfig{
			GatewayAddress:         cfg.BrokerAddress,
			UsePlaintextConnection: true,
		})
		if err != nil {
			return err
		}

		tctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		if _, err := c.NewTopologyCommand().Send(tctx); err != nil {
			c.Close()
			return err
		}
		zc = c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Zeebe broker at %s: %w", cfg.BrokerAddress, err)
	}

	log.Info("zeebe client connected", nil)
	return &Client{client: zc, requestTimeout: requestTimeout, logger: log}, nil
}

// StartWorker opens a job worker for taskType unless it is disabled.
func (c *Client) StartWorker(taskType string, wcfg config.WorkerConfig, handler func(worker.JobClient, entities.Job)) {
	if !wcfg.Enabled {
		c.logger.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return
	}

	w := c.client.NewJobWorker().
		JobType(taskType).
		Handler(handler).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(config.GetDuration(wcfg.Timeout)).
		Open()

	c.mu.Lock()
	c.workers = append(c.workers, w)
	c.mu.Unlock()

	c.logger.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeout_ms":    wcfg.Timeout,
	})
}

// HealthCheck asks the broker for its topology.
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	if _, err := c.client.NewTopologyCommand().Send(ctx); err != nil {
		return fmt.Errorf("zeebe health check failed: %w", err)
	}
	return nil
}

// Close stops every worker and then the client.
func (c *Client) Close() error {
	c.mu.Lock()
	workers := c.workers
	c.workers = nil
	c.mu.Unlock()

	for _, w := range workers {
		w.Close()
		w.AwaitClose()
	}
	return c.client.Close()
}

// withRetry runs op until it succeeds, fails with a non-transient error or
// runs out of attempts.
func withRetry(ctx context.Context, cfg RetryConfig, log logger.Logger, operation string, op func(context.Context) error) error {
	attempts := max(cfg.MaxRetries, 1)
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryable(err) || attempt == attempts-1 {
			break
		}

		delay := min(cfg.BaseDelay*time.Duration(1<<attempt), cfg.MaxDelay)
		log.Warn(operation+" failed, retrying", map[string]interface{}{
			"error":       err.Error(),
			"attempt":     attempt + 1,
			"maxRetries":  attempts,
			"nextRetryIn": delay.String(),
		})

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("%s cancelled after %d attempts: %w", operation, attempt+1, ctx.Err())
		}
	}

	return fmt.Errorf("%s failed: %w", operation, lastErr)
}

var retryablePhrases = []string{
	"connection refused",
	"connection reset",
	"timeout",
	"deadline exceeded",
	"unavailable",
	"unreachable",
	"broken pipe",
}

func isRetryable(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, phrase := range retryablePhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}
