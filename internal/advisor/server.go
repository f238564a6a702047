package advisor

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"margadarshak/internal/common/logger"
	"margadarshak/internal/common/validation"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxBodyBytes = 64 << 10

var chatRequestSchema = validation.MustCompile(`{
	"type": "object",
	"properties": {
		"message":  {"type": "string", "maxLength": 2000},
		"location": {"type": "string", "maxLength": 100},
		"budget":   {"type": "number"},
		"date":     {"type": "string", "pattern": "^[0-9]{4}-[0-9]{2}-[0-9]{2}$"},
		"phone":    {"type": "string", "pattern": "^\\+?[0-9]{8,15}$"},
		"email":    {"type": "string", "format": "email"}
	}
}`)

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

type ServerConfig struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server exposes the advisor over HTTP together with the operational endpoints.
type Server struct {
	advisor *Advisor
	checks  map[string]ReadinessCheck
	logger  logger.Logger
	http    *http.Server
}

func NewServer(config ServerConfig, a *Advisor, checks map[string]ReadinessCheck, log logger.Logger) *Server {
	s := &Server{
		advisor: a,
		checks:  checks,
		logger:  log.WithFields(map[string]interface{}{"component": "http"}),
	}
	s.http = &http.Server{
		Addr:         config.Address,
		Handler:      s.Handler(),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

// ListenAndServe blocks until the server stops. A clean Shutdown returns nil.
func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", map[string]interface{}{"address": s.http.Addr})
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "could not read request body"})
		return
	}

	if result := chatRequestSchema.ValidateJSON(body); !result.Valid {
		s.logger.Info("rejected chat request", map[string]interface{}{"errors": result.Error()})
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":   "invalid request",
			"details": result.Errors,
		})
		return
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "invalid request"})
		return
	}

	writeJSON(w, http.StatusOK, s.advisor.Ask(r.Context(), req))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	failed := map[string]string{}
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		s.logger.Warn("readiness check failed", map[string]interface{}{"failed": failed})
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status": "not_ready",
			"failed": failed,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
