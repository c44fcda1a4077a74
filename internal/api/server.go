// internal/api/server.go
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/newthinker/vcpscan/internal/api/job"
	"github.com/newthinker/vcpscan/internal/api/response"
	"github.com/newthinker/vcpscan/internal/app"
	"github.com/newthinker/vcpscan/internal/core"
	"github.com/newthinker/vcpscan/internal/metrics"
	"github.com/newthinker/vcpscan/internal/scanner"
)

// Config holds server configuration
type Config struct {
	Host        string
	Port        int
	JobTTL      time.Duration
	MaxJobs     int
	MetricsPath string
}

// Server exposes the scan and backtest pipelines over HTTP.
type Server struct {
	httpServer *http.Server
	app        *app.App
	jobs       *job.Store
	logger     *zap.Logger
	metrics    *metrics.Registry
	mux        *http.ServeMux
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, application *app.App, reg *metrics.Registry, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxJobs <= 0 {
		cfg.MaxJobs = 100
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = time.Hour
	}

	mux := http.NewServeMux()

	s := &Server{
		app:     application,
		jobs:    job.NewStore(cfg.MaxJobs, cfg.JobTTL),
		logger:  logger,
		metrics: reg,
		mux:     mux,
	}

	var handler http.Handler = mux
	if reg != nil {
		handler = metrics.HTTPMiddleware(reg)(mux)
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.setupRoutes(cfg.MetricsPath)
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(metricsPath string) {
	s.mux.HandleFunc("POST /api/scan", s.handleScan)
	s.mux.HandleFunc("POST /api/backtest", s.handleBacktest)
	s.mux.HandleFunc("GET /api/jobs/{id}", s.handleJob)
	s.mux.HandleFunc("GET /api/jobs/{id}/csv", s.handleJobCSV)
	s.mux.HandleFunc("GET /api/health", s.handleHealth)

	if s.metrics != nil {
		if metricsPath == "" {
			metricsPath = "/metrics"
		}
		s.mux.Handle("GET "+metricsPath,
			promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// scanRequest is the JSON body for POST /api/scan.
type scanRequest struct {
	Tickers []string `json:"tickers"`
}

// backtestRequest is the JSON body for POST /api/backtest.
type backtestRequest struct {
	Tickers []string `json:"tickers"`
	From    string   `json:"from"` // YYYY-MM-DD
	To      string   `json:"to"`
}

// handleScan accepts a watchlist as JSON or as an uploaded CSV and
// starts an async ranking job. In-flight work for an abandoned job
// completes and its result is simply never read.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	symbols, err := s.readSymbols(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrConfigInvalid, err))
		return
	}

	j := s.jobs.Create("scan")
	go func() {
		s.jobs.SetRunning(j.ID)
		results := s.app.Scan(context.Background(), symbols)
		s.jobs.SetComplete(j.ID, results)
	}()

	response.JSON(w, http.StatusAccepted, j)
}

// handleBacktest starts an async backtest job over a date range.
func (s *Server) handleBacktest(w http.ResponseWriter, r *http.Request) {
	var req backtestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrConfigInvalid, fmt.Errorf("decoding body: %w", err)))
		return
	}
	if len(req.Tickers) == 0 {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrConfigInvalid, fmt.Errorf("tickers are required")))
		return
	}

	from, err := time.Parse("2006-01-02", req.From)
	if err != nil {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrConfigInvalid, fmt.Errorf("invalid from date: %w", err)))
		return
	}
	to, err := time.Parse("2006-01-02", req.To)
	if err != nil {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrConfigInvalid, fmt.Errorf("invalid to date: %w", err)))
		return
	}
	if to.Before(from) {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrConfigInvalid, fmt.Errorf("end date must be after start date")))
		return
	}

	j := s.jobs.Create("backtest")
	go func() {
		s.jobs.SetRunning(j.ID)
		summary := s.app.Backtest(context.Background(), req.Tickers, from, to)
		s.jobs.SetComplete(j.ID, summary)
	}()

	response.JSON(w, http.StatusAccepted, j)
}

// handleJob returns job status and, once complete, its result.
func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	j, err := s.jobs.Get(r.PathValue("id"))
	if err != nil {
		response.Error(w, http.StatusNotFound, err)
		return
	}
	response.JSON(w, http.StatusOK, j)
}

// handleJobCSV exports a completed scan job as CSV.
func (s *Server) handleJobCSV(w http.ResponseWriter, r *http.Request) {
	j, err := s.jobs.Get(r.PathValue("id"))
	if err != nil {
		response.Error(w, http.StatusNotFound, err)
		return
	}
	if j.Status != job.StatusComplete {
		response.Error(w, http.StatusConflict,
			core.WrapError(core.ErrJobNotFound, fmt.Errorf("job not complete: %s", j.Status)))
		return
	}

	results, ok := j.Result.([]core.RankedResult)
	if !ok {
		response.Error(w, http.StatusConflict,
			core.WrapError(core.ErrJobNotFound, fmt.Errorf("job %s has no tabular result", j.Type)))
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="vcp_scan.csv"`)
	if err := scanner.WriteCSV(w, results); err != nil {
		s.logger.Warn("csv export failed", zap.Error(err))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readSymbols extracts ticker symbols from a JSON body or an uploaded
// CSV, depending on content type.
func (s *Server) readSymbols(r *http.Request) ([]string, error) {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "text/csv") {
		return scanner.ParseWatchlist(r.Body)
	}

	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, fmt.Errorf("decoding body: %w", err)
	}
	if len(req.Tickers) == 0 {
		return nil, fmt.Errorf("tickers are required")
	}

	symbols := make([]string, 0, len(req.Tickers))
	for _, t := range req.Tickers {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t != "" {
			symbols = append(symbols, t)
		}
	}
	return symbols, nil
}
