package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ThomasGit2000/trading-bot/internal/api/handler"
	"github.com/ThomasGit2000/trading-bot/internal/api/job"
	"github.com/ThomasGit2000/trading-bot/internal/api/middleware"
	"github.com/ThomasGit2000/trading-bot/internal/api/response"
	"github.com/ThomasGit2000/trading-bot/internal/app"
	"github.com/ThomasGit2000/trading-bot/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server represents the HTTP server for the backtester
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
	handler    http.Handler
}

// Config holds server configuration
type Config struct {
	Host        string
	Port        int
	APIKey      string
	MetricsPath string
	ReplayDelay time.Duration
}

// Dependencies are the services the routes call into.
type Dependencies struct {
	App  *app.App
	Jobs *job.Store
	// Metrics is optional; without it /metrics is not served.
	Metrics *metrics.Registry
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, deps Dependencies, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.App == nil {
		return nil, fmt.Errorf("server needs an app")
	}
	if deps.Jobs == nil {
		deps.Jobs = job.NewStore(100, time.Hour)
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}

	s := &Server{
		logger: logger,
		mux:    http.NewServeMux(),
	}
	s.setupRoutes(cfg, deps)

	// metrics sits inside logging so it sees the matched route pattern
	var h http.Handler = s.mux
	h = middleware.APIKeyAuth(cfg.APIKey, "/api/health", cfg.MetricsPath)(h)
	if deps.Metrics != nil {
		h = metrics.HTTPMiddleware(deps.Metrics)(h)
	}
	h = metrics.LoggingMiddleware(logger)(h)
	s.handler = h

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // the state stream is long-lived
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(cfg Config, deps Dependencies) {
	backtests := handler.NewBacktestHandler(deps.Jobs, deps.App, deps.Metrics, cfg.ReplayDelay, s.logger)
	state := handler.NewStateHandler(deps.App.Hub())
	runs := handler.NewRunsHandler(deps.App.Results(), deps.App.Presets())

	s.mux.HandleFunc("GET /api/health", s.handleHealth)

	s.mux.HandleFunc("POST /api/backtest", backtests.Create)
	s.mux.HandleFunc("GET /api/jobs", backtests.List)
	s.mux.HandleFunc("GET /api/jobs/{id}", backtests.Get)

	s.mux.HandleFunc("GET /api/state", state.Latest)
	s.mux.HandleFunc("GET /api/state/stream", state.Stream)

	s.mux.HandleFunc("GET /api/runs", runs.List)
	s.mux.HandleFunc("GET /api/runs/{id}", runs.Get)
	s.mux.HandleFunc("GET /api/presets", runs.Presets)

	if deps.Metrics != nil {
		s.mux.Handle("GET "+cfg.MetricsPath, promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}
}

// Handler returns the fully wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.handler
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

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
