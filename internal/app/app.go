// Package app wires providers, the backtester, persistence and the snapshot
// hub into the operations exposed by the CLI and the HTTP API.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThomasGit2000/trading-bot/internal/alert"
	"github.com/ThomasGit2000/trading-bot/internal/backtest"
	"github.com/ThomasGit2000/trading-bot/internal/config"
	"github.com/ThomasGit2000/trading-bot/internal/earnings"
	"github.com/ThomasGit2000/trading-bot/internal/metrics"
	"github.com/ThomasGit2000/trading-bot/internal/notifier"
	"github.com/ThomasGit2000/trading-bot/internal/snapshot"
	"github.com/ThomasGit2000/trading-bot/internal/storage/archive"
	"github.com/ThomasGit2000/trading-bot/internal/storage/results"
	"github.com/ThomasGit2000/trading-bot/internal/strategy"
	"go.uber.org/zap"
)

// App is the main application orchestrator
type App struct {
	cfg       *config.Config
	logger    *zap.Logger
	metrics   *metrics.Registry
	presets   *strategy.Presets
	provider  backtest.OHLCVProvider
	earnings  *earnings.Calendar
	hub       *snapshot.Hub
	results   results.Store
	archive   *archive.Results
	notifiers *notifier.Registry
	alerts    *alert.Evaluator
}

// Option configures an App.
type Option func(*App)

// WithProvider replaces the provider built from the data config.
func WithProvider(p backtest.OHLCVProvider) Option {
	return func(a *App) { a.provider = p }
}

// WithMetrics records runs in m.
func WithMetrics(m *metrics.Registry) Option {
	return func(a *App) { a.metrics = m }
}

// WithHub publishes replayed runs to h.
func WithHub(h *snapshot.Hub) Option {
	return func(a *App) { a.hub = h }
}

// WithResultStore saves a summary of every run.
func WithResultStore(s results.Store) Option {
	return func(a *App) { a.results = s }
}

// WithArchive saves the full document of every run.
func WithArchive(r *archive.Results) Option {
	return func(a *App) { a.archive = r }
}

// WithEarnings replaces the calendar named by the config.
func WithEarnings(c *earnings.Calendar) Option {
	return func(a *App) { a.earnings = c }
}

// WithNotifiers replaces the notifiers built from the notify config.
func WithNotifiers(r *notifier.Registry) Option {
	return func(a *App) { a.notifiers = r }
}

// New creates an App from cfg. Persistence is only enabled through options;
// Open builds it from the config.
func New(cfg *config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		cfg = config.Defaults()
	}

	a := &App{
		cfg:     cfg,
		logger:  logger,
		presets: strategy.Builtin(logger),
		hub:     snapshot.NewHub(),
		alerts:  alert.NewEvaluator(cfg.Notify.Rules, cfg.Notify.Cooldown),
	}
	for _, opt := range opts {
		opt(a)
	}

	for name, preset := range cfg.Presets {
		if err := a.presets.Register(name, preset); err != nil {
			return nil, err
		}
	}

	if a.provider == nil {
		p, err := NewProvider(cfg.Data, logger, a.metrics)
		if err != nil {
			return nil, err
		}
		a.provider = p
	}

	if a.notifiers == nil {
		reg, err := Notifiers(cfg.Notify)
		if err != nil {
			return nil, err
		}
		a.notifiers = reg
	}

	if a.earnings == nil {
		cal, err := loadEarnings(cfg.Backtest, logger)
		if err != nil {
			return nil, err
		}
		a.earnings = cal
	}

	return a, nil
}

// Open is New plus the result store and archive named by cfg.Storage.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var (
		store     results.Store
		storeOpts []Option
	)
	closeStore := func() {
		if store != nil {
			store.Close()
		}
	}

	if dsn := cfg.Storage.Results.DSN; dsn != "" {
		var err error
		store, err = results.Open(ctx, dsn, logger)
		if err != nil {
			return nil, fmt.Errorf("opening result store: %w", err)
		}
		storeOpts = append(storeOpts, WithResultStore(store))
	}

	backend, err := openArchive(cfg.Storage.Archive)
	if err != nil {
		closeStore()
		return nil, err
	}
	if backend != nil {
		storeOpts = append(storeOpts, WithArchive(archive.NewResults(backend)))
	}

	a, err := New(cfg, logger, append(storeOpts, opts...)...)
	if err != nil {
		closeStore()
		return nil, err
	}
	return a, nil
}

func openArchive(cfg config.ArchiveConfig) (archive.Backend, error) {
	switch cfg.Type {
	case "":
		return nil, nil
	case "localfs":
		return archive.NewLocalFS(cfg.Path)
	case "s3":
		return archive.NewS3(cfg.S3)
	default:
		return nil, fmt.Errorf("unknown archive type %q", cfg.Type)
	}
}

func loadEarnings(cfg config.BacktestConfig, logger *zap.Logger) (*earnings.Calendar, error) {
	switch {
	case cfg.EarningsFile != "":
		return earnings.Load(cfg.EarningsFile, logger)
	case cfg.SampleEarnings:
		logger.Warn("using the built-in sample earnings calendar, results include lookahead")
		return earnings.Sample(), nil
	default:
		return nil, nil
	}
}

// Close releases the result store.
func (a *App) Close() error {
	var errs []error
	if a.results != nil {
		errs = append(errs, a.results.Close())
	}
	return errors.Join(errs...)
}

// Presets returns the strategy presets: the built-in sets plus the config's.
func (a *App) Presets() *strategy.Presets {
	return a.presets
}

// Hub returns the snapshot hub replays publish to.
func (a *App) Hub() *snapshot.Hub {
	return a.hub
}

// Results returns the run summary store, or nil when persistence is off.
func (a *App) Results() results.Store {
	return a.results
}

// Archive returns the run document archive, or nil when it is off.
func (a *App) Archive() *archive.Results {
	return a.archive
}

// Earnings returns the loaded calendar, or nil.
func (a *App) Earnings() *earnings.Calendar {
	return a.earnings
}
