package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ThomasGit2000/trading-bot/internal/backtest"
	"github.com/ThomasGit2000/trading-bot/internal/collector"
	"github.com/ThomasGit2000/trading-bot/internal/core"
	"github.com/ThomasGit2000/trading-bot/internal/storage/archive"
	"github.com/ThomasGit2000/trading-bot/internal/storage/results"
	"github.com/ThomasGit2000/trading-bot/internal/strategy"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RunRequest names a run. Zero values fall back to the backtest section of
// the config; Config, when set, is used instead of a preset.
type RunRequest struct {
	Symbol         string           `json:"symbol"`
	Preset         string           `json:"preset,omitempty"`
	Period         string           `json:"period,omitempty"`
	InitialCapital float64          `json:"initial_capital,omitempty"`
	PositionSize   int              `json:"position_size,omitempty"`
	Config         *strategy.Config `json:"config,omitempty"`
}

// Outcome is a finished run with its benchmark and where it was archived.
type Outcome struct {
	RunID      string              `json:"run_id"`
	Preset     string              `json:"preset"`
	Config     backtest.RunConfig  `json:"config"`
	Result     *backtest.Result    `json:"result"`
	Benchmark  *backtest.Benchmark `json:"benchmark,omitempty"`
	ArchiveKey string              `json:"archive_key,omitempty"`
}

// Resolve fills the defaults of req and looks up its preset.
func (a *App) Resolve(req RunRequest) (backtest.RunConfig, string, error) {
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	if symbol == "" {
		return backtest.RunConfig{}, "", core.WrapError(core.ErrConfigMissing, fmt.Errorf("symbol is required"))
	}

	cfg := backtest.DefaultRunConfig(symbol)
	cfg.Period = firstNonEmpty(req.Period, a.cfg.Data.Period, cfg.Period)
	if err := collector.ValidatePeriod(cfg.Period); err != nil {
		return backtest.RunConfig{}, "", err
	}
	if req.InitialCapital != 0 {
		cfg.InitialCapital = req.InitialCapital
	} else if a.cfg.Backtest.InitialCapital != 0 {
		cfg.InitialCapital = a.cfg.Backtest.InitialCapital
	}
	if req.PositionSize != 0 {
		cfg.PositionSize = req.PositionSize
	} else if a.cfg.Backtest.PositionSize != 0 {
		cfg.PositionSize = a.cfg.Backtest.PositionSize
	}

	preset := "custom"
	if req.Config != nil {
		cfg.Strategy = *req.Config
	} else {
		preset = firstNonEmpty(req.Preset, a.cfg.Backtest.Strategy, "default")
		sc, err := a.presets.Lookup(preset)
		if err != nil {
			return backtest.RunConfig{}, "", err
		}
		cfg.Strategy = sc
	}

	if err := cfg.Validate(); err != nil {
		return backtest.RunConfig{}, "", err
	}
	return cfg, preset, nil
}

// Backtest runs req, records it and persists it when storage is enabled.
func (a *App) Backtest(ctx context.Context, req RunRequest) (*Outcome, error) {
	return a.run(ctx, req, nil, true)
}

// Replay runs req like Backtest and publishes every bar to the hub, pausing
// delay between bars.
func (a *App) Replay(ctx context.Context, req RunRequest, delay time.Duration) (*Outcome, error) {
	return a.run(ctx, req, &hubObserver{ctx: ctx, hub: a.hub, delay: delay, metrics: a.metrics}, true)
}

// run executes one backtest. Batch callers pass notify=false and send one
// batch report when they finish.
func (a *App) run(ctx context.Context, req RunRequest, observer backtest.Observer, notify bool) (*Outcome, error) {
	cfg, preset, err := a.Resolve(req)
	if err != nil {
		return nil, err
	}

	opts := []backtest.Option{backtest.WithLogger(a.logger)}
	if a.earnings != nil {
		opts = append(opts, backtest.WithEarnings(a.earnings))
		if a.earnings.Lookahead && cfg.Strategy.UsesEarnings() {
			a.logger.Warn("earnings calendar has lookahead, results are optimistic",
				zap.String("symbol", cfg.Symbol),
			)
		}
	}
	if observer != nil {
		opts = append(opts, backtest.WithObserver(observer))
	}

	start := time.Now()
	result, err := backtest.New(a.provider, opts...).Run(ctx, cfg)
	if err != nil {
		a.recordBacktest("failed", start)
		a.logger.Error("backtest failed",
			zap.String("symbol", cfg.Symbol),
			zap.String("preset", preset),
			zap.Error(err),
		)
		return nil, core.WrapError(core.ErrBacktestFailed, err)
	}
	a.recordBacktest("success", start)

	out := &Outcome{
		RunID:  uuid.NewString(),
		Preset: preset,
		Config: cfg,
		Result: result,
	}
	out.Benchmark = a.benchmark(ctx, cfg, result)

	if a.metrics != nil {
		a.metrics.RecordOutcome(preset, result.Stats.TotalReturnPct, tradeCounts(result), result.Signals)
	}

	a.persist(ctx, out)
	if notify {
		a.notify(ctx, out)
	}

	a.logger.Info("backtest complete",
		zap.String("run_id", out.RunID),
		zap.String("symbol", cfg.Symbol),
		zap.String("strategy", result.Strategy),
		zap.Int("trades", result.Stats.TotalTrades),
		zap.Float64("return_pct", result.Stats.TotalReturnPct),
		zap.Duration("elapsed", time.Since(start)),
	)
	return out, nil
}

// benchmark re-reads the bars, which the cache serves from memory.
func (a *App) benchmark(ctx context.Context, cfg backtest.RunConfig, result *backtest.Result) *backtest.Benchmark {
	if result.Bars == 0 {
		return nil
	}
	bars, err := a.provider.FetchHistory(ctx, cfg.Symbol, cfg.Period)
	if err != nil {
		a.logger.Debug("benchmark skipped", zap.String("symbol", cfg.Symbol), zap.Error(err))
		return nil
	}
	b, err := backtest.BenchmarkFor(result, bars, cfg.Strategy.LongWindow)
	if err != nil {
		a.logger.Debug("benchmark skipped", zap.String("symbol", cfg.Symbol), zap.Error(err))
		return nil
	}
	return &b
}

// persist failures are logged; the run itself succeeded.
func (a *App) persist(ctx context.Context, out *Outcome) {
	if a.results != nil {
		rec := results.FromResult(out.RunID, out.Config.Period, out.Result, out.Benchmark)
		if err := a.results.Save(ctx, rec); err != nil {
			a.logger.Warn("failed to save run summary", zap.String("run_id", out.RunID), zap.Error(err))
		}
	}
	if a.archive != nil {
		key, err := a.archive.Save(ctx, archive.Document{
			RunID:     out.RunID,
			Config:    out.Config,
			Result:    out.Result,
			Benchmark: out.Benchmark,
		})
		if err != nil {
			a.logger.Warn("failed to archive run", zap.String("run_id", out.RunID), zap.Error(err))
			return
		}
		out.ArchiveKey = key
	}
}

func (a *App) recordBacktest(status string, start time.Time) {
	if a.metrics != nil {
		a.metrics.RecordBacktest(status, time.Since(start).Seconds())
	}
}

func tradeCounts(r *backtest.Result) map[string]int {
	counts := make(map[string]int)
	for _, t := range r.Trades {
		counts[string(t.Action)]++
	}
	return counts
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
