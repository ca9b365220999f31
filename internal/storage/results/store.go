// Package results keeps one summary row per backtest run so runs can be
// listed and compared without loading their full trade logs.
package results

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ThomasGit2000/trading-bot/internal/backtest"
	"github.com/ThomasGit2000/trading-bot/internal/core"
	"go.uber.org/zap"
)

// Record is the summary of one run.
type Record struct {
	RunID              string    `json:"run_id"`
	Symbol             string    `json:"symbol"`
	Strategy           string    `json:"strategy"`
	Period             string    `json:"period"`
	StartDate          time.Time `json:"start_date"`
	EndDate            time.Time `json:"end_date"`
	Bars               int       `json:"bars"`
	InitialCapital     float64   `json:"initial_capital"`
	FinalCapital       float64   `json:"final_capital"`
	TotalReturnPct     float64   `json:"total_return_pct"`
	MaxDrawdownPct     float64   `json:"max_drawdown_pct"`
	SharpeRatio        float64   `json:"sharpe_ratio"`
	WinRate            float64   `json:"win_rate"`
	Trades             int       `json:"trades"`
	BenchmarkReturnPct *float64  `json:"benchmark_return_pct,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

// FromResult summarizes r. bench may be nil.
func FromResult(runID, period string, r *backtest.Result, bench *backtest.Benchmark) Record {
	rec := Record{
		RunID:          runID,
		Symbol:         r.Symbol,
		Strategy:       r.Strategy,
		Period:         period,
		StartDate:      r.StartDate,
		EndDate:        r.EndDate,
		Bars:           r.Bars,
		InitialCapital: r.InitialCapital,
		FinalCapital:   r.FinalCapital,
		TotalReturnPct: r.Stats.TotalReturnPct,
		MaxDrawdownPct: r.Stats.MaxDrawdownPct,
		SharpeRatio:    r.Stats.SharpeRatio,
		WinRate:        r.Stats.WinRate,
		Trades:         r.Stats.TotalTrades,
		CreatedAt:      time.Now().UTC(),
	}
	if bench != nil {
		v := bench.ReturnPct
		rec.BenchmarkReturnPct = &v
	}
	return rec
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	Symbol string
	Limit  int
}

func (f Filter) limit() int {
	if f.Limit <= 0 {
		return 100
	}
	return f.Limit
}

// Store persists run summaries.
type Store interface {
	Save(ctx context.Context, rec Record) error
	// Get returns core.ErrNoData for an unknown run.
	Get(ctx context.Context, runID string) (Record, error)
	// List returns the newest records first.
	List(ctx context.Context, f Filter) ([]Record, error)
	Close() error
}

// Open picks the backend from dsn: postgres:// or postgresql:// URLs use
// Postgres, anything else is a SQLite file path (an optional sqlite: prefix
// is stripped).
func Open(ctx context.Context, dsn string, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch {
	case dsn == "":
		return nil, core.WrapError(core.ErrConfigMissing, fmt.Errorf("results dsn is empty"))
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return NewPostgresStore(ctx, dsn, logger)
	default:
		return NewSQLiteStore(ctx, strings.TrimPrefix(dsn, "sqlite:"), logger)
	}
}
