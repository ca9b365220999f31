package notifier

import (
	"context"
	"time"
)

// Report summarizes a finished backtest.
type Report struct {
	RunID              string    `json:"run_id"`
	Symbol             string    `json:"symbol"`
	Preset             string    `json:"preset"`
	Strategy           string    `json:"strategy"`
	StartDate          time.Time `json:"start_date"`
	EndDate            time.Time `json:"end_date"`
	ReturnPct          float64   `json:"return_pct"`
	BenchmarkReturnPct *float64  `json:"benchmark_return_pct,omitempty"`
	MaxDrawdownPct     float64   `json:"max_drawdown_pct"`
	SharpeRatio        float64   `json:"sharpe_ratio"`
	WinRate            float64   `json:"win_rate"`
	Trades             int       `json:"trades"`
	Alerts             []string  `json:"alerts,omitempty"`
}

// Notifier defines the interface for run notifications
type Notifier interface {
	// Name returns the unique identifier for this notifier
	Name() string

	// Send sends a single run report
	Send(ctx context.Context, r Report) error

	// SendBatch sends the reports of a sweep or comparison at once
	SendBatch(ctx context.Context, reports []Report) error
}
