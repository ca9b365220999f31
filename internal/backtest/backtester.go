package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/ThomasGit2000/trading-bot/internal/core"
	"github.com/ThomasGit2000/trading-bot/internal/strategy"
	"github.com/ThomasGit2000/trading-bot/internal/strategy/momentum"
	"go.uber.org/zap"
)

// OHLCVProvider fetches daily bars sorted ascending by date.
type OHLCVProvider interface {
	FetchHistory(ctx context.Context, symbol, period string) ([]core.OHLCV, error)
}

// EarningsSource returns the known earnings reports of a symbol.
type EarningsSource interface {
	Events(symbol string) []core.EarningsEvent
}

// Observer receives the state after every simulated bar.
type Observer interface {
	Observe(step Step)
}

// Step is the state of a run after one bar has been applied.
type Step struct {
	Symbol     string
	Strategy   string
	Index      int
	Date       time.Time
	Price      float64
	Signal     strategy.Signal
	Position   int
	EntryPrice float64
	Capital    float64
	Equity     float64
	Trades     int
}

// Series is the materialized input of a simulation.
type Series struct {
	Bars []core.OHLCV
	// IndexCloses is aligned with Bars; see AlignIndex.
	IndexCloses []float64
	Earnings    []core.EarningsEvent
}

// Backtester runs strategy backtests against historical data
type Backtester struct {
	provider OHLCVProvider
	earnings EarningsSource
	observer Observer
	logger   *zap.Logger
}

// Option configures a Backtester.
type Option func(*Backtester)

// WithEarnings sets the earnings calendar used by the earnings filters.
func WithEarnings(src EarningsSource) Option {
	return func(b *Backtester) { b.earnings = src }
}

// WithObserver reports every simulated bar to o.
func WithObserver(o Observer) Option {
	return func(b *Backtester) { b.observer = o }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(b *Backtester) {
		if l != nil {
			b.logger = l
		}
	}
}

// New creates a new Backtester with the given OHLCV provider
func New(provider OHLCVProvider, opts ...Option) *Backtester {
	b := &Backtester{
		provider: provider,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Validate checks the run parameters and the strategy config.
func (c RunConfig) Validate() error {
	if c.InitialCapital <= 0 {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("initial capital must be positive, got %f", c.InitialCapital))
	}
	if c.PositionSize <= 0 {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("position size must be positive, got %d", c.PositionSize))
	}
	return c.Strategy.Validate()
}

// Run fetches the bars for cfg.Symbol, plus the index series and earnings
// calendar when the strategy uses them, and simulates the strategy.
// Index data that cannot be fetched leaves the index filter inactive.
func (b *Backtester) Run(ctx context.Context, cfg RunConfig) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	bars, err := b.provider.FetchHistory(ctx, cfg.Symbol, cfg.Period)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", cfg.Symbol, err)
	}
	if len(bars) == 0 {
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("no bars for %s over %s", cfg.Symbol, cfg.Period))
	}

	series := Series{Bars: bars}

	if idx := cfg.Strategy.Index; idx.Enabled && idx.Symbol != "" {
		indexBars, err := b.provider.FetchHistory(ctx, idx.Symbol, cfg.Period)
		if err != nil {
			b.logger.Warn("index data unavailable, index filter inactive",
				zap.String("index", idx.Symbol),
				zap.Error(err),
			)
		} else {
			series.IndexCloses = AlignIndex(bars, indexBars)
		}
	}

	if cfg.Strategy.UsesEarnings() && b.earnings != nil {
		series.Earnings = b.earnings.Events(cfg.Symbol)
		b.logger.Debug("loaded earnings dates",
			zap.String("symbol", cfg.Symbol),
			zap.Int("events", len(series.Earnings)),
		)
	}

	return b.Simulate(cfg, series)
}

// Simulate runs the strategy over an already-fetched series. It is a pure
// function of its inputs: the same config and series always produce the same
// result. Fewer bars than the long window yield an empty result, not an error.
func (b *Backtester) Simulate(cfg RunConfig, series Series) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	bars := series.Bars
	if len(bars) == 0 {
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("no bars for %s", cfg.Symbol))
	}

	policy := momentum.New(cfg.Strategy)
	closes := core.Closes(bars)
	volumes := core.Volumes(bars)
	indexCloses := series.IndexCloses
	if len(indexCloses) != len(bars) {
		indexCloses = nil
	}

	warmup := cfg.Strategy.LongWindow
	cash := newLedger(cfg.InitialCapital)
	var pos position
	trades := make([]Trade, 0)
	equity := make([]EquityPoint, 0, max(0, len(bars)-warmup))
	signals := make(map[string]int)

	b.logger.Debug("running backtest",
		zap.String("symbol", cfg.Symbol),
		zap.String("strategy", policy.Name()),
		zap.Int("bars", len(bars)),
	)

	for i := warmup; i < len(bars); i++ {
		bar := bars[i]
		price := bar.Close

		pos.markPeak(price)

		sig := policy.Decide(strategy.Context{
			Index:       i,
			Date:        bar.Time,
			Closes:      closes,
			Volumes:     volumes,
			IndexCloses: indexCloses,
			Earnings:    series.Earnings,
			Position:    pos.view(i),
		})
		signals[sig.String()]++

		equity = append(equity, EquityPoint{
			Date:     bar.Time,
			Price:    price,
			Position: pos.quantity,
			Equity:   cash.equity(pos.quantity, price),
		})

		if trade, ok := apply(sig, i, bar, cfg.PositionSize, cash, &pos); ok {
			trades = append(trades, trade)
		}

		if b.observer != nil {
			b.observer.Observe(Step{
				Symbol:     cfg.Symbol,
				Strategy:   policy.Name(),
				Index:      i,
				Date:       bar.Time,
				Price:      price,
				Signal:     sig,
				Position:   pos.quantity,
				EntryPrice: pos.entryPrice,
				Capital:    cash.balance(),
				Equity:     cash.equity(pos.quantity, price),
				Trades:     len(trades),
			})
		}
	}

	if pos.isLong() {
		last := bars[len(bars)-1]
		quantity, entryPrice := pos.close()
		proceeds := cash.credit(quantity, last.Close)
		trades = append(trades, Trade{
			Date:     last.Time,
			Action:   ActionSellClose,
			Price:    last.Close,
			Quantity: quantity,
			Value:    proceeds,
			PnL:      pnl(quantity, entryPrice, last.Close),
		})
	}

	result := &Result{
		Symbol:         cfg.Symbol,
		Strategy:       policy.Name(),
		StartDate:      bars[min(warmup, len(bars)-1)].Time,
		EndDate:        bars[len(bars)-1].Time,
		Bars:           len(bars),
		InitialCapital: cfg.InitialCapital,
		FinalCapital:   cash.balance(),
		Trades:         trades,
		EquityCurve:    equity,
		Signals:        signals,
	}
	result.Stats = CalculateStats(result.InitialCapital, result.FinalCapital, trades, equity)

	return result, nil
}

// apply performs the state transition for sig and returns the trade, if any.
// Buys that cannot afford a single share are skipped.
func apply(sig strategy.Signal, index int, bar core.OHLCV, lotSize int, cash *ledger, pos *position) (Trade, bool) {
	price := bar.Close

	switch {
	case sig == strategy.Buy && !pos.isLong():
		quantity := min(lotSize, cash.affordable(price))
		if quantity <= 0 {
			return Trade{}, false
		}
		cost := cash.debit(quantity, price)
		pos.open(quantity, price, index)
		return Trade{
			Date:     bar.Time,
			Action:   ActionBuy,
			Price:    price,
			Quantity: quantity,
			Value:    cost,
		}, true

	case sig.IsExit() && pos.isLong():
		quantity, entryPrice := pos.close()
		proceeds := cash.credit(quantity, price)
		return Trade{
			Date:     bar.Time,
			Action:   exitAction(sig),
			Price:    price,
			Quantity: quantity,
			Value:    proceeds,
			PnL:      pnl(quantity, entryPrice, price),
		}, true
	}

	return Trade{}, false
}
