package backtest

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/ThomasGit2000/trading-bot/internal/core"
	"github.com/ThomasGit2000/trading-bot/internal/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockProvider implements OHLCVProvider for testing
type mockProvider struct {
	data  map[string][]core.OHLCV
	err   map[string]error
	calls []string
}

func (m *mockProvider) FetchHistory(ctx context.Context, symbol, period string) ([]core.OHLCV, error) {
	m.calls = append(m.calls, symbol)
	if err := m.err[symbol]; err != nil {
		return nil, err
	}
	return m.data[symbol], nil
}

type staticEarnings []core.EarningsEvent

func (s staticEarnings) Events(symbol string) []core.EarningsEvent { return s }

type recordingObserver struct {
	steps []Step
}

func (r *recordingObserver) Observe(step Step) { r.steps = append(r.steps, step) }

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func makeBars(symbol string, closes ...float64) []core.OHLCV {
	bars := make([]core.OHLCV, len(closes))
	for i, c := range closes {
		bars[i] = core.OHLCV{
			Symbol:   symbol,
			Interval: "1d",
			Open:     c,
			High:     c,
			Low:      c,
			Close:    c,
			Volume:   1000,
			Time:     day0.AddDate(0, 0, i),
		}
	}
	return bars
}

// flatThenRising is 30 bars at 10 followed by 11, 12, ..., 20.
func flatThenRising() []float64 {
	closes := make([]float64, 0, 40)
	for i := 0; i < 30; i++ {
		closes = append(closes, 10)
	}
	for p := 11.0; p <= 20; p++ {
		closes = append(closes, p)
	}
	return closes
}

// choppy is a deterministic trending series with swings large enough to
// trigger crossovers and stops in both directions.
func choppy(n int) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		x := float64(i)
		closes[i] = 50 + 0.05*x + 8*math.Sin(x/6) + 3*math.Sin(x/1.7)
	}
	return closes
}

func baseConfig() RunConfig {
	cfg := DefaultRunConfig("TEST")
	cfg.Strategy.ShortWindow = 10
	cfg.Strategy.LongWindow = 30
	cfg.Strategy.Threshold = 0.01
	return cfg
}

func riskyConfig() RunConfig {
	cfg := baseConfig()
	cfg.Strategy.ShortWindow = 3
	cfg.Strategy.LongWindow = 10
	cfg.Strategy.StopLossPct = strategy.Pct(0.05)
	cfg.Strategy.TrailingStopPct = strategy.Pct(0.04)
	cfg.Strategy.TrailAfterProfitPct = strategy.Pct(0.02)
	cfg.Strategy.MinHoldDays = 2
	return cfg
}

func TestSimulate_EndToEndScenario(t *testing.T) {
	cfg := baseConfig()
	bars := makeBars("TEST", flatThenRising()...)

	result, err := New(nil).Simulate(cfg, Series{Bars: bars})
	require.NoError(t, err)

	require.Len(t, result.Trades, 2)
	buy, closeOut := result.Trades[0], result.Trades[1]

	// the 10-bar MA clears the 30-bar MA by 1% on the bar closing at 12
	assert.Equal(t, ActionBuy, buy.Action)
	assert.Equal(t, 12.0, buy.Price)
	assert.Equal(t, 15, buy.Quantity)
	assert.Equal(t, bars[31].Time, buy.Date)
	assert.Equal(t, 0.0, buy.PnL)

	assert.Equal(t, ActionSellClose, closeOut.Action)
	assert.Equal(t, 20.0, closeOut.Price)
	assert.Equal(t, bars[39].Time, closeOut.Date)
	assert.InDelta(t, 120.0, closeOut.PnL, 1e-9)

	want := (20.0/12.0 - 1) * 15 * 12 / 10000 * 100
	assert.Greater(t, result.Stats.TotalReturnPct, 0.0)
	assert.InDelta(t, want, result.Stats.TotalReturnPct, 1e-9)
	assert.InDelta(t, 10120.0, result.FinalCapital, 1e-9)

	assert.Len(t, result.EquityCurve, 10)
	assert.Equal(t, bars[30].Time, result.StartDate)
	assert.Equal(t, bars[39].Time, result.EndDate)
	assert.Equal(t, 100.0, result.Stats.WinRate)
	assert.Equal(t, 1, result.Stats.ClosingTrades)
	assert.Equal(t, "MA(10/30)", result.Strategy)
	// the averages stay crossed from bar 31 on; BUY repeats while already long
	assert.Equal(t, 9, result.Signals["BUY"])
}

func TestSimulate_EquityRecordedBeforeAction(t *testing.T) {
	result, err := New(nil).Simulate(baseConfig(), Series{Bars: makeBars("TEST", flatThenRising()...)})
	require.NoError(t, err)

	// bar 31 is the buy bar: still flat entering it, long entering bar 32
	assert.Equal(t, 0, result.EquityCurve[1].Position)
	assert.Equal(t, 15, result.EquityCurve[2].Position)
	assert.InDelta(t, 10000.0, result.EquityCurve[1].Equity, 1e-9)
	assert.InDelta(t, 10000.0-15*12+15*13, result.EquityCurve[2].Equity, 1e-9)
}

func TestSimulate_CapitalConservation(t *testing.T) {
	for _, cfg := range []RunConfig{baseConfig(), riskyConfig()} {
		result, err := New(nil).Simulate(cfg, Series{Bars: makeBars("TEST", choppy(300)...)})
		require.NoError(t, err)
		require.NotEmpty(t, result.Trades, cfg.Strategy.Label())

		var realized float64
		for _, tr := range result.Trades {
			if tr.Action.IsClosing() {
				realized += tr.PnL
			}
		}
		assert.InDelta(t, cfg.InitialCapital+realized, result.FinalCapital, 1e-6, cfg.Strategy.Label())
	}
}

func TestSimulate_NoShortingAndSingleLot(t *testing.T) {
	result, err := New(nil).Simulate(riskyConfig(), Series{Bars: makeBars("TEST", choppy(300)...)})
	require.NoError(t, err)

	for _, p := range result.EquityCurve {
		assert.GreaterOrEqual(t, p.Position, 0)
	}

	open := false
	for i, tr := range result.Trades {
		if tr.Action == ActionBuy {
			assert.False(t, open, "trade %d: buy while already long", i)
			open = true
			continue
		}
		assert.True(t, tr.Action.IsClosing())
		assert.True(t, open, "trade %d: close while flat", i)
		open = false
	}
	assert.False(t, open, "run must end flat")
}

func TestSimulate_ExitTagsUsed(t *testing.T) {
	result, err := New(nil).Simulate(riskyConfig(), Series{Bars: makeBars("TEST", choppy(300)...)})
	require.NoError(t, err)

	seen := map[Action]bool{}
	for _, tr := range result.Trades {
		seen[tr.Action] = true
	}
	assert.True(t, seen[ActionBuy])
	assert.True(t, seen[ActionStopLoss] || seen[ActionTrailStop], "expected a stop to fire on a choppy series")
}

func TestSimulate_StopLossDuringMinHold(t *testing.T) {
	cfg := baseConfig()
	cfg.Strategy.StopLossPct = strategy.Pct(0.15)
	cfg.Strategy.MinHoldDays = 5

	closes := flatThenRising()[:32] // ... 10, 11, 12 -> buy at 12
	closes = append(closes, 10, 10)
	result, err := New(nil).Simulate(cfg, Series{Bars: makeBars("TEST", closes...)})
	require.NoError(t, err)

	// the stop fires on the second held bar; the averages are still crossed
	// afterwards, so the strategy re-enters and is closed out at the end
	actions := make([]Action, len(result.Trades))
	for i, tr := range result.Trades {
		actions[i] = tr.Action
	}
	assert.Equal(t, []Action{ActionBuy, ActionStopLoss, ActionBuy, ActionSellClose}, actions)
	assert.Equal(t, 10.0, result.Trades[1].Price)
	assert.InDelta(t, -30.0, result.Trades[1].PnL, 1e-9)
	assert.Equal(t, 10.0, result.Trades[2].Price)
	assert.InDelta(t, 0.0, result.Trades[3].PnL, 1e-9)
	assert.Equal(t, 0.0, result.Stats.WinRate)
}

func TestSimulate_TooFewBars(t *testing.T) {
	cfg := baseConfig()
	result, err := New(nil).Simulate(cfg, Series{Bars: makeBars("TEST", flatThenRising()[:20]...)})
	require.NoError(t, err)

	assert.Empty(t, result.Trades)
	assert.Empty(t, result.EquityCurve)
	assert.Equal(t, 0.0, result.Stats.WinRate)
	assert.Equal(t, 0.0, result.Stats.TotalReturn)
	assert.Equal(t, 0.0, result.Stats.SharpeRatio)
	assert.Equal(t, cfg.InitialCapital, result.FinalCapital)
}

func TestSimulate_NoBars(t *testing.T) {
	_, err := New(nil).Simulate(baseConfig(), Series{})
	assert.True(t, errors.Is(err, core.ErrNoData), "got %v", err)
}

func TestSimulate_InvalidConfig(t *testing.T) {
	cfg := baseConfig()
	cfg.PositionSize = 0

	_, err := New(nil).Simulate(cfg, Series{Bars: makeBars("TEST", 1, 2, 3)})
	assert.True(t, errors.Is(err, core.ErrConfigInvalid), "got %v", err)
}

func TestSimulate_InsufficientCapitalSkipsBuy(t *testing.T) {
	cfg := baseConfig()
	cfg.InitialCapital = 5

	result, err := New(nil).Simulate(cfg, Series{Bars: makeBars("TEST", flatThenRising()...)})
	require.NoError(t, err)

	assert.Empty(t, result.Trades)
	assert.Equal(t, 5.0, result.FinalCapital)
	assert.Greater(t, result.Signals["BUY"], 0)
}

func TestSimulate_LotLimitedByCash(t *testing.T) {
	cfg := baseConfig()
	cfg.InitialCapital = 100

	result, err := New(nil).Simulate(cfg, Series{Bars: makeBars("TEST", flatThenRising()...)})
	require.NoError(t, err)

	require.NotEmpty(t, result.Trades)
	assert.Equal(t, 8, result.Trades[0].Quantity) // floor(100 / 12)
}

func TestSimulate_Idempotent(t *testing.T) {
	cfg := riskyConfig()
	series := Series{Bars: makeBars("TEST", choppy(250)...)}
	b := New(nil)

	first, err := b.Simulate(cfg, series)
	require.NoError(t, err)
	second, err := b.Simulate(cfg, series)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSimulate_Observer(t *testing.T) {
	obs := &recordingObserver{}
	bars := makeBars("TEST", flatThenRising()...)

	_, err := New(nil, WithObserver(obs)).Simulate(baseConfig(), Series{Bars: bars})
	require.NoError(t, err)

	require.Len(t, obs.steps, 10)
	assert.Equal(t, strategy.Buy, obs.steps[1].Signal)
	assert.Equal(t, 15, obs.steps[1].Position)
	assert.Equal(t, 1, obs.steps[1].Trades)
	assert.Equal(t, "TEST", obs.steps[9].Symbol)
}

func TestSimulate_MisalignedIndexIgnored(t *testing.T) {
	cfg := baseConfig()
	cfg.Strategy.Index = strategy.IndexConfig{Enabled: true, DropThreshold: 0.02, Lookback: 5}

	series := Series{
		Bars:        makeBars("TEST", flatThenRising()...),
		IndexCloses: []float64{100, 50},
	}
	result, err := New(nil).Simulate(cfg, series)
	require.NoError(t, err)
	assert.Len(t, result.Trades, 2)
}

func TestRun_FetchesIndexAndEarnings(t *testing.T) {
	cfg := baseConfig()
	cfg.Strategy.Index = strategy.IndexConfig{Enabled: true, Symbol: "SPY", DropThreshold: 0.02, Lookback: 5}
	cfg.Strategy.Fundamental = strategy.FundamentalConfig{Enabled: true, BlackoutDays: 3}

	// index falls 10% every bar from 30 onwards: buys wait for stability
	index := make([]float64, 40)
	for i := range index {
		index[i] = 100
		if i >= 30 {
			index[i] = 100 * math.Pow(0.9, float64(i-29))
		}
	}
	provider := &mockProvider{data: map[string][]core.OHLCV{
		"TEST": makeBars("TEST", flatThenRising()...),
		"SPY":  makeBars("SPY", index...),
	}}
	earnings := staticEarnings{{Date: day0.AddDate(0, 0, 10)}}

	result, err := New(provider, WithEarnings(earnings)).Run(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, []string{"TEST", "SPY"}, provider.calls)
	assert.Empty(t, result.Trades)
	assert.Greater(t, result.Signals["HOLD_AWAITING_STABILITY"], 0)
}

func TestRun_IndexFailureDegrades(t *testing.T) {
	cfg := baseConfig()
	cfg.Strategy.Index = strategy.IndexConfig{Enabled: true, Symbol: "SPY", DropThreshold: 0.02, Lookback: 5}

	provider := &mockProvider{
		data: map[string][]core.OHLCV{"TEST": makeBars("TEST", flatThenRising()...)},
		err:  map[string]error{"SPY": errors.New("upstream down")},
	}

	result, err := New(provider).Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.Len(t, result.Trades, 2)
}

func TestRun_ProviderError(t *testing.T) {
	provider := &mockProvider{err: map[string]error{"TEST": core.ErrCollectorFailed}}

	_, err := New(provider).Run(context.Background(), baseConfig())
	assert.True(t, errors.Is(err, core.ErrCollectorFailed), "got %v", err)
}

func TestRun_NoData(t *testing.T) {
	provider := &mockProvider{data: map[string][]core.OHLCV{}}

	_, err := New(provider).Run(context.Background(), baseConfig())
	assert.True(t, errors.Is(err, core.ErrNoData), "got %v", err)
}
