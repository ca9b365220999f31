package backtest

import (
	"fmt"

	"github.com/ThomasGit2000/trading-bot/internal/core"
)

// Benchmark is the outcome of buying once and holding to the end.
type Benchmark struct {
	Quantity     int     `json:"quantity"`
	EntryPrice   float64 `json:"entry_price"`
	ExitPrice    float64 `json:"exit_price"`
	FinalCapital float64 `json:"final_capital"`
	ReturnPct    float64 `json:"return_pct"`
}

// BuyAndHold spends the whole capital on whole shares at bars[start] and
// values them at the last bar. Leftover cash is kept.
func BuyAndHold(bars []core.OHLCV, start int, capital float64) (Benchmark, error) {
	if len(bars) == 0 {
		return Benchmark{}, core.WrapError(core.ErrNoData, fmt.Errorf("no bars for benchmark"))
	}
	if start < 0 || start >= len(bars) {
		return Benchmark{}, core.WrapError(core.ErrInsufficientData,
			fmt.Errorf("benchmark start %d outside %d bars", start, len(bars)))
	}

	cash := newLedger(capital)
	entry, exit := bars[start].Close, bars[len(bars)-1].Close
	quantity := cash.affordable(entry)
	if quantity > 0 {
		cash.debit(quantity, entry)
	}

	final := cash.equity(quantity, exit)
	b := Benchmark{
		Quantity:     quantity,
		EntryPrice:   entry,
		ExitPrice:    exit,
		FinalCapital: final,
	}
	if capital > 0 {
		b.ReturnPct = (final - capital) / capital * 100
	}
	return b, nil
}

// BenchmarkFor compares against buy-and-hold over the same bars the result traded.
func BenchmarkFor(r *Result, bars []core.OHLCV, longWindow int) (Benchmark, error) {
	return BuyAndHold(bars, min(longWindow, len(bars)-1), r.InitialCapital)
}
