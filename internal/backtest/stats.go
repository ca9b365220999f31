package backtest

import (
	"math"
)

// tradingDays annualizes daily figures.
const tradingDays = 252

// CalculateStats computes performance statistics from the trade log and
// equity curve of a run.
func CalculateStats(initialCapital, finalCapital float64, trades []Trade, equity []EquityPoint) Stats {
	stats := Stats{
		TotalTrades: len(trades),
		TotalReturn: finalCapital - initialCapital,
	}
	if initialCapital > 0 {
		stats.TotalReturnPct = stats.TotalReturn / initialCapital * 100
	}

	for _, t := range trades {
		if !t.Action.IsClosing() {
			continue
		}
		stats.ClosingTrades++
		if t.IsWin() {
			stats.WinningTrades++
		} else {
			stats.LosingTrades++
		}
	}
	if stats.ClosingTrades > 0 {
		stats.WinRate = float64(stats.WinningTrades) / float64(stats.ClosingTrades) * 100
	}

	stats.MaxDrawdown, stats.MaxDrawdownPct = calculateMaxDrawdown(initialCapital, equity)
	stats.SharpeRatio = calculateSharpeRatio(dailyReturns(initialCapital, equity))

	return stats
}

// calculateMaxDrawdown finds the largest drop from a running equity peak,
// starting from the initial capital. The percentage is relative to the peak
// the largest drop was measured from.
func calculateMaxDrawdown(initialCapital float64, equity []EquityPoint) (amount, pct float64) {
	peak := initialCapital
	for _, p := range equity {
		if p.Equity > peak {
			peak = p.Equity
		}
		if dd := peak - p.Equity; dd > amount {
			amount = dd
			if peak > 0 {
				pct = dd / peak * 100
			}
		}
	}
	return amount, pct
}

// dailyReturns converts the equity curve into bar-over-bar returns, the first
// measured against the initial capital.
func dailyReturns(initialCapital float64, equity []EquityPoint) []float64 {
	returns := make([]float64, 0, len(equity))
	prev := initialCapital
	for _, p := range equity {
		if prev > 0 {
			returns = append(returns, (p.Equity-prev)/prev)
		}
		prev = p.Equity
	}
	return returns
}

// calculateSharpeRatio computes risk-adjusted return
// Assumes risk-free rate of 0 for simplicity
func calculateSharpeRatio(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	stdDev := math.Sqrt(variance / float64(len(returns)-1))

	if stdDev == 0 {
		return 0
	}

	return mean / stdDev * math.Sqrt(tradingDays)
}
