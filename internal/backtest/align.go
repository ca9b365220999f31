package backtest

import "github.com/ThomasGit2000/trading-bot/internal/core"

// AlignIndex maps index closes onto the dates of bars, matching on the day
// key. Days with no index bar get 0, which the index filter treats as missing.
func AlignIndex(bars, index []core.OHLCV) []float64 {
	byDay := make(map[string]float64, len(index))
	for _, b := range index {
		byDay[b.DayKey()] = b.Close
	}

	aligned := make([]float64, len(bars))
	for i, b := range bars {
		aligned[i] = byDay[b.DayKey()]
	}
	return aligned
}
