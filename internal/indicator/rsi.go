package indicator

// DefaultRSIPeriod is the lookback used when none is configured.
const DefaultRSIPeriod = 14

// RSI computes the relative strength index at end from the trailing period
// price deltas. It returns 50 when there is not enough history and saturates
// at 100 when the average loss is exactly zero.
func RSI(prices []float64, period, end int) float64 {
	if period <= 0 || end < period || end >= len(prices) {
		return 50
	}

	var gains, losses float64
	for i := end - period + 1; i <= end; i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	if avgLoss == 0 {
		return 100
	}

	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}
