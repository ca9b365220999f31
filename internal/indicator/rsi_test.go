package indicator

import (
	"math"
	"testing"
)

func TestRSI_InsufficientHistory(t *testing.T) {
	prices := []float64{10, 11, 12, 13}

	if got := RSI(prices, 14, 3); got != 50 {
		t.Errorf("RSI() = %f, want 50", got)
	}
}

func TestRSI_MonotonicRiseSaturates(t *testing.T) {
	prices := make([]float64, 30)
	for i := range prices {
		prices[i] = 100 + float64(i)
	}

	for end := 14; end < len(prices); end++ {
		if got := RSI(prices, 14, end); got != 100 {
			t.Errorf("RSI(end=%d) = %f, want 100", end, got)
		}
	}
}

func TestRSI_MonotonicFallIsZero(t *testing.T) {
	prices := make([]float64, 20)
	for i := range prices {
		prices[i] = 100 - float64(i)
	}

	if got := RSI(prices, 14, 19); got != 0 {
		t.Errorf("RSI() = %f, want 0", got)
	}
}

func TestRSI_Mixed(t *testing.T) {
	// two deltas: +2, -1 -> avg gain 1, avg loss 0.5 -> RS 2 -> RSI 66.67
	prices := []float64{10, 12, 11}

	got := RSI(prices, 2, 2)
	if math.Abs(got-200.0/3.0) > 1e-9 {
		t.Errorf("RSI() = %f, want 66.667", got)
	}
}
