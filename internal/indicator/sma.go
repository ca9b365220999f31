package indicator

import (
	"fmt"

	"github.com/ThomasGit2000/trading-bot/internal/core"
)

// SMAAt returns the simple moving average of values[end-window+1 .. end].
// It fails with core.ErrInsufficientData when fewer than window values end at end.
func SMAAt(values []float64, window, end int) (float64, error) {
	if window <= 0 {
		return 0, core.WrapError(core.ErrInsufficientData, fmt.Errorf("window must be positive, got %d", window))
	}
	if end < 0 || end >= len(values) || end+1 < window {
		return 0, core.WrapError(core.ErrInsufficientData,
			fmt.Errorf("need %d values ending at %d, have %d", window, end, len(values)))
	}
	return mean(values[end-window+1 : end+1]), nil
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
