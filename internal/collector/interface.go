package collector

import (
	"context"

	"github.com/ThomasGit2000/trading-bot/internal/core"
)

// HistoryProvider fetches daily bars for a symbol over a lookback period
// such as "1y". Bars are returned sorted ascending by date.
type HistoryProvider interface {
	Name() string
	FetchHistory(ctx context.Context, symbol, period string) ([]core.OHLCV, error)
}
