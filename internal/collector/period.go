package collector

import (
	"fmt"
	"sort"
	"time"

	"github.com/ThomasGit2000/trading-bot/internal/core"
)

// DefaultPeriod is used when no period is given.
const DefaultPeriod = "1y"

// periods maps the supported lookback strings to calendar offsets.
var periods = map[string]func(time.Time) time.Time{
	"1mo": func(t time.Time) time.Time { return t.AddDate(0, -1, 0) },
	"3mo": func(t time.Time) time.Time { return t.AddDate(0, -3, 0) },
	"6mo": func(t time.Time) time.Time { return t.AddDate(0, -6, 0) },
	"1y":  func(t time.Time) time.Time { return t.AddDate(-1, 0, 0) },
	"2y":  func(t time.Time) time.Time { return t.AddDate(-2, 0, 0) },
	"5y":  func(t time.Time) time.Time { return t.AddDate(-5, 0, 0) },
	"10y": func(t time.Time) time.Time { return t.AddDate(-10, 0, 0) },
	"ytd": func(t time.Time) time.Time { return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, t.Location()) },
}

// ValidatePeriod rejects lookback strings no provider understands.
func ValidatePeriod(period string) error {
	if _, ok := periods[period]; !ok {
		return core.WrapError(core.ErrInvalidPeriod, fmt.Errorf("unsupported period %q", period))
	}
	return nil
}

// PeriodRange converts a lookback string into a [start, end] range ending at now.
func PeriodRange(period string, now time.Time) (start, end time.Time, err error) {
	back, ok := periods[period]
	if !ok {
		return time.Time{}, time.Time{}, core.WrapError(core.ErrInvalidPeriod, fmt.Errorf("unsupported period %q", period))
	}
	return back(now), now, nil
}

// Normalize sorts bars by time, keeps the last bar of each day and drops
// bars without a positive close. The input slice is not modified.
func Normalize(bars []core.OHLCV) []core.OHLCV {
	sorted := make([]core.OHLCV, 0, len(bars))
	for _, b := range bars {
		if b.Close > 0 {
			sorted = append(sorted, b)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time.Before(sorted[j].Time) })

	out := sorted[:0]
	for _, b := range sorted {
		if n := len(out); n > 0 && out[n-1].DayKey() == b.DayKey() {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}
