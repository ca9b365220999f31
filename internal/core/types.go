package core

import "time"

// OHLCV represents one daily price bar. A series handed to the backtester is
// sorted ascending by Time with one bar per trading day.
type OHLCV struct {
	Symbol   string    `json:"symbol"`
	Interval string    `json:"interval,omitempty"` // "1d"
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   int64     `json:"volume"`
	Time     time.Time `json:"time"`
}

// DayKey returns the bar's date truncated to day granularity.
func (o OHLCV) DayKey() string {
	return DayKey(o.Time)
}

// DayKey formats t as YYYY-MM-DD in its own location.
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// Closes extracts the close prices of a bar series.
func Closes(bars []OHLCV) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// Volumes extracts the volumes of a bar series as float64.
func Volumes(bars []OHLCV) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = float64(b.Volume)
	}
	return out
}

// EarningsEvent is a known earnings report. SurprisePct is nil when the
// surprise was not published.
type EarningsEvent struct {
	Date        time.Time `json:"date"`
	SurprisePct *float64  `json:"surprise_pct,omitempty"`
}

// HasSurprise reports whether a surprise figure is known.
func (e EarningsEvent) HasSurprise() bool {
	return e.SurprisePct != nil
}
