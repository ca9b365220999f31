// Package filter holds the composable risk filters consulted by the
// crossover policy. Each filter is built from its own config section and is a
// no-op when disabled.
package filter

import (
	"time"

	"github.com/ThomasGit2000/trading-bot/internal/strategy"
)

// Filter confirms or vetoes a candidate signal for the current bar.
type Filter interface {
	Name() string
	Permits(ctx strategy.Context, sig strategy.Signal) bool
}

var (
	_ Filter = RSI{}
	_ Filter = Volume{}
	_ Filter = Index{}
	_ Filter = Fundamental{}
)

// daysBetween returns the number of calendar days from "from" to "to", using
// each timestamp's own date. ok is false when either date is unset, which
// callers treat as "filter inactive".
func daysBetween(from, to time.Time) (days int, ok bool) {
	if from.IsZero() || to.IsZero() {
		return 0, false
	}
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	a := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	b := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24), true
}
