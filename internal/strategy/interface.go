package strategy

import (
	"time"

	"github.com/ThomasGit2000/trading-bot/internal/core"
)

// Position is the read-only view of the open lot given to the policy.
type Position struct {
	Long       bool
	EntryPrice float64
	PeakPrice  float64
	DaysHeld   int
}

// Context is everything the policy may look at for one bar. Slices cover the
// whole run and must not be modified; only values up to Index are meaningful.
type Context struct {
	Index   int
	Date    time.Time
	Closes  []float64
	Volumes []float64
	// IndexCloses is aligned with Closes; 0 marks a day without index data.
	// nil when no index series is available.
	IndexCloses []float64
	Earnings    []core.EarningsEvent
	Position    Position
}

// Price returns the close of the current bar.
func (c Context) Price() float64 {
	return c.Closes[c.Index]
}

// Policy turns a bar context into a signal. Implementations are pure.
type Policy interface {
	Name() string
	Decide(ctx Context) Signal
}
