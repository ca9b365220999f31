package app

import (
	"context"
	"time"

	"github.com/ThomasGit2000/trading-bot/internal/backtest"
	"github.com/ThomasGit2000/trading-bot/internal/metrics"
	"github.com/ThomasGit2000/trading-bot/internal/snapshot"
)

// hubObserver publishes each simulated bar and paces the replay.
type hubObserver struct {
	ctx     context.Context
	hub     *snapshot.Hub
	delay   time.Duration
	metrics *metrics.Registry
}

func (o *hubObserver) Observe(step backtest.Step) {
	o.hub.Publish(toSnapshot(step))
	if o.metrics != nil {
		o.metrics.RecordSnapshot()
	}

	if o.delay <= 0 || o.ctx.Err() != nil {
		return
	}
	timer := time.NewTimer(o.delay)
	defer timer.Stop()
	select {
	case <-o.ctx.Done():
	case <-timer.C:
	}
}

func toSnapshot(step backtest.Step) snapshot.Snapshot {
	return snapshot.Snapshot{
		Symbol:     step.Symbol,
		Strategy:   step.Strategy,
		Bar:        step.Index,
		Date:       step.Date,
		Price:      step.Price,
		Signal:     step.Signal.String(),
		Position:   step.Position,
		EntryPrice: step.EntryPrice,
		Capital:    step.Capital,
		Equity:     step.Equity,
		Trades:     step.Trades,
	}
}
