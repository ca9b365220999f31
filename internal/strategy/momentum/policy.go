// Package momentum implements the moving-average crossover policy with its
// layered exits and filters.
package momentum

import (
	"github.com/ThomasGit2000/trading-bot/internal/indicator"
	"github.com/ThomasGit2000/trading-bot/internal/strategy"
	"github.com/ThomasGit2000/trading-bot/internal/strategy/filter"
)

var _ strategy.Policy = (*Policy)(nil)

// Policy decides one signal per bar. It holds no mutable state and is safe
// for concurrent use.
type Policy struct {
	cfg strategy.Config

	rsi         filter.RSI
	volume      filter.Volume
	index       filter.Index
	fundamental filter.Fundamental
	pead        filter.PEAD
}

// New builds a policy for cfg. cfg is assumed to have passed Validate.
func New(cfg strategy.Config) *Policy {
	return &Policy{
		cfg:         cfg,
		rsi:         filter.NewRSI(cfg.RSI),
		volume:      filter.NewVolume(cfg.Volume),
		index:       filter.NewIndex(cfg.Index),
		fundamental: filter.NewFundamental(cfg.Fundamental),
		pead:        filter.NewPEAD(cfg.PEAD),
	}
}

func (p *Policy) Name() string {
	return p.cfg.Label()
}

// Config returns the configuration the policy was built with.
func (p *Policy) Config() strategy.Config {
	return p.cfg
}

// Decide evaluates the rules in fixed priority order; the first match wins:
// warm-up, trailing stop, stop loss, thin volume, earnings drift, earnings
// blackout, then the crossover with its confirmations.
func (p *Policy) Decide(ctx strategy.Context) strategy.Signal {
	if ctx.Index < p.cfg.LongWindow || ctx.Index >= len(ctx.Closes) {
		return strategy.Hold
	}

	price := ctx.Price()
	pos := ctx.Position
	minHoldMet := pos.DaysHeld >= p.cfg.MinHoldDays

	if pos.Long && minHoldMet && p.trailingStopHit(price, pos) {
		return strategy.TrailingStop
	}
	// stop loss ignores the minimum hold
	if pos.Long && p.stopLossHit(price, pos) {
		return strategy.StopLoss
	}

	if p.volume.TooLow(ctx) {
		return strategy.Hold
	}

	if sig, ok := p.pead.Trigger(ctx); ok {
		switch {
		case sig == strategy.Buy && !pos.Long && p.rsi.Permits(ctx, strategy.Buy):
			return strategy.Buy
		case sig == strategy.Sell && pos.Long:
			return strategy.Sell
		}
	}

	if !p.pead.Active() && p.fundamental.InBlackout(ctx) {
		return strategy.Hold
	}

	return p.crossover(ctx, minHoldMet)
}

func (p *Policy) crossover(ctx strategy.Context, minHoldMet bool) strategy.Signal {
	shortMA, err := indicator.SMAAt(ctx.Closes, p.cfg.ShortWindow, ctx.Index)
	if err != nil {
		return strategy.Hold
	}
	longMA, err := indicator.SMAAt(ctx.Closes, p.cfg.LongWindow, ctx.Index)
	if err != nil {
		return strategy.Hold
	}

	switch {
	case shortMA > longMA*(1+p.cfg.Threshold):
		if !p.rsi.Permits(ctx, strategy.Buy) || !p.volume.Permits(ctx, strategy.Buy) {
			return strategy.Hold
		}
		if !p.index.Permits(ctx, strategy.Buy) {
			return strategy.HoldAwaitingStability
		}
		return strategy.Buy

	case shortMA < longMA*(1-p.cfg.Threshold):
		if !minHoldMet || !p.volume.Permits(ctx, strategy.Sell) {
			return strategy.Hold
		}
		if !p.index.Permits(ctx, strategy.Sell) {
			return strategy.HoldMarketSelloff
		}
		return strategy.Sell
	}
	return strategy.Hold
}

// trailingStopHit checks the drop from the peak since entry. With a profit
// gate configured the stop only arms once the peak cleared that gain.
func (p *Policy) trailingStopHit(price float64, pos strategy.Position) bool {
	pct := p.cfg.TrailingStopPct
	if pct == nil || *pct <= 0 || pos.PeakPrice <= 0 {
		return false
	}
	if gate := p.cfg.TrailAfterProfitPct; gate != nil && *gate > 0 && pos.EntryPrice > 0 {
		if (pos.PeakPrice-pos.EntryPrice)/pos.EntryPrice < *gate {
			return false
		}
	}
	return (pos.PeakPrice-price)/pos.PeakPrice >= *pct
}

func (p *Policy) stopLossHit(price float64, pos strategy.Position) bool {
	pct := p.cfg.StopLossPct
	if pct == nil || *pct <= 0 || pos.EntryPrice <= 0 {
		return false
	}
	return (pos.EntryPrice-price)/pos.EntryPrice >= *pct
}
