package filter

import (
	"github.com/ThomasGit2000/trading-bot/internal/indicator"
	"github.com/ThomasGit2000/trading-bot/internal/strategy"
)

// RSI vetoes buys while the stock is overbought.
type RSI struct {
	cfg strategy.RSIConfig
}

func NewRSI(cfg strategy.RSIConfig) RSI {
	return RSI{cfg: cfg}
}

func (f RSI) Name() string { return "rsi" }

// Value is the RSI of the current bar, or neutral 50 when the filter is off.
func (f RSI) Value(ctx strategy.Context) float64 {
	if !f.cfg.Enabled {
		return 50
	}
	return indicator.RSI(ctx.Closes, f.cfg.Period, ctx.Index)
}

func (f RSI) Permits(ctx strategy.Context, sig strategy.Signal) bool {
	if !f.cfg.Enabled || sig != strategy.Buy {
		return true
	}
	return f.Value(ctx) <= f.cfg.Overbought
}
