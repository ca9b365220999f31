package filter

import (
	"github.com/ThomasGit2000/trading-bot/internal/indicator"
	"github.com/ThomasGit2000/trading-bot/internal/strategy"
)

// Volume requires crossovers to happen on above-average volume and blocks
// all discretionary trading on very thin days.
type Volume struct {
	cfg strategy.VolumeConfig
}

func NewVolume(cfg strategy.VolumeConfig) Volume {
	return Volume{cfg: cfg}
}

func (f Volume) Name() string { return "volume" }

// Relative returns today's volume relative to its moving average.
func (f Volume) Relative(ctx strategy.Context) float64 {
	return indicator.RelativeVolume(ctx.Volumes, f.cfg.MAPeriod, ctx.Index)
}

// TooLow reports whether volume is below the hard minimum.
func (f Volume) TooLow(ctx strategy.Context) bool {
	if !f.cfg.Enabled {
		return false
	}
	return f.Relative(ctx) < f.cfg.MinThreshold
}

func (f Volume) Permits(ctx strategy.Context, sig strategy.Signal) bool {
	if !f.cfg.Enabled || (sig != strategy.Buy && sig != strategy.Sell) {
		return true
	}
	return f.Relative(ctx) >= f.cfg.ConfirmThreshold
}
