package filter

import "github.com/ThomasGit2000/trading-bot/internal/strategy"

// Index holds crossovers back while a reference index is selling off, so a
// market-wide drop is not mistaken for a stock-specific one.
type Index struct {
	cfg strategy.IndexConfig
}

func NewIndex(cfg strategy.IndexConfig) Index {
	return Index{cfg: cfg}
}

func (f Index) Name() string { return "index" }

// Selloff compares the index close today with the close Lookback bars ago.
// A zero close on either side means no index data and never counts as a selloff.
func (f Index) Selloff(ctx strategy.Context) bool {
	if !f.cfg.Enabled || len(ctx.IndexCloses) == 0 {
		return false
	}
	i, lookback := ctx.Index, f.cfg.Lookback
	if lookback <= 0 || i < lookback || i >= len(ctx.IndexCloses) {
		return false
	}

	current, past := ctx.IndexCloses[i], ctx.IndexCloses[i-lookback]
	if current <= 0 || past <= 0 {
		return false
	}
	return (current-past)/past <= -f.cfg.DropThreshold
}

func (f Index) Permits(ctx strategy.Context, sig strategy.Signal) bool {
	if sig != strategy.Buy && sig != strategy.Sell {
		return true
	}
	return !f.Selloff(ctx)
}
