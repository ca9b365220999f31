package filter

import "github.com/ThomasGit2000/trading-bot/internal/strategy"

// Fundamental stands aside for BlackoutDays on either side of an earnings date.
type Fundamental struct {
	cfg strategy.FundamentalConfig
}

func NewFundamental(cfg strategy.FundamentalConfig) Fundamental {
	return Fundamental{cfg: cfg}
}

func (f Fundamental) Name() string { return "fundamental" }

// InBlackout reports whether the current bar is within the blackout window of
// any known earnings date.
func (f Fundamental) InBlackout(ctx strategy.Context) bool {
	if !f.cfg.Enabled {
		return false
	}
	for _, ev := range ctx.Earnings {
		days, ok := daysBetween(ev.Date, ctx.Date)
		if !ok {
			continue
		}
		if days < 0 {
			days = -days
		}
		if days <= f.cfg.BlackoutDays {
			return true
		}
	}
	return false
}

func (f Fundamental) Permits(ctx strategy.Context, sig strategy.Signal) bool {
	if sig.IsHold() {
		return true
	}
	return !f.InBlackout(ctx)
}
