package filter

import "github.com/ThomasGit2000/trading-bot/internal/strategy"

// MissThreshold is the surprise (in percent) below which a report counts as a
// miss worth exiting on.
const MissThreshold = -10.0

// PEAD produces a signal of its own for WindowDays after an earnings report:
// buy after any beat, sell after a large miss.
type PEAD struct {
	cfg strategy.PEADConfig
}

func NewPEAD(cfg strategy.PEADConfig) PEAD {
	return PEAD{cfg: cfg}
}

func (f PEAD) Name() string { return "pead" }

// Active reports whether the drift trade replaces the blackout filter.
func (f PEAD) Active() bool {
	return f.cfg.Enabled
}

// Trigger returns Buy or Sell with ok=true when the current bar falls in the
// drift window of a report with a qualifying surprise. Events are checked
// oldest first and the first qualifying one wins.
func (f PEAD) Trigger(ctx strategy.Context) (sig strategy.Signal, ok bool) {
	if !f.cfg.Enabled {
		return strategy.Hold, false
	}
	for _, ev := range ctx.Earnings {
		if !ev.HasSurprise() {
			continue
		}
		days, valid := daysBetween(ev.Date, ctx.Date)
		if !valid || days < 0 || days > f.cfg.WindowDays {
			continue
		}
		switch surprise := *ev.SurprisePct; {
		case surprise > 0:
			return strategy.Buy, true
		case surprise < MissThreshold:
			return strategy.Sell, true
		}
	}
	return strategy.Hold, false
}
