package strategy

import (
	"fmt"
	"math"
	"strings"

	"github.com/ThomasGit2000/trading-bot/internal/core"
)

// Config is the immutable parameter set of the moving-average crossover
// strategy. Each risk filter has its own sub-config and is disabled by default.
type Config struct {
	ShortWindow int     `mapstructure:"short_window" json:"short_window"`
	LongWindow  int     `mapstructure:"long_window" json:"long_window"`
	Threshold   float64 `mapstructure:"threshold" json:"threshold"`

	// nil disables the corresponding exit
	StopLossPct         *float64 `mapstructure:"stop_loss_pct" json:"stop_loss_pct,omitempty"`
	TrailingStopPct     *float64 `mapstructure:"trailing_stop_pct" json:"trailing_stop_pct,omitempty"`
	TrailAfterProfitPct *float64 `mapstructure:"trail_after_profit_pct" json:"trail_after_profit_pct,omitempty"`

	MinHoldDays int `mapstructure:"min_hold_days" json:"min_hold_days"`

	RSI         RSIConfig         `mapstructure:"rsi" json:"rsi"`
	Volume      VolumeConfig      `mapstructure:"volume" json:"volume"`
	Index       IndexConfig       `mapstructure:"index" json:"index"`
	Fundamental FundamentalConfig `mapstructure:"fundamental" json:"fundamental"`
	PEAD        PEADConfig        `mapstructure:"pead" json:"pead"`
}

// RSIConfig blocks buys into overbought prices.
type RSIConfig struct {
	Enabled    bool    `mapstructure:"enabled" json:"enabled"`
	Period     int     `mapstructure:"period" json:"period"`
	Overbought float64 `mapstructure:"overbought" json:"overbought"`
}

// VolumeConfig requires relative volume to confirm crossovers.
type VolumeConfig struct {
	Enabled          bool    `mapstructure:"enabled" json:"enabled"`
	MAPeriod         int     `mapstructure:"ma_period" json:"ma_period"`
	ConfirmThreshold float64 `mapstructure:"confirm_threshold" json:"confirm_threshold"`
	MinThreshold     float64 `mapstructure:"min_threshold" json:"min_threshold"`
}

// IndexConfig suppresses crossovers while a reference index sells off.
type IndexConfig struct {
	Enabled       bool    `mapstructure:"enabled" json:"enabled"`
	Symbol        string  `mapstructure:"symbol" json:"symbol,omitempty"`
	DropThreshold float64 `mapstructure:"drop_threshold" json:"drop_threshold"`
	Lookback      int     `mapstructure:"lookback" json:"lookback"`
}

// FundamentalConfig blocks trading around earnings dates.
type FundamentalConfig struct {
	Enabled      bool `mapstructure:"enabled" json:"enabled"`
	BlackoutDays int  `mapstructure:"blackout_days" json:"blackout_days"`
}

// PEADConfig trades the post-earnings announcement drift.
type PEADConfig struct {
	Enabled    bool `mapstructure:"enabled" json:"enabled"`
	WindowDays int  `mapstructure:"window_days" json:"window_days"`
}

// DefaultConfig returns a 10/30 crossover with every filter disabled.
func DefaultConfig() Config {
	return Config{
		ShortWindow: 10,
		LongWindow:  30,
		Threshold:   0.01,
		RSI:         RSIConfig{Period: 14, Overbought: 70},
		Volume:      VolumeConfig{MAPeriod: 20, ConfirmThreshold: 1.5, MinThreshold: 0.5},
		Index:       IndexConfig{DropThreshold: 0.02, Lookback: 5},
		Fundamental: FundamentalConfig{BlackoutDays: 3},
		PEAD:        PEADConfig{WindowDays: 7},
	}
}

// Pct returns a pointer to v for the optional exit fields.
func Pct(v float64) *float64 {
	return &v
}

// UsesEarnings reports whether any filter consults the earnings calendar.
func (c Config) UsesEarnings() bool {
	return c.Fundamental.Enabled || c.PEAD.Enabled
}

// Validate checks structural constraints. short >= long is allowed but
// produces a strategy that never signals meaningfully.
func (c Config) Validate() error {
	if c.ShortWindow <= 0 || c.LongWindow <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("moving average windows must be positive, got %d/%d", c.ShortWindow, c.LongWindow))
	}
	if c.Threshold < 0 {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("threshold cannot be negative, got %f", c.Threshold))
	}
	if c.MinHoldDays < 0 {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("min_hold_days cannot be negative, got %d", c.MinHoldDays))
	}
	for name, p := range map[string]*float64{
		"stop_loss_pct":          c.StopLossPct,
		"trailing_stop_pct":      c.TrailingStopPct,
		"trail_after_profit_pct": c.TrailAfterProfitPct,
	} {
		if p != nil && (*p < 0 || *p >= 1) {
			return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("%s must be in [0, 1), got %f", name, *p))
		}
	}
	if c.RSI.Enabled && c.RSI.Period <= 0 {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("rsi period must be positive, got %d", c.RSI.Period))
	}
	if c.Volume.Enabled && c.Volume.MAPeriod <= 0 {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("volume ma_period must be positive, got %d", c.Volume.MAPeriod))
	}
	if c.Index.Enabled && c.Index.Lookback <= 0 {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("index lookback must be positive, got %d", c.Index.Lookback))
	}
	return nil
}

// Label builds the human-readable name of the configuration, e.g.
// "MA(10/30) + SL:15% + RSI<70".
func (c Config) Label() string {
	parts := []string{fmt.Sprintf("MA(%d/%d)", c.ShortWindow, c.LongWindow)}
	if c.StopLossPct != nil && *c.StopLossPct > 0 {
		parts = append(parts, fmt.Sprintf("SL:%d%%", percent(*c.StopLossPct)))
	}
	if c.TrailingStopPct != nil && *c.TrailingStopPct > 0 {
		parts = append(parts, fmt.Sprintf("TS:%d%%", percent(*c.TrailingStopPct)))
	}
	if c.TrailAfterProfitPct != nil && *c.TrailAfterProfitPct > 0 {
		parts = append(parts, fmt.Sprintf("TP>%d%%", percent(*c.TrailAfterProfitPct)))
	}
	if c.MinHoldDays > 0 {
		parts = append(parts, fmt.Sprintf("HOLD:%dd", c.MinHoldDays))
	}
	if c.RSI.Enabled {
		parts = append(parts, fmt.Sprintf("RSI<%g", c.RSI.Overbought))
	}
	if c.Volume.Enabled {
		parts = append(parts, fmt.Sprintf("VOL>%gx", c.Volume.ConfirmThreshold))
	}
	if c.Fundamental.Enabled {
		parts = append(parts, fmt.Sprintf("EARN:%dd", c.Fundamental.BlackoutDays))
	}
	if c.PEAD.Enabled {
		parts = append(parts, fmt.Sprintf("PEAD:%dd", c.PEAD.WindowDays))
	}
	if c.Index.Enabled {
		parts = append(parts, fmt.Sprintf("IDX:%d%%", percent(c.Index.DropThreshold)))
	}
	return strings.Join(parts, " + ")
}

func percent(f float64) int {
	return int(math.Round(f * 100))
}
