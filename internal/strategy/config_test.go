package strategy

import (
	"errors"
	"testing"

	"github.com/ThomasGit2000/trading-bot/internal/core"
	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig_FiltersDisabled(t *testing.T) {
	cfg := DefaultConfig()

	assert.Nil(t, cfg.StopLossPct)
	assert.Nil(t, cfg.TrailingStopPct)
	assert.Nil(t, cfg.TrailAfterProfitPct)
	assert.False(t, cfg.RSI.Enabled)
	assert.False(t, cfg.Volume.Enabled)
	assert.False(t, cfg.Index.Enabled)
	assert.False(t, cfg.Fundamental.Enabled)
	assert.False(t, cfg.PEAD.Enabled)
	assert.False(t, cfg.UsesEarnings())
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Label(t *testing.T) {
	tests := []struct {
		name string
		cfg  func() Config
		want string
	}{
		{
			name: "plain crossover",
			cfg:  DefaultConfig,
			want: "MA(10/30)",
		},
		{
			name: "all options",
			cfg: func() Config {
				c := DefaultConfig()
				c.StopLossPct = Pct(0.15)
				c.TrailingStopPct = Pct(0.12)
				c.TrailAfterProfitPct = Pct(0.08)
				c.MinHoldDays = 5
				c.RSI.Enabled = true
				c.Volume.Enabled = true
				c.Fundamental.Enabled = true
				c.PEAD.Enabled = true
				c.Index.Enabled = true
				return c
			},
			want: "MA(10/30) + SL:15% + TS:12% + TP>8% + HOLD:5d + RSI<70 + VOL>1.5x + EARN:3d + PEAD:7d + IDX:2%",
		},
		{
			name: "rounding",
			cfg: func() Config {
				c := DefaultConfig()
				c.StopLossPct = Pct(0.29)
				return c
			},
			want: "MA(10/30) + SL:29%",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.cfg().Label())
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero short window", func(c *Config) { c.ShortWindow = 0 }},
		{"negative long window", func(c *Config) { c.LongWindow = -1 }},
		{"negative threshold", func(c *Config) { c.Threshold = -0.01 }},
		{"negative hold", func(c *Config) { c.MinHoldDays = -1 }},
		{"stop loss of 100%", func(c *Config) { c.StopLossPct = Pct(1) }},
		{"rsi without period", func(c *Config) { c.RSI = RSIConfig{Enabled: true} }},
		{"volume without period", func(c *Config) { c.Volume = VolumeConfig{Enabled: true} }},
		{"index without lookback", func(c *Config) { c.Index = IndexConfig{Enabled: true} }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			assert.True(t, errors.Is(err, core.ErrConfigInvalid), "got %v", err)
		})
	}
}
