package strategy

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ThomasGit2000/trading-bot/internal/core"
	"go.uber.org/zap"
)

// Presets is a registry of named strategy configurations.
type Presets struct {
	mu      sync.RWMutex
	configs map[string]Config
	logger  *zap.Logger
}

// NewPresets creates an empty preset registry.
func NewPresets(logger ...*zap.Logger) *Presets {
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}
	return &Presets{
		configs: make(map[string]Config),
		logger:  l,
	}
}

// Register validates cfg and stores it under name, replacing any previous entry.
func (p *Presets) Register(name string, cfg Config) error {
	if name == "" {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("preset name cannot be empty"))
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("preset %s: %w", name, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.configs[name]; exists {
		p.logger.Debug("overriding preset", zap.String("preset", name))
	}
	p.configs[name] = cfg
	return nil
}

// MustRegister is Register for configurations fixed at compile time. It panics
// if cfg is invalid.
func (p *Presets) MustRegister(name string, cfg Config) {
	if err := p.Register(name, cfg); err != nil {
		panic(err)
	}
}

// Get retrieves a preset by name.
func (p *Presets) Get(name string) (Config, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	cfg, ok := p.configs[name]
	return cfg, ok
}

// Lookup is Get with a typed error for unknown names.
func (p *Presets) Lookup(name string) (Config, error) {
	cfg, ok := p.Get(name)
	if !ok {
		return Config{}, core.WrapError(core.ErrStrategyNotFound, fmt.Errorf("unknown preset %q", name))
	}
	return cfg, nil
}

// Names returns the registered preset names in sorted order.
func (p *Presets) Names() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := make([]string, 0, len(p.configs))
	for name := range p.configs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Builtin returns a registry seeded with the stock parameter sets.
func Builtin(logger ...*zap.Logger) *Presets {
	p := NewPresets(logger...)
	for name, cfg := range builtinConfigs() {
		p.MustRegister(name, cfg)
	}
	return p
}

func builtinConfigs() map[string]Config {
	with := func(short, long int, fn func(*Config)) Config {
		cfg := DefaultConfig()
		cfg.ShortWindow = short
		cfg.LongWindow = long
		if fn != nil {
			fn(&cfg)
		}
		return cfg
	}
	exits := func(sl, ts, tp float64, hold int) func(*Config) {
		return func(c *Config) {
			c.StopLossPct = Pct(sl)
			c.TrailingStopPct = Pct(ts)
			c.TrailAfterProfitPct = Pct(tp)
			c.MinHoldDays = hold
		}
	}

	return map[string]Config{
		"default":   DefaultConfig(),
		"momentum":  with(5, 20, exits(0.15, 0.12, 0.08, 5)),
		"scalper":   with(2, 5, exits(0.05, 0.04, 0.02, 1)),
		"big-trend": with(20, 100, exits(0.30, 0.20, 0.15, 10)),
		"no-stops":  with(10, 30, nil),
		"buy-the-dip": with(3, 10, func(c *Config) {
			exits(0.20, 0.15, 0.10, 3)(c)
			c.RSI.Enabled = true
		}),
		"trend-rider": with(10, 50, exits(0.25, 0.25, 0.20, 20)),
		"simple-entry": with(5, 15, func(c *Config) {
			c.StopLossPct = Pct(0.10)
		}),
	}
}
