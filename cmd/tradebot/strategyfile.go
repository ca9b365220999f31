package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ThomasGit2000/trading-bot/internal/core"
	"github.com/ThomasGit2000/trading-bot/internal/strategy"
)

// loadStrategyFile overlays a JSON strategy config onto the default one.
func loadStrategyFile(path string) (strategy.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return strategy.Config{}, core.WrapError(core.ErrConfigMissing, fmt.Errorf("reading strategy file: %w", err))
	}
	cfg := strategy.DefaultConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return strategy.Config{}, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("parsing strategy file: %w", err))
	}
	return cfg, nil
}
