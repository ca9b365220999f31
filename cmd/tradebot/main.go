package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ThomasGit2000/trading-bot/internal/app"
	"github.com/ThomasGit2000/trading-bot/internal/config"
	"github.com/ThomasGit2000/trading-bot/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile  string
	debug    bool
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "tradebot",
	Short: "tradebot - moving-average crossover backtester",
	Long: `tradebot replays daily bars through a moving-average crossover strategy
with optional RSI, volume, index and earnings filters and reports the trades,
equity curve and performance statistics.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "minimum log level (debug, info, warn, error)")
}

// setup loads and validates the config and builds the logger.
func setup() (*config.Config, *zap.Logger, error) {
	log, err := logger.New(logger.Options{Development: debug, Level: logLevel})
	if err != nil {
		return nil, nil, err
	}

	var cfg *config.Config
	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, nil, fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.Defaults()
		log.Debug("no config file specified, using defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, log, nil
}

// openApp is setup plus the application with persistence.
func openApp(ctx context.Context, opts ...app.Option) (*app.App, *config.Config, *zap.Logger, error) {
	cfg, log, err := setup()
	if err != nil {
		return nil, nil, nil, err
	}
	a, err := app.Open(ctx, cfg, log, opts...)
	if err != nil {
		return nil, nil, nil, err
	}
	return a, cfg, log, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
