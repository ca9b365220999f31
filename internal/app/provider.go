package app

import (
	"github.com/ThomasGit2000/trading-bot/internal/collector"
	"github.com/ThomasGit2000/trading-bot/internal/collector/alpaca"
	"github.com/ThomasGit2000/trading-bot/internal/collector/yahoo"
	"github.com/ThomasGit2000/trading-bot/internal/config"
	"github.com/ThomasGit2000/trading-bot/internal/metrics"
	"github.com/ThomasGit2000/trading-bot/internal/storage/bars"
	"go.uber.org/zap"
)

// Providers registers every history provider the data config can reach.
// Alpaca needs credentials and is skipped without them.
func Providers(cfg config.DataConfig) *collector.Registry {
	registry := collector.NewRegistry()

	var yopts []yahoo.Option
	if cfg.Yahoo.BaseURL != "" {
		yopts = append(yopts, yahoo.WithBaseURL(cfg.Yahoo.BaseURL))
	}
	if cfg.Timeout > 0 {
		yopts = append(yopts, yahoo.WithTimeout(cfg.Timeout))
	}
	registry.Register(yahoo.New(yopts...))

	if cfg.Alpaca.APIKey != "" && cfg.Alpaca.APISecret != "" {
		registry.Register(alpaca.New(cfg.Alpaca))
	}
	return registry
}

// NewProvider returns the configured provider behind a cache. A cache
// directory adds Parquet write-through; m may be nil.
func NewProvider(cfg config.DataConfig, logger *zap.Logger, m *metrics.Registry) (*collector.Cache, error) {
	provider, err := Providers(cfg).Lookup(cfg.Provider)
	if err != nil {
		return nil, err
	}

	opts := []collector.CacheOption{
		collector.WithTTL(cfg.CacheTTL),
		collector.WithCacheLogger(logger),
	}
	if cfg.CacheDir != "" {
		opts = append(opts, collector.WithStore(bars.NewParquetStore(cfg.CacheDir)))
	}
	if m != nil {
		opts = append(opts, collector.WithLookupHook(m.RecordCacheLookup))
	}

	logger.Debug("history provider ready",
		zap.String("provider", provider.Name()),
		zap.String("cache_dir", cfg.CacheDir),
	)
	return collector.NewCache(provider, opts...), nil
}
